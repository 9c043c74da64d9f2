/*
config.go - Run profile and per-stage configuration

PURPOSE:
  A Profile is the complete, immutable description of how a run turns a
  product table into optimizer inputs. Each stage receives only its own
  section, so no stage reads global state.

KEY CONCEPTS:
  - ParamConfig: margin rate, impulse policy, display tiers and min policy
  - FeeConfig: base fee range, per-level quality multipliers, traffic, no-brand sentinels
  - EnvironmentConfig: store geometry, daily customers, per-level impulse multipliers
  - LinkConfig: essential-item keywords
  - LevelMultipliers: ordered level -> multiplier mapping

IMPULSE POLICIES:
  ImpulseFlat:
    - iota = High for high-impulse products, Low otherwise
  ImpulseDemandScaled:
    - iota = delta * High for high-impulse products, delta * Low otherwise
  A profile selects exactly one; the two are never blended.

MIN DISPLAY POLICIES:
  MinReorderCeil:
    - l_p = max(1, ceil(reorder_level / mu))
  MinSkewedDraw:
    - l_p drawn from MinChoices with MinWeights, in product order

SEE ALSO:
  - factory/profile.go: JSON <-> Profile conversion with defaults and validation
  - profiles/presets.go: Named profile presets
*/
package synth

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PROFILE
// =============================================================================

// Profile bundles every stage configuration of a run.
type Profile struct {
	Name        string
	Categories  []CategoryEntry
	Params      ParamConfig
	Fees        FeeConfig
	Environment EnvironmentConfig
	Link        LinkConfig
}

// CategoryEntry maps a product category to its unit width and storage type.
type CategoryEntry struct {
	Category  string
	UnitWidth float64
	Storage   StorageType
}

// =============================================================================
// PARAMETERS
// =============================================================================

type ImpulsePolicy string

const (
	ImpulseFlat         ImpulsePolicy = "flat"
	ImpulseDemandScaled ImpulsePolicy = "demand_scaled"
)

type MinDisplayPolicy string

const (
	MinReorderCeil MinDisplayPolicy = "reorder_ceil"
	MinSkewedDraw  MinDisplayPolicy = "skewed_draw"
)

// ParamConfig configures the parameter engine.
type ParamConfig struct {
	MarginRate decimal.Decimal

	Impulse ImpulseConfig
	Display DisplayConfig

	// DefaultUnitWidth is used for categories absent from the category table.
	DefaultUnitWidth float64

	// Workers bounds the goroutines used for the per-row map. Values < 2 run serially.
	Workers int
}

// ImpulseConfig selects the impulse formula and the high-impulse set.
type ImpulseConfig struct {
	Policy ImpulsePolicy
	High   float64
	Low    float64

	// A product is high-impulse if its category is in Categories or its
	// name is in Products. Both comparisons ignore case.
	Categories []string
	Products   []string
}

// DisplayConfig configures units per display, facings and minimum displays.
type DisplayConfig struct {
	HighUnits   int
	LowUnits    int
	HighFacings int
	LowFacings  int

	MinPolicy  MinDisplayPolicy
	MinChoices []int
	MinWeights []float64
}

// =============================================================================
// FEES
// =============================================================================

// FeeConfig configures the slotting fee generator.
type FeeConfig struct {
	BaseMin float64
	BaseMax float64

	// Quality holds the shelf-quality multiplier of every level 1..L.
	Quality LevelMultipliers
	Traffic decimal.Decimal

	// NoBrandSuppliers lists supplier names that pay no slotting fee.
	NoBrandSuppliers []string
}

// =============================================================================
// ENVIRONMENT
// =============================================================================

// EnvironmentConfig configures the store layout and the global scalars.
type EnvironmentConfig struct {
	Layout         LayoutConfig
	DailyCustomers int
	Traffic        decimal.Decimal
	// LevelImpulse holds the impulse multiplier (Lambda) of every level.
	LevelImpulse LevelMultipliers
}

// LayoutConfig describes the deterministic shelf geometry.
type LayoutConfig struct {
	Aisles       int
	Depths       int
	AisleSpacing float64
	PairOffset   float64
	DepthSpacing float64

	Fridges  WallRun
	Freezers WallRun

	ShelfWidth float64
	Levels     int
}

// WallRun is a straight row of perimeter units. Along is the coordinate
// that stays fixed (y for the back wall, x for the side wall).
type WallRun struct {
	Count int
	Start float64
	Step  float64
	Along float64
}

// =============================================================================
// LINK
// =============================================================================

// LinkConfig configures the product-environment linker.
type LinkConfig struct {
	EssentialKeywords []string
}

// =============================================================================
// LEVEL MULTIPLIERS - Ordered level -> multiplier mapping
// =============================================================================

// LevelMultiplier is the multiplier of one shelf level.
type LevelMultiplier struct {
	Level int
	Value decimal.Decimal
}

// LevelMultipliers is ordered by level, starting at 1 with no gaps.
// Methods never mutate the receiver.
type LevelMultipliers []LevelMultiplier

// NewLevelMultipliers builds levels 1..len(values) from values.
func NewLevelMultipliers(values ...float64) LevelMultipliers {
	out := make(LevelMultipliers, len(values))
	for i, v := range values {
		out[i] = LevelMultiplier{Level: i + 1, Value: decimal.NewFromFloat(v)}
	}
	return out
}

// Len returns the number of levels.
func (m LevelMultipliers) Len() int { return len(m) }

// At returns the multiplier of level (1-based).
func (m LevelMultipliers) At(level int) (decimal.Decimal, bool) {
	if level < 1 || level > len(m) {
		return decimal.Zero, false
	}
	return m[level-1].Value, true
}

// Clone returns an independent copy.
func (m LevelMultipliers) Clone() LevelMultipliers {
	out := make(LevelMultipliers, len(m))
	copy(out, m)
	return out
}

// Validate checks that levels run 1..L without gaps and that no multiplier is negative.
func (m LevelMultipliers) Validate() error {
	if len(m) == 0 {
		return fmt.Errorf("no shelf levels configured: %w", ErrInvalidConfig)
	}
	for i, lm := range m {
		if lm.Level != i+1 {
			return fmt.Errorf("level %d out of order at position %d: %w", lm.Level, i, ErrInvalidConfig)
		}
		if lm.Value.IsNegative() {
			return fmt.Errorf("level %d has negative multiplier %s: %w", lm.Level, lm.Value, ErrInvalidConfig)
		}
	}
	return nil
}
