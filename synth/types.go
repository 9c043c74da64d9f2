/*
Package synth provides the core types of the shelf parameter synthesis engine.

PURPOSE:
  This package holds the data model shared by every stage of a synthesis run:
  the raw product records, the derived per-product parameters, the store's
  shelves and distance matrix, the global scalars and the product-environment
  supplement. The stage packages (params, fees, layout, linker) consume and
  produce these types; none of them own a private copy of the model.

KEY CONCEPTS IN THIS FILE (types.go):
  - Product: One row of the source product table
  - ParameterRow: Product plus every value derived for the optimizer
  - LevelFee: Slotting fee triple (base, level, traffic) for one shelf level
  - Shelf: A physical display unit placed in the 2-D store plane
  - Scalar: Named global value (Theta, Tau, Lambda_k)
  - SupplementRow: Storage type and essential flag for a product

DESIGN PRINCIPLES:
  1. Money is decimal: prices, profit and fees use decimal.Decimal so the
     2-digit fee rounding is exact and reproducible
  2. Snapshots: every value is recomputed per run, nothing is updated in place
  3. Source rows travel with products so errors can name the offending row

SEE ALSO:
  - config.go: Profile and per-stage configuration
  - errors.go: Error taxonomy
  - matrix.go: DistanceMatrix
*/
package synth

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// STORAGE TYPE
// =============================================================================

// StorageType is the kind of fixture a product needs. The string values are
// the single-letter codes the optimizer and the plotting tools read.
type StorageType string

const (
	StorageStandard StorageType = "S"
	StorageFridge   StorageType = "R"
	StorageFreezer  StorageType = "F"
)

// Label returns the human-readable name of the storage type.
func (s StorageType) Label() string {
	switch s {
	case StorageStandard:
		return "Standard"
	case StorageFridge:
		return "Fridge"
	case StorageFreezer:
		return "Freezer"
	default:
		return "Unknown"
	}
}

// Valid reports whether s is one of the known storage codes.
func (s StorageType) Valid() bool {
	return s == StorageStandard || s == StorageFridge || s == StorageFreezer
}

// ParseStorageType accepts either the code ("S", "R", "F") or the label
// ("standard", "fridge", "freezer"), case-insensitively.
func ParseStorageType(s string) (StorageType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "s", "standard":
		return StorageStandard, nil
	case "r", "fridge":
		return StorageFridge, nil
	case "f", "freezer":
		return StorageFreezer, nil
	}
	return "", fmt.Errorf("unknown storage type %q: %w", s, ErrInvalidConfig)
}

// =============================================================================
// PRODUCT - Raw source record
// =============================================================================

// Product is one row of the source product table.
type Product struct {
	// Row is the 1-based line in the source table (the header is row 1).
	Row int

	Name     string
	Category string
	Supplier string

	UnitPrice       decimal.Decimal
	SalesVolume     float64
	ReorderLevel    float64
	ReorderQuantity float64
}

// =============================================================================
// PARAMETER ROW - Derived per-product values
// =============================================================================

// ParameterRow carries every value the optimizer needs for one product.
type ParameterRow struct {
	Product Product

	Profit          decimal.Decimal // rho
	DemandShare     float64         // delta
	ImpulseWeight   float64         // iota
	UnitsPerDisplay int             // mu
	MinDisplays     int             // l_p
	MaxDisplays     int             // v_p
	ShelfFootprint  float64         // zeta

	// Fees holds one entry per shelf level, index 0 is level 1.
	Fees []LevelFee
}

// LevelFee is the slotting fee triple for one product on one shelf level.
type LevelFee struct {
	Level      int
	Base       decimal.Decimal // drawn, unrounded
	LevelFee   decimal.Decimal // omega: round(base * quality, 2)
	TrafficFee decimal.Decimal // omega': round(omega * traffic, 2)
}

// =============================================================================
// ENVIRONMENT - Shelves and scalars
// =============================================================================

// Shelf is one display unit in the store plane. The entrance is the origin.
type Shelf struct {
	ID                   int
	Type                 StorageType
	X, Y                 float64
	Width                float64
	Levels               int
	DistanceFromEntrance float64
	HighDemand           bool
}

// Point returns the shelf position.
func (s Shelf) Point() Point {
	return Point{X: s.X, Y: s.Y}
}

// Point is a position in the store plane.
type Point struct {
	X, Y float64
}

// Scalar is one named global value consumed by the optimizer.
type Scalar struct {
	Key   string
	Value float64
}

// Scalar keys.
const (
	ScalarDailyCustomers = "Theta"
	ScalarTraffic        = "Tau"
	scalarLevelPrefix    = "Lambda_"
)

// LevelScalarKey returns the scalar key for the impulse multiplier of a level.
func LevelScalarKey(level int) string {
	return fmt.Sprintf("%s%d", scalarLevelPrefix, level)
}

// =============================================================================
// SUPPLEMENT
// =============================================================================

// SupplementRow links a product to the store environment.
type SupplementRow struct {
	ProductName string
	Storage     StorageType
	Essential   bool
}
