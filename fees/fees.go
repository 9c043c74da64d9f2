/*
Package fees generates the per-product, per-level slotting fees.

PURPOSE:
  A supplier pays a slotting fee to place a product on a shelf level. For
  every product and level the generator draws a base fee, scales it by the
  level's quality multiplier and then by the store traffic multiplier:

    base    ~ U[BaseMin, BaseMax)
    omega   = round(base * quality[level], 2)
    omega'  = round(omega * traffic, 2)

RANDOM STREAM ORDER:
  Levels outer (1..L), products inner (0..N-1): exactly N*L draws, in the
  same order on every run. This matches the per-level column generation of
  the fee table and keeps a seed's output stable when rows are zeroed.

NO-BRAND POLICY:
  Products whose supplier is a configured sentinel ("No Brand", ...) pay
  nothing. Their fees are drawn like every other row and zeroed after
  rounding, so the stream seen by the other products is unchanged.

SEE ALSO:
  - synth/random.go: Source and the run-wide consumption order
  - params/engine.go: Rows these fees are attached to
*/
package fees

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/warp/shelf-engine/synth"
)

// feePlaces is the number of decimal digits kept on level and traffic fees.
const feePlaces = 2

// Table is an N×L fee table; Table[i][k] is product i on level k+1.
type Table [][]synth.LevelFee

// Levels returns the number of levels of the table.
func (t Table) Levels() int {
	if len(t) == 0 {
		return 0
	}
	return len(t[0])
}

// Generator produces fee tables for one FeeConfig.
type Generator struct {
	cfg synth.FeeConfig
}

// NewGenerator creates a generator. The config is validated by Generate.
func NewGenerator(cfg synth.FeeConfig) *Generator {
	return &Generator{cfg: cfg}
}

// Validate checks the fee configuration.
func (g *Generator) Validate() error {
	cfg := g.cfg
	if cfg.BaseMin < 0 || cfg.BaseMax <= cfg.BaseMin {
		return fmt.Errorf("base fee range [%v, %v) is empty or negative: %w", cfg.BaseMin, cfg.BaseMax, synth.ErrInvalidConfig)
	}
	if err := cfg.Quality.Validate(); err != nil {
		return fmt.Errorf("shelf quality: %w", err)
	}
	if cfg.Traffic.IsNegative() {
		return fmt.Errorf("traffic multiplier %s is negative: %w", cfg.Traffic, synth.ErrInvalidConfig)
	}
	return nil
}

// Generate draws the fee table for n products.
func (g *Generator) Generate(n int, src *synth.Source) (Table, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("negative product count %d: %w", n, synth.ErrInvalidConfig)
	}
	if src == nil {
		return nil, fmt.Errorf("fee generation needs a random source: %w", synth.ErrInvalidConfig)
	}

	levels := g.cfg.Quality.Len()
	table := make(Table, n)
	for i := range table {
		table[i] = make([]synth.LevelFee, levels)
	}

	for k, lm := range g.cfg.Quality {
		for i := 0; i < n; i++ {
			base := decimal.NewFromFloat(src.Uniform(g.cfg.BaseMin, g.cfg.BaseMax))
			levelFee := base.Mul(lm.Value).Round(feePlaces)
			table[i][k] = synth.LevelFee{
				Level:      lm.Level,
				Base:       base,
				LevelFee:   levelFee,
				TrafficFee: levelFee.Mul(g.cfg.Traffic).Round(feePlaces),
			}
		}
	}
	return table, nil
}

// GenerateFor draws the table for products and applies the no-brand policy.
// It returns the table and the number of zeroed rows.
func (g *Generator) GenerateFor(products []synth.Product, src *synth.Source) (Table, int, error) {
	table, err := g.Generate(len(products), src)
	if err != nil {
		return nil, 0, err
	}
	zeroed := table.ZeroSuppliers(products, g.cfg.NoBrandSuppliers)
	return table, zeroed, nil
}

// ZeroSuppliers zeroes the level and traffic fees of every product whose
// supplier matches one of sentinels (case-insensitive, trimmed). Base fees are
// kept for auditing. It returns the number of zeroed rows.
func (t Table) ZeroSuppliers(products []synth.Product, sentinels []string) int {
	if len(sentinels) == 0 {
		return 0
	}
	set := make(map[string]bool, len(sentinels))
	for _, s := range sentinels {
		set[strings.ToLower(strings.TrimSpace(s))] = true
	}

	zeroed := 0
	for i, p := range products {
		if i >= len(t) || !set[strings.ToLower(strings.TrimSpace(p.Supplier))] {
			continue
		}
		for k := range t[i] {
			t[i][k].LevelFee = decimal.Zero
			t[i][k].TrafficFee = decimal.Zero
		}
		zeroed++
	}
	return zeroed
}

// Attach copies row i of the table into rows[i].Fees.
func (t Table) Attach(rows []synth.ParameterRow) error {
	if len(t) != len(rows) {
		return fmt.Errorf("fee table has %d rows, parameter table %d", len(t), len(rows))
	}
	for i := range rows {
		fees := make([]synth.LevelFee, len(t[i]))
		copy(fees, t[i])
		rows[i].Fees = fees
	}
	return nil
}
