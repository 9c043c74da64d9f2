/*
Package params computes the per-product parameters consumed by the shelf
allocation optimizer.

PURPOSE:
  Given the full product table and a ParamConfig, the Engine produces one
  ParameterRow per product: profit (rho), demand share (delta), impulse
  weight (iota), units per display (mu), min/max displays and shelf
  footprint (zeta). Slotting fees are attached afterwards by the fees stage.

AGGREGATES:
  Two values couple every row to the whole table and are computed once,
  before any row:
  - TotalSales: denominator of the demand share (sum over all products)
  - MedianSales: population median, threshold of the display tier
  Rows read them only; no row can observe a partially built aggregate.

EXECUTION:
  1. Validate the table and compute aggregates
  2. Draw min displays (skewed policy only), sequentially in row order
  3. Map rows, serially or with cfg.Workers goroutines (same output)
  4. Merge per-row diagnostics in row order

FATAL CONDITIONS:
  - Reorder level or quantity that is negative, not finite, or implies more
    than MaxDisplays displays: DataError naming the row

RECOVERED CONDITIONS:
  - Unmapped category: width = cfg.DefaultUnitWidth, ConfigInconsistency
  - min_displays > max_displays: min clamped to max, CapacityViolation

EXAMPLE:
  engine := params.NewEngine(profile.Params, table)
  result, err := engine.Compute(ctx, products, synth.NewSource(42))

SEE ALSO:
  - policy.go: Impulse and display policies
  - fees/fees.go: Slotting fees for the same rows
*/
package params

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/warp/shelf-engine/catalog"
	"github.com/warp/shelf-engine/synth"
)

// MaxDisplays bounds the display count derived for one product.
const MaxDisplays = math.MaxInt32

// Aggregates are the dataset-wide values shared read-only by every row.
type Aggregates struct {
	TotalSales  float64
	MedianSales float64
}

// Result is the output of Compute.
type Result struct {
	Rows        []synth.ParameterRow
	Aggregates  Aggregates
	Diagnostics synth.Diagnostics
}

// Engine computes product parameters.
type Engine struct {
	cfg   synth.ParamConfig
	table *catalog.Table
	imp   impulseClassifier
}

// NewEngine creates an engine. The config is validated by Compute. A nil
// table maps no category.
func NewEngine(cfg synth.ParamConfig, table *catalog.Table) *Engine {
	return &Engine{cfg: cfg, table: table, imp: newImpulseClassifier(cfg.Impulse)}
}

// Compute derives the parameters of every product. src is only read when the
// min display policy draws.
func (e *Engine) Compute(ctx context.Context, products []synth.Product, src *synth.Source) (*Result, error) {
	if err := ValidateConfig(e.cfg); err != nil {
		return nil, err
	}
	agg, err := ComputeAggregates(products)
	if err != nil {
		return nil, err
	}
	if err := e.checkReorder(products, agg); err != nil {
		return nil, err
	}

	mins, err := e.drawMinimums(products, src)
	if err != nil {
		return nil, err
	}

	rows := make([]synth.ParameterRow, len(products))
	diags := make([]synth.Diagnostics, len(products))

	compute := func(i int) {
		rows[i], diags[i] = e.computeRow(products[i], agg, mins[i])
	}

	if e.cfg.Workers < 2 || len(products) < 2 {
		for i := range products {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			compute(i)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(e.cfg.Workers)
		for i := range products {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				compute(i)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	result := &Result{Rows: rows, Aggregates: agg}
	for _, d := range diags {
		result.Diagnostics.Merge(d)
	}
	return result, nil
}

// ComputeAggregates returns the total and the population median of the
// sales volume. The median of an even-sized table is the mean of the two
// middle values.
func ComputeAggregates(products []synth.Product) (Aggregates, error) {
	if len(products) == 0 {
		return Aggregates{}, &synth.DataError{Reason: "product table has no rows"}
	}

	volumes := make([]float64, len(products))
	total := 0.0
	for i, p := range products {
		if p.SalesVolume < 0 || math.IsNaN(p.SalesVolume) || math.IsInf(p.SalesVolume, 0) {
			return Aggregates{}, &synth.DataError{
				Row: p.Row, Column: "Sales_Volume", Value: fmt.Sprint(p.SalesVolume),
				Reason: "sales volume must be a finite non-negative number",
			}
		}
		volumes[i] = p.SalesVolume
		total += p.SalesVolume
	}
	if total <= 0 {
		return Aggregates{}, &synth.DataError{Reason: "total sales volume is zero, demand share is undefined"}
	}

	sort.Float64s(volumes)
	n := len(volumes)
	median := volumes[n/2]
	if n%2 == 0 {
		median = (volumes[n/2-1] + volumes[n/2]) / 2
	}
	return Aggregates{TotalSales: total, MedianSales: median}, nil
}

// checkReorder rejects reorder values whose display counts do not fit an int.
func (e *Engine) checkReorder(products []synth.Product, agg Aggregates) error {
	var errs []error
	for _, p := range products {
		bad := false
		for _, cell := range []struct {
			col string
			val float64
		}{{"Reorder_Level", p.ReorderLevel}, {"Reorder_Quantity", p.ReorderQuantity}} {
			if cell.val < 0 || math.IsNaN(cell.val) || math.IsInf(cell.val, 0) {
				errs = append(errs, &synth.DataError{
					Row: p.Row, Column: cell.col, Value: fmt.Sprint(cell.val),
					Reason: "reorder value must be a finite non-negative number",
				})
				bad = true
			}
		}
		if bad {
			continue
		}
		mu, _ := e.display(p, agg)
		if (p.ReorderLevel+p.ReorderQuantity)/float64(mu) > MaxDisplays {
			errs = append(errs, &synth.DataError{
				Row: p.Row, Column: "Reorder_Quantity", Value: fmt.Sprint(p.ReorderQuantity),
				Reason: fmt.Sprintf("reorder level plus quantity exceeds %d displays of %d units", MaxDisplays, mu),
			})
		}
	}
	return errors.Join(errs...)
}

// display returns the units per display and facings of a product's tier.
func (e *Engine) display(p synth.Product, agg Aggregates) (units, facings int) {
	d := e.cfg.Display
	if p.SalesVolume > agg.MedianSales {
		return d.HighUnits, d.HighFacings
	}
	return d.LowUnits, d.LowFacings
}

func (e *Engine) computeRow(p synth.Product, agg Aggregates, drawnMin int) (synth.ParameterRow, synth.Diagnostics) {
	var diag synth.Diagnostics
	cfg := e.cfg

	row := synth.ParameterRow{Product: p}
	row.Profit = p.UnitPrice.Mul(cfg.MarginRate)
	row.DemandShare = p.SalesVolume / agg.TotalSales
	row.ImpulseWeight = e.imp.weight(p, row.DemandShare)

	var facings int
	row.UnitsPerDisplay, facings = e.display(p, agg)

	mu := float64(row.UnitsPerDisplay)
	row.MaxDisplays = int(math.Floor((p.ReorderLevel + p.ReorderQuantity) / mu))
	switch cfg.Display.MinPolicy {
	case synth.MinSkewedDraw:
		row.MinDisplays = drawnMin
	default:
		row.MinDisplays = max(1, int(math.Ceil(p.ReorderLevel/mu)))
	}
	if row.MinDisplays > row.MaxDisplays {
		diag.Violations = append(diag.Violations, synth.CapacityViolation{
			Product: p.Name, Row: p.Row, Min: row.MinDisplays, Max: row.MaxDisplays,
		})
		row.MinDisplays = row.MaxDisplays
	}

	width := cfg.DefaultUnitWidth
	if entry, ok := e.table.Lookup(p.Category); ok {
		width = entry.UnitWidth
	} else {
		diag.Inconsistencies = append(diag.Inconsistencies, synth.ConfigInconsistency{
			Category: p.Category, Product: p.Name, Row: p.Row,
			Default: fmt.Sprintf("unit width %v", cfg.DefaultUnitWidth),
		})
	}
	row.ShelfFootprint = width * float64(facings)

	return row, diag
}

// drawMinimums consumes one draw per product, in row order, when the skewed
// policy is active. Other policies consume nothing.
func (e *Engine) drawMinimums(products []synth.Product, src *synth.Source) ([]int, error) {
	mins := make([]int, len(products))
	d := e.cfg.Display
	if d.MinPolicy != synth.MinSkewedDraw {
		return mins, nil
	}
	if src == nil {
		return nil, fmt.Errorf("skewed min display policy needs a random source: %w", synth.ErrInvalidConfig)
	}
	for i := range products {
		mins[i] = src.Weighted(d.MinChoices, d.MinWeights)
	}
	return mins, nil
}
