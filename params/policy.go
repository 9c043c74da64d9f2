package params

import (
	"fmt"
	"strings"

	"github.com/warp/shelf-engine/synth"
)

// impulseClassifier decides the impulse tier of a product and applies the
// configured formula.
type impulseClassifier struct {
	cfg        synth.ImpulseConfig
	categories map[string]bool
	products   map[string]bool
}

func newImpulseClassifier(cfg synth.ImpulseConfig) impulseClassifier {
	c := impulseClassifier{
		cfg:        cfg,
		categories: make(map[string]bool, len(cfg.Categories)),
		products:   make(map[string]bool, len(cfg.Products)),
	}
	for _, cat := range cfg.Categories {
		c.categories[normalize(cat)] = true
	}
	for _, name := range cfg.Products {
		c.products[normalize(name)] = true
	}
	return c
}

// isHigh reports whether p belongs to the high-impulse set.
func (c impulseClassifier) isHigh(p synth.Product) bool {
	return c.categories[normalize(p.Category)] || c.products[normalize(p.Name)]
}

func (c impulseClassifier) weight(p synth.Product, demandShare float64) float64 {
	tier := c.cfg.Low
	if c.isHigh(p) {
		tier = c.cfg.High
	}
	if c.cfg.Policy == synth.ImpulseDemandScaled {
		return demandShare * tier
	}
	return tier
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ValidateConfig checks a ParamConfig before any row is computed.
func ValidateConfig(cfg synth.ParamConfig) error {
	if cfg.MarginRate.IsNegative() {
		return fmt.Errorf("margin rate %s is negative: %w", cfg.MarginRate, synth.ErrInvalidConfig)
	}
	switch cfg.Impulse.Policy {
	case synth.ImpulseFlat, synth.ImpulseDemandScaled:
	default:
		return fmt.Errorf("unknown impulse policy %q: %w", cfg.Impulse.Policy, synth.ErrInvalidConfig)
	}

	d := cfg.Display
	if d.HighUnits <= 0 || d.LowUnits <= 0 {
		return fmt.Errorf("units per display must be positive (high %d, low %d): %w", d.HighUnits, d.LowUnits, synth.ErrInvalidConfig)
	}
	if d.HighFacings <= 0 || d.LowFacings <= 0 {
		return fmt.Errorf("facings must be positive (high %d, low %d): %w", d.HighFacings, d.LowFacings, synth.ErrInvalidConfig)
	}
	switch d.MinPolicy {
	case synth.MinReorderCeil:
	case synth.MinSkewedDraw:
		if len(d.MinChoices) == 0 || len(d.MinChoices) != len(d.MinWeights) {
			return fmt.Errorf("skewed min draw needs matching choices and weights (%d vs %d): %w",
				len(d.MinChoices), len(d.MinWeights), synth.ErrInvalidConfig)
		}
		total := 0.0
		for i, w := range d.MinWeights {
			if w < 0 {
				return fmt.Errorf("min weight %d is negative: %w", i, synth.ErrInvalidConfig)
			}
			total += w
		}
		if total <= 0 {
			return fmt.Errorf("min weights sum to zero: %w", synth.ErrInvalidConfig)
		}
		for _, c := range d.MinChoices {
			if c < 0 {
				return fmt.Errorf("min display choice %d is negative: %w", c, synth.ErrInvalidConfig)
			}
		}
	default:
		return fmt.Errorf("unknown min display policy %q: %w", d.MinPolicy, synth.ErrInvalidConfig)
	}

	if cfg.DefaultUnitWidth <= 0 {
		return fmt.Errorf("default unit width must be positive: %w", synth.ErrInvalidConfig)
	}
	return nil
}
