/*
Package profiles provides named profile presets and a demo product catalog.

These functions build JSON profile documents for the store scenarios the
engine ships with. They construct JSON directly, so the package does not
depend on the factory; every preset is parsed by factory.ParseProfile like a
user-supplied profile.

PRESETS:
  grocery-baseline        margin 0.30, flat impulse 0.7/0.1, reorder-ceil minimums
  discount-demand-scaled  margin 0.03, demand-scaled impulse, skewed minimum draw,
                          no-brand suppliers pay no slotting fee
  private-label           margin 0.15, flat impulse, no-brand suppliers pay no fee

USAGE:
  import "github.com/warp/shelf-engine/profiles"

  doc, err := profiles.Lookup("discount-demand-scaled")
  profile, err := factory.NewProfileFactory().ParseProfile(doc)
*/
package profiles

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownPreset is returned by Lookup for names not in the registry.
var ErrUnknownPreset = errors.New("unknown profile preset")

// Preset names.
const (
	GroceryBaseline      = "grocery-baseline"
	DiscountDemandScaled = "discount-demand-scaled"
	PrivateLabel         = "private-label"
)

// DefaultPreset is used when no profile is selected.
const DefaultPreset = GroceryBaseline

// noBrandSuppliers are the supplier sentinels of the no-brand presets.
var noBrandSuppliers = []string{"No Brand", "Unbranded", "Generic"}

var registry = map[string]func() []byte{
	GroceryBaseline:      GroceryBaselineJSON,
	DiscountDemandScaled: DiscountDemandScaledJSON,
	PrivateLabel:         PrivateLabelJSON,
}

// Names returns the preset names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the JSON document of a preset.
func Lookup(name string) ([]byte, error) {
	build, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownPreset)
	}
	return build(), nil
}

// GroceryBaselineJSON returns the baseline grocery store profile. Every
// omitted section takes the factory defaults, which are this store.
func GroceryBaselineJSON() []byte {
	pj := map[string]interface{}{
		"name": GroceryBaseline,
		"params": map[string]interface{}{
			"margin_rate": "0.30",
			"impulse": map[string]interface{}{
				"policy": "flat",
				"high":   0.7,
				"low":    0.1,
			},
			"display": map[string]interface{}{
				"min_policy": "reorder_ceil",
			},
		},
	}
	return marshal(pj)
}

// DiscountDemandScaledJSON returns the discount store profile: thin margins,
// impulse weight proportional to demand share, randomized minimum displays.
func DiscountDemandScaledJSON() []byte {
	pj := map[string]interface{}{
		"name": DiscountDemandScaled,
		"params": map[string]interface{}{
			"margin_rate": "0.03",
			"impulse": map[string]interface{}{
				"policy": "demand_scaled",
				"high":   0.7,
				"low":    0.1,
			},
			"display": map[string]interface{}{
				"min_policy":  "skewed_draw",
				"min_choices": []int{1, 2, 3},
				"min_weights": []float64{0.6, 0.3, 0.1},
			},
		},
		"fees": map[string]interface{}{
			"no_brand_suppliers": noBrandSuppliers,
		},
	}
	return marshal(pj)
}

// PrivateLabelJSON returns the private-label store profile.
func PrivateLabelJSON() []byte {
	pj := map[string]interface{}{
		"name": PrivateLabel,
		"params": map[string]interface{}{
			"margin_rate": "0.15",
			"impulse": map[string]interface{}{
				"policy": "flat",
			},
		},
		"fees": map[string]interface{}{
			"no_brand_suppliers": noBrandSuppliers,
		},
	}
	return marshal(pj)
}

func marshal(v interface{}) []byte {
	b, _ := json.MarshalIndent(v, "", "  ")
	return b
}
