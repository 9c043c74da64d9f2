package profiles

import _ "embed"

// DemoProductsName is the source name reported for the demo catalog.
const DemoProductsName = "demo_products.csv"

//go:embed demo_products.csv
var demoProducts []byte

// DemoProducts returns a small grocery product table in the source format.
// It covers every baseline category, the high-impulse list, no-brand
// suppliers and one product in a category the baseline does not map.
func DemoProducts() []byte {
	out := make([]byte, len(demoProducts))
	copy(out, demoProducts)
	return out
}
