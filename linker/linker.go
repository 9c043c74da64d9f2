/*
Package linker attaches environment attributes to products.

PURPOSE:
  The optimizer must know which fixture a product needs and whether it is an
  essential item. The linker maps every product to a SupplementRow:

    storage   = catalog storage of the product's category (S when unmapped)
    essential = the name contains an essential keyword (case-insensitive)

  Linking is a pure per-row mapping; the output keeps the input order.

SEE ALSO:
  - catalog/catalog.go: Category -> storage type
  - tabular/writer.go: Supplement artifact
*/
package linker

import (
	"strings"

	"github.com/warp/shelf-engine/catalog"
	"github.com/warp/shelf-engine/synth"
)

// Linker maps products to supplement rows.
type Linker struct {
	table    *catalog.Table
	keywords []string
}

// New creates a linker. Empty keywords are ignored.
func New(table *catalog.Table, cfg synth.LinkConfig) *Linker {
	keywords := make([]string, 0, len(cfg.EssentialKeywords))
	for _, k := range cfg.EssentialKeywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			keywords = append(keywords, k)
		}
	}
	return &Linker{table: table, keywords: keywords}
}

// IsEssential reports whether name contains any essential keyword.
func (l *Linker) IsEssential(name string) bool {
	lower := strings.ToLower(name)
	for _, k := range l.keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// StorageOf returns the storage type of a category and whether it was mapped.
func (l *Linker) StorageOf(category string) (synth.StorageType, bool) {
	if l.table != nil {
		if e, ok := l.table.Lookup(category); ok {
			return e.Storage, true
		}
	}
	return synth.StorageStandard, false
}

// Link builds one supplement row per product. Each unmapped category yields a
// ConfigInconsistency and storage S.
func (l *Linker) Link(products []synth.Product) ([]synth.SupplementRow, synth.Diagnostics) {
	var diag synth.Diagnostics
	rows := make([]synth.SupplementRow, len(products))
	for i, p := range products {
		storage, ok := l.StorageOf(p.Category)
		if !ok {
			diag.Inconsistencies = append(diag.Inconsistencies, synth.ConfigInconsistency{
				Category: p.Category,
				Product:  p.Name,
				Row:      p.Row,
				Default:  "storage " + string(synth.StorageStandard),
			})
		}
		rows[i] = synth.SupplementRow{
			ProductName: p.Name,
			Storage:     storage,
			Essential:   l.IsEssential(p.Name),
		}
	}
	return rows, diag
}
