/*
Package catalog maps product categories to unit shelf width and storage type.

PURPOSE:
  The category table is the only place that knows how wide one unit of a
  category is and which fixture it needs. Lookup never guesses: an unknown
  category returns ok == false and the caller applies its own default
  (the parameter engine falls back to a configured width, the linker to
  Standard storage) and records a ConfigInconsistency.

MATCHING:
  Category names are compared after trimming spaces and ignoring case, so
  "Dairy", "dairy " and "DAIRY" are the same category.

SEE ALSO:
  - synth/config.go: CategoryEntry
  - profiles/presets.go: The default grocery category table
*/
package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/warp/shelf-engine/synth"
)

// Entry is the resolved data of one category.
type Entry struct {
	Category  string
	UnitWidth float64
	Storage   synth.StorageType
}

// Table is an immutable category lookup.
type Table struct {
	entries map[string]Entry
}

// NewTable builds a table from entries. Duplicate categories, non-positive
// widths and unknown storage codes are rejected.
func NewTable(entries []synth.CategoryEntry) (*Table, error) {
	t := &Table{entries: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		k := key(e.Category)
		if k == "" {
			return nil, fmt.Errorf("category table: empty category name: %w", synth.ErrInvalidConfig)
		}
		if _, dup := t.entries[k]; dup {
			return nil, fmt.Errorf("category table: duplicate category %q: %w", e.Category, synth.ErrInvalidConfig)
		}
		if e.UnitWidth <= 0 {
			return nil, fmt.Errorf("category table: %q has width %v: %w", e.Category, e.UnitWidth, synth.ErrInvalidConfig)
		}
		if !e.Storage.Valid() {
			return nil, fmt.Errorf("category table: %q has storage %q: %w", e.Category, e.Storage, synth.ErrInvalidConfig)
		}
		t.entries[k] = Entry{Category: strings.TrimSpace(e.Category), UnitWidth: e.UnitWidth, Storage: e.Storage}
	}
	return t, nil
}

// Lookup returns the entry of category and whether it is mapped. A nil table
// maps nothing.
func (t *Table) Lookup(category string) (Entry, bool) {
	if t == nil {
		return Entry{}, false
	}
	e, ok := t.entries[key(category)]
	return e, ok
}

// Categories returns the mapped category names, sorted.
func (t *Table) Categories() []string {
	out := make([]string, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, e.Category)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of mapped categories.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

func key(category string) string {
	return strings.ToLower(strings.TrimSpace(category))
}
