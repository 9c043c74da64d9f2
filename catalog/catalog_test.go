package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/shelf-engine/catalog"
	"github.com/warp/shelf-engine/synth"
)

func groceryEntries() []synth.CategoryEntry {
	return []synth.CategoryEntry{
		{Category: "Dairy", UnitWidth: 10, Storage: synth.StorageFridge},
		{Category: "Seafood", UnitWidth: 20, Storage: synth.StorageFreezer},
		{Category: "Snacks", UnitWidth: 12, Storage: synth.StorageStandard},
	}
}

func TestLookup_MappedCategory(t *testing.T) {
	table, err := catalog.NewTable(groceryEntries())
	require.NoError(t, err)

	e, ok := table.Lookup("Seafood")
	require.True(t, ok)
	assert.Equal(t, 20.0, e.UnitWidth)
	assert.Equal(t, synth.StorageFreezer, e.Storage)
}

func TestLookup_IgnoresCaseAndSpaces(t *testing.T) {
	table, err := catalog.NewTable(groceryEntries())
	require.NoError(t, err)

	e, ok := table.Lookup("  dAiRy ")
	require.True(t, ok)
	assert.Equal(t, "Dairy", e.Category)
}

func TestLookup_UnmappedReturnsFalse(t *testing.T) {
	// GIVEN: A table without "Frozen Pizza"
	// WHEN: Looking it up
	// THEN: The lookup reports unmapped and returns no default of its own
	table, err := catalog.NewTable(groceryEntries())
	require.NoError(t, err)

	e, ok := table.Lookup("Frozen Pizza")
	assert.False(t, ok)
	assert.Equal(t, catalog.Entry{}, e)
}

func TestNewTable_RejectsBadEntries(t *testing.T) {
	cases := map[string][]synth.CategoryEntry{
		"duplicate": {
			{Category: "Dairy", UnitWidth: 10, Storage: synth.StorageFridge},
			{Category: "dairy", UnitWidth: 11, Storage: synth.StorageFridge},
		},
		"zero width": {{Category: "Dairy", UnitWidth: 0, Storage: synth.StorageFridge}},
		"empty name": {{Category: " ", UnitWidth: 3, Storage: synth.StorageStandard}},
		"storage":    {{Category: "Dairy", UnitWidth: 10, Storage: "X"}},
	}
	for name, entries := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := catalog.NewTable(entries)
			assert.ErrorIs(t, err, synth.ErrInvalidConfig)
		})
	}
}

func TestCategories_Sorted(t *testing.T) {
	table, err := catalog.NewTable(groceryEntries())
	require.NoError(t, err)
	assert.Equal(t, []string{"Dairy", "Seafood", "Snacks"}, table.Categories())
	assert.Equal(t, 3, table.Len())
}

func TestLookup_NilTable(t *testing.T) {
	var table *catalog.Table
	_, ok := table.Lookup("Dairy")
	assert.False(t, ok)
	assert.Equal(t, 0, table.Len())
}
