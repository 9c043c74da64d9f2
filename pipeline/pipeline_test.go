package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/shelf-engine/factory"
	"github.com/warp/shelf-engine/logging"
	"github.com/warp/shelf-engine/pipeline"
	"github.com/warp/shelf-engine/profiles"
	"github.com/warp/shelf-engine/synth"
	"github.com/warp/shelf-engine/synth/store"
	"github.com/warp/shelf-engine/tabular"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func preset(t *testing.T, name string) *synth.Profile {
	t.Helper()
	doc, err := profiles.Lookup(name)
	require.NoError(t, err)
	p, err := factory.NewProfileFactory().ParseProfile(doc)
	require.NoError(t, err)
	return p
}

func demoInput(t *testing.T, profileName string, seed uint64) pipeline.Input {
	t.Helper()
	table, err := tabular.DecodeProducts(bytes.NewReader(profiles.DemoProducts()), profiles.DemoProductsName)
	require.NoError(t, err)
	return pipeline.Input{
		Products:    table.Products,
		HasSupplier: table.HasSupplier,
		SourceName:  profiles.DemoProductsName,
		Profile:     preset(t, profileName),
		Seed:        seed,
	}
}

func twoProducts() []synth.Product {
	return []synth.Product{
		{Row: 2, Name: "A", Category: "Snacks", UnitPrice: decimal.NewFromInt(10), SalesVolume: 100, ReorderLevel: 5, ReorderQuantity: 20},
		{Row: 3, Name: "B", Category: "Dairy", UnitPrice: decimal.NewFromInt(20), SalesVolume: 300, ReorderLevel: 10, ReorderQuantity: 40},
	}
}

// =============================================================================
// SCENARIOS
// =============================================================================

func TestRun_TwoProductScenario(t *testing.T) {
	// GIVEN: Two products under the grocery baseline (margin 0.30)
	runner := pipeline.NewRunner(logging.NewNopLogger(), nil)
	in := pipeline.Input{Products: twoProducts(), SourceName: "two.csv", Profile: preset(t, profiles.GroceryBaseline), Seed: 1}

	// WHEN: Running the pipeline
	res, err := runner.Run(context.Background(), in)
	require.NoError(t, err)

	// THEN: The processed table carries the expected derived values
	assert.Equal(t, 200.0, res.Aggregates.MedianSales)
	a, ok := res.Artifact(tabular.ArtifactParameters)
	require.True(t, ok)
	lines := strings.Split(strings.TrimSpace(string(a.Content)), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "A,Snacks,3,0.25,0.1,12,6,1,4,"), lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "B,Dairy,6,0.75,0.1,20,12,1,4,"), lines[2])

	sup, ok := res.Artifact(tabular.ArtifactSupplement)
	require.True(t, ok)
	assert.Equal(t, "Product_Name,storage_type,is_essential\nA,S,0\nB,R,0\n", string(sup.Content))

	assert.Equal(t, 35, res.Run.Shelves)
	assert.Equal(t, 5, res.Run.Levels)
}

func TestRun_ProducesEveryArtifact(t *testing.T) {
	res, err := pipeline.NewRunner(nil, nil).Run(context.Background(), demoInput(t, profiles.GroceryBaseline, 42))
	require.NoError(t, err)

	var names []string
	for _, a := range res.Artifacts {
		names = append(names, a.Name)
		assert.NotEmpty(t, a.Content)
	}
	assert.Equal(t, tabular.ArtifactNames, names)

	processed, _ := res.Artifact(tabular.ArtifactParameters)
	assert.True(t, strings.HasPrefix(string(processed.Content), "Product_Name,Category,Supplier,rho"))
}

func TestRun_ByteIdenticalForSameSeed(t *testing.T) {
	// GIVEN: The same products, profile and seed, twice
	runner := pipeline.NewRunner(nil, nil)
	for _, name := range profiles.Names() {
		t.Run(name, func(t *testing.T) {
			first, err := runner.Run(context.Background(), demoInput(t, name, 2024))
			require.NoError(t, err)
			second, err := runner.Run(context.Background(), demoInput(t, name, 2024))
			require.NoError(t, err)

			// THEN: Every artifact is byte-identical; run ids differ
			require.Len(t, second.Artifacts, len(first.Artifacts))
			for i := range first.Artifacts {
				assert.Equal(t, first.Artifacts[i].Content, second.Artifacts[i].Content, first.Artifacts[i].Name)
			}
			assert.NotEqual(t, first.Run.ID, second.Run.ID)
		})
	}
}

func TestRun_SeedOnlyChangesRandomizedOutput(t *testing.T) {
	runner := pipeline.NewRunner(nil, nil)
	a, err := runner.Run(context.Background(), demoInput(t, profiles.GroceryBaseline, 1))
	require.NoError(t, err)
	b, err := runner.Run(context.Background(), demoInput(t, profiles.GroceryBaseline, 2))
	require.NoError(t, err)

	pa, _ := a.Artifact(tabular.ArtifactParameters)
	pb, _ := b.Artifact(tabular.ArtifactParameters)
	assert.NotEqual(t, pa.Content, pb.Content, "fees follow the seed")

	for _, name := range []string{tabular.ArtifactShelves, tabular.ArtifactDistances, tabular.ArtifactScalars, tabular.ArtifactSupplement} {
		x, _ := a.Artifact(name)
		y, _ := b.Artifact(name)
		assert.Equal(t, x.Content, y.Content, name)
	}
}

func TestRun_DiagnosticsAreCounted(t *testing.T) {
	// GIVEN: The demo catalog, which holds one product in an unmapped category
	//        whose reorder point cannot fit its capacity, and no-brand suppliers
	res, err := pipeline.NewRunner(nil, nil).Run(context.Background(), demoInput(t, profiles.PrivateLabel, 9))
	require.NoError(t, err)

	assert.Equal(t, 1, res.Run.ConfigInconsistencies)
	assert.Equal(t, 1, res.Run.CapacityViolations)
	assert.Equal(t, 4, res.Run.ZeroedFeeRows)
	assert.Equal(t, "Gourmet Crackers", res.Diagnostics.Inconsistencies[0].Product)
}

func TestRun_PersistsSnapshot(t *testing.T) {
	mem := store.NewMemory()
	runner := pipeline.NewRunner(logging.NewNopLogger(), mem)

	res, err := runner.Run(context.Background(), demoInput(t, profiles.DiscountDemandScaled, 77))
	require.NoError(t, err)

	run, err := mem.GetRun(context.Background(), res.Run.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(77), run.Seed)
	assert.Equal(t, profiles.DiscountDemandScaled, run.ProfileName)
	assert.Equal(t, 24, run.Products)

	// The stored profile reproduces the run
	p, err := factory.NewProfileFactory().ParseProfile([]byte(run.ProfileJSON))
	require.NoError(t, err)
	in := demoInput(t, profiles.DiscountDemandScaled, run.Seed)
	in.Profile = p
	again, err := pipeline.NewRunner(nil, nil).Run(context.Background(), in)
	require.NoError(t, err)

	stored, err := mem.GetArtifact(context.Background(), run.ID, tabular.ArtifactParameters)
	require.NoError(t, err)
	replayed, _ := again.Artifact(tabular.ArtifactParameters)
	assert.Equal(t, stored.Content, replayed.Content)
}

// =============================================================================
// ERRORS
// =============================================================================

func TestRun_DataErrorNamesSource(t *testing.T) {
	products := twoProducts()
	products[0].SalesVolume = 0
	products[1].SalesVolume = 0

	mem := store.NewMemory()
	_, err := pipeline.NewRunner(nil, mem).Run(context.Background(), pipeline.Input{
		Products: products, SourceName: "zero.csv", Profile: preset(t, profiles.GroceryBaseline),
	})
	require.Error(t, err)

	var de *synth.DataError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "zero.csv", de.File)

	runs, err := mem.ListRuns(context.Background())
	require.NoError(t, err)
	assert.Empty(t, runs, "a failed run is never persisted")
}

func TestRun_RequiresProfile(t *testing.T) {
	_, err := pipeline.NewRunner(nil, nil).Run(context.Background(), pipeline.Input{Products: twoProducts()})
	assert.ErrorIs(t, err, synth.ErrInvalidConfig)
}

// =============================================================================
// STANDALONE STAGES
// =============================================================================

func TestEnvironment(t *testing.T) {
	artifacts, err := pipeline.NewRunner(nil, nil).Environment(preset(t, profiles.GroceryBaseline))
	require.NoError(t, err)
	require.Len(t, artifacts, 3)
	assert.Equal(t, tabular.ArtifactShelves, artifacts[0].Name)
	assert.Equal(t, 36, bytes.Count(artifacts[0].Content, []byte("\n")), "header plus 35 shelves")
	assert.Equal(t, 35, bytes.Count(artifacts[1].Content, []byte("\n")))
}

func TestLink(t *testing.T) {
	products := []synth.Product{
		{Row: 2, Name: "Whole Milk 2%", Category: "Dairy"},
		{Row: 3, Name: "Gourmet Crackers", Category: "Deli"},
	}
	a, diag, err := pipeline.NewRunner(nil, nil).Link(preset(t, profiles.GroceryBaseline), products)
	require.NoError(t, err)
	assert.Equal(t, tabular.ArtifactSupplement, a.Name)
	assert.Equal(t, "Product_Name,storage_type,is_essential\nWhole Milk 2%,R,1\nGourmet Crackers,S,0\n", string(a.Content))
	assert.Len(t, diag.Inconsistencies, 1)
}
