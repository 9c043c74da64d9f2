package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/shelf-engine/profiles"
	"github.com/warp/shelf-engine/store/sqlite"
	"github.com/warp/shelf-engine/synth"
	"github.com/warp/shelf-engine/tabular"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--log-level", "error"))
	err := cmd.Execute()
	return out.String(), err
}

func readFile(t *testing.T, dir, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	return data
}

func TestGenerate_Demo(t *testing.T) {
	// GIVEN: An empty output directory
	out := t.TempDir()

	// WHEN: Generating from the demo catalog
	stdout, err := execute(t, "generate", "--demo", "--out", out, "--seed", "11", "--profile", profiles.PrivateLabel)
	require.NoError(t, err)

	// THEN: All five artifacts exist and the summary names the diagnostics
	for _, name := range tabular.ArtifactNames {
		assert.FileExists(t, filepath.Join(out, name))
		assert.NoFileExists(t, filepath.Join(out, name+".tmp"))
	}
	assert.Contains(t, stdout, "seed=11")
	assert.Contains(t, stdout, "zeroed_fee_rows=4")
}

func TestGenerate_Reproducible(t *testing.T) {
	a, b := t.TempDir(), t.TempDir()
	_, err := execute(t, "generate", "--demo", "--out", a, "--seed", "5")
	require.NoError(t, err)
	_, err = execute(t, "generate", "--demo", "--out", b, "--seed", "5", "--workers", "4")
	require.NoError(t, err)

	for _, name := range tabular.ArtifactNames {
		assert.Equal(t, readFile(t, a, name), readFile(t, b, name), name)
	}
}

func TestGenerate_InputFile(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "products.csv")
	require.NoError(t, os.WriteFile(input, []byte(
		"Product_Name,Category,Unit_Price,Sales_Volume,Reorder_Level,Reorder_Quantity\n"+
			"A,Snacks,$10.00,100,5,20\n"+
			"B,Dairy,$20.00,300,10,40\n"), 0o644))

	_, err := execute(t, "params", input, "--out", dir)
	require.NoError(t, err)

	processed := string(readFile(t, dir, tabular.ArtifactParameters))
	lines := strings.Split(strings.TrimSpace(processed), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "A,Snacks,3,0.25,0.1,12,6,1,4,"), lines[1])
	assert.NoFileExists(t, filepath.Join(dir, tabular.ArtifactShelves), "params writes one file")
}

func TestGenerate_MissingInputWritesNothing(t *testing.T) {
	out := t.TempDir()
	_, err := execute(t, "generate", filepath.Join(out, "nope.csv"), "--out", out)
	assert.ErrorIs(t, err, synth.ErrInputMissing)

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGenerate_DemoAndFileAreExclusive(t *testing.T) {
	_, err := execute(t, "generate", "products.csv", "--demo", "--out", t.TempDir())
	assert.ErrorIs(t, err, synth.ErrInvalidConfig)
}

func TestGenerate_Store(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	t.Setenv("SHELF_STORE_PATH", dbPath)

	_, err := execute(t, "generate", "--demo", "--store", "--seed", "3", "--out", t.TempDir())
	require.NoError(t, err)

	db, err := sqlite.New(dbPath)
	require.NoError(t, err)
	defer db.Close()
	runs, err := db.ListRuns(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, uint64(3), runs[0].Seed)
	assert.Equal(t, profiles.DemoProductsName, runs[0].SourceName)
}

func TestEnv(t *testing.T) {
	out := t.TempDir()
	_, err := execute(t, "env", "--out", out)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(out, tabular.ArtifactShelves))
	assert.FileExists(t, filepath.Join(out, tabular.ArtifactDistances))
	assert.FileExists(t, filepath.Join(out, tabular.ArtifactScalars))
	assert.NoFileExists(t, filepath.Join(out, tabular.ArtifactParameters))
}

func TestLink(t *testing.T) {
	dir := t.TempDir()
	processed := filepath.Join(dir, "processed.csv")
	require.NoError(t, os.WriteFile(processed, []byte(
		"Product_Name,Category,rho\nWhole Milk 2%,Dairy,1\nGourmet Crackers,Deli,2\n"), 0o644))

	stdout, err := execute(t, "link", "--processed", processed, "--out", dir)
	require.NoError(t, err)

	assert.Equal(t, "Product_Name,storage_type,is_essential\nWhole Milk 2%,R,1\nGourmet Crackers,S,0\n",
		string(readFile(t, dir, tabular.ArtifactSupplement)))
	assert.Contains(t, stdout, "unmapped categories: 1")
}

func TestProfileFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "store.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"name":"from-file","params":{"margin_rate":"0.25"}}`), 0o644))

	stdout, err := execute(t, "generate", "--demo", "--profile-file", file, "--out", dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "profile=from-file")

	_, err = execute(t, "env", "--profile-file", filepath.Join(dir, "missing.json"), "--out", dir)
	assert.ErrorIs(t, err, synth.ErrInputMissing)
}

func TestProfiles(t *testing.T) {
	stdout, err := execute(t, "profiles", "list")
	require.NoError(t, err)
	for _, name := range profiles.Names() {
		assert.Contains(t, stdout, name)
	}

	stdout, err = execute(t, "profiles", "show", profiles.DiscountDemandScaled)
	require.NoError(t, err)
	assert.Contains(t, stdout, `"name": "discount-demand-scaled"`)
	assert.Contains(t, stdout, `"policy": "demand_scaled"`)

	_, err = execute(t, "profiles", "show", "hypermarket")
	assert.ErrorIs(t, err, profiles.ErrUnknownPreset)
}
