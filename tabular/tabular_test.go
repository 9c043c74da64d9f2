package tabular_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/shelf-engine/synth"
	"github.com/warp/shelf-engine/tabular"
)

// =============================================================================
// READING
// =============================================================================

func TestDecodeProducts(t *testing.T) {
	in := "product_name,CATEGORY,Unit_Price,Sales_Volume,Reorder_Level,Reorder_Quantity\n" +
		"A,Snacks,$10,100,5,20\n" +
		"B,Dairy,\"€1,299.50\",300,10,40\n"

	table, err := tabular.DecodeProducts(strings.NewReader(in), "products.csv")
	require.NoError(t, err)
	assert.False(t, table.HasSupplier)
	require.Len(t, table.Products, 2)

	a := table.Products[0]
	assert.Equal(t, 2, a.Row)
	assert.Equal(t, "A", a.Name)
	assert.Equal(t, "Snacks", a.Category)
	assert.True(t, a.UnitPrice.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, 100.0, a.SalesVolume)
	assert.Equal(t, 5.0, a.ReorderLevel)
	assert.Equal(t, 20.0, a.ReorderQuantity)

	b := table.Products[1]
	assert.Equal(t, 3, b.Row)
	assert.Equal(t, "1299.5", b.UnitPrice.String())
}

func TestDecodeProducts_OptionalSupplier(t *testing.T) {
	in := "Product_Name,Category,Supplier,Unit_Price,Sales_Volume,Reorder_Level,Reorder_Quantity\n" +
		"A,Snacks,No Brand,1.99,100,5,20\n"

	table, err := tabular.DecodeProducts(strings.NewReader(in), "products.csv")
	require.NoError(t, err)
	assert.True(t, table.HasSupplier)
	assert.Equal(t, "No Brand", table.Products[0].Supplier)
}

func TestDecodeProducts_ReportsEveryBadCell(t *testing.T) {
	// GIVEN: Two rows with malformed cells
	in := "Product_Name,Category,Unit_Price,Sales_Volume,Reorder_Level,Reorder_Quantity\n" +
		"A,Snacks,$abc,100,5,20\n" +
		"B,Snacks,2.00,lots,5,-1\n" +
		"C,Dairy,1 99,1,1,1\n" +
		"D,Dairy,\"1,99\",1,1,1\n"

	// WHEN: Decoding
	_, err := tabular.DecodeProducts(strings.NewReader(in), "products.csv")

	// THEN: Each bad cell is a DataError naming file, row and column
	require.Error(t, err)
	assert.ErrorIs(t, err, synth.ErrDataError)
	assert.True(t, synth.IsClientError(err))

	var joined interface{ Unwrap() []error }
	require.True(t, errors.As(err, &joined))
	errs := joined.Unwrap()
	require.Len(t, errs, 5)

	var de *synth.DataError
	require.True(t, errors.As(errs[0], &de))
	assert.Equal(t, "products.csv", de.File)
	assert.Equal(t, 2, de.Row)
	assert.Equal(t, tabular.ColUnitPrice, de.Column)
	assert.Equal(t, "$abc", de.Value)

	require.True(t, errors.As(errs[1], &de))
	assert.Equal(t, 3, de.Row)
	assert.Equal(t, tabular.ColSalesVolume, de.Column)

	require.True(t, errors.As(errs[2], &de))
	assert.Equal(t, tabular.ColReorderQuantity, de.Column)
	assert.Contains(t, err.Error(), "products.csv row 3")

	// THEN: Inner spaces and non-grouping commas are rejected, not merged
	require.True(t, errors.As(errs[3], &de))
	assert.Equal(t, 4, de.Row)
	assert.Equal(t, tabular.ColUnitPrice, de.Column)
	assert.Equal(t, "1 99", de.Value)

	require.True(t, errors.As(errs[4], &de))
	assert.Equal(t, 5, de.Row)
	assert.Equal(t, "1,99", de.Value)
}

func TestDecodeProducts_PriceFormats(t *testing.T) {
	tests := []struct {
		cell string
		want string
	}{
		{"$10", "10"},
		{"\"$1,299.00\"", "1299"},
		{"12.50 €", "12.5"},
		{"£ 3.10", "3.1"},
		{"\"12,345,678.5\"", "12345678.5"},
	}
	for _, tt := range tests {
		t.Run(tt.cell, func(t *testing.T) {
			in := "Product_Name,Category,Unit_Price,Sales_Volume,Reorder_Level,Reorder_Quantity\n" +
				"A,Snacks," + tt.cell + ",1,1,1\n"
			table, err := tabular.DecodeProducts(strings.NewReader(in), "p.csv")
			require.NoError(t, err)
			assert.Equal(t, tt.want, table.Products[0].UnitPrice.String())
		})
	}

	for _, cell := range []string{"\"1,2345\"", "$1$", "\"$ 1 000\"", "\",100\""} {
		t.Run("rejects "+cell, func(t *testing.T) {
			in := "Product_Name,Category,Unit_Price,Sales_Volume,Reorder_Level,Reorder_Quantity\n" +
				"A,Snacks," + cell + ",1,1,1\n"
			_, err := tabular.DecodeProducts(strings.NewReader(in), "p.csv")
			assert.ErrorIs(t, err, synth.ErrDataError)
		})
	}
}

func TestDecodeProducts_RowsFollowPhysicalLines(t *testing.T) {
	// GIVEN: A blank line and a multi-line quoted name before bad cells
	in := "Product_Name,Category,Unit_Price,Sales_Volume,Reorder_Level,Reorder_Quantity\n" +
		"A,Snacks,1.00,1,1,1\n" +
		"\n" +
		"B,Snacks,oops,1,1,1\n" +
		"\"Two\nLines\",Snacks,1.00,1,1,1\n" +
		"C,Snacks,bad,1,1,1\n"

	// WHEN: Decoding
	_, err := tabular.DecodeProducts(strings.NewReader(in), "p.csv")

	// THEN: Errors name the line each record starts on
	require.Error(t, err)
	assert.Contains(t, err.Error(), "p.csv row 4 column Unit_Price")
	assert.Contains(t, err.Error(), "p.csv row 7 column Unit_Price")
}

func TestDecodeProducts_MissingColumn(t *testing.T) {
	in := "Product_Name,Category,Unit_Price,Sales_Volume\nA,Snacks,1,1\n"
	_, err := tabular.DecodeProducts(strings.NewReader(in), "p.csv")
	require.Error(t, err)
	assert.ErrorIs(t, err, synth.ErrDataError)
	assert.Contains(t, err.Error(), tabular.ColReorderLevel)
	assert.Contains(t, err.Error(), tabular.ColReorderQuantity)
}

func TestDecodeProducts_ShortRowAndEmptyName(t *testing.T) {
	in := "Product_Name,Category,Unit_Price,Sales_Volume,Reorder_Level,Reorder_Quantity\n" +
		",Snacks,1,1,1,1\n" +
		"B,Snacks,1,1\n"
	_, err := tabular.DecodeProducts(strings.NewReader(in), "p.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "product name is empty")
	assert.Contains(t, err.Error(), "value is missing")
}

func TestDecodeProducts_EmptyInput(t *testing.T) {
	_, err := tabular.DecodeProducts(strings.NewReader(""), "p.csv")
	assert.ErrorIs(t, err, synth.ErrDataError)
}

func TestReadProducts_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.csv")
	_, err := tabular.ReadProducts(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, synth.ErrInputMissing)

	var im *synth.InputMissingError
	require.True(t, errors.As(err, &im))
	assert.Equal(t, path, im.Path)
}

func TestReadProcessed(t *testing.T) {
	// GIVEN: A processed table as written by a run
	rows := []synth.ParameterRow{row("Whole Milk", "Dairy", 1), row("Fish", "Seafood", 1)}
	data, err := tabular.EncodeParameters(rows, 1, false)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), tabular.ArtifactParameters)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	// WHEN: Reading it back
	products, err := tabular.ReadProcessed(path)

	// THEN: Names and categories survive in order
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "Whole Milk", products[0].Name)
	assert.Equal(t, "Seafood", products[1].Category)
	assert.Equal(t, 3, products[1].Row)

	_, err = tabular.ReadProcessed(filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorIs(t, err, synth.ErrInputMissing)
}

// =============================================================================
// WRITING
// =============================================================================

func row(name, category string, levels int) synth.ParameterRow {
	r := synth.ParameterRow{
		Product:         synth.Product{Name: name, Category: category, Supplier: "Acme"},
		Profit:          decimal.RequireFromString("3.00"),
		DemandShare:     0.25,
		ImpulseWeight:   0.1,
		UnitsPerDisplay: 6,
		MinDisplays:     1,
		MaxDisplays:     4,
		ShelfFootprint:  12,
	}
	for k := 1; k <= levels; k++ {
		r.Fees = append(r.Fees, synth.LevelFee{
			Level:      k,
			LevelFee:   decimal.RequireFromString("90.5"),
			TrafficFee: decimal.RequireFromString("117.65"),
		})
	}
	return r
}

func TestEncodeParameters(t *testing.T) {
	data, err := tabular.EncodeParameters([]synth.ParameterRow{row("A", "Snacks", 2)}, 2, false)
	require.NoError(t, err)

	want := "Product_Name,Category,rho,delta,iota,zeta,mu,min_l,max_v," +
		"omega_level_1,omega_prime_level_1,omega_level_2,omega_prime_level_2\n" +
		"A,Snacks,3,0.25,0.1,12,6,1,4,90.50,117.65,90.50,117.65\n"
	assert.Equal(t, want, string(data))
}

func TestEncodeParameters_WithSupplier(t *testing.T) {
	data, err := tabular.EncodeParameters([]synth.ParameterRow{row("A", "Snacks", 1)}, 1, true)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.True(t, strings.HasPrefix(lines[0], "Product_Name,Category,Supplier,rho"))
	assert.True(t, strings.HasPrefix(lines[1], "A,Snacks,Acme,3"))
}

func TestEncodeParameters_LevelMismatch(t *testing.T) {
	_, err := tabular.EncodeParameters([]synth.ParameterRow{row("A", "Snacks", 2)}, 5, false)
	assert.Error(t, err)
}

func TestEncodeShelves(t *testing.T) {
	shelves := []synth.Shelf{
		{ID: 1, Type: synth.StorageStandard, X: 25, Y: 10, Width: 400, Levels: 5, DistanceFromEntrance: 26.925824035672520, HighDemand: true},
		{ID: 2, Type: synth.StorageFridge, X: 10, Y: 60, Width: 400, Levels: 5, DistanceFromEntrance: 60.8276253029822, HighDemand: false},
	}
	data, err := tabular.EncodeShelves(shelves)
	require.NoError(t, err)

	want := "Shelf_ID,Type,X,Y,Width_W,Levels_N,DIST_b,is_high_demand\n" +
		"1,S,25,10,400,5,26.93,1\n" +
		"2,R,10,60,400,5,60.83,0\n"
	assert.Equal(t, want, string(data))
}

func TestEncodeDistances(t *testing.T) {
	m := synth.NewDistanceMatrix([]synth.Point{{X: 0, Y: 0}, {X: 3, Y: 4}})
	data, err := tabular.EncodeDistances(m)
	require.NoError(t, err)
	assert.Equal(t, "0,5\n5,0\n", string(data))
}

func TestEncodeScalars(t *testing.T) {
	data, err := tabular.EncodeScalars([]synth.Scalar{
		{Key: "Theta", Value: 500},
		{Key: "Tau", Value: 1.3},
		{Key: "Lambda_1", Value: 0.6},
	})
	require.NoError(t, err)
	assert.Equal(t, "Key,Value\nTheta,500\nTau,1.3\nLambda_1,0.6\n", string(data))
}

func TestEncodeSupplement(t *testing.T) {
	data, err := tabular.EncodeSupplement([]synth.SupplementRow{
		{ProductName: "Whole Milk 2%", Storage: synth.StorageFridge, Essential: true},
		{ProductName: "Chips, Salted", Storage: synth.StorageStandard},
	})
	require.NoError(t, err)
	assert.Equal(t, "Product_Name,storage_type,is_essential\nWhole Milk 2%,R,1\n\"Chips, Salted\",S,0\n", string(data))
}

func TestWriteDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	err := tabular.WriteDir(dir, []synth.Artifact{
		{Name: tabular.ArtifactScalars, Content: []byte("Key,Value\n")},
		{Name: tabular.ArtifactSupplement, Content: []byte("x\n")},
	})
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(dir, tabular.ArtifactScalars))
	require.NoError(t, err)
	assert.Equal(t, "Key,Value\n", string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no temporary files are left behind")
}
