package fees_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/shelf-engine/fees"
	"github.com/warp/shelf-engine/synth"
)

func baselineFees() synth.FeeConfig {
	return synth.FeeConfig{
		BaseMin:          100,
		BaseMax:          200,
		Quality:          synth.NewLevelMultipliers(0.6, 0.9, 1.5, 1.1, 0.8),
		Traffic:          decimal.RequireFromString("1.30"),
		NoBrandSuppliers: []string{"No Brand", "Unbranded"},
	}
}

func suppliers(names ...string) []synth.Product {
	out := make([]synth.Product, len(names))
	for i, s := range names {
		out[i] = synth.Product{Row: i + 2, Name: "p", Supplier: s}
	}
	return out
}

func TestGenerate_ShapeAndRanges(t *testing.T) {
	cfg := baselineFees()
	table, err := fees.NewGenerator(cfg).Generate(25, synth.NewSource(42))
	require.NoError(t, err)
	require.Len(t, table, 25)
	assert.Equal(t, 5, table.Levels())

	lo, hi := decimal.NewFromInt(100), decimal.NewFromInt(200)
	for _, row := range table {
		for k, f := range row {
			assert.Equal(t, k+1, f.Level)
			assert.True(t, f.Base.GreaterThanOrEqual(lo) && f.Base.LessThan(hi), "base %s", f.Base)

			q, _ := cfg.Quality.At(f.Level)
			assert.True(t, f.LevelFee.Equal(f.Base.Mul(q).Round(2)))
			assert.True(t, f.TrafficFee.Equal(f.LevelFee.Mul(cfg.Traffic).Round(2)))
			assert.LessOrEqual(t, -f.LevelFee.Exponent(), int32(2), "level fee keeps at most 2 digits")
			assert.LessOrEqual(t, -f.TrafficFee.Exponent(), int32(2), "traffic fee keeps at most 2 digits")
		}
	}
}

func TestGenerate_SameSeedSameTable(t *testing.T) {
	g := fees.NewGenerator(baselineFees())
	a, err := g.Generate(40, synth.NewSource(7))
	require.NoError(t, err)
	b, err := g.Generate(40, synth.NewSource(7))
	require.NoError(t, err)
	c, err := g.Generate(40, synth.NewSource(8))
	require.NoError(t, err)

	for i := range a {
		for k := range a[i] {
			assert.True(t, a[i][k].Base.Equal(b[i][k].Base))
			assert.True(t, a[i][k].TrafficFee.Equal(b[i][k].TrafficFee))
		}
	}
	assert.False(t, a[0][0].Base.Equal(c[0][0].Base), "different seeds should diverge")
}

func TestGenerate_LevelsOuterProductsInner(t *testing.T) {
	// GIVEN: 3 products, 5 levels
	// WHEN: Replaying the source by hand, levels outer and products inner
	// THEN: Every base fee matches the replayed draw at the same position
	g := fees.NewGenerator(baselineFees())
	src := synth.NewSource(11)
	table, err := g.Generate(3, src)
	require.NoError(t, err)
	assert.Equal(t, uint64(15), src.Draws())

	replay := synth.NewSource(11)
	for k := 0; k < 5; k++ {
		for i := 0; i < 3; i++ {
			want := decimal.NewFromFloat(replay.Uniform(100, 200))
			assert.True(t, want.Equal(table[i][k].Base), "product %d level %d", i, k+1)
		}
	}
}

func TestGenerateFor_NoBrandRowsAreZeroed(t *testing.T) {
	products := suppliers("Acme", "no brand", "Dairyland", " Unbranded ")
	table, zeroed, err := fees.NewGenerator(baselineFees()).GenerateFor(products, synth.NewSource(3))
	require.NoError(t, err)
	assert.Equal(t, 2, zeroed)

	for _, i := range []int{1, 3} {
		for _, f := range table[i] {
			assert.True(t, f.LevelFee.IsZero())
			assert.True(t, f.TrafficFee.IsZero())
			assert.True(t, f.Base.IsPositive(), "the draw still happened")
		}
	}
	for _, i := range []int{0, 2} {
		for _, f := range table[i] {
			assert.True(t, f.LevelFee.IsPositive())
		}
	}
}

func TestGenerateFor_ZeroingDoesNotShiftOtherRows(t *testing.T) {
	// GIVEN: The same seed with and without a no-brand product in row 1
	// WHEN: Generating both tables
	// THEN: Row 0 and row 2 are identical; draws happen regardless of zeroing
	g := fees.NewGenerator(baselineFees())
	withBrand, _, err := g.GenerateFor(suppliers("A", "B", "C"), synth.NewSource(5))
	require.NoError(t, err)
	noBrand, _, err := g.GenerateFor(suppliers("A", "No Brand", "C"), synth.NewSource(5))
	require.NoError(t, err)

	for _, i := range []int{0, 2} {
		for k := range withBrand[i] {
			assert.True(t, withBrand[i][k].TrafficFee.Equal(noBrand[i][k].TrafficFee))
		}
	}
}

func TestGenerateFor_PolicyOff(t *testing.T) {
	cfg := baselineFees()
	cfg.NoBrandSuppliers = nil
	table, zeroed, err := fees.NewGenerator(cfg).GenerateFor(suppliers("No Brand"), synth.NewSource(1))
	require.NoError(t, err)
	assert.Zero(t, zeroed)
	assert.True(t, table[0][0].LevelFee.IsPositive())
}

func TestAttach(t *testing.T) {
	table, err := fees.NewGenerator(baselineFees()).Generate(2, synth.NewSource(1))
	require.NoError(t, err)

	rows := make([]synth.ParameterRow, 2)
	require.NoError(t, table.Attach(rows))
	assert.Len(t, rows[1].Fees, 5)
	assert.True(t, rows[1].Fees[4].LevelFee.Equal(table[1][4].LevelFee))

	assert.Error(t, table.Attach(make([]synth.ParameterRow, 3)))
}

func TestGenerate_InvalidConfig(t *testing.T) {
	cases := map[string]func(*synth.FeeConfig){
		"empty range":      func(c *synth.FeeConfig) { c.BaseMax = c.BaseMin },
		"no levels":        func(c *synth.FeeConfig) { c.Quality = nil },
		"gap in levels":    func(c *synth.FeeConfig) { c.Quality[2].Level = 7 },
		"negative traffic": func(c *synth.FeeConfig) { c.Traffic = decimal.NewFromInt(-1) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := baselineFees()
			mutate(&cfg)
			_, err := fees.NewGenerator(cfg).Generate(3, synth.NewSource(1))
			assert.ErrorIs(t, err, synth.ErrInvalidConfig)
		})
	}

	_, err := fees.NewGenerator(baselineFees()).Generate(3, nil)
	assert.ErrorIs(t, err, synth.ErrInvalidConfig)
}
