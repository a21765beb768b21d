package rarefaction

import (
	"context"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gostudy/adapters/rng"
	"gostudy/domain/abundance"
	"gostudy/domain/core"
	"gostudy/internal/testkit"
)

func TestOnce_ColumnsSumToDepth(t *testing.T) {
	table := testkit.SoilTable()
	r := rand.New(rand.NewPCG(1, 2))

	rare, err := Once(table, 10, r)
	require.NoError(t, err)

	assert.Equal(t, []string{"S1", "S2", "S6", "S7", "S8"}, rare.SampleIDs())
	for _, id := range rare.SampleIDs() {
		sum, err := rare.ColumnSum(id)
		require.NoError(t, err)
		assert.Equal(t, 10.0, sum, id)

		col, err := rare.Column(id)
		require.NoError(t, err)
		for _, e := range col {
			orig, err := table.Count(table.FeatureIDs()[e.Feature], id)
			require.NoError(t, err)
			assert.LessOrEqual(t, e.Count, orig, "%s feature %d", id, e.Feature)
		}
	}
}

func TestOnce_FullDepthReproducesColumn(t *testing.T) {
	table := testkit.SoilTable()
	rare, err := Once(table, 43, rand.New(rand.NewPCG(7, 7)))
	require.NoError(t, err)

	require.Equal(t, []string{"S7"}, rare.SampleIDs())
	want, err := table.Column("S7")
	require.NoError(t, err)
	got, err := rare.Column("S7")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestOnce_AllColumnsDropped(t *testing.T) {
	rare, err := Once(testkit.SoilTable(), 1000, rand.New(rand.NewPCG(1, 1)))
	require.NoError(t, err)
	_, n := rare.Shape()
	assert.Zero(t, n)
}

func TestOnce_InvalidDepth(t *testing.T) {
	_, err := Once(testkit.SoilTable(), 0, rand.New(rand.NewPCG(1, 1)))
	assert.ErrorIs(t, err, core.ErrInvalidRange)

	_, err = Once(testkit.SoilTable(), 5, nil)
	assert.Error(t, err)
}

func TestSeriesParams_Depths(t *testing.T) {
	tests := []struct {
		name   string
		params SeriesParams
		want   []int
	}{
		{"four steps", SeriesParams{MinDepth: 25, MaxDepth: 100, Steps: 4, Iterations: 1}, []int{25, 43, 61, 79, 97}},
		{"one step", SeriesParams{MinDepth: 5, MaxDepth: 30, Steps: 1, Iterations: 1}, []int{5, 30}},
		{"step clamped to one", SeriesParams{MinDepth: 10, MaxDepth: 12, Steps: 5, Iterations: 1}, []int{10, 11, 12}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.params.Depths()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSeriesParams_Validate(t *testing.T) {
	bad := []SeriesParams{
		{MinDepth: 0, MaxDepth: 10, Steps: 1, Iterations: 1},
		{MinDepth: 10, MaxDepth: 10, Steps: 1, Iterations: 1},
		{MinDepth: 1, MaxDepth: 10, Steps: 0, Iterations: 1},
		{MinDepth: 1, MaxDepth: 10, Steps: 1, Iterations: 0},
	}
	for _, p := range bad {
		assert.ErrorIs(t, p.Validate(), core.ErrInvalidRange, "%+v", p)
	}
}

func TestAlphaParams(t *testing.T) {
	p := AlphaParams(100, 10)
	assert.Equal(t, SeriesParams{MinDepth: 25, MaxDepth: 100, Steps: 4, Iterations: 10}, p)

	p = AlphaParams(101, 3)
	assert.Equal(t, 26, p.MinDepth)
}

func TestGenerator_SeriesIsReproducibleAndDepthMajor(t *testing.T) {
	gen := NewGenerator(rng.NewStreamAdapter(), nil)
	params := SeriesParams{MinDepth: 100, MaxDepth: 800, Steps: 2, Iterations: 3}
	ctx := context.Background()

	first, err := gen.Series(ctx, testkit.WorkedTable(), params, 42)
	require.NoError(t, err)
	second, err := gen.Series(ctx, testkit.WorkedTable(), params, 42)
	require.NoError(t, err)

	require.Len(t, first, 9)
	wantDepths := []int{100, 100, 100, 450, 450, 450, 800, 800, 800}
	for i, rare := range first {
		assert.Equal(t, wantDepths[i], rare.Depth)
		assert.Equal(t, i%3, rare.Iteration)
		assert.Equal(t, second[i].Table.SampleIDs(), rare.Table.SampleIDs())
		for _, id := range rare.Table.SampleIDs() {
			a, _ := rare.Table.Column(id)
			b, _ := second[i].Table.Column(id)
			assert.Equal(t, b, a)
		}
	}
}

func TestGenerator_OnceMatchesSeriesEntry(t *testing.T) {
	gen := NewGenerator(rng.NewStreamAdapter(), nil)
	ctx := context.Background()
	params := SeriesParams{MinDepth: 100, MaxDepth: 800, Steps: 2, Iterations: 2}

	series, err := gen.Series(ctx, testkit.WorkedTable(), params, 9)
	require.NoError(t, err)
	one, err := gen.Once(ctx, testkit.WorkedTable(), 450, 1, 9)
	require.NoError(t, err)

	want := series[3]
	require.Equal(t, 450, want.Depth)
	require.Equal(t, 1, want.Iteration)
	for _, id := range want.Table.SampleIDs() {
		a, _ := want.Table.Column(id)
		b, _ := one.Table.Column(id)
		assert.Equal(t, a, b)
	}
}

func TestGenerator_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gen := NewGenerator(rng.NewStreamAdapter(), nil)
	_, err := gen.Series(ctx, testkit.WorkedTable(), SeriesParams{MinDepth: 1, MaxDepth: 2, Steps: 1, Iterations: 1}, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCollateAlpha_ObservedFeatures(t *testing.T) {
	gen := NewGenerator(rng.NewStreamAdapter(), nil)
	series, err := gen.Series(context.Background(), testkit.SoilTable(), SeriesParams{MinDepth: 5, MaxDepth: 30, Steps: 1, Iterations: 2}, 3)
	require.NoError(t, err)

	out, err := CollateAlpha(context.Background(), series, map[string]AlphaFunc{"observed_features": ObservedFeatures})
	require.NoError(t, err)

	c := out["observed_features"]
	require.NotNil(t, c)
	assert.Equal(t, []string{"S1", "S2", "S3", "S5", "S6", "S7", "S8"}, c.SampleIDs)
	require.Len(t, c.Rows, 4)
	assert.Equal(t, "alpha_rare_5_0", c.Rows[0].Label)
	assert.Equal(t, "alpha_rare_30_1", c.Rows[3].Label)

	// only S7 and S8 reach depth 30
	deep := c.Rows[2].Values
	for i := 0; i < 5; i++ {
		assert.True(t, math.IsNaN(deep[i]), c.SampleIDs[i])
	}
	assert.False(t, math.IsNaN(deep[5]))
	assert.LessOrEqual(t, deep[5], 8.0)

	require.Len(t, c.Means, 2)
	assert.Equal(t, 5, c.Means[0].Depth)
	assert.Equal(t, 30, c.Means[1].Depth)
	assert.True(t, math.IsNaN(c.Means[1].Values[0]))
	for _, v := range c.Means[0].Values {
		assert.InDelta(t, 3.0, v, 2.0)
	}
}

func TestCollateAlpha_MeansOverIterations(t *testing.T) {
	table := testkit.WorkedTable()
	series := []abundance.Rarefied{
		{Depth: 10, Iteration: 0, Table: table},
		{Depth: 10, Iteration: 1, Table: table},
		{Depth: 20, Iteration: 0, Table: table},
	}
	calls := 0
	metric := func(ctx context.Context, table *abundance.Table) (map[string]float64, error) {
		calls++
		return map[string]float64{"a1": float64(calls)}, nil
	}

	out, err := CollateAlpha(context.Background(), series, map[string]AlphaFunc{"m": metric})
	require.NoError(t, err)

	c := out["m"]
	assert.InDelta(t, 1.5, c.Means[0].Values[0], 1e-12)
	assert.InDelta(t, 3.0, c.Means[1].Values[0], 1e-12)
	assert.True(t, math.IsNaN(c.Means[0].Values[1]))

	_, err = CollateAlpha(context.Background(), nil, map[string]AlphaFunc{"m": metric})
	assert.Error(t, err)
}
