package cloud

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"gostudy/adapters/rng"
	"gostudy/domain/abundance"
	"gostudy/domain/core"
	"gostudy/domain/ordination"
	"gostudy/internal/testkit"
	"gostudy/ports"
)

func TestFold_ConstantCoordinatesHaveZeroRadius(t *testing.T) {
	tables := []ordination.Coordinates{
		{"s1": {1, 2, 3}, "s2": {0, 0, 1}},
		{"s1": {1, 2, 3}, "s2": {0, 2, 1}},
	}

	got, err := Fold(tables, 3, nil)
	require.NoError(t, err)

	assert.Equal(t, []float64{1, 2, 3}, got["s1"].Center)
	assert.Equal(t, []float64{0, 0, 0}, got["s1"].Radius)

	assert.InDeltaSlice(t, []float64{0, 1, 1}, got["s2"].Center, 1e-12)
	assert.InDeltaSlice(t, []float64{0, 1, 0}, got["s2"].Radius, 1e-12)
}

func TestFold_EntityMissingFromAnIteration(t *testing.T) {
	tables := []ordination.Coordinates{
		{"s1": {1}, "s2": {4}},
		nil,
		{"s1": {3}},
		{"s1": {5}, "s2": {6}},
	}

	got, err := Fold(tables, 1, nil)
	require.NoError(t, err)

	assert.InDelta(t, 3.0, got["s1"].Center[0], 1e-12)
	assert.InDelta(t, 4.0/3.0, got["s1"].Radius[0], 1e-12)
	assert.InDelta(t, 5.0, got["s2"].Center[0], 1e-12)
	assert.InDelta(t, 1.0, got["s2"].Radius[0], 1e-12)
}

func TestFold_KeepAndExtraAxes(t *testing.T) {
	tables := []ordination.Coordinates{
		{"s1": {1, 9, 9}, "f1": {2, 9}},
	}

	got, err := Fold(tables, 1, func(id string) bool { return id != "f1" })
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, []float64{1}, got["s1"].Center)
}

func TestFold_Errors(t *testing.T) {
	_, err := Fold([]ordination.Coordinates{nil, nil}, 2, nil)
	assert.ErrorIs(t, err, core.ErrEmptyCloud)

	_, err = Fold([]ordination.Coordinates{{"s1": {1}}}, 2, nil)
	assert.ErrorIs(t, err, core.ErrInvalidRange)

	_, err = Fold(nil, 0, nil)
	assert.ErrorIs(t, err, core.ErrInvalidRange)
}

func TestAccumulator_MergeMatchesSequentialAdd(t *testing.T) {
	a, err := NewAccumulator(2)
	require.NoError(t, err)
	b, err := NewAccumulator(2)
	require.NoError(t, err)
	all, err := NewAccumulator(2)
	require.NoError(t, err)

	first := ordination.Coordinates{"s1": {1, 2}, "s2": {3, 4}}
	second := ordination.Coordinates{"s1": {3, 0}}
	require.NoError(t, a.Add(first, nil))
	require.NoError(t, b.Add(second, nil))
	require.NoError(t, all.Add(first, nil))
	require.NoError(t, all.Add(second, nil))

	require.NoError(t, a.Merge(b))
	merged, err := a.Ellipsoids()
	require.NoError(t, err)
	sequential, err := all.Ellipsoids()
	require.NoError(t, err)
	assert.Equal(t, sequential, merged)

	other, err := NewAccumulator(3)
	require.NoError(t, err)
	assert.ErrorIs(t, a.Merge(other), core.ErrInvalidRange)
}

// indexOrdination places sample k at (k, -k) regardless of the table contents
func indexOrdination() ports.OrdinationFunc {
	return func(ctx context.Context, table *abundance.Table, req ordination.Request) (ordination.Coordinates, error) {
		out := ordination.Coordinates{}
		for k, id := range table.SampleIDs() {
			out[id] = []float64{float64(k), -float64(k)}
		}
		return out, nil
	}
}

func rarefiedWorked(t *testing.T, iterations int) []abundance.Rarefied {
	t.Helper()
	table := testkit.WorkedTable()
	out := make([]abundance.Rarefied, iterations)
	for i := range out {
		out[i] = abundance.Rarefied{Depth: 800, Iteration: i, Table: table}
	}
	return out
}

func TestAggregate_FoldsEveryIteration(t *testing.T) {
	defer goleak.VerifyNone(t)

	agg := NewAggregator(indexOrdination(), nil, WithWorkers(3))
	res, err := agg.Aggregate(context.Background(), rarefiedWorked(t, 5), ordination.Request{Metric: "bray_curtis"}, 2, nil)
	require.NoError(t, err)

	assert.Equal(t, 5, res.Iterations)
	assert.Empty(t, res.Skipped)
	require.Len(t, res.Ellipsoids, len(testkit.WorkedSampleIDs))
	assert.Equal(t, []float64{2, -2}, res.Ellipsoids["a3"].Center)
	assert.Equal(t, []float64{0, 0}, res.Ellipsoids["a3"].Radius)
}

func TestAggregate_SkipsTimedOutIteration(t *testing.T) {
	defer goleak.VerifyNone(t)

	tables := rarefiedWorked(t, 3)
	slow, err := testkit.WorkedTable().FilterSamples(func(id string) bool { return id != "a1" })
	require.NoError(t, err)
	tables[1].Table = slow

	ord := ports.OrdinationFunc(func(ctx context.Context, table *abundance.Table, req ordination.Request) (ordination.Coordinates, error) {
		if table == slow {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return indexOrdination()(ctx, table, req)
	})

	agg := NewAggregator(ord, nil, WithWorkers(2), WithTimeout(20*time.Millisecond))
	res, err := agg.Aggregate(context.Background(), tables, ordination.Request{}, 2, nil)
	require.NoError(t, err)

	assert.Equal(t, []int{1}, res.Skipped)
	assert.Equal(t, 3, res.Iterations)
	assert.Equal(t, []float64{0, 0}, res.Ellipsoids["a1"].Center)
}

func TestAggregate_AbandonsCollaboratorIgnoringContext(t *testing.T) {
	release := make(chan struct{})
	defer func() {
		close(release)
		goleak.VerifyNone(t)
	}()

	ord := ports.OrdinationFunc(func(ctx context.Context, table *abundance.Table, req ordination.Request) (ordination.Coordinates, error) {
		<-release
		return nil, nil
	})

	agg := NewAggregator(ord, nil, WithTimeout(10*time.Millisecond))
	_, err := agg.Aggregate(context.Background(), rarefiedWorked(t, 2), ordination.Request{}, 2, nil)
	assert.ErrorIs(t, err, core.ErrEmptyCloud)
}

func TestAggregate_CollaboratorErrorAborts(t *testing.T) {
	defer goleak.VerifyNone(t)

	boom := errors.New("ordination failed")
	ord := ports.OrdinationFunc(func(ctx context.Context, table *abundance.Table, req ordination.Request) (ordination.Coordinates, error) {
		return nil, boom
	})

	agg := NewAggregator(ord, nil, WithWorkers(2))
	_, err := agg.Aggregate(context.Background(), rarefiedWorked(t, 4), ordination.Request{}, 2, nil)
	assert.ErrorIs(t, err, boom)
}

func TestAggregate_SkipsEmptyTablesWithoutCalling(t *testing.T) {
	defer goleak.VerifyNone(t)

	tables := rarefiedWorked(t, 2)
	tables[0].Table = tables[0].Table.Derive(nil, nil)

	calls := 0
	ord := ports.OrdinationFunc(func(ctx context.Context, table *abundance.Table, req ordination.Request) (ordination.Coordinates, error) {
		calls++
		return indexOrdination()(ctx, table, req)
	})

	res, err := NewAggregator(ord, nil).Aggregate(context.Background(), tables, ordination.Request{}, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, res.Skipped)
}

func TestAggregate_CancelledContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewAggregator(indexOrdination(), nil).Aggregate(ctx, rarefiedWorked(t, 2), ordination.Request{}, 2, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGenerate_Reproducible(t *testing.T) {
	defer goleak.VerifyNone(t)

	agg := NewAggregator(testkit.ProfileOrdination{Axes: 3}, rng.NewStreamAdapter(), WithWorkers(4))
	table := testkit.WorkedTable()
	req := ordination.Request{Metric: "bray_curtis"}

	first, err := agg.Generate(context.Background(), table, 800, 6, req, 3, 42, nil)
	require.NoError(t, err)
	second, err := agg.Generate(context.Background(), table, 800, 6, req, 3, 42, nil)
	require.NoError(t, err)

	assert.Equal(t, first.Ellipsoids, second.Ellipsoids)
	require.Len(t, first.Ellipsoids, len(testkit.WorkedSampleIDs))
	for id, e := range first.Ellipsoids {
		for ax, r := range e.Radius {
			assert.False(t, math.IsNaN(r), "%s axis %d", id, ax)
			assert.GreaterOrEqual(t, r, 0.0)
		}
	}
}

func TestGenerate_Validation(t *testing.T) {
	agg := NewAggregator(indexOrdination(), rng.NewStreamAdapter())
	_, err := agg.Generate(context.Background(), testkit.WorkedTable(), 800, 0, ordination.Request{}, 2, 1, nil)
	assert.ErrorIs(t, err, core.ErrInvalidRange)

	_, err = agg.Generate(context.Background(), testkit.WorkedTable(), 0, 2, ordination.Request{}, 2, 1, nil)
	assert.ErrorIs(t, err, core.ErrInvalidRange)
}
