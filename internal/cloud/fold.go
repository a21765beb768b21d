package cloud

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"gostudy/domain/core"
	"gostudy/domain/ordination"
)

// Accumulator collects per-entity, per-axis coordinate observations.
// Merging accumulators is associative and commutative up to value order.
type Accumulator struct {
	axes   int
	values map[string][][]float64 // id -> axis -> observations
}

// NewAccumulator creates an accumulator over the first axes coordinates
func NewAccumulator(axes int) (*Accumulator, error) {
	if axes <= 0 {
		return nil, core.NewInvalidRangeError("axes", fmt.Sprintf("must be positive, got %d", axes))
	}
	return &Accumulator{axes: axes, values: make(map[string][][]float64)}, nil
}

// Add records one iteration's coordinates. Entities rejected by keep (when
// non-nil) are ignored.
func (a *Accumulator) Add(coords ordination.Coordinates, keep func(id string) bool) error {
	for id, vec := range coords {
		if keep != nil && !keep(id) {
			continue
		}
		if len(vec) < a.axes {
			return core.NewInvalidRangeError("coordinates", fmt.Sprintf("%s has %d axes, need %d", id, len(vec), a.axes))
		}
		obs, ok := a.values[id]
		if !ok {
			obs = make([][]float64, a.axes)
			a.values[id] = obs
		}
		for ax := 0; ax < a.axes; ax++ {
			obs[ax] = append(obs[ax], vec[ax])
		}
	}
	return nil
}

// Merge folds other's observations into a
func (a *Accumulator) Merge(other *Accumulator) error {
	if other.axes != a.axes {
		return core.NewInvalidRangeError("axes", fmt.Sprintf("cannot merge %d axes into %d", other.axes, a.axes))
	}
	for id, obs := range other.values {
		mine, ok := a.values[id]
		if !ok {
			mine = make([][]float64, a.axes)
			a.values[id] = mine
		}
		for ax := range obs {
			mine[ax] = append(mine[ax], obs[ax]...)
		}
	}
	return nil
}

// Ellipsoids summarizes every observed entity: the per-axis mean and the mean
// absolute deviation about it. Fails with ErrEmptyCloud when nothing was seen.
func (a *Accumulator) Ellipsoids() (map[string]ordination.Ellipsoid, error) {
	if len(a.values) == 0 {
		return nil, core.ErrEmptyCloud
	}
	out := make(map[string]ordination.Ellipsoid, len(a.values))
	for id, obs := range a.values {
		e := ordination.Ellipsoid{
			Center: make([]float64, a.axes),
			Radius: make([]float64, a.axes),
		}
		for ax, values := range obs {
			center, err := stats.Mean(values)
			if err != nil {
				return nil, fmt.Errorf("center of %s axis %d: %w", id, ax, err)
			}
			dev := make([]float64, len(values))
			for i, v := range values {
				dev[i] = math.Abs(v - center)
			}
			radius, err := stats.Mean(dev)
			if err != nil {
				return nil, fmt.Errorf("radius of %s axis %d: %w", id, ax, err)
			}
			e.Center[ax] = center
			e.Radius[ax] = radius
		}
		out[id] = e
	}
	return out, nil
}

// Fold summarizes a list of per-iteration coordinate tables. Nil tables
// (skipped iterations) are ignored; entities missing from an iteration are
// skipped for that iteration only.
func Fold(tables []ordination.Coordinates, axes int, keep func(id string) bool) (map[string]ordination.Ellipsoid, error) {
	acc, err := NewAccumulator(axes)
	if err != nil {
		return nil, err
	}
	for _, coords := range tables {
		if coords == nil {
			continue
		}
		if err := acc.Add(coords, keep); err != nil {
			return nil, err
		}
	}
	return acc.Ellipsoids()
}
