package treatment

import (
	"math"

	"github.com/montanaflynn/stats"

	"gostudy/domain/distance"
	domain "gostudy/domain/treatment"
)

// Between returns the mean distance and standard error over every pair with one
// endpoint in g1 and the other in g2.
func Between(g1, g2 []string, dm *distance.Matrix) (domain.Stat, error) {
	i1, err := dm.Indices(g1)
	if err != nil {
		return domain.Stat{}, err
	}
	i2, err := dm.Indices(g2)
	if err != nil {
		return domain.Stat{}, err
	}

	values := make([]float64, 0, len(i1)*len(i2))
	for _, i := range i1 {
		for _, j := range i2 {
			values = append(values, dm.At(i, j))
		}
	}
	return summarize(values), nil
}

// Within returns the mean distance and standard error over the ordered pairs of
// distinct members of group. A single-member group yields NaN for both.
func Within(group []string, dm *distance.Matrix) (domain.Stat, error) {
	idx, err := dm.Indices(group)
	if err != nil {
		return domain.Stat{}, err
	}

	values := make([]float64, 0, len(idx)*len(idx))
	for p, i := range idx {
		for q, j := range idx {
			if p != q {
				values = append(values, dm.At(i, j))
			}
		}
	}
	return summarize(values), nil
}

// ToAll returns the mean distance and standard error from every member of group
// to every id of the distance matrix outside group, whether or not that id was
// selected into any group. NaN when group covers the whole matrix.
func ToAll(group []string, dm *distance.Matrix) (domain.Stat, error) {
	idx, err := dm.Indices(group)
	if err != nil {
		return domain.Stat{}, err
	}

	inGroup := make(map[int]bool, len(idx))
	for _, i := range idx {
		inGroup[i] = true
	}
	var others []int
	for j := 0; j < dm.Len(); j++ {
		if !inGroup[j] {
			others = append(others, j)
		}
	}

	values := make([]float64, 0, len(idx)*len(others))
	for _, i := range idx {
		for _, j := range others {
			values = append(values, dm.At(i, j))
		}
	}
	return summarize(values), nil
}

// summarize returns the mean and stdev/N of values. The standard error divides
// the population standard deviation by the count, not its square root; results
// are compared against figures produced with that convention.
func summarize(values []float64) domain.Stat {
	if len(values) == 0 {
		return domain.Stat{Mean: math.NaN(), SE: math.NaN()}
	}
	mean, err := stats.Mean(values)
	if err != nil {
		return domain.Stat{Mean: math.NaN(), SE: math.NaN()}
	}
	sd, err := stats.StandardDeviationPopulation(values)
	if err != nil {
		return domain.Stat{Mean: mean, SE: math.NaN()}
	}
	return domain.Stat{Mean: mean, SE: sd / float64(len(values))}
}
