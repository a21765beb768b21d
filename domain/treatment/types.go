package treatment

import (
	"gonum.org/v1/gonum/mat"
)

// Stat is a mean distance and its standard error. Either may be NaN when
// the quantity is statistically undefined (e.g. a single-member group).
type Stat struct {
	Mean float64
	SE   float64
}

// Group is one treatment level and its member sample ids
type Group struct {
	Label   string
	Members []string
}

// GroupStatistics is the result of comparing treatment groups.
//
// BetweenWithin and BetweenWithinSE are k x k and upper triangular: the
// diagonal holds within-group values, the upper triangle holds between-group
// values and the lower triangle is zero and carries no meaning.
// ToAll is k x 2 with columns (mean, se) of each group against every other
// id of the distance matrix.
type GroupStatistics struct {
	Groups          []string
	BetweenWithin   *mat.Dense
	BetweenWithinSE *mat.Dense
	ToAll           *mat.Dense
}

// Within returns the within-group statistic of group i
func (g *GroupStatistics) Within(i int) Stat {
	return Stat{Mean: g.BetweenWithin.At(i, i), SE: g.BetweenWithinSE.At(i, i)}
}

// Between returns the between-group statistic of groups i and j, in either order
func (g *GroupStatistics) Between(i, j int) Stat {
	if i > j {
		i, j = j, i
	}
	return Stat{Mean: g.BetweenWithin.At(i, j), SE: g.BetweenWithinSE.At(i, j)}
}

// ToAllStat returns the to-all statistic of group i
func (g *GroupStatistics) ToAllStat(i int) Stat {
	return Stat{Mean: g.ToAll.At(i, 0), SE: g.ToAll.At(i, 1)}
}
