package rarefaction

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/stat/sampleuv"

	"gostudy/domain/abundance"
	"gostudy/domain/core"
)

// Once rarefies every column of table to exactly depth counts, drawing without
// replacement from the column's per-feature counts. Columns whose total is below
// depth are dropped. Counts are truncated to integers before drawing.
// The result may have zero columns; callers decide whether that is an error.
func Once(table *abundance.Table, depth int, rng *rand.Rand) (*abundance.Table, error) {
	if depth <= 0 {
		return nil, core.NewInvalidRangeError("depth", fmt.Sprintf("must be positive, got %d", depth))
	}
	if rng == nil {
		return nil, fmt.Errorf("rarefaction requires a random source")
	}

	var (
		samples []string
		columns [][]abundance.Entry
	)
	for _, id := range table.SampleIDs() {
		col, err := table.Column(id)
		if err != nil {
			return nil, err
		}
		drawn, ok := drawColumn(col, depth, rng)
		if !ok {
			continue
		}
		samples = append(samples, id)
		columns = append(columns, drawn)
	}

	return table.Derive(samples, columns), nil
}

// drawColumn draws depth items from the multiset described by col.
// It reports false when the column holds fewer than depth items.
func drawColumn(col []abundance.Entry, depth int, rng *rand.Rand) ([]abundance.Entry, bool) {
	// upper[i] is the exclusive upper bound of entry i's item indices
	upper := make([]int, len(col))
	total := 0
	for i, e := range col {
		total += int(e.Count)
		upper[i] = total
	}
	if total < depth {
		return nil, false
	}

	idxs := make([]int, depth)
	sampleuv.WithoutReplacement(idxs, total, rng)

	hits := make([]int, len(col))
	for _, idx := range idxs {
		i := sort.SearchInts(upper, idx+1)
		hits[i]++
	}

	out := make([]abundance.Entry, 0, len(col))
	for i, h := range hits {
		if h > 0 {
			out = append(out, abundance.Entry{Feature: col[i].Feature, Count: float64(h)})
		}
	}
	return out, true
}
