package rarefaction

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"gostudy/domain/abundance"
)

// AlphaFunc is an external alpha-diversity collaborator: one value per sample
type AlphaFunc func(ctx context.Context, table *abundance.Table) (map[string]float64, error)

// AlphaRow holds one metric's values for one rarefied table
type AlphaRow struct {
	Label     string
	Depth     int
	Iteration int
	Values    []float64 // aligned with AlphaCollation.SampleIDs; NaN when absent
}

// DepthMean averages a metric over the iterations of one depth
type DepthMean struct {
	Depth  int
	Values []float64 // NaN when no iteration had the sample
}

// AlphaCollation is a metric's values over a rarefaction series
type AlphaCollation struct {
	Metric    string
	SampleIDs []string
	Rows      []AlphaRow
	Means     []DepthMean
}

// CollateAlpha evaluates every metric on every table of series. Sample order is
// that of the first (shallowest) table.
func CollateAlpha(ctx context.Context, series []abundance.Rarefied, metrics map[string]AlphaFunc) (map[string]*AlphaCollation, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("alpha collation needs at least one rarefied table")
	}
	samples := series[0].Table.SampleIDs()

	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(map[string]*AlphaCollation, len(metrics))
	for _, name := range names {
		fn := metrics[name]
		c := &AlphaCollation{Metric: name, SampleIDs: samples}
		for _, rare := range series {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			values, err := fn(ctx, rare.Table)
			if err != nil {
				return nil, fmt.Errorf("alpha metric %s at depth %d: %w", name, rare.Depth, err)
			}
			row := AlphaRow{
				Label:     fmt.Sprintf("alpha_rare_%d_%d", rare.Depth, rare.Iteration),
				Depth:     rare.Depth,
				Iteration: rare.Iteration,
				Values:    make([]float64, len(samples)),
			}
			for i, id := range samples {
				v, ok := values[id]
				if !ok {
					v = math.NaN()
				}
				row.Values[i] = v
			}
			c.Rows = append(c.Rows, row)
		}
		c.Means = depthMeans(c.Rows, len(samples))
		out[name] = c
	}
	return out, nil
}

func depthMeans(rows []AlphaRow, width int) []DepthMean {
	var means []DepthMean
	for start := 0; start < len(rows); {
		end := start
		for end < len(rows) && rows[end].Depth == rows[start].Depth {
			end++
		}
		dm := DepthMean{Depth: rows[start].Depth, Values: make([]float64, width)}
		for i := 0; i < width; i++ {
			var present []float64
			for _, r := range rows[start:end] {
				if !math.IsNaN(r.Values[i]) {
					present = append(present, r.Values[i])
				}
			}
			m, err := stats.Mean(present)
			if err != nil {
				m = math.NaN()
			}
			dm.Values[i] = m
		}
		means = append(means, dm)
		start = end
	}
	return means
}

// ObservedFeatures counts the features with a non-zero count in each sample
func ObservedFeatures(ctx context.Context, table *abundance.Table) (map[string]float64, error) {
	out := make(map[string]float64)
	for _, id := range table.SampleIDs() {
		col, err := table.Column(id)
		if err != nil {
			return nil, err
		}
		out[id] = float64(len(col))
	}
	return out, nil
}
