package selection

import (
	"github.com/montanaflynn/stats"

	"gostudy/domain/core"
)

// DepthSummary describes the distribution of per-sample sequencing depths
type DepthSummary struct {
	Samples int     `json:"samples" yaml:"samples"`
	Min     float64 `json:"min" yaml:"min"`
	Q25     float64 `json:"q25" yaml:"q25"`
	Median  float64 `json:"median" yaml:"median"`
	Q75     float64 `json:"q75" yaml:"q75"`
	Max     float64 `json:"max" yaml:"max"`
	Mean    float64 `json:"mean" yaml:"mean"`
	StdDev  float64 `json:"std_dev" yaml:"std_dev"`
}

// SummarizeDepths summarizes the depths of counts
func SummarizeDepths(counts []SampleDepth) (DepthSummary, error) {
	if len(counts) == 0 {
		return DepthSummary{}, core.ErrEmptyTable
	}
	depths := make([]float64, len(counts))
	for i, c := range counts {
		depths[i] = c.Depth
	}

	summary := DepthSummary{Samples: len(depths)}
	var err error
	if summary.Min, err = stats.Min(depths); err != nil {
		return DepthSummary{}, err
	}
	if summary.Max, err = stats.Max(depths); err != nil {
		return DepthSummary{}, err
	}
	if summary.Median, err = stats.Median(depths); err != nil {
		return DepthSummary{}, err
	}
	if summary.Q25, err = stats.Percentile(depths, 25); err != nil {
		return DepthSummary{}, err
	}
	if summary.Q75, err = stats.Percentile(depths, 75); err != nil {
		return DepthSummary{}, err
	}
	if summary.Mean, err = stats.Mean(depths); err != nil {
		return DepthSummary{}, err
	}
	if summary.StdDev, err = stats.StandardDeviationPopulation(depths); err != nil {
		return DepthSummary{}, err
	}
	return summary, nil
}
