package testkit

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"gostudy/domain/abundance"
	"gostudy/domain/study"
)

// SyntheticConfig configures the synthetic study generator
type SyntheticConfig struct {
	Subjects          int    `json:"subjects"`
	SamplesPerSubject int    `json:"samples_per_subject"`
	Features          int    `json:"features"`
	MinDepth          int    `json:"min_depth"`
	MaxDepth          int    `json:"max_depth"`
	Seed              uint64 `json:"seed"`
}

// DefaultSyntheticConfig returns sensible defaults for a small study
func DefaultSyntheticConfig() SyntheticConfig {
	return SyntheticConfig{
		Subjects:          12,
		SamplesPerSubject: 4,
		Features:          40,
		MinDepth:          200,
		MaxDepth:          2000,
		Seed:              42,
	}
}

// Study is a metadata table and its abundance table
type Study struct {
	Metadata *study.Metadata
	Table    *abundance.Table
}

// SubjectColumn and DietColumn are the synthetic study's metadata columns
const (
	SubjectColumn = "HOST_SUBJECT_ID"
	DietColumn    = "Diet"
)

// GenerateStudy builds a repeated-measures study: every subject has its own
// feature weights, shifted by diet, and each sample's counts are Poisson draws
// around a depth uniform in [MinDepth, MaxDepth].
func GenerateStudy(cfg SyntheticConfig) (*Study, error) {
	if cfg.Subjects <= 0 || cfg.SamplesPerSubject <= 0 || cfg.Features <= 0 {
		return nil, fmt.Errorf("synthetic study needs positive subjects, samples and features")
	}
	if cfg.MinDepth <= 0 || cfg.MaxDepth < cfg.MinDepth {
		return nil, fmt.Errorf("synthetic study needs 0 < min depth <= max depth")
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, 0x5eed))
	headers := []string{"SampleID", SubjectColumn, DietColumn, "Timepoint", "Description"}
	features := make([]string, cfg.Features)
	for f := range features {
		features[f] = fmt.Sprintf("F%03d", f+1)
	}

	var (
		records [][]string
		samples []string
		data    []abundance.Triplet
	)
	for s := 0; s < cfg.Subjects; s++ {
		subject := fmt.Sprintf("subject_%02d", s+1)
		diet := "LF"
		if s%2 == 1 {
			diet = "HF"
		}
		weights := subjectWeights(rng, cfg.Features, diet)

		for k := 0; k < cfg.SamplesPerSubject; k++ {
			id := fmt.Sprintf("%s.t%d", subject, k+1)
			col := len(samples)
			samples = append(samples, id)
			records = append(records, []string{id, subject, diet, fmt.Sprint(k + 1), "synthetic gut sample"})

			depth := float64(cfg.MinDepth + rng.IntN(cfg.MaxDepth-cfg.MinDepth+1))
			for f, w := range weights {
				poisson := distuv.Poisson{Lambda: depth * w, Src: rng}
				if c := poisson.Rand(); c > 0 {
					data = append(data, abundance.Triplet{Feature: f, Sample: col, Count: c})
				}
			}
		}
	}

	md, err := study.NewMetadataFromRecords(headers, records)
	if err != nil {
		return nil, err
	}
	table, err := abundance.NewTable(features, samples, data)
	if err != nil {
		return nil, err
	}
	return &Study{Metadata: md, Table: table}, nil
}

// subjectWeights draws normalized feature weights; high-fat subjects favor
// the second half of the features.
func subjectWeights(rng *rand.Rand, n int, diet string) []float64 {
	w := make([]float64, n)
	var total float64
	for f := range w {
		w[f] = rng.ExpFloat64() + 0.01
		if diet == "HF" && f >= n/2 {
			w[f] *= 3
		}
		total += w[f]
	}
	for f := range w {
		w[f] /= total
	}
	return w
}
