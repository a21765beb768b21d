package selection

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"go.uber.org/zap"

	"gostudy/domain/abundance"
	"gostudy/domain/study"
	"gostudy/internal/logging"
)

// SampleDepth is a sample's total count
type SampleDepth struct {
	Depth    float64 `json:"depth" yaml:"depth"`
	SampleID string  `json:"sample_id" yaml:"sample_id"`
}

// SortedCounts lists every sample's total count, ascending by (depth, id), or
// descending when reverse is set.
func SortedCounts(table *abundance.Table, reverse bool) ([]SampleDepth, error) {
	ids := table.SampleIDs()
	out := make([]SampleDepth, 0, len(ids))
	for _, id := range ids {
		sum, err := table.ColumnSum(id)
		if err != nil {
			return nil, err
		}
		out = append(out, SampleDepth{Depth: sum, SampleID: id})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Depth != out[j].Depth {
			return out[i].Depth < out[j].Depth
		}
		return out[i].SampleID < out[j].SampleID
	})
	if reverse {
		slices.Reverse(out)
	}
	return out, nil
}

// SelectorRow is one achievable selection: at Depth the study still offers
// Subjects subjects with SamplesPerSubject samples each. Categories lists the
// metadata columns that still vary; nil means unchanged from the previous row.
type SelectorRow struct {
	Depth             int      `json:"depth" yaml:"depth"`
	Subjects          int      `json:"subjects" yaml:"subjects"`
	SamplesPerSubject int      `json:"samples_per_subject" yaml:"samples_per_subject"`
	Categories        []string `json:"categories" yaml:"categories"`
}

// String renders the row as a tab separated selector line
func (r SelectorRow) String() string {
	cats := "None"
	if r.Categories != nil {
		cats = strings.Join(r.Categories, ",")
	}
	return fmt.Sprintf("%d\t%d\t%d\t%s", r.Depth, r.Subjects, r.SamplesPerSubject, cats)
}

// minimumCombinations is the smallest subjects x samples product worth offering
const minimumCombinations = 3

// Selectors walks counts (ascending) and records every depth at which the
// achievable subject count, samples per subject or informative metadata
// columns change. Every subject starts with the sample allowance of the
// smallest subject; each visited sample spends one unit of its subject's
// allowance, and a subject leaves the pool when its allowance reaches zero.
func Selectors(counts []SampleDepth, minimum float64, md *study.Metadata, subjectColumn string, logger *zap.Logger) ([]SelectorRow, error) {
	logger = logging.OrNop(logger)
	if !md.HasColumn(subjectColumn) {
		return nil, fmt.Errorf("subject column %q not in metadata", subjectColumn)
	}

	samplesOf := make(map[string]int)
	for _, row := range md.Rows() {
		samplesOf[row.Fields[subjectColumn]]++
	}
	least := 0
	for _, n := range samplesOf {
		if least == 0 || n < least {
			least = n
		}
	}
	allowance := make(map[string]int, len(samplesOf))
	for s := range samplesOf {
		allowance[s] = least
	}

	var (
		rows         []SelectorRow
		prevHeaders  []string
		prevSubjects int
		prevSamples  int
		depth        = -1.0
	)
	for _, c := range counts {
		if c.Depth < minimum || c.Depth == depth {
			continue
		}
		row, err := md.Lookup(c.SampleID)
		if err != nil {
			logger.Warn("sample missing from metadata", zap.String("sample_id", c.SampleID))
			continue
		}
		subject := row.Fields[subjectColumn]
		depth = c.Depth

		remaining := make(map[string]bool)
		for _, other := range counts {
			if other.Depth >= depth {
				remaining[other.SampleID] = true
			}
		}
		headers := md.Filter(func(id string) bool { return remaining[id] }).Headers()
		if !slices.Contains(headers, subjectColumn) || len(allowance) == 0 {
			break
		}

		subjects := len(allowance)
		samples := least
		for _, n := range allowance {
			samples = min(samples, n)
		}
		if subjects*samples < minimumCombinations {
			continue
		}

		categories := headers[1 : len(headers)-1]
		switch {
		case rows == nil, !slices.Equal(headers, prevHeaders):
			rows = append(rows, SelectorRow{Depth: int(depth), Subjects: subjects, SamplesPerSubject: samples, Categories: categories})
			prevHeaders = headers
			if len(rows) == 1 {
				prevSubjects, prevSamples = subjects, samples
			}
		case samples != prevSamples:
			rows = append(rows, SelectorRow{Depth: int(depth), Subjects: subjects, SamplesPerSubject: samples})
			prevSamples = samples
		case subjects != prevSubjects:
			rows = append(rows, SelectorRow{Depth: int(depth), Subjects: subjects, SamplesPerSubject: samples})
			prevSubjects = subjects
		}

		if n, ok := allowance[subject]; ok {
			if n <= 1 {
				delete(allowance, subject)
			} else {
				allowance[subject] = n - 1
			}
		}
	}

	return rows, nil
}
