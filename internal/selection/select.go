package selection

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"gostudy/domain/abundance"
	"gostudy/domain/core"
	"gostudy/domain/study"
	"gostudy/internal/rarefaction"
)

// Params are the selection targets
type Params struct {
	Depth             int
	SubjectColumn     string
	Subjects          int
	SamplesPerSubject int
}

// Validate checks the targets
func (p Params) Validate() error {
	switch {
	case p.Depth <= 0:
		return core.NewInvalidRangeError("depth", fmt.Sprintf("must be positive, got %d", p.Depth))
	case p.Subjects <= 0:
		return core.NewInvalidRangeError("subjects", fmt.Sprintf("must be positive, got %d", p.Subjects))
	case p.SamplesPerSubject <= 0:
		return core.NewInvalidRangeError("samples per subject", fmt.Sprintf("must be positive, got %d", p.SamplesPerSubject))
	}
	return nil
}

// Result is a balanced selection and the input table restricted to it
type Result struct {
	ChosenIDs []string
	Table     *abundance.Table
}

// Select draws a balanced set of samples: subjects keeping at least
// SamplesPerSubject samples after rarefaction to Depth contribute their first
// SamplesPerSubject samples in metadata order, and a shuffled prefix of
// Subjects such subjects is chosen. rng drives both the rarefaction and the
// subject shuffle. The returned table holds the original, unrarefied counts.
func Select(md *study.Metadata, table *abundance.Table, p Params, rng *rand.Rand) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if !md.HasColumn(p.SubjectColumn) {
		return nil, core.NewUnknownCategoryError("metadata", p.SubjectColumn)
	}

	rare, err := rarefaction.Once(table, p.Depth, rng)
	if err != nil {
		return nil, err
	}

	// subjects in first-appearance order so a fixed seed shuffles reproducibly
	var subjects []string
	perSubject := make(map[string][]string)
	for _, row := range md.Rows() {
		if !rare.HasSample(row.SampleID) {
			continue
		}
		subject, err := row.Value(p.SubjectColumn)
		if err != nil {
			return nil, err
		}
		if _, seen := perSubject[subject]; !seen {
			subjects = append(subjects, subject)
		}
		perSubject[subject] = append(perSubject[subject], row.SampleID)
	}

	var qualifying []string
	for _, s := range subjects {
		if len(perSubject[s]) >= p.SamplesPerSubject {
			qualifying = append(qualifying, s)
		}
	}
	if len(qualifying) == 0 {
		return nil, core.NewInsufficientDataError(fmt.Sprintf(
			"no subject has %d samples with at least %d counts", p.SamplesPerSubject, p.Depth))
	}

	rng.Shuffle(len(qualifying), func(i, j int) {
		qualifying[i], qualifying[j] = qualifying[j], qualifying[i]
	})
	if len(qualifying) > p.Subjects {
		qualifying = qualifying[:p.Subjects]
	}

	var chosen []string
	for _, s := range qualifying {
		chosen = append(chosen, perSubject[s][:p.SamplesPerSubject]...)
	}

	keep := make(map[string]bool, len(chosen))
	for _, id := range chosen {
		keep[id] = true
	}
	filtered, err := table.FilterSamples(func(id string) bool { return keep[id] })
	if err != nil {
		if errors.Is(err, core.ErrEmptyTable) {
			return nil, core.NewInsufficientDataError("using those parameters no samples remain in the table")
		}
		return nil, err
	}

	return &Result{ChosenIDs: chosen, Table: filtered}, nil
}
