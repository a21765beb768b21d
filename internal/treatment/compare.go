package treatment

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"gostudy/domain/core"
	"gostudy/domain/distance"
	"gostudy/domain/study"
	domain "gostudy/domain/treatment"
)

// Covering partitions sampleIDs by their value under category. Groups appear
// in first-seen order and members keep their input order.
func Covering(sampleIDs []string, category string, md *study.Metadata) ([]domain.Group, error) {
	var groups []domain.Group
	pos := make(map[string]int)
	for _, id := range sampleIDs {
		label, err := md.Category(id, category)
		if err != nil {
			return nil, err
		}
		i, ok := pos[label]
		if !ok {
			i = len(groups)
			pos[label] = i
			groups = append(groups, domain.Group{Label: label})
		}
		groups[i].Members = append(groups[i].Members, id)
	}
	return groups, nil
}

// Compare groups chosenIDs by category and computes within, between and to-all
// distance statistics from dm.
func Compare(chosenIDs []string, category string, md *study.Metadata, dm *distance.Matrix) (*domain.GroupStatistics, error) {
	if _, err := dm.Indices(chosenIDs); err != nil {
		return nil, err
	}
	groups, err := Covering(chosenIDs, category, md)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return nil, core.NewInsufficientDataError(fmt.Sprintf("no samples to compare under %s", category))
	}

	k := len(groups)
	result := &domain.GroupStatistics{
		Groups:          make([]string, k),
		BetweenWithin:   mat.NewDense(k, k, nil),
		BetweenWithinSE: mat.NewDense(k, k, nil),
		ToAll:           mat.NewDense(k, 2, nil),
	}

	for i, g := range groups {
		if len(g.Members) == 0 {
			return nil, core.NewEmptyGroupError(g.Label)
		}
		result.Groups[i] = g.Label

		toAll, err := ToAll(g.Members, dm)
		if err != nil {
			return nil, err
		}
		result.ToAll.Set(i, 0, toAll.Mean)
		result.ToAll.Set(i, 1, toAll.SE)

		within, err := Within(g.Members, dm)
		if err != nil {
			return nil, err
		}
		result.BetweenWithin.Set(i, i, within.Mean)
		result.BetweenWithinSE.Set(i, i, within.SE)
	}

	for i := 0; i < k; i++ {
		for j := i + 1; j < k; j++ {
			between, err := Between(groups[i].Members, groups[j].Members, dm)
			if err != nil {
				return nil, err
			}
			result.BetweenWithin.Set(i, j, between.Mean)
			result.BetweenWithinSE.Set(i, j, between.SE)
		}
	}

	return result, nil
}
