package testkit

import (
	"context"
	"math"

	"gostudy/domain/abundance"
	"gostudy/domain/distance"
	"gostudy/domain/ordination"
)

// ProfileOrdination is a stand-in ordination collaborator: a sample's
// coordinates are its relative abundances of the first Axes features,
// centered on the table mean.
type ProfileOrdination struct {
	Axes int
}

// Ordinate implements ports.OrdinationPort
func (p ProfileOrdination) Ordinate(ctx context.Context, table *abundance.Table, req ordination.Request) (ordination.Coordinates, error) {
	profiles, err := relativeProfiles(ctx, table)
	if err != nil {
		return nil, err
	}

	mean := make([]float64, p.Axes)
	for _, prof := range profiles {
		for a := 0; a < p.Axes && a < len(prof); a++ {
			mean[a] += prof[a] / float64(len(profiles))
		}
	}

	out := make(ordination.Coordinates, len(profiles))
	for id, prof := range profiles {
		vec := make([]float64, p.Axes)
		for a := 0; a < p.Axes && a < len(prof); a++ {
			vec[a] = prof[a] - mean[a]
		}
		out[id] = vec
	}
	return out, nil
}

// ProfileDistance is a stand-in distance collaborator: half the L1 distance
// between relative abundance profiles.
type ProfileDistance struct{}

// BetaDistance implements ports.DistancePort
func (ProfileDistance) BetaDistance(ctx context.Context, table *abundance.Table, req ordination.Request) (*distance.Matrix, error) {
	profiles, err := relativeProfiles(ctx, table)
	if err != nil {
		return nil, err
	}
	ids := table.SampleIDs()
	rows := make([][]float64, len(ids))
	for i := range rows {
		rows[i] = make([]float64, len(ids))
	}
	for i := range ids {
		for j := i + 1; j < len(ids); j++ {
			var d float64
			pi, pj := profiles[ids[i]], profiles[ids[j]]
			for f := range pi {
				d += math.Abs(pi[f] - pj[f])
			}
			rows[i][j] = d / 2
			rows[j][i] = d / 2
		}
	}
	return distance.NewMatrix(ids, rows)
}

func relativeProfiles(ctx context.Context, table *abundance.Table) (map[string][]float64, error) {
	nFeatures, _ := table.Shape()
	out := make(map[string][]float64)
	for _, id := range table.SampleIDs() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		col, err := table.Column(id)
		if err != nil {
			return nil, err
		}
		total, err := table.ColumnSum(id)
		if err != nil {
			return nil, err
		}
		prof := make([]float64, nFeatures)
		if total > 0 {
			for _, e := range col {
				prof[e.Feature] = e.Count / total
			}
		}
		out[id] = prof
	}
	return out, nil
}
