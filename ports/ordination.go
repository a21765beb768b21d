package ports

import (
	"context"

	"gostudy/domain/abundance"
	"gostudy/domain/distance"
	"gostudy/domain/ordination"
)

// OrdinationPort maps a table to per-sample coordinates (distance + ordination).
// Implementations are external and opaque to the core; they must honor ctx.
type OrdinationPort interface {
	Ordinate(ctx context.Context, table *abundance.Table, req ordination.Request) (ordination.Coordinates, error)
}

// DistancePort computes the pairwise beta-diversity matrix of a table's samples
type DistancePort interface {
	BetaDistance(ctx context.Context, table *abundance.Table, req ordination.Request) (*distance.Matrix, error)
}

// OrdinationFunc adapts a function to OrdinationPort
type OrdinationFunc func(ctx context.Context, table *abundance.Table, req ordination.Request) (ordination.Coordinates, error)

// Ordinate calls f
func (f OrdinationFunc) Ordinate(ctx context.Context, table *abundance.Table, req ordination.Request) (ordination.Coordinates, error) {
	return f(ctx, table, req)
}
