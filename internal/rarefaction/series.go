package rarefaction

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"gostudy/domain/abundance"
	"gostudy/domain/core"
	"gostudy/internal/logging"
	"gostudy/ports"
)

// StageName keys rarefaction draws in the RNG port
const StageName = "rarefaction"

// SeriesParams describes a multi-depth rarefaction sweep
type SeriesParams struct {
	MinDepth   int
	MaxDepth   int
	Steps      int
	Iterations int
}

// Validate checks the sweep bounds
func (p SeriesParams) Validate() error {
	switch {
	case p.MinDepth <= 0:
		return core.NewInvalidRangeError("min depth", fmt.Sprintf("must be positive, got %d", p.MinDepth))
	case p.MaxDepth <= p.MinDepth:
		return core.NewInvalidRangeError("max depth", fmt.Sprintf("%d must exceed min depth %d", p.MaxDepth, p.MinDepth))
	case p.Steps <= 0:
		return core.NewInvalidRangeError("steps", fmt.Sprintf("must be positive, got %d", p.Steps))
	case p.Iterations <= 0:
		return core.NewInvalidRangeError("iterations", fmt.Sprintf("must be positive, got %d", p.Iterations))
	}
	return nil
}

// Depths lists the depths of the sweep: MinDepth, MinDepth+step, ... up to and
// including MaxDepth, with step = floor((MaxDepth-MinDepth)/Steps), at least 1.
func (p SeriesParams) Depths() ([]int, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	step := (p.MaxDepth - p.MinDepth) / p.Steps
	if step < 1 {
		step = 1
	}
	var depths []int
	for d := p.MinDepth; d <= p.MaxDepth; d += step {
		depths = append(depths, d)
	}
	return depths, nil
}

// AlphaParams derives the alpha-rarefaction sweep for a maximum depth:
// four steps starting at a quarter of the maximum.
func AlphaParams(maxDepth, iterations int) SeriesParams {
	const steps = 4
	return SeriesParams{
		MinDepth:   int(math.Ceil(float64(maxDepth) / steps)),
		MaxDepth:   maxDepth,
		Steps:      steps,
		Iterations: iterations,
	}
}

// Generator draws rarefaction series with independently seeded iterations
type Generator struct {
	rng    ports.RNGPort
	logger *zap.Logger
}

// NewGenerator creates a generator over an RNG port
func NewGenerator(rng ports.RNGPort, logger *zap.Logger) *Generator {
	return &Generator{rng: rng, logger: logging.OrNop(logger)}
}

// Once rarefies table to depth with the stream keyed by (depth, iteration)
func (g *Generator) Once(ctx context.Context, table *abundance.Table, depth, iteration int, baseSeed uint64) (abundance.Rarefied, error) {
	r, err := g.rng.Stream(ctx, StageName, streamKey(depth, iteration), baseSeed)
	if err != nil {
		return abundance.Rarefied{}, err
	}
	rare, err := Once(table, depth, r)
	if err != nil {
		return abundance.Rarefied{}, err
	}
	return abundance.Rarefied{Depth: depth, Iteration: iteration, Table: rare}, nil
}

// Series returns one rarefied table per (depth, iteration), depth-major and
// ascending. The same baseSeed reproduces the same series.
func (g *Generator) Series(ctx context.Context, table *abundance.Table, params SeriesParams, baseSeed uint64) ([]abundance.Rarefied, error) {
	depths, err := params.Depths()
	if err != nil {
		return nil, err
	}

	g.logger.Debug("rarefaction series",
		zap.Ints("depths", depths),
		zap.Int("iterations", params.Iterations))

	out := make([]abundance.Rarefied, 0, len(depths)*params.Iterations)
	for _, depth := range depths {
		for it := 0; it < params.Iterations; it++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			rare, err := g.Once(ctx, table, depth, it, baseSeed)
			if err != nil {
				return nil, fmt.Errorf("rarefy depth %d iteration %d: %w", depth, it, err)
			}
			_, kept := rare.Table.Shape()
			if kept == 0 {
				g.logger.Warn("rarefaction dropped every sample",
					zap.Int("depth", depth),
					zap.Int("iteration", it))
			}
			out = append(out, rare)
		}
	}
	return out, nil
}

func streamKey(depth, iteration int) string {
	return fmt.Sprintf("%d/%d", depth, iteration)
}
