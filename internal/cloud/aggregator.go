package cloud

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"gostudy/domain/abundance"
	"gostudy/domain/core"
	"gostudy/domain/ordination"
	"gostudy/internal/logging"
	"gostudy/internal/rarefaction"
	"gostudy/ports"
)

// StageName keys cloud rarefaction draws in the RNG port
const StageName = "cloud"

// Result is an aggregated cloud
type Result struct {
	Ellipsoids map[string]ordination.Ellipsoid
	Iterations int
	Skipped    []int // iterations whose ordination timed out
}

// Aggregator runs an ordination collaborator over rarefied tables and folds
// the coordinates into ellipsoids
type Aggregator struct {
	ordinator ports.OrdinationPort
	rng       ports.RNGPort
	workers   int
	timeout   time.Duration
	logger    *zap.Logger
}

// Option configures an Aggregator
type Option func(*Aggregator)

// WithWorkers bounds concurrent ordination calls (default 1)
func WithWorkers(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.workers = n
		}
	}
}

// WithTimeout bounds each ordination call; zero disables the bound
func WithTimeout(d time.Duration) Option {
	return func(a *Aggregator) { a.timeout = d }
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(a *Aggregator) { a.logger = logging.OrNop(logger) }
}

// NewAggregator creates an aggregator over an ordination collaborator
func NewAggregator(ordinator ports.OrdinationPort, rng ports.RNGPort, opts ...Option) *Aggregator {
	a := &Aggregator{
		ordinator: ordinator,
		rng:       rng,
		workers:   1,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Generate rarefies table to depth iterations times, each from its own
// stream, and aggregates the resulting cloud.
func (a *Aggregator) Generate(ctx context.Context, table *abundance.Table, depth, iterations int, req ordination.Request, axes int, baseSeed uint64, keep func(id string) bool) (*Result, error) {
	if iterations <= 0 {
		return nil, core.NewInvalidRangeError("iterations", fmt.Sprintf("must be positive, got %d", iterations))
	}
	if a.rng == nil {
		return nil, fmt.Errorf("cloud generation requires an RNG port")
	}

	tables := make([]abundance.Rarefied, 0, iterations)
	for i := 0; i < iterations; i++ {
		r, err := a.rng.Stream(ctx, StageName, strconv.Itoa(depth)+"/"+strconv.Itoa(i), baseSeed)
		if err != nil {
			return nil, err
		}
		rare, err := rarefaction.Once(table, depth, r)
		if err != nil {
			return nil, err
		}
		tables = append(tables, abundance.Rarefied{Depth: depth, Iteration: i, Table: rare})
	}
	return a.Aggregate(ctx, tables, req, axes, keep)
}

// Aggregate ordinates every table once and folds the coordinates of the
// first axes axes. Tables without samples and timed-out calls skip their
// iteration; any other collaborator error aborts the run. keep, when non-nil,
// restricts the entities summarized.
func (a *Aggregator) Aggregate(ctx context.Context, tables []abundance.Rarefied, req ordination.Request, axes int, keep func(id string) bool) (*Result, error) {
	if axes <= 0 {
		return nil, core.NewInvalidRangeError("axes", fmt.Sprintf("must be positive, got %d", axes))
	}

	// each worker owns one slot; folding happens after Wait
	coords := make([]ordination.Coordinates, len(tables))
	timedOut := make([]bool, len(tables))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, rare := range tables {
		g.Go(func() error {
			if _, n := rare.Table.Shape(); n == 0 {
				return nil
			}
			c, err := a.ordinate(gctx, rare, req)
			switch {
			case err == nil:
				coords[i] = c
				return nil
			case errors.Is(err, core.ErrOrdinationTimeout):
				a.logger.Warn("skipping iteration",
					zap.Int("iteration", rare.Iteration),
					zap.Int("depth", rare.Depth),
					zap.Error(err))
				timedOut[i] = true
				return nil
			default:
				return fmt.Errorf("ordination of iteration %d: %w", rare.Iteration, err)
			}
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &Result{Iterations: len(tables)}
	for i, skipped := range timedOut {
		if skipped {
			result.Skipped = append(result.Skipped, tables[i].Iteration)
		}
	}

	ellipsoids, err := Fold(coords, axes, keep)
	if err != nil {
		return nil, err
	}
	result.Ellipsoids = ellipsoids

	a.logger.Info("cloud aggregated",
		zap.Int("iterations", result.Iterations),
		zap.Int("skipped", len(result.Skipped)),
		zap.Int("entities", len(ellipsoids)))
	return result, nil
}

type ordinateResult struct {
	coords ordination.Coordinates
	err    error
}

// ordinate calls the collaborator under the per-call timeout. A collaborator
// that ignores its context is abandoned once the timeout fires.
func (a *Aggregator) ordinate(ctx context.Context, rare abundance.Rarefied, req ordination.Request) (ordination.Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	callCtx := ctx
	if a.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	done := make(chan ordinateResult, 1)
	go func() {
		c, err := a.ordinator.Ordinate(callCtx, rare.Table, req)
		done <- ordinateResult{coords: c, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil && errors.Is(r.err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, core.NewOrdinationTimeoutError(rare.Iteration, r.err)
		}
		return r.coords, r.err
	case <-callCtx.Done():
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, core.NewOrdinationTimeoutError(rare.Iteration, callCtx.Err())
	}
}
