package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"gostudy/domain/core"
	"gostudy/internal/logging"
)

// StageRunner times and logs the named stages of a study run
type StageRunner struct {
	logger *zap.Logger
}

// NewStageRunner creates a new stage runner
func NewStageRunner(logger *zap.Logger) *StageRunner {
	return &StageRunner{logger: logging.OrNop(logger)}
}

// Run executes fn as stage of run, logging its outcome and duration
func (r *StageRunner) Run(ctx context.Context, runID core.RunID, stage string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	log := r.logger.With(zap.String("run_id", runID.String()), zap.String("stage", stage))
	start := time.Now()
	log.Debug("stage started")

	if err := fn(ctx); err != nil {
		log.Error("stage failed", zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		return err
	}
	log.Info("stage completed", zap.Duration("elapsed", time.Since(start)))
	return nil
}
