package app

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"gostudy/domain/abundance"
	"gostudy/domain/core"
	"gostudy/domain/distance"
	"gostudy/domain/ordination"
	"gostudy/domain/study"
	"gostudy/domain/treatment"
	"gostudy/internal/cloud"
	"gostudy/internal/config"
	"gostudy/internal/errors"
	"gostudy/internal/logging"
	"gostudy/internal/rarefaction"
	"gostudy/internal/selection"
	internaltreatment "gostudy/internal/treatment"
	"gostudy/ports"
)

// SelectionStage keys selection draws in the RNG port
const SelectionStage = "selection"

// StudyService runs the sampling-design operations over a study
type StudyService struct {
	stageRunner *StageRunner
	rngPort     ports.RNGPort
	ordinator   ports.OrdinationPort
	distances   ports.DistancePort
	cfg         config.Config
	logger      *zap.Logger
}

// NewStudyService creates a study service. ordinator and distances may be nil
// when the caller never runs Cloud or Compare.
func NewStudyService(cfg config.Config, rngPort ports.RNGPort, ordinator ports.OrdinationPort, distances ports.DistancePort, logger *zap.Logger) *StudyService {
	logger = logging.OrNop(logger)
	return &StudyService{
		stageRunner: NewStageRunner(logger),
		rngPort:     rngPort,
		ordinator:   ordinator,
		distances:   distances,
		cfg:         cfg,
		logger:      logger,
	}
}

// SelectRequest defines a balanced selection
type SelectRequest struct {
	Metadata          *study.Metadata
	Table             *abundance.Table
	Depth             int
	SubjectColumn     string // defaults to the configured subject column
	Subjects          int
	SamplesPerSubject int
}

// SelectResult is a balanced selection
type SelectResult struct {
	RunID     core.RunID       `json:"run_id" yaml:"run_id"`
	ChosenIDs []string         `json:"chosen_ids" yaml:"chosen_ids"`
	Table     *abundance.Table `json:"-" yaml:"-"`
	RuntimeMs int64            `json:"runtime_ms" yaml:"runtime_ms"`
}

// Select draws a balanced subject/sample subset
func (s *StudyService) Select(ctx context.Context, req SelectRequest) (*SelectResult, error) {
	startTime := time.Now()
	runID := core.NewRunID()

	params := selection.Params{
		Depth:             req.Depth,
		SubjectColumn:     req.SubjectColumn,
		Subjects:          req.Subjects,
		SamplesPerSubject: req.SamplesPerSubject,
	}
	if params.SubjectColumn == "" {
		params.SubjectColumn = s.cfg.Study.SubjectColumn
	}

	var res *selection.Result
	err := s.stageRunner.Run(ctx, runID, SelectionStage, func(ctx context.Context) error {
		key := selectionKey(params.Depth, params.Subjects, params.SamplesPerSubject)
		r, err := s.rngPort.Stream(ctx, SelectionStage, key, s.cfg.Study.Seed)
		if err != nil {
			return err
		}
		res, err = selection.Select(req.Metadata, req.Table, params, r)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "selection failed")
	}

	return &SelectResult{
		RunID:     runID,
		ChosenIDs: res.ChosenIDs,
		Table:     res.Table,
		RuntimeMs: time.Since(startTime).Milliseconds(),
	}, nil
}

// RarefyRequest defines a rarefaction series. Zero Steps or Iterations take
// the configured defaults.
type RarefyRequest struct {
	Table      *abundance.Table
	MinDepth   int
	MaxDepth   int
	Steps      int
	Iterations int
}

// RarefyResult is a rarefaction series
type RarefyResult struct {
	RunID     core.RunID
	Series    []abundance.Rarefied
	RuntimeMs int64
}

// Rarefy draws a multi-depth rarefaction series
func (s *StudyService) Rarefy(ctx context.Context, req RarefyRequest) (*RarefyResult, error) {
	startTime := time.Now()
	runID := core.NewRunID()

	params := rarefaction.SeriesParams{
		MinDepth:   req.MinDepth,
		MaxDepth:   req.MaxDepth,
		Steps:      orDefault(req.Steps, s.cfg.Rarefaction.Steps),
		Iterations: orDefault(req.Iterations, s.cfg.Rarefaction.Iterations),
	}

	var series []abundance.Rarefied
	err := s.stageRunner.Run(ctx, runID, rarefaction.StageName, func(ctx context.Context) error {
		var err error
		series, err = rarefaction.NewGenerator(s.rngPort, s.logger).Series(ctx, req.Table, params, s.cfg.Study.Seed)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "rarefaction failed")
	}

	return &RarefyResult{RunID: runID, Series: series, RuntimeMs: time.Since(startTime).Milliseconds()}, nil
}

// AlphaRequest defines an alpha rarefaction: the series is derived from
// MaxDepth, and Metrics defaults to observed features.
type AlphaRequest struct {
	Table      *abundance.Table
	MaxDepth   int
	Iterations int
	Metrics    map[string]rarefaction.AlphaFunc
}

// AlphaResult holds one collation per metric
type AlphaResult struct {
	RunID      core.RunID
	Collations map[string]*rarefaction.AlphaCollation
	RuntimeMs  int64
}

// Alpha rarefies to a series of depths up to MaxDepth and collates alpha
// diversity over it
func (s *StudyService) Alpha(ctx context.Context, req AlphaRequest) (*AlphaResult, error) {
	startTime := time.Now()
	runID := core.NewRunID()

	metrics := req.Metrics
	if len(metrics) == 0 {
		metrics = map[string]rarefaction.AlphaFunc{"observed_features": rarefaction.ObservedFeatures}
	}
	params := rarefaction.AlphaParams(req.MaxDepth, orDefault(req.Iterations, s.cfg.Rarefaction.Iterations))

	var collations map[string]*rarefaction.AlphaCollation
	err := s.stageRunner.Run(ctx, runID, "alpha", func(ctx context.Context) error {
		series, err := rarefaction.NewGenerator(s.rngPort, s.logger).Series(ctx, req.Table, params, s.cfg.Study.Seed)
		if err != nil {
			return err
		}
		collations, err = rarefaction.CollateAlpha(ctx, series, metrics)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "alpha rarefaction failed")
	}

	return &AlphaResult{RunID: runID, Collations: collations, RuntimeMs: time.Since(startTime).Milliseconds()}, nil
}

// CloudRequest defines a rarefaction cloud at one depth. Zero Iterations or
// Axes take the configured defaults. When Metadata is set only its samples
// are summarized.
type CloudRequest struct {
	Table      *abundance.Table
	Metadata   *study.Metadata
	Depth      int
	Iterations int
	Axes       int
	Ordination ordination.Request
}

// CloudResult is an aggregated cloud
type CloudResult struct {
	RunID      core.RunID                      `json:"run_id" yaml:"run_id"`
	Ellipsoids map[string]ordination.Ellipsoid `json:"ellipsoids" yaml:"ellipsoids"`
	Iterations int                             `json:"iterations" yaml:"iterations"`
	Skipped    []int                           `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	RuntimeMs  int64                           `json:"runtime_ms" yaml:"runtime_ms"`
}

// Cloud ordinates repeated rarefactions of the table and summarizes each
// sample's spread
func (s *StudyService) Cloud(ctx context.Context, req CloudRequest) (*CloudResult, error) {
	if s.ordinator == nil {
		return nil, errors.InternalError("cloud requires an ordination collaborator")
	}
	startTime := time.Now()
	runID := core.NewRunID()

	var keep func(string) bool
	if req.Metadata != nil {
		keep = func(id string) bool {
			_, err := req.Metadata.Lookup(id)
			return err == nil
		}
	}

	agg := cloud.NewAggregator(s.ordinator, s.rngPort,
		cloud.WithWorkers(s.cfg.Cloud.Workers),
		cloud.WithTimeout(s.cfg.Cloud.Timeout),
		cloud.WithLogger(s.logger.With(zap.String("run_id", runID.String()))),
	)

	var res *cloud.Result
	err := s.stageRunner.Run(ctx, runID, cloud.StageName, func(ctx context.Context) error {
		var err error
		res, err = agg.Generate(ctx, req.Table, req.Depth,
			orDefault(req.Iterations, s.cfg.Cloud.Iterations), req.Ordination,
			orDefault(req.Axes, s.cfg.Cloud.Axes), s.cfg.Study.Seed, keep)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "cloud generation failed")
	}

	return &CloudResult{
		RunID:      runID,
		Ellipsoids: res.Ellipsoids,
		Iterations: res.Iterations,
		Skipped:    res.Skipped,
		RuntimeMs:  time.Since(startTime).Milliseconds(),
	}, nil
}

// CompareRequest defines a treatment comparison. The distance matrix is
// computed over the whole table; ChosenIDs (all table samples when empty)
// are the samples grouped by Category.
type CompareRequest struct {
	Metadata   *study.Metadata
	Table      *abundance.Table
	ChosenIDs  []string
	Category   string
	Ordination ordination.Request
}

// CompareResult is a treatment comparison
type CompareResult struct {
	RunID      core.RunID
	Statistics *treatment.GroupStatistics
	RuntimeMs  int64
}

// Compare computes within, between and to-all distance statistics of the
// Category groups
func (s *StudyService) Compare(ctx context.Context, req CompareRequest) (*CompareResult, error) {
	if s.distances == nil {
		return nil, errors.InternalError("compare requires a distance collaborator")
	}
	startTime := time.Now()
	runID := core.NewRunID()

	chosen := req.ChosenIDs
	if len(chosen) == 0 {
		chosen = req.Table.SampleIDs()
	}

	var stats *treatment.GroupStatistics
	err := s.stageRunner.Run(ctx, runID, "compare", func(ctx context.Context) error {
		dm, err := s.distances.BetaDistance(ctx, req.Table, req.Ordination)
		if err != nil {
			return errors.ExternalServiceError("distance", err)
		}
		stats, err = s.CompareMatrix(chosen, req.Category, req.Metadata, dm)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "treatment comparison failed")
	}

	return &CompareResult{RunID: runID, Statistics: stats, RuntimeMs: time.Since(startTime).Milliseconds()}, nil
}

// CompareMatrix compares treatment groups over a precomputed distance matrix
func (s *StudyService) CompareMatrix(chosenIDs []string, category string, md *study.Metadata, dm *distance.Matrix) (*treatment.GroupStatistics, error) {
	stats, err := internaltreatment.Compare(chosenIDs, category, md, dm)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("treatment groups compared",
		zap.String("category", category),
		zap.Strings("groups", stats.Groups),
		zap.Int("samples", len(chosenIDs)))
	return stats, nil
}

// SelectorsRequest defines a study space listing. Zero Minimum lists every depth.
type SelectorsRequest struct {
	Metadata      *study.Metadata
	Table         *abundance.Table
	Minimum       float64
	SubjectColumn string
}

// SelectorsResult lists a study's sample depths and supported selections
type SelectorsResult struct {
	RunID     core.RunID              `json:"run_id" yaml:"run_id"`
	Summary   selection.DepthSummary  `json:"summary" yaml:"summary"`
	Counts    []selection.SampleDepth `json:"counts" yaml:"counts"`
	Selectors []selection.SelectorRow `json:"selectors" yaml:"selectors"`
}

// Selectors lists the per-sample depths and the selections the study supports
func (s *StudyService) Selectors(ctx context.Context, req SelectorsRequest) (*SelectorsResult, error) {
	runID := core.NewRunID()
	column := req.SubjectColumn
	if column == "" {
		column = s.cfg.Study.SubjectColumn
	}

	res := &SelectorsResult{RunID: runID}
	err := s.stageRunner.Run(ctx, runID, "selectors", func(ctx context.Context) error {
		var err error
		if res.Counts, err = selection.SortedCounts(req.Table, false); err != nil {
			return err
		}
		if res.Summary, err = selection.SummarizeDepths(res.Counts); err != nil {
			return err
		}
		res.Selectors, err = selection.Selectors(res.Counts, req.Minimum, req.Metadata, column, s.logger)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "selectors failed")
	}
	return res, nil
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func selectionKey(depth, subjects, samples int) string {
	return strconv.Itoa(depth) + "/" + strconv.Itoa(subjects) + "/" + strconv.Itoa(samples)
}
