// Package service wires the pipeline stages into a single forecasting run:
// read, clean, engineer features, split, tune, evaluate and report.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/okian/waitcast/internal/adapters/ledger"
	"github.com/okian/waitcast/internal/adapters/report"
	"github.com/okian/waitcast/internal/adapters/source"
	"github.com/okian/waitcast/internal/config"
	"github.com/okian/waitcast/internal/domain/cleaning"
	"github.com/okian/waitcast/internal/domain/evaluation"
	"github.com/okian/waitcast/internal/domain/features"
	"github.com/okian/waitcast/internal/domain/model"
	"github.com/okian/waitcast/internal/domain/regressor"
	"github.com/okian/waitcast/internal/domain/split"
	"github.com/okian/waitcast/internal/domain/tuning"
	"github.com/okian/waitcast/internal/domain/types"
	"github.com/okian/waitcast/pkg/logger"
	"github.com/okian/waitcast/pkg/metrics"
)

// Pipeline stage names used in logs and stage duration metrics.
const (
	StageIngest   = "ingest"
	StageClean    = "clean"
	StageFeatures = "features"
	StageTune     = "tune"
	StageEvaluate = "evaluate"
	StageReport   = "report"
)

// ErrPipeline wraps any failure of a run with the stage it happened in.
var ErrPipeline = errors.New("pipeline failed")

// StageError reports the stage a run failed in.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }

// Unwrap exposes both ErrPipeline and the cause to errors.Is.
func (e *StageError) Unwrap() []error { return []error{ErrPipeline, e.Err} }

// Result is everything a run produces.
type Result struct {
	Report    *types.Report
	Model     *tuning.FittedModel
	Baselines map[string]*tuning.FittedModel
	Stats     cleaning.Stats
}

// Service runs the forecasting pipeline described by a Config.
type Service struct {
	cfg *config.Config

	reader      *source.Reader
	cleaner     *cleaning.Cleaner
	featureOpts []features.Option
	tuner       *tuning.Tuner
	grid        tuning.Grid

	now    func() time.Time
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock sets the time source used for report timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New builds a Service from a validated Config.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", config.ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	open, err := cfg.OpenOffset()
	if err != nil {
		return nil, err
	}

	s := &Service{
		cfg:    cfg,
		now:    time.Now,
		logger: logger.Get(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("service")

	s.reader = source.New(source.WithDelimiter(cfg.DelimiterRune()))
	s.cleaner = cleaning.New(
		cleaning.WithPercentiles(cfg.LowerPercentile, cfg.UpperPercentile),
		cleaning.WithMinRows(cfg.MinRows),
		cleaning.WithOrderPolicy(cleaning.OrderPolicy(cfg.OrderPolicy)),
	)
	s.featureOpts = []features.Option{
		features.WithWindow(cfg.RollingWindow),
		features.WithArrivalWindow(time.Duration(cfg.ArrivalWindowMinutes) * time.Minute),
		features.WithTrafficWindow(time.Duration(cfg.TrafficWindowMinutes) * time.Minute),
		features.WithEWMAAlpha(cfg.EWMAAlpha),
		features.WithBranchOpen(open),
	}
	s.tuner = tuning.New(
		tuning.WithSplits(cfg.NSplits),
		tuning.WithMetric(cfg.ScoringMetric),
		tuning.WithWorkers(cfg.WorkerCount),
		tuning.WithMAPEFloor(cfg.MAPEFloor),
		tuning.WithBaselines(regressor.ModelMean, regressor.ModelMedian),
		tuning.WithLogger(s.logger),
	)
	s.grid = tuning.Grid{
		Models:         cfg.Grid.Models,
		NEstimators:    cfg.Grid.NEstimators,
		LearningRate:   cfg.Grid.LearningRate,
		MaxDepth:       cfg.Grid.MaxDepth,
		MinSamplesLeaf: cfg.Grid.MinSamplesLeaf,
		Alpha:          cfg.Grid.Alpha,
	}
	return s, nil
}

// Run executes one pipeline run. The report is written to ReportPath and
// the run recorded in the ledger when those are configured.
func (s *Service) Run(ctx context.Context) (res *Result, err error) {
	started := s.now()
	runID := uuid.NewString()
	log := s.logger.With(logger.String("run_id", runID))

	var runs *ledger.Ledger
	if s.cfg.LedgerPath != "" {
		if runs, err = ledger.Open(ctx, s.cfg.LedgerPath); err != nil {
			return nil, &StageError{Stage: StageReport, Err: err}
		}
		defer func() { _ = runs.Close() }()
		if _, err = runs.Start(ctx, runID, s.cfg.DataPath); err != nil {
			return nil, &StageError{Stage: StageReport, Err: err}
		}
		defer func() {
			if err != nil {
				if ferr := runs.Fail(context.WithoutCancel(ctx), runID, err); ferr != nil {
					log.Warn(ctx, "failed to record run failure", logger.Error(ferr))
				}
			}
		}()
	}

	log.Info(ctx, "pipeline run started", logger.String("data_path", s.cfg.DataPath))

	res, rep, err := s.run(ctx, log)
	if err != nil {
		var se *StageError
		if errors.As(err, &se) {
			metrics.RecordErrorByComponent(se.Stage, "run")
		}
		log.Error(ctx, "pipeline run failed", logger.Error(err))
		return nil, err
	}

	rep.RunID = runID
	rep.GeneratedAt = s.now().UTC()
	rep.Elapsed = s.now().Sub(started).Round(time.Millisecond).String()
	res.Report = rep

	if err = s.publish(ctx, runs, rep); err != nil {
		log.Error(ctx, "pipeline run failed", logger.Error(err))
		return nil, err
	}

	log.Info(ctx, "pipeline run finished",
		logger.String("best", rep.BestParams.String()),
		logger.Float64("test_mae", rep.Test.MAE),
		logger.Float64("test_rmse", rep.Test.RMSE),
		logger.Bool("beats_baseline", rep.Baselines.Comparison.BeatsBest),
		logger.String("elapsed", rep.Elapsed),
	)
	return res, nil
}

func (s *Service) run(ctx context.Context, log logger.Logger) (*Result, *types.Report, error) {
	rep := &types.Report{DataPath: s.cfg.DataPath, ScoringMetric: s.cfg.ScoringMetric}

	// Ingest.
	t := time.Now()
	records, err := s.reader.ReadFile(s.cfg.DataPath)
	if err != nil {
		return nil, nil, &StageError{Stage: StageIngest, Err: err}
	}
	metrics.RecordRowsIngested(len(records))
	metrics.RecordStageDuration(StageIngest, time.Since(t))
	rep.Rows.Raw = len(records)
	log.Info(ctx, "extract loaded", logger.Int("rows", len(records)))

	// Clean: statistics come from the training prefix only.
	t = time.Now()
	parsed, parseSummary, err := s.cleaner.Parse(records)
	if err != nil {
		return nil, nil, &StageError{Stage: StageClean, Err: err}
	}
	cut, err := split.Index(len(parsed), s.cfg.TrainFraction)
	if err != nil {
		return nil, nil, &StageError{Stage: StageClean, Err: err}
	}
	stats, err := s.cleaner.Fit(parsed[:cut])
	if err != nil {
		return nil, nil, &StageError{Stage: StageClean, Err: err}
	}
	cleaned, applySummary := s.cleaner.Apply(stats, parsed)
	rep.Cleaning = parseSummary.Merge(applySummary)
	rep.Rows.Cleaned = len(cleaned)
	recordCleaning(rep.Cleaning)
	metrics.RecordStageDuration(StageClean, time.Since(t))
	log.Info(ctx, "records cleaned",
		logger.Int("kept", len(cleaned)),
		logger.Int("dropped", rep.Cleaning.TotalDropped()),
		logger.Int("repaired", rep.Cleaning.Repaired),
		logger.Any("imputed", rep.Cleaning.Imputed),
		logger.Any("clipped", rep.Cleaning.Clipped),
	)

	// Features and chronological split.
	t = time.Now()
	rows, err := s.factory(stats).Transform(cleaned)
	if err != nil {
		return nil, nil, &StageError{Stage: StageFeatures, Err: err}
	}
	metrics.UpdateFeatureRows(len(rows))
	train, test, err := split.Split(rows, s.cfg.TrainFraction)
	if err != nil {
		return nil, nil, &StageError{Stage: StageFeatures, Err: err}
	}
	rep.Rows.Train, rep.Rows.Test = len(train), len(test)
	rep.Features = append([]string(nil), model.FeatureColumns...)
	metrics.RecordStageDuration(StageFeatures, time.Since(t))

	// Tune.
	t = time.Now()
	tuned, err := s.tuner.FitFolds(ctx, train, s.grid, s.foldRows(parsed[:cut]))
	if err != nil {
		return nil, nil, &StageError{Stage: StageTune, Err: err}
	}
	metrics.RecordStageDuration(StageTune, time.Since(t))
	rep.BestParams = tuned.Winner.Params
	rep.CVScore = tuned.Winner.Score
	rep.Stability = stability(tuned.Winner)
	rep.Candidates, rep.Warnings = candidates(tuned.Candidates)

	// Evaluate.
	t = time.Now()
	floor := evaluation.WithMAPEFloor(s.cfg.MAPEFloor)
	if rep.Train, err = evaluation.EvaluateModel(tuned.Best, train, floor); err != nil {
		return nil, nil, &StageError{Stage: StageEvaluate, Err: fmt.Errorf("train: %w", err)}
	}
	if rep.Test, err = evaluation.EvaluateModel(tuned.Best, test, floor); err != nil {
		return nil, nil, &StageError{Stage: StageEvaluate, Err: fmt.Errorf("test: %w", err)}
	}
	rep.Baselines.Metrics = make(map[string]evaluation.Metrics, len(tuned.Baselines))
	for name, b := range tuned.Baselines {
		m, err := evaluation.EvaluateModel(b, test, floor)
		if err != nil {
			return nil, nil, &StageError{Stage: StageEvaluate, Err: fmt.Errorf("baseline %s: %w", name, err)}
		}
		rep.Baselines.Metrics[name] = m
		metrics.UpdateEvaluation(name, evaluation.MetricMAE, m.MAE)
	}
	rep.Baselines.Comparison = evaluation.Compare(rep.Test, rep.Baselines.Metrics)
	if !rep.Baselines.Comparison.BeatsBest {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf(
			"tuned model test MAE %.3f does not beat the %s baseline (%.3f)",
			rep.Test.MAE, rep.Baselines.Comparison.BestBaseline,
			rep.Baselines.Comparison.BaselineMAE[rep.Baselines.Comparison.BestBaseline]))
	}
	publishEvaluation(rep.Test)
	rep.Importance = ranking(tuned.Best.Importance())
	metrics.RecordStageDuration(StageEvaluate, time.Since(t))

	for _, w := range rep.Warnings {
		log.Warn(ctx, w)
	}
	return &Result{Model: tuned.Best, Baselines: tuned.Baselines, Stats: stats}, rep, nil
}

// factory returns a feature factory whose edge fills come from stats.
func (s *Service) factory(stats cleaning.Stats) *features.Factory {
	fills := features.Fills{
		Queue:   stats.QueueLength.Median,
		Wait:    stats.WaitTime.Median,
		Service: stats.ComputedService.Median,
		Gap:     stats.ArrivalGap,
	}
	return features.New(append([]features.Option{features.WithFills(fills)}, s.featureOpts...)...)
}

// foldRows prepares each cross-validation fold from the training partition:
// cleaning is refit on the fold's training block, then applied to both blocks.
func (s *Service) foldRows(parsed []cleaning.Parsed) tuning.FoldBuilder {
	return func(f split.Fold) ([]model.FeatureRow, []model.FeatureRow, error) {
		stats, err := s.cleaner.Fit(parsed[:f.TrainEnd])
		if err != nil {
			return nil, nil, err
		}
		cleaned, _ := s.cleaner.Apply(stats, parsed[:f.ValidEnd])
		rows, err := s.factory(stats).Transform(cleaned)
		if err != nil {
			return nil, nil, err
		}
		return rows[:f.TrainEnd], rows[f.TrainEnd:], nil
	}
}

// publish writes the report, the ledger entry and the metrics textfile.
func (s *Service) publish(ctx context.Context, runs *ledger.Ledger, rep *types.Report) error {
	t := time.Now()
	defer func() { metrics.RecordStageDuration(StageReport, time.Since(t)) }()

	if s.cfg.ReportPath != "" {
		if err := report.WriteFile(s.cfg.ReportPath, rep); err != nil {
			return &StageError{Stage: StageReport, Err: err}
		}
		s.logger.Info(ctx, "report written", logger.String("path", s.cfg.ReportPath))
	}
	if runs != nil {
		if err := runs.Finish(ctx, rep); err != nil {
			return &StageError{Stage: StageReport, Err: err}
		}
	}
	if s.cfg.MetricsTextfile != "" {
		if err := metrics.WriteTextfile(s.cfg.MetricsTextfile); err != nil {
			return &StageError{Stage: StageReport, Err: err}
		}
	}
	return nil
}

func recordCleaning(sum cleaning.Summary) {
	for reason, n := range sum.Dropped {
		metrics.RecordRowsDropped(reason, n)
	}
	for col, n := range sum.Imputed {
		metrics.RecordValuesImputed(col, n)
	}
	for col, n := range sum.Clipped {
		metrics.RecordValuesClipped(col, n)
	}
}

func publishEvaluation(m evaluation.Metrics) {
	metrics.UpdateEvaluation("model", evaluation.MetricMAE, m.MAE)
	metrics.UpdateEvaluation("model", evaluation.MetricRMSE, m.RMSE)
	metrics.UpdateEvaluation("model", evaluation.MetricMAPE, m.MAPE)
	metrics.UpdateEvaluation("model", evaluation.MetricR2, m.R2)
}

func stability(c tuning.Candidate) []types.FoldRow {
	out := make([]types.FoldRow, len(c.Folds))
	for i, f := range c.Folds {
		out[i] = types.FoldRow{
			Fold:      f.Fold,
			TrainSize: f.TrainSize,
			ValidSize: f.ValidSize,
			MAE:       f.Metrics.MAE,
			RMSE:      f.Metrics.RMSE,
			MAPE:      f.Metrics.MAPE,
			R2:        f.Metrics.R2,
		}
	}
	return out
}

// candidates converts the search table and returns one warning per failed point.
func candidates(cs []tuning.Candidate) ([]types.CandidateRow, []string) {
	out := make([]types.CandidateRow, len(cs))
	warnings := []string{}
	for i := range cs {
		c := &cs[i]
		out[i] = types.CandidateRow{Params: c.Params, Score: types.FiniteOrNil(c.Score)}
		if c.Err != nil {
			out[i].Error = c.Err.Error()
			warnings = append(warnings, fmt.Sprintf("grid point %s failed: %v", c.Params, c.Err))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Score, out[j].Score
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		}
		return *a < *b
	})
	return out, warnings
}

func ranking(fi []tuning.FeatureImportance) []types.Importance {
	out := make([]types.Importance, len(fi))
	for i, f := range fi {
		out[i] = types.Importance{Rank: i + 1, Feature: f.Feature, Importance: f.Importance}
	}
	return out
}
