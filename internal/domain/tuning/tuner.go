// Package tuning searches a hyperparameter grid with chronological
// cross-validation and refits the winner on the full training partition.
package tuning

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/okian/waitcast/internal/adapters/mq/queue"
	"github.com/okian/waitcast/internal/adapters/mq/worker"
	"github.com/okian/waitcast/internal/domain/evaluation"
	"github.com/okian/waitcast/internal/domain/model"
	"github.com/okian/waitcast/internal/domain/numeric"
	"github.com/okian/waitcast/internal/domain/regressor"
	"github.com/okian/waitcast/internal/domain/split"
	"github.com/okian/waitcast/pkg/logger"
	"github.com/okian/waitcast/pkg/metrics"
)

// FoldScore is one grid point's result on one validation fold.
type FoldScore struct {
	Fold      int
	TrainSize int
	ValidSize int
	Score     float64
	Metrics   evaluation.Metrics
	Err       error
}

// Candidate is one evaluated grid point. Score is the mean validation
// error across folds, +Inf when any fold failed.
type Candidate struct {
	Params regressor.Params
	Score  float64
	Folds  []FoldScore
	Err    error
}

// Failed reports whether the candidate was excluded from selection.
func (c *Candidate) Failed() bool { return math.IsInf(c.Score, 1) }

// Result is the outcome of a search.
type Result struct {
	Metric     string
	Best       *FittedModel
	Winner     Candidate
	Candidates []Candidate
	Baselines  map[string]*FittedModel
	Folds      []split.Fold
}

// Tuner runs grid searches.
type Tuner struct {
	splits    int
	metric    string
	workers   int
	mapeFloor float64
	baselines []string
	logger    logger.Logger
}

// New creates a Tuner with configuration options.
func New(opts ...Option) *Tuner {
	t := &Tuner{
		splits:    DefaultSplits,
		metric:    DefaultMetric,
		workers:   runtime.NumCPU(),
		mapeFloor: evaluation.DefaultMAPEFloor,
		baselines: []string{regressor.ModelMean, regressor.ModelMedian},
		logger:    logger.Get(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = t.logger.Named("tuner")
	return t
}

// FoldBuilder prepares the rows of one fold: the training block and the
// validation block that follows it. Implementations refit any statistic on
// the fold's training block so validation rows never shape their own inputs.
type FoldBuilder func(f split.Fold) (fit, valid []model.FeatureRow, err error)

type foldJob struct {
	point int
	fold  int
}

// foldRows are the prepared blocks of one fold, shared by every grid point.
type foldRows struct {
	fit, valid []model.FeatureRow
}

// Fit evaluates every grid point on every fold of train, picks the point
// with the lowest mean validation error (ties by params order) and refits
// it on all of train. Failed points score +Inf. Folds slice train as is.
func (t *Tuner) Fit(ctx context.Context, train []model.FeatureRow, grid Grid) (*Result, error) {
	return t.FitFolds(ctx, train, grid, nil)
}

// FitFolds is Fit with fold rows prepared by build, called once per fold
// before the search. A nil build slices train.
func (t *Tuner) FitFolds(ctx context.Context, train []model.FeatureRow, grid Grid, build FoldBuilder) (*Result, error) {
	if len(train) == 0 {
		return nil, ErrEmptyInput
	}
	if _, err := (evaluation.Metrics{}).Score(t.metric); err != nil {
		return nil, err
	}
	points := grid.Expand()
	if len(points) == 0 {
		return nil, ErrEmptyGrid
	}
	folds, err := split.Folds(len(train), t.splits)
	if err != nil {
		return nil, fmt.Errorf("folds: %w", err)
	}

	blocks := make([]foldRows, len(folds))
	for i, f := range folds {
		if build == nil {
			blocks[i] = foldRows{fit: train[:f.TrainEnd], valid: train[f.TrainEnd:f.ValidEnd]}
			continue
		}
		fit, valid, err := build(f)
		if err != nil {
			return nil, fmt.Errorf("prepare fold %d: %w", f.Index, err)
		}
		if len(fit) != f.TrainSize() || len(valid) != f.ValidSize() {
			return nil, fmt.Errorf("%w: fold %d has %d+%d rows, want %d+%d",
				ErrFoldShape, f.Index, len(fit), len(valid), f.TrainSize(), f.ValidSize())
		}
		blocks[i] = foldRows{fit: fit, valid: valid}
	}

	start := time.Now()
	t.logger.Info(ctx, "grid search started",
		logger.Int("points", len(points)),
		logger.Int("folds", len(folds)),
		logger.Int("rows", len(train)),
		logger.String("metric", t.metric),
	)

	scores := make([][]FoldScore, len(points))
	for i := range scores {
		scores[i] = make([]FoldScore, len(folds))
	}

	q := queue.NewInMemoryQueue[foldJob](queue.WithCapacity(len(points) * len(folds)))
	for p := range points {
		for f := range folds {
			if err := q.Submit(ctx, foldJob{point: p, fold: f}); err != nil {
				return nil, fmt.Errorf("enqueue: %w", err)
			}
		}
	}
	_ = q.Close()

	handler := worker.HandlerFunc[foldJob](func(ctx context.Context, j foldJob) error {
		fs := t.evaluateFold(points[j.point], folds[j.fold], blocks[j.fold])
		scores[j.point][j.fold] = fs
		if fs.Err != nil {
			return fmt.Errorf("%s fold %d: %w", points[j.point], j.fold, fs.Err)
		}
		return nil
	})
	pool := worker.NewPool[foldJob](t.workers, q, handler, worker.WithLogger(t.logger))
	pool.Start(ctx)
	pool.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{Metric: t.metric, Folds: folds, Candidates: make([]Candidate, len(points))}
	best := -1
	for i, p := range points {
		c := summarize(p, scores[i])
		res.Candidates[i] = c
		metrics.RecordGridPointEvaluated()
		if c.Failed() {
			metrics.RecordGridPointFailed()
			t.logger.Warn(ctx, "grid point failed", logger.String("params", p.String()), logger.Error(c.Err))
			continue
		}
		if best < 0 || better(c, res.Candidates[best]) {
			best = i
		}
	}
	if best < 0 {
		return nil, fmt.Errorf("%w: %d points", ErrNoValidCandidate, len(points))
	}
	res.Winner = res.Candidates[best]

	res.Best, err = Fit(res.Winner.Params, train)
	if err != nil {
		return nil, fmt.Errorf("refit winner: %w", err)
	}

	res.Baselines = make(map[string]*FittedModel, len(t.baselines))
	for _, name := range t.baselines {
		b, err := Fit(regressor.Params{Model: name}, train)
		if err != nil {
			return nil, fmt.Errorf("baseline %s: %w", name, err)
		}
		res.Baselines[name] = b
	}

	t.logger.Info(ctx, "grid search finished",
		logger.String("best", res.Winner.Params.String()),
		logger.Float64("score", res.Winner.Score),
		logger.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}

func (t *Tuner) evaluateFold(p regressor.Params, f split.Fold, rows foldRows) FoldScore {
	fs := FoldScore{Fold: f.Index, TrainSize: f.TrainSize(), ValidSize: f.ValidSize(), Score: math.Inf(1)}

	m, err := Fit(p, rows.fit)
	if err != nil {
		fs.Err = err
		return fs
	}
	met, err := evaluation.EvaluateModel(m, rows.valid, evaluation.WithMAPEFloor(t.mapeFloor))
	if err != nil {
		fs.Err = err
		return fs
	}
	score, err := met.Score(t.metric)
	if err != nil {
		fs.Err = err
		return fs
	}
	if !numeric.Finite(score) {
		fs.Err = fmt.Errorf("%w: score %v", evaluation.ErrNonFinite, score)
		return fs
	}
	met.Residuals = nil
	fs.Metrics = met
	fs.Score = score
	return fs
}

func summarize(p regressor.Params, folds []FoldScore) Candidate {
	c := Candidate{Params: p, Folds: folds}
	var sum float64
	for _, fs := range folds {
		if fs.Err != nil {
			c.Score = math.Inf(1)
			c.Err = fmt.Errorf("fold %d: %w", fs.Fold, fs.Err)
			return c
		}
		sum += fs.Score
	}
	c.Score = sum / float64(len(folds))
	return c
}

// better orders candidates by score, then by params.
func better(a, b Candidate) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	return a.Params.Less(b.Params)
}
