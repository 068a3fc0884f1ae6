package tuning

import (
	"github.com/okian/waitcast/internal/domain/evaluation"
	"github.com/okian/waitcast/pkg/logger"
)

// Default tuner configuration constants.
const (
	DefaultSplits = 5
	DefaultMetric = evaluation.MetricMAE
)

// Option configures a Tuner.
type Option func(*Tuner)

// WithSplits sets the number of chronological cross-validation folds.
func WithSplits(n int) Option {
	return func(t *Tuner) {
		if n > 0 {
			t.splits = n
		}
	}
}

// WithMetric sets the validation metric minimized by the search.
func WithMetric(metric string) Option {
	return func(t *Tuner) {
		if metric != "" {
			t.metric = metric
		}
	}
}

// WithWorkers sets the number of concurrent fold evaluations.
func WithWorkers(n int) Option {
	return func(t *Tuner) { t.workers = n }
}

// WithMAPEFloor sets the MAPE denominator floor used in fold scoring.
func WithMAPEFloor(floor float64) Option {
	return func(t *Tuner) {
		if floor > 0 {
			t.mapeFloor = floor
		}
	}
}

// WithBaselines sets the reference models fitted alongside the winner.
func WithBaselines(models ...string) Option {
	return func(t *Tuner) { t.baselines = append([]string(nil), models...) }
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(t *Tuner) {
		if l != nil {
			t.logger = l
		}
	}
}
