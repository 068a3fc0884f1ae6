// Package config defines pipeline configuration structures and loading hooks.
//
// Conventions:
// - New() builds a Config holding every default.
// - Load(ctx) layers a YAML file and WAITCAST_ environment variables on top.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"runtime"
)

// Grid holds the hyperparameter ranges searched by the tuner.
type Grid struct {
	// Models lists regressor kinds to try: gbm, ridge, ols.
	Models []string `koanf:"models"`

	NEstimators    []int     `koanf:"n_estimators"`
	LearningRate   []float64 `koanf:"learning_rate"`
	MaxDepth       []int     `koanf:"max_depth"`
	MinSamplesLeaf []int     `koanf:"min_samples_leaf"`

	// Alpha is the L2 penalty for ridge.
	Alpha []float64 `koanf:"alpha"`
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// DataPath is the delimited extract to read. Required.
	DataPath string `koanf:"data_path"`

	// Delimiter separates fields in DataPath.
	Delimiter string `koanf:"delimiter"`

	// TrainFraction is the chronological share of rows used for training.
	TrainFraction float64 `koanf:"train_fraction"`

	// NSplits is the number of expanding-window cross-validation folds.
	NSplits int `koanf:"n_splits"`

	// LowerPercentile and UpperPercentile bound outlier clipping (0-100).
	LowerPercentile float64 `koanf:"lower_percentile"`
	UpperPercentile float64 `koanf:"upper_percentile"`

	// RollingWindow is the row count of rolling means and the edge fill window.
	RollingWindow int `koanf:"rolling_window"`

	// ArrivalWindowMinutes sizes the trailing arrivals count.
	ArrivalWindowMinutes int `koanf:"arrival_window_minutes"`

	// TrafficWindowMinutes sizes the traffic intensity window.
	TrafficWindowMinutes int `koanf:"traffic_window_minutes"`

	// EWMAAlpha is the smoothing factor of exponentially weighted averages.
	EWMAAlpha float64 `koanf:"ewma_alpha"`

	// BranchOpen is the daily opening time, HH:MM.
	BranchOpen string `koanf:"branch_open"`

	// MinRows is the fewest cleaned rows the pipeline accepts.
	MinRows int `koanf:"min_rows"`

	// OrderPolicy handles arrival <= start <= finish violations: repair or drop.
	OrderPolicy string `koanf:"order_policy"`

	// ScoringMetric selects the validation error minimised by the tuner: mae, rmse, mape.
	ScoringMetric string `koanf:"scoring_metric"`

	// MAPEFloor is the smallest denominator used by MAPE, in minutes.
	MAPEFloor float64 `koanf:"mape_floor"`

	// WorkerCount sets the number of grid search workers.
	WorkerCount int `koanf:"worker_count"`

	Grid Grid `koanf:"grid"`

	// ReportPath receives the JSON metrics report.
	ReportPath string `koanf:"report_path"`

	// LedgerPath enables the SQLite run ledger when non-empty.
	LedgerPath string `koanf:"ledger_path"`

	// MetricsTextfile enables a Prometheus text dump when non-empty.
	MetricsTextfile string `koanf:"metrics_textfile"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            "text",
		Delimiter:            ",",
		TrainFraction:        0.75,
		NSplits:              5,
		LowerPercentile:      1,
		UpperPercentile:      99,
		RollingWindow:        5,
		ArrivalWindowMinutes: 5,
		TrafficWindowMinutes: 60,
		EWMAAlpha:            0.3,
		BranchOpen:           "09:00",
		MinRows:              2,
		OrderPolicy:          "repair",
		ScoringMetric:        "mae",
		MAPEFloor:            1.0,
		WorkerCount:          runtime.NumCPU(),
		Grid: Grid{
			Models:         []string{"gbm"},
			NEstimators:    []int{50, 100},
			LearningRate:   []float64{0.05, 0.1},
			MaxDepth:       []int{2, 3},
			MinSamplesLeaf: []int{1, 5},
			Alpha:          []float64{1.0},
		},
		ReportPath: "waitcast-report.json",
	}
}
