// Package types contains the report shapes shared by the pipeline and its writers.
package types

import (
	"math"
	"time"

	"github.com/okian/waitcast/internal/domain/cleaning"
	"github.com/okian/waitcast/internal/domain/evaluation"
	"github.com/okian/waitcast/internal/domain/regressor"
)

// RowCounts tracks how many rows survive each stage.
type RowCounts struct {
	Raw     int `json:"raw"`
	Cleaned int `json:"cleaned"`
	Train   int `json:"train"`
	Test    int `json:"test"`
}

// FoldRow is one line of the cross-validation stability table.
type FoldRow struct {
	Fold      int     `json:"fold"`
	TrainSize int     `json:"train_size"`
	ValidSize int     `json:"valid_size"`
	MAE       float64 `json:"mae"`
	RMSE      float64 `json:"rmse"`
	MAPE      float64 `json:"mape"`
	R2        float64 `json:"r2"`
}

// CandidateRow is one evaluated grid point. Score is null for failed points.
type CandidateRow struct {
	Params regressor.Params `json:"params"`
	Score  *float64         `json:"score"`
	Error  string           `json:"error,omitempty"`
}

// Importance is one entry of the feature importance ranking.
type Importance struct {
	Rank       int     `json:"rank"`
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// Baselines compares the tuned model to reference models on the test rows.
type Baselines struct {
	Metrics    map[string]evaluation.Metrics `json:"metrics"`
	Comparison evaluation.Comparison         `json:"comparison"`
}

// Report is the metrics report written after a run.
type Report struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`
	DataPath    string    `json:"data_path"`
	Elapsed     string    `json:"elapsed"`

	Rows     RowCounts        `json:"rows"`
	Cleaning cleaning.Summary `json:"cleaning"`
	Features []string         `json:"features"`

	ScoringMetric string           `json:"scoring_metric"`
	BestParams    regressor.Params `json:"best_params"`
	CVScore       float64          `json:"cv_score"`
	Stability     []FoldRow        `json:"fold_stability"`
	Candidates    []CandidateRow   `json:"candidates"`

	Train      evaluation.Metrics `json:"train"`
	Test       evaluation.Metrics `json:"test"`
	Importance []Importance       `json:"feature_importance"`
	Baselines  Baselines          `json:"baselines"`

	Warnings []string `json:"warnings"`
}

// FiniteOrNil returns &v for finite v and nil otherwise, since JSON has no
// encoding for NaN or infinities.
func FiniteOrNil(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
