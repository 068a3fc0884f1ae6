// Package evaluation scores predictions against held-out truth.
package evaluation

import (
	"fmt"
	"math"
	"strings"

	"github.com/okian/waitcast/internal/domain/model"
	"github.com/okian/waitcast/internal/domain/numeric"
)

// Metric names accepted by Score.
const (
	MetricMAE  = "mae"
	MetricRMSE = "rmse"
	MetricMAPE = "mape"
	MetricR2   = "r2"
)

// Diagnostics summarizes the residual distribution.
type Diagnostics struct {
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	P5     float64 `json:"p5"`
	Median float64 `json:"median"`
	P95    float64 `json:"p95"`
	Max    float64 `json:"max"`
}

// Metrics is the result of one evaluation. Residuals are truth minus
// prediction, aligned with the input order.
type Metrics struct {
	N           int         `json:"n"`
	MAE         float64     `json:"mae"`
	RMSE        float64     `json:"rmse"`
	MAPE        float64     `json:"mape"` // percent
	R2          float64     `json:"r2"`
	Residuals   []float64   `json:"-"`
	Diagnostics Diagnostics `json:"residuals"`
}

// Predictor is anything that predicts wait times for feature rows.
type Predictor interface {
	PredictRows(rows []model.FeatureRow) ([]float64, error)
}

// Evaluate computes error metrics of yhat against y.
func Evaluate(y, yhat []float64, opts ...Option) (Metrics, error) {
	if len(y) == 0 {
		return Metrics{}, ErrEmptyInput
	}
	if len(y) != len(yhat) {
		return Metrics{}, fmt.Errorf("%w: %d truths, %d predictions", ErrLengthMismatch, len(y), len(yhat))
	}
	if !numeric.AllFinite(y) || !numeric.AllFinite(yhat) {
		return Metrics{}, ErrNonFinite
	}
	o := newOptions(opts)

	n := float64(len(y))
	residuals := make([]float64, len(y))
	var absSum, sqSum, pctSum float64
	for i := range y {
		r := y[i] - yhat[i]
		residuals[i] = r
		absSum += math.Abs(r)
		sqSum += r * r
		pctSum += math.Abs(r) / math.Max(math.Abs(y[i]), o.mapeFloor)
	}

	mean := numeric.Mean(y)
	var ssTot float64
	for _, v := range y {
		ssTot += (v - mean) * (v - mean)
	}
	r2 := 0.0
	switch {
	case ssTot > 0:
		r2 = 1 - sqSum/ssTot
	case sqSum == 0:
		r2 = 1
	}

	return Metrics{
		N:           len(y),
		MAE:         absSum / n,
		RMSE:        math.Sqrt(sqSum / n),
		MAPE:        100 * pctSum / n,
		R2:          r2,
		Residuals:   residuals,
		Diagnostics: Diagnose(residuals),
	}, nil
}

// EvaluateModel predicts rows with m and evaluates against their wait times.
func EvaluateModel(m Predictor, rows []model.FeatureRow, opts ...Option) (Metrics, error) {
	if len(rows) == 0 {
		return Metrics{}, ErrEmptyInput
	}
	yhat, err := m.PredictRows(rows)
	if err != nil {
		return Metrics{}, fmt.Errorf("predict: %w", err)
	}
	y := make([]float64, len(rows))
	for i := range rows {
		y[i] = rows[i].Target()
	}
	return Evaluate(y, yhat, opts...)
}

// Diagnose summarizes residuals. Zero value for an empty slice.
func Diagnose(residuals []float64) Diagnostics {
	if len(residuals) == 0 {
		return Diagnostics{}
	}
	return Diagnostics{
		Mean:   numeric.Mean(residuals),
		Std:    numeric.Std(residuals),
		Min:    numeric.Percentile(residuals, 0),
		P5:     numeric.Percentile(residuals, 5),
		Median: numeric.Median(residuals),
		P95:    numeric.Percentile(residuals, 95),
		Max:    numeric.Percentile(residuals, 100),
	}
}

// Score returns the named error metric, where lower is better. R² is
// returned negated so every metric minimizes.
func (m Metrics) Score(metric string) (float64, error) {
	switch strings.ToLower(metric) {
	case MetricMAE:
		return m.MAE, nil
	case MetricRMSE:
		return m.RMSE, nil
	case MetricMAPE:
		return m.MAPE, nil
	case MetricR2:
		return -m.R2, nil
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownMetric, metric)
}

// Comparison reports how a model fares against reference baselines on MAE.
type Comparison struct {
	ModelMAE     float64            `json:"model_mae"`
	BaselineMAE  map[string]float64 `json:"baseline_mae"`
	BestBaseline string             `json:"best_baseline"`
	Improvement  float64            `json:"improvement"` // best baseline MAE minus model MAE
	BeatsBest    bool               `json:"beats_best"`
}

// Compare checks model metrics against baseline metrics keyed by name.
// With no baselines the model trivially wins.
func Compare(m Metrics, baselines map[string]Metrics) Comparison {
	c := Comparison{ModelMAE: m.MAE, BaselineMAE: make(map[string]float64, len(baselines)), BeatsBest: true}
	best := math.Inf(1)
	for name, b := range baselines {
		c.BaselineMAE[name] = b.MAE
		if b.MAE < best || (b.MAE == best && name < c.BestBaseline) {
			best, c.BestBaseline = b.MAE, name
		}
	}
	if c.BestBaseline != "" {
		c.Improvement = best - m.MAE
		c.BeatsBest = m.MAE < best
	}
	return c
}
