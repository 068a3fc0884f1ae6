package tuning

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/okian/waitcast/internal/domain/model"
	"github.com/okian/waitcast/internal/domain/preprocess"
	"github.com/okian/waitcast/internal/domain/regressor"
	"github.com/okian/waitcast/pkg/metrics"
)

// FeatureImportance is the weight a fitted model gives one input column.
// One-hot outputs are summed back onto their categorical column.
type FeatureImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// FittedModel is a preprocessing pipeline plus the regressor trained on its
// output. It is read-only after Fit and safe for concurrent prediction.
type FittedModel struct {
	params   regressor.Params
	pipeline *preprocess.Pipeline
	model    regressor.Regressor
}

// Fit trains a model with params p on rows. The preprocessing statistics
// come from rows only.
func Fit(p regressor.Params, rows []model.FeatureRow) (*FittedModel, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyInput
	}
	start := time.Now()
	defer func() { metrics.RecordFitLatency(time.Since(start)) }()

	m, err := regressor.New(p)
	if err != nil {
		return nil, err
	}
	pipe := preprocess.New()
	X, err := pipe.FitTransform(rowValues(rows))
	if err != nil {
		return nil, fmt.Errorf("preprocess: %w", err)
	}
	if err := m.Fit(X, targets(rows)); err != nil {
		return nil, err
	}
	return &FittedModel{params: p, pipeline: pipe, model: m}, nil
}

// Params returns the hyperparameters of the model.
func (f *FittedModel) Params() regressor.Params { return f.params }

// Predict scores raw feature maps keyed by model column name. A row
// missing a column fails with *preprocess.PredictionShapeError.
func (f *FittedModel) Predict(inputs []map[string]float64) ([]float64, error) {
	X, err := f.pipeline.Transform(inputs)
	if err != nil {
		return nil, err
	}
	return f.model.Predict(X)
}

// PredictRows scores feature rows.
func (f *FittedModel) PredictRows(rows []model.FeatureRow) ([]float64, error) {
	return f.Predict(rowValues(rows))
}

// Importance ranks input columns by weight, highest first; ties by name.
func (f *FittedModel) Importance() []FeatureImportance {
	weights := f.model.Importance()
	sources := f.pipeline.Sources()

	byColumn := map[string]float64{}
	for i, src := range sources {
		if i < len(weights) {
			byColumn[src] += weights[i]
		}
	}
	out := make([]FeatureImportance, 0, len(byColumn))
	for name, w := range byColumn {
		out = append(out, FeatureImportance{Feature: name, Importance: w})
	}
	slices.SortFunc(out, func(a, b FeatureImportance) int {
		if c := cmp.Compare(b.Importance, a.Importance); c != 0 {
			return c
		}
		return cmp.Compare(a.Feature, b.Feature)
	})
	return out
}

func rowValues(rows []model.FeatureRow) []map[string]float64 {
	out := make([]map[string]float64, len(rows))
	for i := range rows {
		out[i] = rows[i].Values()
	}
	return out
}

func targets(rows []model.FeatureRow) []float64 {
	out := make([]float64, len(rows))
	for i := range rows {
		out[i] = rows[i].Target()
	}
	return out
}
