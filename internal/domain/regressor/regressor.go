// Package regressor contains the interchangeable models trained by the tuner.
package regressor

import (
	"github.com/okian/waitcast/internal/domain/numeric"
)

// Regressor is a black-box Fit(X, y) / Predict(X) model.
type Regressor interface {
	// Fit trains on rows of X against targets y. A failure is a *FitFailureError.
	Fit(X [][]float64, y []float64) error
	// Predict returns one prediction per row of X.
	Predict(X [][]float64) ([]float64, error)
	// Importance returns a non-negative weight per input column summing to 1,
	// or all zeros when the model carries no signal.
	Importance() []float64
	// Params returns the hyperparameters the model was built with.
	Params() Params
}

// New builds an unfitted model. Params are validated by Fit so an invalid
// grid point fails where it is evaluated.
func New(p Params) (Regressor, error) {
	switch p.Model {
	case ModelGBM:
		return &GBM{params: p}, nil
	case ModelRidge:
		return &Ridge{params: p}, nil
	case ModelOLS:
		return &OLS{params: p}, nil
	case ModelMean, ModelMedian:
		return &Baseline{params: p}, nil
	}
	return nil, fitFailure(p, "%w %q", ErrUnknownModel, p.Model)
}

// checkXY validates a training set and returns its width.
func checkXY(p Params, X [][]float64, y []float64) (int, error) {
	if len(X) == 0 {
		return 0, fitFailure(p, "%w: no rows", ErrBadInput)
	}
	if len(X) != len(y) {
		return 0, fitFailure(p, "%w: %d rows but %d targets", ErrBadInput, len(X), len(y))
	}
	width := len(X[0])
	for i, row := range X {
		if len(row) != width {
			return 0, fitFailure(p, "%w: row %d has %d columns, want %d", ErrBadInput, i, len(row), width)
		}
		if !numeric.AllFinite(row) {
			return 0, fitFailure(p, "%w: row %d has non-finite values", ErrBadInput, i)
		}
	}
	if !numeric.AllFinite(y) {
		return 0, fitFailure(p, "%w: non-finite target", ErrBadInput)
	}
	return width, nil
}

func checkWidth(X [][]float64, width int) error {
	for _, row := range X {
		if len(row) != width {
			return ErrWidthMismatch
		}
	}
	return nil
}

// normalize scales w to sum to 1 in place; all zeros stay zero.
func normalize(w []float64) []float64 {
	var total float64
	for _, v := range w {
		total += v
	}
	if total <= 0 || !numeric.Finite(total) {
		for i := range w {
			w[i] = 0
		}
		return w
	}
	for i := range w {
		w[i] /= total
	}
	return w
}
