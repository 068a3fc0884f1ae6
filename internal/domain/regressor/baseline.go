package regressor

import (
	"github.com/okian/waitcast/internal/domain/numeric"
)

// Baseline predicts a constant: the training mean or median of y.
type Baseline struct {
	params Params
	value  float64
	width  int
	fitted bool
}

// Fit stores the mean or median of y; X only fixes the input width.
func (b *Baseline) Fit(X [][]float64, y []float64) error {
	width, err := checkXY(b.params, X, y)
	if err != nil {
		return err
	}
	if b.params.Model == ModelMedian {
		b.value = numeric.Median(y)
	} else {
		b.value = numeric.Mean(y)
	}
	b.width = width
	b.fitted = true
	return nil
}

// Predict returns the stored value for every row.
func (b *Baseline) Predict(X [][]float64) ([]float64, error) {
	if !b.fitted {
		return nil, ErrNotFitted
	}
	if err := checkWidth(X, b.width); err != nil {
		return nil, err
	}
	out := make([]float64, len(X))
	for i := range out {
		out[i] = b.value
	}
	return out, nil
}

// Importance is all zeros: no input moves the prediction.
func (b *Baseline) Importance() []float64 { return make([]float64, b.width) }

// Params returns the hyperparameters the model was built with.
func (b *Baseline) Params() Params { return b.params }
