package regressor

import (
	"github.com/okian/waitcast/internal/domain/numeric"
)

// GBM is gradient boosting over CART regression trees with squared loss.
type GBM struct {
	params Params
	init   float64
	trees  []tree
	gain   []float64
	width  int
	fitted bool
}

// Fit grows params.NEstimators trees, each on the residuals of the last.
func (g *GBM) Fit(X [][]float64, y []float64) error {
	if err := g.params.validate(); err != nil {
		return err
	}
	width, err := checkXY(g.params, X, y)
	if err != nil {
		return err
	}

	g.init = numeric.Mean(y)
	g.gain = make([]float64, width)
	g.trees = make([]tree, 0, g.params.NEstimators)

	pred := make([]float64, len(y))
	for i := range pred {
		pred[i] = g.init
	}
	residual := make([]float64, len(y))
	for m := 0; m < g.params.NEstimators; m++ {
		for i := range residual {
			residual[i] = y[i] - pred[i]
		}
		t := growTree(X, residual, g.params.MaxDepth, g.params.MinSamplesLeaf, g.gain)
		for i, row := range X {
			pred[i] += g.params.LearningRate * t.predict(row)
		}
		g.trees = append(g.trees, t)
	}
	if !numeric.AllFinite(pred) {
		return fitFailure(g.params, "%w: boosting diverged", ErrNonFinite)
	}

	g.width = width
	g.fitted = true
	return nil
}

// Predict sums the initial mean and every shrunken tree output.
func (g *GBM) Predict(X [][]float64) ([]float64, error) {
	if !g.fitted {
		return nil, ErrNotFitted
	}
	if err := checkWidth(X, g.width); err != nil {
		return nil, err
	}
	out := make([]float64, len(X))
	for i, row := range X {
		v := g.init
		for _, t := range g.trees {
			v += g.params.LearningRate * t.predict(row)
		}
		out[i] = v
	}
	return out, nil
}

// Importance is the total split gain per feature, normalized.
func (g *GBM) Importance() []float64 {
	return normalize(append([]float64(nil), g.gain...))
}

// Params returns the hyperparameters the model was built with.
func (g *GBM) Params() Params { return g.params }
