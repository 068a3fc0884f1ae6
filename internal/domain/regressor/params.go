package regressor

import (
	"cmp"
	"fmt"
)

// Model kinds.
const (
	ModelGBM    = "gbm"
	ModelRidge  = "ridge"
	ModelOLS    = "ols"
	ModelMean   = "mean"
	ModelMedian = "median"
)

// Params is one point of the hyperparameter grid. Fields a model does not
// use are ignored by it.
type Params struct {
	Model          string  `json:"model"`
	NEstimators    int     `json:"n_estimators,omitempty"`
	LearningRate   float64 `json:"learning_rate,omitempty"`
	MaxDepth       int     `json:"max_depth,omitempty"`
	MinSamplesLeaf int     `json:"min_samples_leaf,omitempty"`
	Alpha          float64 `json:"alpha,omitempty"`
}

// Less orders params lexicographically so ties between equal scores
// resolve the same way on every run.
func (p Params) Less(o Params) bool {
	if c := cmp.Compare(p.Model, o.Model); c != 0 {
		return c < 0
	}
	if c := cmp.Compare(p.NEstimators, o.NEstimators); c != 0 {
		return c < 0
	}
	if c := cmp.Compare(p.LearningRate, o.LearningRate); c != 0 {
		return c < 0
	}
	if c := cmp.Compare(p.MaxDepth, o.MaxDepth); c != 0 {
		return c < 0
	}
	if c := cmp.Compare(p.MinSamplesLeaf, o.MinSamplesLeaf); c != 0 {
		return c < 0
	}
	return p.Alpha < o.Alpha
}

func (p Params) String() string {
	switch p.Model {
	case ModelGBM:
		return fmt.Sprintf("gbm(n_estimators=%d, learning_rate=%g, max_depth=%d, min_samples_leaf=%d)",
			p.NEstimators, p.LearningRate, p.MaxDepth, p.MinSamplesLeaf)
	case ModelRidge:
		return fmt.Sprintf("ridge(alpha=%g)", p.Alpha)
	default:
		return p.Model
	}
}

func (p Params) validate() error {
	switch p.Model {
	case ModelGBM:
		switch {
		case p.NEstimators < 1:
			return fitFailure(p, "%w: n_estimators must be positive", ErrInvalidParams)
		case !(p.LearningRate > 0 && p.LearningRate <= 1):
			return fitFailure(p, "%w: learning_rate must be in (0, 1]", ErrInvalidParams)
		case p.MaxDepth < 1:
			return fitFailure(p, "%w: max_depth must be positive", ErrInvalidParams)
		case p.MinSamplesLeaf < 1:
			return fitFailure(p, "%w: min_samples_leaf must be positive", ErrInvalidParams)
		}
	case ModelRidge:
		if !(p.Alpha >= 0) {
			return fitFailure(p, "%w: alpha must be non-negative", ErrInvalidParams)
		}
	}
	return nil
}
