package regressor

import (
	"errors"
	"math"

	"github.com/okian/waitcast/internal/domain/numeric"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Ridge is L2-penalized least squares solved through the normal equations
// on centered data, so the intercept is not penalized.
type Ridge struct {
	params    Params
	coef      []float64
	intercept float64
	scale     []float64
	fitted    bool
}

// Fit solves (X'X + alpha*I) b = X'y on centered X and y.
func (r *Ridge) Fit(X [][]float64, y []float64) error {
	if err := r.params.validate(); err != nil {
		return err
	}
	width, err := checkXY(r.params, X, y)
	if err != nil {
		return err
	}
	if width == 0 {
		return fitFailure(r.params, "%w: no feature columns", ErrBadInput)
	}

	n := len(X)
	means := make([]float64, width)
	r.scale = make([]float64, width)
	for j := range width {
		col := column(X, j)
		means[j] = stat.Mean(col, nil)
		r.scale[j] = stat.PopStdDev(col, nil)
	}
	ym := numeric.Mean(y)

	xc := mat.NewDense(n, width, nil)
	yc := mat.NewVecDense(n, nil)
	for i := range X {
		for j := range width {
			xc.Set(i, j, X[i][j]-means[j])
		}
		yc.SetVec(i, y[i]-ym)
	}

	var gram mat.Dense
	gram.Mul(xc.T(), xc)
	for j := range width {
		gram.Set(j, j, gram.At(j, j)+r.params.Alpha)
	}
	var xty mat.VecDense
	xty.MulVec(xc.T(), yc)

	var beta mat.VecDense
	if err := beta.SolveVec(&gram, &xty); err != nil {
		// A Condition error still carries a solution; keep it if usable.
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return fitFailure(r.params, "%w: %w", ErrSingular, err)
		}
	}

	r.coef = make([]float64, width)
	r.intercept = ym
	for j := range width {
		r.coef[j] = beta.AtVec(j)
		r.intercept -= r.coef[j] * means[j]
	}
	if !numeric.AllFinite(r.coef) || math.IsNaN(r.intercept) || math.IsInf(r.intercept, 0) {
		return fitFailure(r.params, "%w", ErrSingular)
	}
	r.fitted = true
	return nil
}

// Predict applies the fitted coefficients and intercept.
func (r *Ridge) Predict(X [][]float64) ([]float64, error) {
	if !r.fitted {
		return nil, ErrNotFitted
	}
	return linearPredict(X, r.coef, r.intercept)
}

// Importance weighs each coefficient by its column's spread.
func (r *Ridge) Importance() []float64 {
	w := make([]float64, len(r.coef))
	for j, c := range r.coef {
		w[j] = math.Abs(c) * r.scale[j]
	}
	return normalize(w)
}

// Params returns the hyperparameters the model was built with.
func (r *Ridge) Params() Params { return r.params }

func linearPredict(X [][]float64, coef []float64, intercept float64) ([]float64, error) {
	if err := checkWidth(X, len(coef)); err != nil {
		return nil, err
	}
	out := make([]float64, len(X))
	for i, row := range X {
		v := intercept
		for j, c := range coef {
			v += c * row[j]
		}
		out[i] = v
	}
	return out, nil
}
