package regressor

import (
	"fmt"
	"math"

	"github.com/okian/waitcast/internal/domain/numeric"
	"github.com/sajari/regression"
	"gonum.org/v1/gonum/floats"
)

// collinearTolerance is the share of a column's norm that must survive
// projection onto the columns already kept for it to count as independent.
const collinearTolerance = 1e-8

// OLS is ordinary least squares. Linearly dependent and constant columns are
// dropped before solving so one-hot groups and standardized constants do not
// make the system singular; their coefficient is zero.
type OLS struct {
	params    Params
	kept      []int
	coef      []float64
	intercept float64
	scale     []float64
	r2        float64
	fitted    bool
}

// Fit solves least squares on the independent non-constant columns of X.
func (o *OLS) Fit(X [][]float64, y []float64) error {
	width, err := checkXY(o.params, X, y)
	if err != nil {
		return err
	}

	o.scale = make([]float64, width)
	for j := range width {
		o.scale[j] = numeric.Std(column(X, j))
	}
	// The solver needs more observations than unknowns.
	o.kept = independentColumns(X, len(X)-2)
	o.coef = make([]float64, width)
	o.intercept = numeric.Mean(y)
	o.r2 = 0

	if len(o.kept) > 0 {
		var r regression.Regression
		r.SetObserved("wait_time")
		for k, j := range o.kept {
			r.SetVar(k, fmt.Sprintf("x%d", j))
		}
		for i, row := range X {
			vars := make([]float64, len(o.kept))
			for k, j := range o.kept {
				vars[k] = row[j]
			}
			r.Train(regression.DataPoint(y[i], vars))
		}
		if err := r.Run(); err != nil {
			return fitFailure(o.params, "%w: %w", ErrSingular, err)
		}
		coeffs := r.GetCoeffs()
		if len(coeffs) != len(o.kept)+1 || !numeric.AllFinite(coeffs) {
			return fitFailure(o.params, "%w: unusable coefficients", ErrSingular)
		}
		o.intercept = coeffs[0]
		for k, j := range o.kept {
			o.coef[j] = coeffs[k+1]
		}
		o.r2 = r.R2
	}
	o.fitted = true
	return nil
}

// Predict applies the fitted coefficients and intercept.
func (o *OLS) Predict(X [][]float64) ([]float64, error) {
	if !o.fitted {
		return nil, ErrNotFitted
	}
	return linearPredict(X, o.coef, o.intercept)
}

// Importance weighs each coefficient by its column's spread.
func (o *OLS) Importance() []float64 {
	w := make([]float64, len(o.coef))
	for j, c := range o.coef {
		w[j] = math.Abs(c) * o.scale[j]
	}
	return normalize(w)
}

// Params returns the hyperparameters the model was built with.
func (o *OLS) Params() Params { return o.params }

// R2 is the in-sample coefficient of determination reported by the solver.
func (o *OLS) R2() float64 { return o.r2 }

// Kept returns the indices of the columns the model was solved on.
func (o *OLS) Kept() []int { return append([]int(nil), o.kept...) }

// independentColumns runs Gram-Schmidt over the centered columns of X and
// returns, in order, at most limit columns that add a new direction.
func independentColumns(X [][]float64, limit int) []int {
	if len(X) == 0 || limit <= 0 {
		return nil
	}
	var basis [][]float64
	var kept []int
	for j := range X[0] {
		v := column(X, j)
		raw := floats.Norm(v, 2)
		floats.AddConst(-numeric.Mean(v), v)
		norm := floats.Norm(v, 2)
		if norm == 0 || norm <= collinearTolerance*raw {
			continue
		}
		for _, b := range basis {
			floats.AddScaled(v, -floats.Dot(v, b), b)
		}
		rest := floats.Norm(v, 2)
		if rest <= collinearTolerance*norm {
			continue
		}
		floats.Scale(1/rest, v)
		basis = append(basis, v)
		kept = append(kept, j)
		if len(kept) == limit {
			break
		}
	}
	return kept
}

func column(X [][]float64, j int) []float64 {
	out := make([]float64, len(X))
	for i := range X {
		out[i] = X[i][j]
	}
	return out
}
