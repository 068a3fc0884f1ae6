package regressor

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	ErrFitFailure    = errors.New("model fit failed")
	ErrUnknownModel  = errors.New("unknown model")
	ErrInvalidParams = errors.New("invalid hyperparameters")
	ErrBadInput      = errors.New("malformed training input")
	ErrSingular      = errors.New("design matrix is singular")
	ErrNonFinite     = errors.New("non-finite model output")
	ErrNotFitted     = errors.New("model is not fitted")
	ErrWidthMismatch = errors.New("feature width differs from training")
)

// FitFailureError is returned when a model cannot be built or trained
// for a given set of hyperparameters.
type FitFailureError struct {
	Params Params
	Err    error
}

func (e *FitFailureError) Error() string {
	return fmt.Sprintf("fit %s: %v", e.Params, e.Err)
}

// Unwrap exposes both ErrFitFailure and the cause.
func (e *FitFailureError) Unwrap() []error { return []error{ErrFitFailure, e.Err} }

func fitFailure(p Params, format string, args ...any) error {
	return &FitFailureError{Params: p, Err: fmt.Errorf(format, args...)}
}
