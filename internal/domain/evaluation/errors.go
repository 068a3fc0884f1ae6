package evaluation

import "errors"

// Sentinel errors.
var (
	ErrEmptyInput     = errors.New("no values to evaluate")
	ErrLengthMismatch = errors.New("truth and prediction lengths differ")
	ErrNonFinite      = errors.New("non-finite value")
	ErrUnknownMetric  = errors.New("unknown metric")
)
