package tuning

import "errors"

// Sentinel errors.
var (
	ErrNoValidCandidate = errors.New("every grid point failed")
	ErrEmptyGrid        = errors.New("grid expands to no points")
	ErrEmptyInput       = errors.New("no training rows")
	ErrFoldShape        = errors.New("fold rows do not match fold bounds")
)
