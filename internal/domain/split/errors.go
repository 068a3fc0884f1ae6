package split

import "errors"

// Sentinel errors.
var (
	ErrInvalidFraction = errors.New("train fraction must be in (0, 1)")
	ErrInvalidSplits   = errors.New("number of splits must be at least 2")
	ErrTooFewRows      = errors.New("too few rows to split")
)
