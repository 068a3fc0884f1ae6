package features

import "errors"

// Sentinel errors.
var (
	// ErrNotSorted means the input is not ordered by arrival.
	ErrNotSorted = errors.New("records are not sorted by arrival time")
)
