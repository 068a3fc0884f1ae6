package cleaning

import (
	"errors"
	"fmt"
)

// ErrInsufficientData is wrapped by every InsufficientDataError.
var ErrInsufficientData = errors.New("insufficient data")

// InsufficientDataError reports that too few rows survived cleaning, or that
// a column has no observed value to fit statistics on.
type InsufficientDataError struct {
	Rows    int
	MinRows int
	Column  string // set when a single column is empty
}

func (e *InsufficientDataError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s: column %s has no observed values in %d rows", ErrInsufficientData, e.Column, e.Rows)
	}
	return fmt.Sprintf("%s: %d rows survived cleaning, need at least %d", ErrInsufficientData, e.Rows, e.MinRows)
}

func (e *InsufficientDataError) Unwrap() error { return ErrInsufficientData }
