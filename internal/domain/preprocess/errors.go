package preprocess

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors.
var (
	ErrNotFitted       = errors.New("pipeline is not fitted")
	ErrEmptyInput      = errors.New("no rows to fit")
	ErrPredictionShape = errors.New("input does not match the fitted schema")
)

// PredictionShapeError lists the columns an input row is missing.
type PredictionShapeError struct {
	Row     int
	Missing []string
}

func (e *PredictionShapeError) Error() string {
	return fmt.Sprintf("row %d: missing columns %s", e.Row, strings.Join(e.Missing, ", "))
}

func (e *PredictionShapeError) Unwrap() error { return ErrPredictionShape }
