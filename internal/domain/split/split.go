// Package split partitions time-ordered rows without shuffling.
package split

import (
	"fmt"
	"math"
)

// Fold is one expanding-window cross-validation fold over row positions:
// train on [0, TrainEnd), validate on [TrainEnd, ValidEnd).
type Fold struct {
	Index    int `json:"index"`
	TrainEnd int `json:"train_end"`
	ValidEnd int `json:"valid_end"`
}

// TrainSize is the number of training rows.
func (f Fold) TrainSize() int { return f.TrainEnd }

// ValidSize is the number of validation rows.
func (f Fold) ValidSize() int { return f.ValidEnd - f.TrainEnd }

// Index returns the cut position floor(n * trainFraction), clamped so both
// partitions are non-empty.
func Index(n int, trainFraction float64) (int, error) {
	if !(trainFraction > 0 && trainFraction < 1) {
		return 0, fmt.Errorf("%w: got %v", ErrInvalidFraction, trainFraction)
	}
	if n < 2 {
		return 0, fmt.Errorf("%w: %d rows", ErrTooFewRows, n)
	}
	cut := int(math.Floor(float64(n) * trainFraction))
	return min(max(cut, 1), n-1), nil
}

// Split returns copies of the leading train and trailing test partitions.
// Rows must already be ordered by arrival.
func Split[T any](rows []T, trainFraction float64) (train, test []T, err error) {
	cut, err := Index(len(rows), trainFraction)
	if err != nil {
		return nil, nil, err
	}
	train = append([]T(nil), rows[:cut]...)
	test = append([]T(nil), rows[cut:]...)
	return train, test, nil
}

// Folds returns nSplits expanding-window folds over n rows. Each validation
// block has n/(nSplits+1) rows and follows its training block directly;
// the last block ends at n.
func Folds(n, nSplits int) ([]Fold, error) {
	if nSplits < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSplits, nSplits)
	}
	if n < nSplits+1 {
		return nil, fmt.Errorf("%w: %d rows for %d splits", ErrTooFewRows, n, nSplits)
	}
	size := n / (nSplits + 1)
	first := n - nSplits*size

	folds := make([]Fold, nSplits)
	for k := range folds {
		start := first + k*size
		folds[k] = Fold{Index: k, TrainEnd: start, ValidEnd: start + size}
	}
	return folds, nil
}
