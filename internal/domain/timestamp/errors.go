package timestamp

import (
	"errors"
	"fmt"
)

// ErrUnparsableTimestamp is wrapped by every UnparsableTimestampError.
var ErrUnparsableTimestamp = errors.New("unparsable timestamp")

// UnparsableTimestampError reports a value no layout or epoch rule accepts.
type UnparsableTimestampError struct {
	Value any
}

func (e *UnparsableTimestampError) Error() string {
	return fmt.Sprintf("%s: %v", ErrUnparsableTimestamp, e.Value)
}

func (e *UnparsableTimestampError) Unwrap() error { return ErrUnparsableTimestamp }
