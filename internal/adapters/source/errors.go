package source

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	ErrInputNotFound = errors.New("input not found")
	ErrMissingColumn = errors.New("missing required column")
	ErrRead          = errors.New("read input failed")
)

// InputNotFoundError reports a data path that does not exist.
type InputNotFoundError struct {
	Path string
}

func (e *InputNotFoundError) Error() string {
	return fmt.Sprintf("input not found: %s", e.Path)
}

func (e *InputNotFoundError) Unwrap() error { return ErrInputNotFound }
