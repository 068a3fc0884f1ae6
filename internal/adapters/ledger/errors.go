package ledger

import "errors"

// Sentinel errors.
var (
	ErrOpen   = errors.New("open ledger failed")
	ErrWrite  = errors.New("write ledger failed")
	ErrRead   = errors.New("read ledger failed")
	ErrClosed = errors.New("ledger closed")
)
