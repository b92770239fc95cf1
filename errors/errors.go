package errors

import (
	"errors"
	"fmt"
)

var (
	// Validation failures: rejected before any write is attempted.
	ErrEmptyAuthor = fmt.Errorf("author must not be empty")
	ErrEmptyBody   = fmt.Errorf("body must not be empty")

	// Store failures: terminal for that single message, never retried here.
	ErrStoreWrite   = fmt.Errorf("store write failed")
	ErrStoreTimeout = fmt.Errorf("store deadline exceeded")

	// Relay failures.
	ErrRelayBusy   = fmt.Errorf("relay queue full")
	ErrSinkClosed  = fmt.Errorf("session sink closed")
	ErrSinkFull    = fmt.Errorf("session sink full")
	ErrWorkerPanic = fmt.Errorf("worker panic")
)

// IsValidation reports whether err comes from caller input rather than
// from the storage layer.
func IsValidation(err error) bool {
	return errors.Is(err, ErrEmptyAuthor) || errors.Is(err, ErrEmptyBody)
}
