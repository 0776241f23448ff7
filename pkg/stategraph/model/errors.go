package model

import (
	"errors"
	"fmt"
)

// CapabilityError wraps a failed model or tool invocation.
//
// Retryable marks transient failures (rate limits, timeouts, overload)
// that a caller may safely reattempt.
type CapabilityError struct {
	// Op is the operation that failed, e.g. "complete" or "stream".
	Op string

	// Err is the underlying cause.
	Err error

	// Retryable indicates whether reattempting may succeed.
	Retryable bool
}

// NewError creates a CapabilityError.
func NewError(op string, err error, retryable bool) *CapabilityError {
	return &CapabilityError{Op: op, Err: err, Retryable: retryable}
}

// Error implements the error interface.
func (e *CapabilityError) Error() string {
	return fmt.Sprintf("model %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *CapabilityError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err is a CapabilityError marked retryable.
func IsRetryable(err error) bool {
	var capErr *CapabilityError
	if errors.As(err, &capErr) {
		return capErr.Retryable
	}
	return false
}
