package domain

import "errors"

var (
	// ErrImageNotFound is returned when a record cannot be found in the database
	ErrImageNotFound = errors.New("image not found")

	// ErrImageAlreadyClaimed is returned when attempting to claim a record that
	// is not in UPLOADED status anymore
	ErrImageAlreadyClaimed = errors.New("image already claimed or not in UPLOADED status")

	// ErrMaxRetriesExceeded is returned when a job has exceeded its retry limit
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
)

// RetryableError wraps transient errors that should trigger a requeue
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return "retryable error: " + e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// NewRetryableError creates a new retryable error
func NewRetryableError(err error) error {
	return &RetryableError{Err: err}
}
