package domain

import "errors"

var (
	// ErrInvalidPayload is returned when a search log message cannot be stored
	ErrInvalidPayload = errors.New("invalid search log payload")

	// ErrDeliveriesClosed is returned when the broker closes the delivery channel
	ErrDeliveriesClosed = errors.New("rabbitmq delivery channel closed")
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
