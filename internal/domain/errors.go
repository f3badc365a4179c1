package domain

import "errors"

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidTriangle = errors.New("invalid triangle")
	ErrEmptyNumbers    = errors.New("numbers array cannot be null or empty")
	ErrEmptyText       = errors.New("text is required")
	ErrJobNotFound     = errors.New("job not found")

	// ErrDuplicateBucket means two divisor workers wrote the same slot.
	// It is a partitioning bug and is never retried.
	ErrDuplicateBucket = errors.New("index already exists in bucket")
)

// ValidationError carries the caller-facing message of a rejected input
// while still matching its sentinel with errors.Is.
type ValidationError struct {
	Kind    error
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Kind
}

func invalid(kind error, msg string) error {
	return &ValidationError{Kind: kind, Message: msg}
}
