package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument marks malformed or out-of-range input. It is always
	// returned before any storage mutation.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound is returned for unknown ids, including offers already
	// claimed down to zero.
	ErrNotFound = errors.New("not found")

	// ErrExhausted is a claim against an offer with no quantity left.
	// It matches ErrNotFound with errors.Is.
	ErrExhausted = fmt.Errorf("%w: no quantity left to claim", ErrNotFound)

	// ErrStorage wraps commit failures, lost connections and timeouts.
	// In-flight mutations are rolled back before it surfaces; callers may retry.
	ErrStorage = errors.New("storage failure")
)

// ValidationError describes a single rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + " " + e.Reason
}

// Unwrap lets errors.Is(err, ErrInvalidArgument) match.
func (e *ValidationError) Unwrap() error { return ErrInvalidArgument }

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// StorageError wraps err so it matches ErrStorage while keeping the cause.
func StorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}
