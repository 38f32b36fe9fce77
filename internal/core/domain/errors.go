package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrCircuitOpen indicates a dependency's circuit breaker is
	// open and the call was rejected without reaching the dependency.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrRateLimited indicates the downstream API rejected the call
	// for exceeding its rate limit.
	ErrRateLimited = errors.New("rate limited")

	// ErrUnsupportedSchema indicates an unknown vector ID scheme
	// version.
	ErrUnsupportedSchema = errors.New("unsupported schema")

	// ErrInvalidSettings indicates the remote settings document
	// failed validation.
	ErrInvalidSettings = errors.New("invalid settings")
)

// TransientError marks a failure worth retrying: rate limiting,
// server-side errors, network resets and timeouts.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// Transient wraps err as retryable.
func Transient(op string, err error) error {
	return &TransientError{Op: op, Err: err}
}

// PermanentError marks a failure that will not succeed on retry:
// client errors other than 429, malformed documents.
type PermanentError struct {
	Op  string
	Err error
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err as non-retryable.
func Permanent(op string, err error) error {
	return &PermanentError{Op: op, Err: err}
}

// FatalError aborts an entire run: settings fetch or validation
// failure, store initialisation failure.
type FatalError struct {
	Op  string
	Err error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("fatal: %s: %v", e.Op, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

// Fatal wraps err as run-aborting.
func Fatal(op string, err error) error {
	return &FatalError{Op: op, Err: err}
}

// StoreError wraps a vector store failure with the operation that
// produced it.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("vector store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// IsRetryable reports whether err is worth retrying with backoff.
// Circuit-open rejections are retryable: the backoff acts as the
// cooldown before the breaker's next probe.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var transient *TransientError
	if errors.As(err, &transient) {
		return true
	}
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrCircuitOpen)
}

// IsFatal reports whether err aborts the whole run.
func IsFatal(err error) bool {
	var fatal *FatalError
	return errors.As(err, &fatal)
}
