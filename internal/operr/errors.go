// Package operr defines the error taxonomy shared by all operations:
// validation failures, permission rejections, missing resources, I/O
// failures, and cancelled approvals.
package operr

import (
	"context"
	"errors"
	"fmt"
)

// ErrCancelled is returned when a pending approval channel is dropped
// before a decision arrives, e.g. during shutdown.
var ErrCancelled = errors.New("approval cancelled: channel dropped while pending")

// ValidationError indicates invalid input, such as a relative path where
// an absolute one is required.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validationf creates a ValidationError with a formatted message.
func Validationf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidation checks if an error is a validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// PermissionDeniedError indicates an explicit deny or the fail-closed
// default when no approval is available.
type PermissionDeniedError struct {
	Operation string
	Path      string
	Message   string
}

func (e *PermissionDeniedError) Error() string {
	return e.Message
}

// PermissionDenied creates a PermissionDeniedError for an operation on a path.
func PermissionDenied(operation, path, message string) error {
	return &PermissionDeniedError{Operation: operation, Path: path, Message: message}
}

// IsPermissionDenied checks if an error is a permission rejection.
func IsPermissionDenied(err error) bool {
	var pe *PermissionDeniedError
	return errors.As(err, &pe)
}

// NotFoundError indicates a missing resource: an unknown background
// process id, an unknown request id, or a search string absent from a file.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

// NotFoundf creates a NotFoundError with a formatted message.
func NotFoundf(format string, args ...any) error {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// IsNotFound checks if an error is a missing-resource failure.
func IsNotFound(err error) bool {
	var ne *NotFoundError
	return errors.As(err, &ne)
}

// IOError wraps an underlying filesystem or process failure.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// IO wraps err as an IOError for the named operation.
func IO(op string, err error) error {
	return &IOError{Op: op, Err: err}
}

// IsIO checks if an error is an I/O failure.
func IsIO(err error) bool {
	var ie *IOError
	return errors.As(err, &ie)
}

// IsCancelled checks if an error means the caller's wait was abandoned,
// either by a dropped approval channel or by context cancellation.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
