package record

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by repositories when the target id does not exist.
var ErrNotFound = errors.New("record not found")

// ErrorCode categorizes collection errors.
type ErrorCode string

const (
	// ErrCodeNotFound indicates the target id was absent at mutation time.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeWriteFailed indicates the repository rejected a create, update or delete.
	ErrCodeWriteFailed ErrorCode = "WRITE_FAILED"

	// ErrCodeReadFailed indicates a notification or page fetch failed.
	ErrCodeReadFailed ErrorCode = "READ_FAILED"

	// ErrCodeInvalidInput indicates an input failed validation.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// Error carries the operation context of a failed collection operation.
type Error struct {
	Code   ErrorCode
	Op     string // "create", "update", "delete", "load", "page"
	Entity string // entity noun, e.g. "list"
	ID     string // target record, if any
	Err    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s %s", e.Code, e.Op, e.Entity)
	if e.ID != "" {
		msg += fmt.Sprintf(" (id=%s)", e.ID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches ErrNotFound for NOT_FOUND errors so callers can use errors.Is.
func (e *Error) Is(target error) bool {
	return target == ErrNotFound && e.Code == ErrCodeNotFound
}

// NewWriteError wraps a repository write failure.
func NewWriteError(op, entity, id string, err error) *Error {
	return &Error{Code: ErrCodeWriteFailed, Op: op, Entity: entity, ID: id, Err: err}
}

// NewReadError wraps a read failure.
func NewReadError(op, entity string, err error) *Error {
	return &Error{Code: ErrCodeReadFailed, Op: op, Entity: entity, Err: err}
}

// NewNotFoundError reports that id was absent.
func NewNotFoundError(op, entity, id string) *Error {
	return &Error{Code: ErrCodeNotFound, Op: op, Entity: entity, ID: id}
}

// CodeOf extracts the ErrorCode from err. Bare ErrNotFound maps to
// ErrCodeNotFound; anything else unrecognized returns "".
func CodeOf(err error) ErrorCode {
	var re *Error
	if errors.As(err, &re) {
		return re.Code
	}
	if errors.Is(err, ErrNotFound) {
		return ErrCodeNotFound
	}
	return ""
}
