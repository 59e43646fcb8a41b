// internal/pkg/apperrors/errors.go
package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies an error for boundary mapping and retry decisions.
type Kind string

const (
	KindValidation           Kind = "validation_error"
	KindNotFound             Kind = "not_found"
	KindUnauthorized         Kind = "unauthorized"
	KindOutOfStock           Kind = "out_of_stock"
	KindRateUnavailable      Kind = "rate_unavailable"
	KindEmptyCart            Kind = "empty_cart"
	KindDuplicateFiscal      Kind = "duplicate_fiscal_number"
	KindConflict             Kind = "conflict"
	KindPersistence          Kind = "persistence_error"
)

// Error is the structured error surfaced to callers: a kind plus a
// user-presentable message. Internal causes stay wrapped and are never
// exposed at the HTTP boundary.
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause to errors.Is / errors.As.
func (e *Error) Unwrap() error {
	return e.cause
}

// New creates an Error with the given kind and formatted message.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error that keeps its underlying cause.
func Wrap(kind Kind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), cause: cause}
}

// KindOf extracts the Kind from err, or KindPersistence when err carries none.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindPersistence
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}

// Retryable reports whether the operation that produced err may be retried.
// Validation and authorization failures are never retried; only transient
// persistence failures at idempotent boundaries are.
func Retryable(err error) bool {
	return KindOf(err) == KindPersistence
}
