package service

import (
	"errors"
	"fmt"
)

// Kind classifies a business-rule failure. Every error a service returns
// on purpose is an *Error carrying one of these.
type Kind string

const (
	KindValidation           Kind = "validation"
	KindNotFound             Kind = "not_found"
	KindForbidden            Kind = "forbidden"
	KindUnauthorized         Kind = "unauthorized"
	KindInvalidTransition    Kind = "invalid_transition"
	KindInvalidState         Kind = "invalid_state"
	KindConflict             Kind = "conflict"
	KindDuplicateTransaction Kind = "duplicate_transaction"
	KindOverpayment          Kind = "overpayment"
)

// Error is a typed business error. It is never retried.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err, or "" when err is not a business error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err is a business error of the given kind.
func IsKind(err error, kind Kind) bool { return KindOf(err) == kind }

func errValidation(format string, args ...any) error {
	return newError(KindValidation, format, args...)
}

func errNotFound(resource string, id uint64) error {
	return newError(KindNotFound, "%s %d not found", resource, id)
}

func errForbidden(format string, args ...any) error {
	return newError(KindForbidden, format, args...)
}

func errInvalidState(format string, args ...any) error {
	return newError(KindInvalidState, format, args...)
}

func errConflict(format string, args ...any) error {
	return newError(KindConflict, format, args...)
}
