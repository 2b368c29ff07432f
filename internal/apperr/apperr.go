package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindNotFound            Kind = "not_found"
	KindDuplicateCheckIn    Kind = "duplicate_check_in"
	KindNoSessionsRemaining Kind = "no_sessions_remaining"
	KindValidation          Kind = "validation"
)

// Error is a failure of the primary action of a ledger operation. Its
// Message is meant to be shown to the operator as is.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches any *Error of the same kind, so callers can test against the
// sentinels below regardless of the message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrNotFound            = &Error{Kind: KindNotFound, Message: "not found"}
	ErrDuplicateCheckIn    = &Error{Kind: KindDuplicateCheckIn, Message: "attendance already marked today"}
	ErrNoSessionsRemaining = &Error{Kind: KindNoSessionsRemaining, Message: "no sessions remaining for this member"}
	ErrValidation          = &Error{Kind: KindValidation, Message: "validation failed"}
)

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func NotFound(format string, args ...interface{}) *Error {
	return New(KindNotFound, fmt.Sprintf(format, args...))
}

func Validation(format string, args ...interface{}) *Error {
	return New(KindValidation, fmt.Sprintf(format, args...))
}

// KindOf returns the kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
