// Package errdef defines the error taxonomy shared by all billing services.
// Domain packages declare sentinel errors built from these constructors so
// callers can branch on kind without caring which feature raised the error.
package errdef

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers and for transport mapping.
type Kind string

const (
	KindValidation  Kind = "validation"
	KindNotFound    Kind = "not_found"
	KindConflict    Kind = "conflict"
	KindTransaction Kind = "transaction"
)

// Error carries a kind, a stable machine-readable code and an optional cause.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches either the same sentinel instance or any *Error sharing the code.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code && e.Kind == other.Kind
}

func Validation(code string) *Error {
	return &Error{Kind: KindValidation, Code: code}
}

func NotFound(code string) *Error {
	return &Error{Kind: KindNotFound, Code: code}
}

func Conflict(code string) *Error {
	return &Error{Kind: KindConflict, Code: code}
}

// Transaction wraps a failure that rolled back a multi-step write. The cause
// stays reachable through errors.Is/As so domain sentinels still match.
func Transaction(err error) *Error {
	return &Error{Kind: KindTransaction, Code: "transaction_failed", Err: err}
}

// KindOf reports the kind of err, or empty when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func IsKind(err error, kind Kind) bool { return KindOf(err) == kind }
