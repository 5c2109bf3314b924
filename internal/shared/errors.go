package shared

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrorKind classifies failures so transports can map them without string matching.
type ErrorKind string

const (
	// KindValidation marks missing or malformed caller input.
	KindValidation ErrorKind = "validation"
	// KindNotFound marks a referenced record that does not exist.
	KindNotFound ErrorKind = "not_found"
	// KindInsufficient marks a stock, weight or balance shortfall.
	KindInsufficient ErrorKind = "insufficient"
	// KindConflict marks a concurrent modification or duplicate submission.
	KindConflict ErrorKind = "conflict"
	// KindInfrastructure marks store or network failures the caller cannot fix.
	KindInfrastructure ErrorKind = "infrastructure"
)

// Error is a classified error with a human readable message.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// InsufficientError reports a shortfall of a named resource on a named entity.
type InsufficientError struct {
	Resource  string
	Entity    string
	Available decimal.Decimal
	Requested decimal.Decimal
	Message   string
}

func (e *InsufficientError) Error() string { return e.Message }

// Validation builds a validation error.
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// NotFound builds a not-found error.
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Conflict builds a conflict error wrapping the cause.
func Conflict(message string, err error) *Error {
	return &Error{Kind: KindConflict, Message: message, Err: err}
}

// Infrastructure builds an infrastructure error wrapping the cause.
func Infrastructure(message string, err error) *Error {
	return &Error{Kind: KindInfrastructure, Message: message, Err: err}
}

// KindOf returns the kind of err. Unclassified errors count as infrastructure.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var insufficient *InsufficientError
	if errors.As(err, &insufficient) {
		return KindInsufficient
	}
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Kind
	}
	return KindInfrastructure
}

// IsClassified reports whether err already carries a kind.
func IsClassified(err error) bool {
	var insufficient *InsufficientError
	var classified *Error
	return errors.As(err, &insufficient) || errors.As(err, &classified)
}

// IsTimeout reports whether err stems from a context deadline or cancellation.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

// Message returns the user facing message of err. Infrastructure failures get a generic text.
func Message(err error) string {
	switch KindOf(err) {
	case "":
		return ""
	case KindInfrastructure:
		return "Server error. Please try again."
	}
	var insufficient *InsufficientError
	if errors.As(err, &insufficient) {
		return insufficient.Message
	}
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Error()
	}
	return err.Error()
}
