package payment

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so heterogeneous backends surface errors
// consistently. Every failed result carries exactly one Kind.
type Kind string

const (
	// KindValidation marks bad input data; the backend is never contacted.
	KindValidation Kind = "validation"
	// KindConfiguration marks missing or invalid adapter credentials.
	KindConfiguration Kind = "configuration"
	// KindBackend marks declines, network failures and other gateway errors.
	KindBackend Kind = "backend"
	// KindTimeout marks a gateway call that exceeded its deadline.
	KindTimeout Kind = "timeout"
	// KindUnsupportedMethod marks a method identifier with no registered strategy.
	KindUnsupportedMethod Kind = "unsupported_method"
	// KindNotFound marks a refund against an unknown or already-reversed transaction.
	KindNotFound Kind = "not_found"
)

// Error is a classified failure suitable for conversion into a result value
// at the strategy or processor boundary.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// NewError builds a classified error.
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WrapError builds a classified error around a cause.
func WrapError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf extracts the Kind from an error chain, defaulting to KindBackend for
// unclassified failures.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindBackend
}
