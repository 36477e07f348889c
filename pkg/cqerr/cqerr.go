// Package cqerr defines the engine's exhaustive error-kind vocabulary
// (spec.md §7) and the FFI-facing ResultCode it maps to (spec.md §6).
package cqerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind is one of the exhaustive error kinds in spec.md §7.
type Kind int

const (
	// InvalidGatewayResponse: wire data doesn't match the required shape.
	InvalidGatewayResponse Kind = iota + 1
	// DeserializationError: JSON does not parse.
	DeserializationError
	// UnknownPartitionKeyRange: a response names a range not in the selected set.
	UnknownPartitionKeyRange
	// UnsupportedQueryPlan: the plan requires an operator the engine can't build.
	UnsupportedQueryPlan
	// InvalidUtf8: borrowed bytes are not valid UTF-8.
	InvalidUtf8
	// ArgumentNull: a required pointer or slice is null.
	ArgumentNull
	// InvalidPartitionKey: a partition key value is out of domain.
	InvalidPartitionKey
	// InternalError: invariant violation or caught panic.
	InternalError
)

func (k Kind) String() string {
	switch k {
	case InvalidGatewayResponse:
		return "InvalidGatewayResponse"
	case DeserializationError:
		return "DeserializationError"
	case UnknownPartitionKeyRange:
		return "UnknownPartitionKeyRange"
	case UnsupportedQueryPlan:
		return "UnsupportedQueryPlan"
	case InvalidUtf8:
		return "InvalidUtf8"
	case ArgumentNull:
		return "ArgumentNull"
	case InvalidPartitionKey:
		return "InvalidPartitionKey"
	case InternalError:
		return "InternalError"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ResultCode is the signed integer exposed across the FFI boundary;
// 0 means success, every Kind maps to a distinct negative value.
type ResultCode int32

// Code returns the ResultCode for k. Kinds are negative so a caller that
// forgets to check for 0 will at least get an obviously-wrong number
// rather than a plausible positive one.
func (k Kind) Code() ResultCode {
	return -ResultCode(k)
}

// Error is the concrete error type returned by every fallible engine API.
// It wraps an underlying cause with github.com/pkg/errors so %+v still
// prints a stack trace during development, matching the teacher's use of
// pkg/errors throughout pkg/stores.
type Error struct {
	Kind  Kind
	cause error
}

// New creates an *Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, cause: errors.Errorf(format, args...)}
}

// Wrap creates an *Error of the given kind wrapping an existing error,
// with an optional printf-style message.
func Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, cause: errors.Wrap(err, fmt.Sprintf(format, args...))}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.cause)
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.cause }

// Format forwards to the wrapped cause so %+v still yields a stack trace.
func (e *Error) Format(s fmt.State, verb rune) {
	if f, ok := e.cause.(fmt.Formatter); ok {
		f.Format(s, verb)
		return
	}
	fmt.Fprint(s, e.Error())
}

// As reports whether err is (or wraps) a *cqerr.Error and returns it.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// CodeOf returns the ResultCode for err: 0 if err is nil, the wrapped
// Kind's code if err is a *Error, or InternalError's code otherwise.
func CodeOf(err error) ResultCode {
	if err == nil {
		return 0
	}
	if e, ok := As(err); ok {
		return e.Kind.Code()
	}
	return InternalError.Code()
}
