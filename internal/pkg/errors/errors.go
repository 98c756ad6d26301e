// Package errors provides the domain error taxonomy for eskit.
//
// The CRUD projection engine and gateway raise errors tagged with a
// transport-neutral Kind; the gateway is the sole place that maps a Kind
// onto a gRPC status code (spec §7).
package errors

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
)

// Kind classifies an AppError for transport-status mapping.
type Kind string

const (
	// KindInvalidArgument covers missing/ill-formed fields, bad UUIDs,
	// empty update diffs, and unrecognized event actions during replay.
	KindInvalidArgument Kind = "INVALID_ARGUMENT"
	// KindNotFound covers an empty event stream or a tombstoned entity
	// read without deleted=true.
	KindNotFound Kind = "NOT_FOUND"
	// KindConcurrency covers an Append rejected by the event store due to
	// a version conflict.
	KindConcurrency Kind = "CONCURRENCY"
	// KindInternal covers anything unclassified.
	KindInternal Kind = "INTERNAL"
)

// Code returns the gRPC status code this Kind maps onto.
func (k Kind) Code() codes.Code {
	switch k {
	case KindInvalidArgument:
		return codes.InvalidArgument
	case KindNotFound:
		return codes.NotFound
	case KindConcurrency:
		return codes.FailedPrecondition
	default:
		return codes.Internal
	}
}

// AppError is a structured domain error carrying a transport-neutral Kind.
type AppError struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *AppError) Unwrap() error { return e.Err }

// New creates a new AppError of the given Kind.
func New(kind Kind, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

// Newf creates a new AppError with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *AppError {
	return &AppError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error into an AppError of the given Kind.
func Wrap(err error, kind Kind, message string) *AppError {
	return &AppError{Kind: kind, Message: message, Err: err}
}

// NotFound creates a NotFound AppError.
func NotFound(message string) *AppError { return New(KindNotFound, message) }

// InvalidArgument creates an InvalidArgument AppError.
func InvalidArgument(message string) *AppError { return New(KindInvalidArgument, message) }

// Concurrency creates a Concurrency AppError.
func Concurrency(message string) *AppError { return New(KindConcurrency, message) }

// Internal creates an Internal AppError, wrapping the underlying cause.
func Internal(err error) *AppError {
	return Wrap(err, KindInternal, "internal error")
}

// As reports whether err is (or wraps) an *AppError and returns it.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf returns the Kind of err, defaulting to KindInternal when err is
// not (or does not wrap) an *AppError.
func KindOf(err error) Kind {
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return KindInternal
}
