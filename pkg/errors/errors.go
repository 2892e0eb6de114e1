// Package errors carries a stable error code from the service layer to the
// HTTP edge. The code decides the status, the retry policy and how much of the
// message a caller gets to see.
package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation    Code = "VALIDATION_ERROR"
	CodeUnauthorized  Code = "UNAUTHORIZED"
	CodeForbidden     Code = "FORBIDDEN"
	CodeNotFound      Code = "NOT_FOUND"
	CodeConflict      Code = "CONFLICT"
	CodeStateConflict Code = "STATE_CONFLICT"
	CodeIdempotency   Code = "IDEMPOTENCY_KEY_REUSED"
	CodeRateLimit     Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal      Code = "INTERNAL_ERROR"
	CodeDependency    Code = "DEPENDENCY_ERROR"

	// CodeConfiguration marks a missing credential or external resource. Never retried.
	CodeConfiguration Code = "CONFIGURATION_ERROR"
	// CodeStateInconsistency marks session state that cannot support the requested operation.
	CodeStateInconsistency Code = "STATE_INCONSISTENCY"
)

// Metadata is the edge policy for a code. When ExposeMessage is set the
// error's own message replaces PublicMessage in responses.
type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	ExposeMessage  bool
	DetailsAllowed bool
}

var metadataByCode = map[Code]Metadata{
	CodeValidation:         {http.StatusUnprocessableEntity, false, "validation failed", true, true},
	CodeUnauthorized:       {http.StatusUnauthorized, false, "authentication required", true, false},
	CodeForbidden:          {http.StatusForbidden, false, "access denied", true, false},
	CodeNotFound:           {http.StatusNotFound, false, "resource not found", true, false},
	CodeConflict:           {http.StatusConflict, false, "conflict detected", true, false},
	CodeStateConflict:      {http.StatusUnprocessableEntity, false, "state transition disallowed", true, true},
	CodeIdempotency:        {http.StatusConflict, false, "idempotency key reused", true, true},
	CodeRateLimit:          {http.StatusTooManyRequests, false, "rate limit exceeded", true, false},
	CodeInternal:           {http.StatusInternalServerError, true, "internal server error", false, false},
	CodeDependency:         {http.StatusServiceUnavailable, true, "dependency unavailable", false, true},
	CodeConfiguration:      {http.StatusInternalServerError, false, "service is not configured", false, false},
	CodeStateInconsistency: {http.StatusConflict, false, "session state is inconsistent", true, true},
}

// MetadataFor falls back to CodeInternal for unknown codes.
func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

// Newf is New with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

func Wrap(code Code, err error, message string) *Error {
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

// WithDetails attaches a structured payload and returns e for chaining.
func (e *Error) WithDetails(details any) *Error {
	if e != nil {
		e.details = details
	}
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As returns the outermost *Error in err's chain, or nil.
func As(err error) *Error {
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// CodeOf reports the code of err, CodeInternal for untyped errors.
func CodeOf(err error) Code {
	return As(err).Code()
}

// IsRetryable reports whether err carries a code flagged as retryable.
// Untyped errors are treated as transient.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	typed := As(err)
	if typed == nil {
		return true
	}
	return MetadataFor(typed.code).Retryable
}
