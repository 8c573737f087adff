package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

// Code is the machine-readable error class sent to clients in the "code" field.
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
)

// Metadata describes how a code is rendered over HTTP. PublicMessage replaces an
// empty message, and always replaces the message of an internal error.
type Metadata struct {
	HTTPStatus     int
	PublicMessage  string
	DetailsAllowed bool
}

var metadataByCode = map[Code]Metadata{
	CodeValidation:    {http.StatusBadRequest, "Invalid request", true},
	CodeUnauthorized:  {http.StatusUnauthorized, "Unauthorized", false},
	CodeForbidden:     {http.StatusForbidden, "Forbidden", false},
	CodeNotFound:      {http.StatusNotFound, "Resource not found", false},
	CodeConflict:      {http.StatusConflict, "Conflict", false},
	CodeStateConflict: {http.StatusUnprocessableEntity, "Deal is not in a valid state for this action", true},
	CodeIdempotency:   {http.StatusConflict, "Idempotency-Key reused with a different request", true},
	CodeRateLimit:     {http.StatusTooManyRequests, "Too many requests", false},
	CodeInternal:      {http.StatusInternalServerError, GenericMessage, false},
	CodeDependency:    {http.StatusServiceUnavailable, "Service temporarily unavailable", true},
}

// MetadataFor returns the rendering rules for code; unknown codes render as internal.
func MetadataFor(code Code) Metadata {
	meta, ok := metadataByCode[code]
	if !ok {
		meta = metadataByCode[CodeInternal]
	}
	return meta
}

// Error is a typed failure whose message is safe to show to clients.
type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

// Newf is New with fmt-style formatting. Use New for literal text.
func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap attaches a client-facing code and message to cause. The cause is logged,
// never rendered.
func Wrap(code Code, cause error, message string) *Error {
	return &Error{code: code, message: message, cause: cause}
}

// Code is CodeInternal for a nil error so callers can render it without a check.
func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() (msg string) {
	if e != nil {
		msg = e.message
	}
	return msg
}

func (e *Error) Details() (details any) {
	if e != nil {
		details = e.details
	}
	return details
}

// WithDetails sets structured details; they are rendered only for codes that allow them.
func (e *Error) WithDetails(details any) *Error {
	if e != nil {
		e.details = details
	}
	return e
}

func (e *Error) Error() string {
	switch {
	case e == nil:
		return ""
	case e.cause == nil:
		return string(e.code) + ": " + e.message
	default:
		return string(e.code) + ": " + e.message + ": " + e.cause.Error()
	}
}

func (e *Error) Unwrap() (cause error) {
	if e != nil {
		cause = e.cause
	}
	return cause
}

// As returns the first *Error in err's chain, or nil.
func As(err error) *Error {
	var typed *Error
	if !stdErrors.As(err, &typed) {
		return nil
	}
	return typed
}

// HasCode reports whether err carries the given typed code anywhere in its chain.
func HasCode(err error, code Code) bool {
	if typed := As(err); typed != nil {
		return typed.code == code
	}
	return false
}
