// Package apperr defines the structured errors the service surfaces to
// callers. Every core operation either succeeds or fails with exactly one
// of these kinds; the HTTP layer maps Status onto the response code.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for programmatic handling.
type Kind string

const (
	KindValidation Kind = "validation" // missing or malformed input
	KindConflict   Kind = "conflict"   // uniqueness violation
	KindAuth       Kind = "auth"       // bad credentials, bad/expired/reused token
	KindNotFound   Kind = "not_found"  // referenced record absent
	KindDependency Kind = "dependency" // upload, hashing or store failure
)

// Error is a structured application error: a kind for callers, an HTTP
// status for the transport layer, and a client-safe message.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is / errors.As chains.
func (e *Error) Unwrap() error {
	return e.cause
}

// WithCause attaches an underlying error without changing what the client sees.
func (e *Error) WithCause(err error) *Error {
	return &Error{Kind: e.Kind, Status: e.Status, Message: e.Message, cause: err}
}

// Validation builds a 400 validation error.
func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Status: http.StatusBadRequest, Message: msg}
}

// Conflict builds a 409 conflict error.
func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Status: http.StatusConflict, Message: msg}
}

// Auth builds a 401 authentication error.
func Auth(msg string) *Error {
	return &Error{Kind: KindAuth, Status: http.StatusUnauthorized, Message: msg}
}

// AuthStatus builds an authentication error with an explicit status; login
// reports an unknown user as 404 while keeping the auth kind.
func AuthStatus(status int, msg string) *Error {
	return &Error{Kind: KindAuth, Status: status, Message: msg}
}

// NotFound builds a 404 not-found error.
func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Status: http.StatusNotFound, Message: msg}
}

// Dependency builds a 500 dependency error.
func Dependency(msg string) *Error {
	return &Error{Kind: KindDependency, Status: http.StatusInternalServerError, Message: msg}
}

// DependencyStatus builds a dependency error with an explicit status; a
// failed media upload is the client's problem (400), not an outage.
func DependencyStatus(status int, msg string) *Error {
	return &Error{Kind: KindDependency, Status: status, Message: msg}
}

// IsKind reports whether err is an application error of the given kind.
func IsKind(err error, kind Kind) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind == kind
	}
	return false
}

// StatusOf returns the HTTP status for err, defaulting to 500 for anything
// that is not a structured application error.
func StatusOf(err error) int {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Status
	}
	return http.StatusInternalServerError
}

// MessageOf returns the client-safe message for err.
func MessageOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Message
	}
	return "Internal server error"
}
