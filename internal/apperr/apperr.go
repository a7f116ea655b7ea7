// Package apperr defines the closed set of error kinds the API can produce.
// Every failure that crosses a handler boundary is an *Error carrying a kind,
// an HTTP status, and a machine-readable code so that handlers render errors
// in one place instead of choosing a status ad hoc at each call site.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error into one of the closed error categories.
type Kind int

const (
	KindValidation Kind = iota
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindConflict
	KindDatabase
)

// status maps each kind to its HTTP status code.
var status = map[Kind]int{
	KindValidation:     http.StatusBadRequest,
	KindAuthentication: http.StatusUnauthorized,
	KindAuthorization:  http.StatusForbidden,
	KindNotFound:       http.StatusNotFound,
	KindConflict:       http.StatusConflict,
	KindDatabase:       http.StatusInternalServerError,
}

// code maps each kind to its default machine-readable code.
var code = map[Kind]string{
	KindValidation:     "VALIDATION_ERROR",
	KindAuthentication: "AUTHENTICATION_ERROR",
	KindAuthorization:  "AUTHORIZATION_ERROR",
	KindNotFound:       "NOT_FOUND",
	KindConflict:       "CONFLICT",
	KindDatabase:       "DATABASE_ERROR",
}

// Error is the single error type that crosses handler boundaries.
type Error struct {
	Kind    Kind
	Code    string // machine-readable code, e.g. "TOKEN_EXPIRED"
	Message string // user-visible message; generic for authentication failures
	Err     error  // wrapped cause, logged but never shown to clients
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Status returns the HTTP status code for the error's kind.
func (e *Error) Status() int { return status[e.Kind] }

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Code: code[kind], Message: message}
}

// Validation returns a 400 validation error.
func Validation(message string) *Error { return newError(KindValidation, message) }

// Authentication returns a 401 authentication error. Callers must take care to
// pass the same generic message for unknown-account and bad-password paths.
func Authentication(message string) *Error { return newError(KindAuthentication, message) }

// Authorization returns a 403 authorization error.
func Authorization(message string) *Error { return newError(KindAuthorization, message) }

// NotFound returns a 404 error. Entities absent and entities owned by another
// tenant both use this constructor so the two cases are indistinguishable.
func NotFound(message string) *Error { return newError(KindNotFound, message) }

// Conflict returns a 409 uniqueness-violation error.
func Conflict(message string) *Error { return newError(KindConflict, message) }

// Database wraps an unexpected storage failure. The client sees a generic
// message; the cause is preserved for structured logging.
func Database(err error) *Error {
	e := newError(KindDatabase, "internal server error")
	e.Err = err
	return e
}

// WithCode overrides the default machine-readable code.
func (e *Error) WithCode(c string) *Error {
	e.Code = c
	return e
}

// As extracts an *Error from an error chain. The second return is false for
// errors that did not originate from this package.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	appErr, ok := As(err)
	return ok && appErr.Kind == kind
}
