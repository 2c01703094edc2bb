// Package apperr defines the structured fault type used for expected
// business failures. Each fault carries an HTTP status code, a stable
// machine-readable code, and a user-facing message; handlers serialize it
// unchanged to the response. Expected failures are returned, not panicked:
// callers branch on the fault explicitly.
package apperr

import (
	"errors"
	"net/http"
)

// Stable error codes surfaced in the optional "code" response field.
const (
	CodeConflict           = "CONFLICT"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeNotFound           = "NOT_FOUND"
	CodeInternal           = "INTERNAL"
)

// Error is a structured business fault. It satisfies the error interface so
// it propagates through ordinary error returns, and the boundary layer maps
// Status/Message/Code onto the HTTP response without modification.
type Error struct {
	Status  int    `json:"-"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

// Conflict builds a 409 fault for duplicate-resource failures.
func Conflict(message string) *Error {
	return &Error{Status: http.StatusConflict, Code: CodeConflict, Message: message}
}

// InvalidCredentials builds the uniform 401 fault used for both unknown-email
// and wrong-password login failures, so the two are indistinguishable.
func InvalidCredentials() *Error {
	return &Error{Status: http.StatusUnauthorized, Code: CodeInvalidCredentials, Message: "Invalid email or password"}
}

// Unauthorized builds a 401 fault for missing, invalid or expired
// tokens and dead sessions.
func Unauthorized(message string) *Error {
	return &Error{Status: http.StatusUnauthorized, Code: CodeUnauthorized, Message: message}
}

// NotFound builds a 404 fault for session lookup or delete misses.
func NotFound(message string) *Error {
	return &Error{Status: http.StatusNotFound, Code: CodeNotFound, Message: message}
}

// Internal builds a 500 fault for unexpected persistence failures. The
// underlying cause is logged by the caller, never sent across the boundary.
func Internal(message string) *Error {
	return &Error{Status: http.StatusInternalServerError, Code: CodeInternal, Message: message}
}

// From extracts a structured fault from err. Unexpected errors collapse to a
// generic Internal fault so no storage detail leaks to the client.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("Internal server error")
}
