// Package utils provides common utility functions for HTTP response
// handling, request ID management, and cookie operations. It includes
// standardized response formats with automatic request ID injection for
// distributed tracing.
package utils

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/madiyar/authkit/internal/apperr"
	"github.com/rs/zerolog/log"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

// requestIDKey is the context key for request ID
const requestIDKey contextKey = "request_id"

// RefreshCookieName is the HTTP-only cookie carrying the refresh token.
const RefreshCookieName = "refresh_token"

// GetRequestID retrieves the request ID from the context.
// Returns an empty string if the context is nil or no request ID is present.
func GetRequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if requestID, ok := ctx.Value(requestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// WithRequestID adds a request ID to the context for distributed tracing.
// This is typically called by middleware to inject a unique identifier for
// each request.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// ErrorResponse represents a standard error response structure. Only the
// message, an optional stable code, and a request ID cross the boundary;
// stack traces and storage details never do.
type ErrorResponse struct {
	Message   string `json:"message"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// RespondWithError sends a JSON error response with automatic request ID
// extraction from the request context.
//
// Example:
//
//	if session == nil {
//	    utils.RespondWithError(w, r, http.StatusNotFound, "Session not found")
//	    return
//	}
func RespondWithError(w http.ResponseWriter, r *http.Request, statusCode int, message string) {
	writeJSON(w, statusCode, ErrorResponse{
		Message:   message,
		RequestID: GetRequestID(r.Context()),
	})
}

// RespondWithAppError serializes a structured business fault. Unexpected
// errors collapse to a generic 500 so no internal detail leaks.
func RespondWithAppError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperr.From(err)
	writeJSON(w, appErr.Status, ErrorResponse{
		Message:   appErr.Message,
		Code:      appErr.Code,
		RequestID: GetRequestID(r.Context()),
	})
}

// RespondWithJSON sends a JSON response with the given status code and data.
func RespondWithJSON(w http.ResponseWriter, r *http.Request, statusCode int, data interface{}) {
	writeJSON(w, statusCode, data)
}

// RespondWithMessage sends a simple {"message": ...} response with the given
// status code. Useful for endpoints that only need to return a status message.
func RespondWithMessage(w http.ResponseWriter, r *http.Request, statusCode int, message string) {
	response := map[string]string{"message": message}
	if requestID := GetRequestID(r.Context()); requestID != "" {
		response["request_id"] = requestID
	}
	writeJSON(w, statusCode, response)
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// SetRefreshCookie stores the refresh token in an HTTP-only cookie with
// strict same-site policy. MaxAge is specified in seconds and should match
// the refresh token lifetime (30 days). In production the cookie is marked
// Secure (HTTPS only).
//
// Example:
//
//	utils.SetRefreshCookie(w, refreshToken, int((720 * time.Hour).Seconds()), cfg.Server.IsProduction())
func SetRefreshCookie(w http.ResponseWriter, token string, maxAge int, isProduction bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   maxAge,
	})
}

// ClearRefreshCookie deletes the refresh token cookie by setting MaxAge to -1.
// Called on logout.
func ClearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}
