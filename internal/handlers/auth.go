// Package handlers provides HTTP request handlers for the API endpoints.
// Handlers coordinate between the HTTP layer and the service layer: request
// parsing, validation, and response formatting live here, business rules do
// not.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/madiyar/authkit/internal/apperr"
	"github.com/madiyar/authkit/internal/middleware"
	"github.com/madiyar/authkit/internal/models"
	"github.com/madiyar/authkit/internal/services"
	"github.com/madiyar/authkit/pkg/utils"
	"github.com/rs/zerolog/log"
)

// AuthService defines the orchestration operations the handler depends on.
// Implemented by services.AuthService; abstracted for testing.
type AuthService interface {
	Register(ctx context.Context, email, username, password string, device services.DeviceMetadata) (*services.AuthResult, error)
	Login(ctx context.Context, email, password string, device services.DeviceMetadata) (*services.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Logout(ctx context.Context, sessionID, userID uuid.UUID) error
	ListSessions(ctx context.Context, userID, currentSessionID uuid.UUID) ([]models.SessionInfo, error)
	RevokeSession(ctx context.Context, sessionID, userID uuid.UUID) error
	RevokeOtherSessions(ctx context.Context, userID, currentSessionID uuid.UUID) (int, error)
	Profile(ctx context.Context, userID uuid.UUID) (models.PublicUser, error)
}

// AuthHandler handles the authentication endpoints: registration, login,
// token refresh, logout, profile access and multi-device session
// management.
//
// The refresh token travels in an HTTP-only cookie (and additionally in the
// JSON body for non-browser clients); the access token travels only in the
// response body and is expected back as a bearer header.
type AuthHandler struct {
	auth             AuthService
	refreshCookieTTL time.Duration // MaxAge for the refresh cookie (matches refresh token lifetime)
	isProduction     bool          // Marks the refresh cookie Secure
}

// NewAuthHandler creates an authentication handler.
//
// Example:
//
//	authHandler := handlers.NewAuthHandler(authSvc, tokenSvc.RefreshTTL(), cfg.Server.IsProduction())
//	r.Post("/api/v1/auth/register", authHandler.Register)
func NewAuthHandler(auth AuthService, refreshCookieTTL time.Duration, isProduction bool) *AuthHandler {
	return &AuthHandler{
		auth:             auth,
		refreshCookieTTL: refreshCookieTTL,
		isProduction:     isProduction,
	}
}

// registerRequest is the JSON body accepted by Register.
type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginRequest is the JSON body accepted by Login.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// authResponse is the payload returned by Register and Login. The refresh
// token is duplicated into the cookie for browser clients.
type authResponse struct {
	User         models.PublicUser `json:"user"`
	AccessToken  string            `json:"access_token"`
	RefreshToken string            `json:"refresh_token"`
	SessionID    uuid.UUID         `json:"session_id"`
}

// tokenPairResponse is the payload returned by Refresh.
type tokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Register creates a new account and logs the registering device straight
// in: the response carries the public user plus a fresh token pair, exactly
// like Login.
//
// Responses:
//   - 201 with user and tokens
//   - 400 on malformed body or missing fields
//   - 409 when the email is already taken (no session is created)
//
// Example request:
//
//	POST /api/v1/auth/register
//	{"email": "user@example.com", "username": "user42", "password": "hunter22"}
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	if req.Email == "" || req.Username == "" || req.Password == "" {
		utils.RespondWithError(w, r, http.StatusBadRequest, "Email, username and password are required")
		return
	}

	result, err := h.auth.Register(r.Context(), req.Email, req.Username, req.Password, h.deviceMetadata(r))
	if err != nil {
		middleware.IncrementAuthAttempts("register", resultLabel(err))
		utils.RespondWithAppError(w, r, err)
		return
	}

	middleware.IncrementAuthAttempts("register", "success")
	utils.SetRefreshCookie(w, result.RefreshToken, int(h.refreshCookieTTL.Seconds()), h.isProduction)
	utils.RespondWithJSON(w, r, http.StatusCreated, authResponse{
		User:         result.User,
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		SessionID:    result.SessionID,
	})
}

// Login verifies credentials and opens a new session for this device.
// Unknown email and wrong password both produce the same 401 body.
//
// Responses:
//   - 200 with user and tokens
//   - 400 on malformed body or missing fields
//   - 401 on bad credentials
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		utils.RespondWithError(w, r, http.StatusBadRequest, "Email and password are required")
		return
	}

	result, err := h.auth.Login(r.Context(), req.Email, req.Password, h.deviceMetadata(r))
	if err != nil {
		middleware.IncrementAuthAttempts("login", resultLabel(err))
		utils.RespondWithAppError(w, r, err)
		return
	}

	middleware.IncrementAuthAttempts("login", "success")
	utils.SetRefreshCookie(w, result.RefreshToken, int(h.refreshCookieTTL.Seconds()), h.isProduction)
	utils.RespondWithJSON(w, r, http.StatusOK, authResponse{
		User:         result.User,
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		SessionID:    result.SessionID,
	})
}

// Refresh exchanges a refresh token for a rotated pair and slides the
// session expiry forward.
//
// The token is taken from the refresh_token cookie when present, otherwise
// from the JSON body: {"refresh_token": "..."}. This endpoint is public;
// the refresh token itself is the credential.
//
// Responses:
//   - 200 with the new token pair
//   - 400 when no token was supplied
//   - 401 when the token is invalid or the session is gone or expired
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var refreshToken string

	// Try cookie first
	if cookie, err := r.Cookie(utils.RefreshCookieName); err == nil {
		refreshToken = cookie.Value
	} else {
		var req struct {
			RefreshToken string `json:"refresh_token"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondWithError(w, r, http.StatusBadRequest, "Invalid request")
			return
		}
		refreshToken = req.RefreshToken
	}

	if refreshToken == "" {
		utils.RespondWithError(w, r, http.StatusBadRequest, "Missing refresh token")
		return
	}

	tokens, err := h.auth.Refresh(r.Context(), refreshToken)
	if err != nil {
		middleware.IncrementTokenRefresh(resultLabel(err))
		utils.RespondWithAppError(w, r, err)
		return
	}

	middleware.IncrementTokenRefresh("success")
	utils.SetRefreshCookie(w, tokens.RefreshToken, int(h.refreshCookieTTL.Seconds()), h.isProduction)
	utils.RespondWithJSON(w, r, http.StatusOK, tokenPairResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	})
}

// Logout deletes the caller's own session and clears the refresh cookie.
// The session to delete comes from the access token, never from the body,
// so a caller can only ever log out the device it is calling from.
//
// A repeated logout for an already-deleted session returns 404; the cookie
// is cleared either way.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := middleware.GetAuthContext(r.Context())
	if !ok {
		utils.RespondWithError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	err := h.auth.Logout(r.Context(), authCtx.SessionID, authCtx.UserID)

	utils.ClearRefreshCookie(w)

	if err != nil {
		utils.RespondWithAppError(w, r, err)
		return
	}

	middleware.AddSessionsRevoked(1)
	utils.RespondWithMessage(w, r, http.StatusOK, "Logged out successfully")
}

// Me returns the authenticated user's public profile.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := middleware.GetAuthContext(r.Context())
	if !ok {
		utils.RespondWithError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := h.auth.Profile(r.Context(), authCtx.UserID)
	if err != nil {
		utils.RespondWithAppError(w, r, err)
		return
	}

	utils.RespondWithJSON(w, r, http.StatusOK, map[string]interface{}{
		"user": user,
	})
}

// ListSessions lists the caller's live sessions newest-first, each with a
// device description, best-effort location, and an is_current marker for
// the session behind the presented access token. Expired sessions never
// appear even while their rows still exist.
//
// Response:
//
//	{
//	  "sessions": [
//	    {
//	      "id": "c0a80101-0000-4000-8000-000000000001",
//	      "device": "Chrome 118 on Windows 10 (Desktop)",
//	      "location": "Almaty, Kazakhstan",
//	      "ip_address": "203.0.113.42",
//	      "created_at": "2024-01-20T14:45:00Z",
//	      "expires_at": "2024-02-19T14:45:00Z",
//	      "is_current": true
//	    }
//	  ]
//	}
func (h *AuthHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := middleware.GetAuthContext(r.Context())
	if !ok {
		utils.RespondWithError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	sessions, err := h.auth.ListSessions(r.Context(), authCtx.UserID, authCtx.SessionID)
	if err != nil {
		utils.RespondWithAppError(w, r, err)
		return
	}

	utils.RespondWithJSON(w, r, http.StatusOK, map[string]interface{}{
		"sessions": sessions,
	})
}

// RevokeSession deletes one of the caller's sessions by id, logging out
// that device only. The id comes from the URL: DELETE /api/v1/auth/sessions/{id}.
//
// Revoking a session that does not exist, or that belongs to another user,
// returns the same 404.
func (h *AuthHandler) RevokeSession(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := middleware.GetAuthContext(r.Context())
	if !ok {
		utils.RespondWithError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		// An unparseable id cannot name any session; report it the same
		// way as a missing one.
		utils.RespondWithAppError(w, r, apperr.NotFound("Session not found"))
		return
	}

	if err := h.auth.RevokeSession(r.Context(), sessionID, authCtx.UserID); err != nil {
		utils.RespondWithAppError(w, r, err)
		return
	}

	middleware.AddSessionsRevoked(1)
	utils.RespondWithMessage(w, r, http.StatusOK, "Session revoked successfully")
}

// RevokeOtherSessions deletes every live session except the caller's
// current one ("log out all other devices").
//
// Response:
//
//	{"message": "Other sessions revoked successfully", "revoked_count": 3}
func (h *AuthHandler) RevokeOtherSessions(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := middleware.GetAuthContext(r.Context())
	if !ok {
		utils.RespondWithError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	revoked, err := h.auth.RevokeOtherSessions(r.Context(), authCtx.UserID, authCtx.SessionID)
	if err != nil {
		utils.RespondWithAppError(w, r, err)
		return
	}

	middleware.AddSessionsRevoked(revoked)
	utils.RespondWithJSON(w, r, http.StatusOK, map[string]interface{}{
		"message":       "Other sessions revoked successfully",
		"revoked_count": revoked,
	})
}

// deviceMetadata captures the User-Agent and client IP for session
// creation.
func (h *AuthHandler) deviceMetadata(r *http.Request) services.DeviceMetadata {
	return services.DeviceMetadata{
		UserAgent: r.UserAgent(),
		IPAddress: utils.ExtractClientIP(r),
	}
}

// resultLabel maps a fault to the metric label for failed attempts.
func resultLabel(err error) string {
	switch apperr.From(err).Code {
	case apperr.CodeConflict:
		return "conflict"
	case apperr.CodeInvalidCredentials:
		return "invalid_credentials"
	case apperr.CodeUnauthorized:
		return "unauthorized"
	default:
		log.Debug().Err(err).Msg("Unclassified auth failure")
		return "error"
	}
}
