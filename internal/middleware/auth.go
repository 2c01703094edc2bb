// Package middleware provides HTTP middleware components for the API.
// Middleware functions wrap HTTP handlers to provide cross-cutting concerns
// like authentication, logging, metrics, and rate limiting.
//
// All middleware is designed to be composable with the chi router.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/madiyar/authkit/internal/services"
	"github.com/madiyar/authkit/pkg/utils"
	"github.com/rs/zerolog/log"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// authContextKey is the context key for the authenticated caller.
const authContextKey contextKey = "auth_context"

// AuthContext identifies the authenticated caller on protected routes: the
// user and the specific session the access token was minted for. It is
// produced once by RequireAuth and threaded explicitly through the request
// context instead of being attached to any ambient request state.
type AuthContext struct {
	UserID    uuid.UUID
	SessionID uuid.UUID
}

// TokenVerifier validates access tokens. Implemented by
// services.TokenService.
type TokenVerifier interface {
	VerifyAccessToken(token string) (*services.AccessClaims, bool)
}

// RequireAuth creates middleware that gates protected endpoints on a valid
// bearer access token.
//
// The token must arrive as "Authorization: Bearer <token>". A missing or
// malformed header, or a token that fails verification for any reason, is
// rejected with 401 before the request reaches a handler. The rejection is
// uniform: the response never says why the token was bad.
//
// Usage:
//
//	r.Group(func(r chi.Router) {
//	    r.Use(middleware.RequireAuth(tokenService))
//	    r.Get("/api/v1/auth/sessions", authHandler.ListSessions)
//	})
func RequireAuth(tokens TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
				utils.RespondWithError(w, r, http.StatusUnauthorized, "Access token is required")
				return
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			claims, ok := tokens.VerifyAccessToken(tokenString)
			if !ok {
				utils.RespondWithError(w, r, http.StatusUnauthorized, "Invalid or expired access token")
				return
			}

			userID, err := uuid.Parse(claims.UserID)
			if err != nil {
				utils.RespondWithError(w, r, http.StatusUnauthorized, "Invalid or expired access token")
				return
			}
			sessionID, err := uuid.Parse(claims.SessionID)
			if err != nil {
				utils.RespondWithError(w, r, http.StatusUnauthorized, "Invalid or expired access token")
				return
			}

			authCtx := AuthContext{UserID: userID, SessionID: sessionID}
			ctx := context.WithValue(r.Context(), authContextKey, authCtx)

			log.Debug().
				Str("user_id", claims.UserID).
				Str("session_id", claims.SessionID).
				Msg("Request authenticated")

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetAuthContext extracts the authenticated caller from the request
// context. Returns false if the request did not pass through RequireAuth.
//
// Example:
//
//	authCtx, ok := middleware.GetAuthContext(r.Context())
//	if !ok {
//	    utils.RespondWithError(w, r, http.StatusUnauthorized, "Unauthorized")
//	    return
//	}
func GetAuthContext(ctx context.Context) (AuthContext, bool) {
	authCtx, ok := ctx.Value(authContextKey).(AuthContext)
	return authCtx, ok
}
