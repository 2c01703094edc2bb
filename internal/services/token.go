// Package services contains the business logic of the authentication
// system: credential verification, session lifecycle, token issuance and
// the orchestrator composing them.
package services

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/madiyar/authkit/pkg/config"
)

// tokenAudience is the fixed audience claim stamped into every token and
// required during verification.
const tokenAudience = "user"

// AccessClaims is the access token payload: the authenticated user and the
// session the token was minted for. Nothing else goes in — no email, no
// password hash, no PII.
type AccessClaims struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

// RefreshClaims is the refresh token payload: the session id only.
// Possession of a valid refresh token proves nothing beyond "this session
// existed at issuance time"; callers must re-validate the session against
// live storage on every use.
type RefreshClaims struct {
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies the HS256-signed access and refresh
// tokens. The two token types are signed with distinct secrets so that
// compromise of one secret cannot forge the other token type.
//
// Tokens are stateless and never persisted; session deletion is the
// revocation mechanism for refresh tokens (they are re-checked against the
// session store on use), while access tokens simply run out their short TTL.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration // Access token lifetime (default: 24h)
	refreshTTL    time.Duration // Refresh token lifetime (default: 30 days)
}

// NewTokenService creates a token service from the immutable token
// configuration loaded at process start.
func NewTokenService(cfg *config.TokenConfig) *TokenService {
	return &TokenService{
		accessSecret:  cfg.AccessSecret,
		refreshSecret: cfg.RefreshSecret,
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
	}
}

// AccessTTL returns the configured access token lifetime.
func (s *TokenService) AccessTTL() time.Duration { return s.accessTTL }

// RefreshTTL returns the configured refresh token lifetime.
func (s *TokenService) RefreshTTL() time.Duration { return s.refreshTTL }

// IssueAccessToken mints a short-lived access token bound to both the user
// and the session.
func (s *TokenService) IssueAccessToken(userID, sessionID uuid.UUID) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		UserID:    userID.String(),
		SessionID: sessionID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{tokenAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.accessSecret)
}

// IssueRefreshToken mints a long-lived refresh token bound to the session
// only.
func (s *TokenService) IssueRefreshToken(sessionID uuid.UUID) (string, error) {
	now := time.Now()
	claims := RefreshClaims{
		SessionID: sessionID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{tokenAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(s.refreshTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.refreshSecret)
}

// VerifyAccessToken checks signature, expiry and audience of an access
// token. Every failure mode — malformed, expired, wrong audience, bad
// signature — collapses to ok=false; callers cannot tell why a token was
// rejected, which keeps the verifier from acting as an oracle.
func (s *TokenService) VerifyAccessToken(tokenString string) (*AccessClaims, bool) {
	claims := &AccessClaims{}
	if !s.verify(tokenString, claims, s.accessSecret) {
		return nil, false
	}
	if claims.UserID == "" || claims.SessionID == "" {
		return nil, false
	}
	return claims, true
}

// VerifyRefreshToken checks signature, expiry and audience of a refresh
// token, with the same uniform-failure contract as VerifyAccessToken.
func (s *TokenService) VerifyRefreshToken(tokenString string) (*RefreshClaims, bool) {
	claims := &RefreshClaims{}
	if !s.verify(tokenString, claims, s.refreshSecret) {
		return nil, false
	}
	if claims.SessionID == "" {
		return nil, false
	}
	return claims, true
}

func (s *TokenService) verify(tokenString string, claims jwt.Claims, secret []byte) bool {
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (interface{}, error) {
			return secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(tokenAudience),
		jwt.WithExpirationRequired(),
	)
	return err == nil && token.Valid
}
