package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/madiyar/authkit/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTokenConfig() *config.TokenConfig {
	return &config.TokenConfig{
		AccessSecret:  []byte("test-access-secret-minimum-32-bytes!"),
		RefreshSecret: []byte("test-refresh-secret-minimum-32-bytes"),
		AccessTTL:     24 * time.Hour,
		RefreshTTL:    720 * time.Hour,
	}
}

func TestIssueAccessToken(t *testing.T) {
	t.Run("issues a verifiable token", func(t *testing.T) {
		svc := NewTokenService(testTokenConfig())
		userID := uuid.New()
		sessionID := uuid.New()

		token, err := svc.IssueAccessToken(userID, sessionID)
		require.NoError(t, err)
		require.NotEmpty(t, token)

		claims, ok := svc.VerifyAccessToken(token)
		require.True(t, ok)
		assert.Equal(t, userID.String(), claims.UserID)
		assert.Equal(t, sessionID.String(), claims.SessionID)
	})

	t.Run("stamps audience and expiry", func(t *testing.T) {
		svc := NewTokenService(testTokenConfig())

		token, err := svc.IssueAccessToken(uuid.New(), uuid.New())
		require.NoError(t, err)

		claims, ok := svc.VerifyAccessToken(token)
		require.True(t, ok)
		assert.Equal(t, jwt.ClaimStrings{"user"}, claims.Audience)
		require.NotNil(t, claims.ExpiresAt)
		assert.WithinDuration(t, time.Now().Add(24*time.Hour), claims.ExpiresAt.Time, time.Minute)
	})
}

func TestIssueRefreshToken(t *testing.T) {
	t.Run("carries only the session id", func(t *testing.T) {
		svc := NewTokenService(testTokenConfig())
		sessionID := uuid.New()

		token, err := svc.IssueRefreshToken(sessionID)
		require.NoError(t, err)

		claims, ok := svc.VerifyRefreshToken(token)
		require.True(t, ok)
		assert.Equal(t, sessionID.String(), claims.SessionID)
	})
}

func TestVerifyAccessToken(t *testing.T) {
	t.Run("rejects garbage", func(t *testing.T) {
		svc := NewTokenService(testTokenConfig())

		_, ok := svc.VerifyAccessToken("not-a-jwt")
		assert.False(t, ok)

		_, ok = svc.VerifyAccessToken("")
		assert.False(t, ok)
	})

	t.Run("rejects a refresh token presented as access token", func(t *testing.T) {
		// Distinct signing secrets mean a refresh token can never pass
		// access verification, and vice versa.
		svc := NewTokenService(testTokenConfig())

		refreshToken, err := svc.IssueRefreshToken(uuid.New())
		require.NoError(t, err)

		_, ok := svc.VerifyAccessToken(refreshToken)
		assert.False(t, ok)
	})

	t.Run("rejects a token signed with a different secret", func(t *testing.T) {
		svc := NewTokenService(testTokenConfig())

		otherCfg := testTokenConfig()
		otherCfg.AccessSecret = []byte("a-completely-different-32-byte-key!!")
		other := NewTokenService(otherCfg)

		token, err := other.IssueAccessToken(uuid.New(), uuid.New())
		require.NoError(t, err)

		_, ok := svc.VerifyAccessToken(token)
		assert.False(t, ok)
	})

	t.Run("rejects an expired token", func(t *testing.T) {
		cfg := testTokenConfig()
		cfg.AccessTTL = -time.Minute // already expired at issuance
		svc := NewTokenService(cfg)

		token, err := svc.IssueAccessToken(uuid.New(), uuid.New())
		require.NoError(t, err)

		_, ok := svc.VerifyAccessToken(token)
		assert.False(t, ok)
	})

	t.Run("rejects an unsigned token", func(t *testing.T) {
		svc := NewTokenService(testTokenConfig())

		claims := AccessClaims{
			UserID:    uuid.New().String(),
			SessionID: uuid.New().String(),
			RegisteredClaims: jwt.RegisteredClaims{
				Audience:  jwt.ClaimStrings{"user"},
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, ok := svc.VerifyAccessToken(unsigned)
		assert.False(t, ok)
	})

	t.Run("rejects a token without the expected audience", func(t *testing.T) {
		cfg := testTokenConfig()
		svc := NewTokenService(cfg)

		claims := AccessClaims{
			UserID:    uuid.New().String(),
			SessionID: uuid.New().String(),
			RegisteredClaims: jwt.RegisteredClaims{
				Audience:  jwt.ClaimStrings{"admin"},
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(cfg.AccessSecret)
		require.NoError(t, err)

		_, ok := svc.VerifyAccessToken(token)
		assert.False(t, ok)
	})

	t.Run("rejects a token with missing identity claims", func(t *testing.T) {
		cfg := testTokenConfig()
		svc := NewTokenService(cfg)

		claims := AccessClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Audience:  jwt.ClaimStrings{"user"},
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(cfg.AccessSecret)
		require.NoError(t, err)

		_, ok := svc.VerifyAccessToken(token)
		assert.False(t, ok)
	})
}

func TestVerifyRefreshToken(t *testing.T) {
	t.Run("rejects an access token presented as refresh token", func(t *testing.T) {
		svc := NewTokenService(testTokenConfig())

		accessToken, err := svc.IssueAccessToken(uuid.New(), uuid.New())
		require.NoError(t, err)

		_, ok := svc.VerifyRefreshToken(accessToken)
		assert.False(t, ok)
	})

	t.Run("rejects an expired refresh token", func(t *testing.T) {
		cfg := testTokenConfig()
		cfg.RefreshTTL = -time.Minute
		svc := NewTokenService(cfg)

		token, err := svc.IssueRefreshToken(uuid.New())
		require.NoError(t, err)

		_, ok := svc.VerifyRefreshToken(token)
		assert.False(t, ok)
	})
}
