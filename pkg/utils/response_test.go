package utils

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/madiyar/authkit/internal/apperr"
	"github.com/stretchr/testify/assert"
)

func TestRequestID(t *testing.T) {
	t.Run("round-trips through context", func(t *testing.T) {
		ctx := WithRequestID(context.Background(), "req-123")
		assert.Equal(t, "req-123", GetRequestID(ctx))
	})

	t.Run("empty without one", func(t *testing.T) {
		assert.Equal(t, "", GetRequestID(context.Background()))
	})
}

func TestRespondWithAppError(t *testing.T) {
	t.Run("serializes the fault's status, code and message", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		RespondWithAppError(rec, req, apperr.NotFound("Session not found"))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t, `{"message":"Session not found","code":"NOT_FOUND"}`, rec.Body.String())
	})

	t.Run("collapses unknown errors to a generic 500", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		RespondWithAppError(rec, req, errors.New("pq: duplicate key value"))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "pq")
	})

	t.Run("includes the request ID when present", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(WithRequestID(req.Context(), "req-42"))
		rec := httptest.NewRecorder()

		RespondWithAppError(rec, req, apperr.Unauthorized("Invalid refresh token"))

		assert.Contains(t, rec.Body.String(), "req-42")
	})
}

func TestRefreshCookie(t *testing.T) {
	t.Run("sets a strict HTTP-only cookie", func(t *testing.T) {
		rec := httptest.NewRecorder()
		SetRefreshCookie(rec, "token-value", 3600, false)

		cookies := rec.Result().Cookies()
		if assert.Len(t, cookies, 1) {
			c := cookies[0]
			assert.Equal(t, RefreshCookieName, c.Name)
			assert.Equal(t, "token-value", c.Value)
			assert.True(t, c.HttpOnly)
			assert.False(t, c.Secure)
			assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
			assert.Equal(t, 3600, c.MaxAge)
		}
	})

	t.Run("marks the cookie Secure in production", func(t *testing.T) {
		rec := httptest.NewRecorder()
		SetRefreshCookie(rec, "token-value", 3600, true)

		cookies := rec.Result().Cookies()
		if assert.Len(t, cookies, 1) {
			assert.True(t, cookies[0].Secure)
		}
	})

	t.Run("clear expires the cookie immediately", func(t *testing.T) {
		rec := httptest.NewRecorder()
		ClearRefreshCookie(rec)

		cookies := rec.Result().Cookies()
		if assert.Len(t, cookies, 1) {
			assert.Equal(t, "", cookies[0].Value)
			assert.Equal(t, -1, cookies[0].MaxAge)
		}
	})
}
