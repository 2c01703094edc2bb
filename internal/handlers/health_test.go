package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/madiyar/authkit/internal/testutil"
	"github.com/stretchr/testify/assert"
)

func TestHealth(t *testing.T) {
	t.Run("always reports ok", func(t *testing.T) {
		handler := NewHealthHandler(nil, nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		handler.Health(rec, req)

		testutil.AssertStatusCode(t, rec, http.StatusOK)

		var body HealthResponse
		testutil.ParseJSONResponse(t, rec, &body)
		assert.Equal(t, "ok", body.Status)
		assert.WithinDuration(t, time.Now(), body.Timestamp, time.Minute)
		assert.Empty(t, body.Services)
	})
}
