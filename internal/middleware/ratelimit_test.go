package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/madiyar/authkit/internal/testutil"
	"github.com/stretchr/testify/assert"
)

func okHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}
}

func TestRateLimiter(t *testing.T) {
	t.Run("allows requests under the limit", func(t *testing.T) {
		mr, cleanup := testutil.SetupMiniRedis(t)
		t.Cleanup(cleanup)
		redisDB := testutil.NewTestRedisDB(t, mr)
		t.Cleanup(func() { redisDB.Close() })

		limiter := NewRateLimiter(redisDB, 3, time.Minute)
		handler := limiter.Limit("test")(okHandler())

		for i := 0; i < 3; i++ {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "203.0.113.42:1234"
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusOK, rec.Code)
		}
	})

	t.Run("rejects the request over the limit with 429", func(t *testing.T) {
		mr, cleanup := testutil.SetupMiniRedis(t)
		t.Cleanup(cleanup)
		redisDB := testutil.NewTestRedisDB(t, mr)
		t.Cleanup(func() { redisDB.Close() })

		limiter := NewRateLimiter(redisDB, 2, time.Minute)
		handler := limiter.Limit("test")(okHandler())

		var last *httptest.ResponseRecorder
		for i := 0; i < 3; i++ {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "203.0.113.42:1234"
			last = httptest.NewRecorder()
			handler.ServeHTTP(last, req)
		}

		assert.Equal(t, http.StatusTooManyRequests, last.Code)
		assert.Equal(t, "2", last.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "0", last.Header().Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, last.Header().Get("Retry-After"))
	})

	t.Run("tracks IPs independently", func(t *testing.T) {
		mr, cleanup := testutil.SetupMiniRedis(t)
		t.Cleanup(cleanup)
		redisDB := testutil.NewTestRedisDB(t, mr)
		t.Cleanup(func() { redisDB.Close() })

		limiter := NewRateLimiter(redisDB, 1, time.Minute)
		handler := limiter.Limit("test")(okHandler())

		first := httptest.NewRequest(http.MethodGet, "/", nil)
		first.RemoteAddr = "203.0.113.1:1234"
		firstRec := httptest.NewRecorder()
		handler.ServeHTTP(firstRec, first)
		assert.Equal(t, http.StatusOK, firstRec.Code)

		second := httptest.NewRequest(http.MethodGet, "/", nil)
		second.RemoteAddr = "203.0.113.2:1234"
		secondRec := httptest.NewRecorder()
		handler.ServeHTTP(secondRec, second)
		assert.Equal(t, http.StatusOK, secondRec.Code)
	})

	t.Run("fails open when Redis is down", func(t *testing.T) {
		mr, cleanup := testutil.SetupMiniRedis(t)
		redisDB := testutil.NewTestRedisDB(t, mr)
		t.Cleanup(func() { redisDB.Close() })
		cleanup() // kill Redis before the request

		limiter := NewRateLimiter(redisDB, 1, time.Minute)
		handler := limiter.Limit("test")(okHandler())

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "203.0.113.42:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("sets remaining-count headers", func(t *testing.T) {
		mr, cleanup := testutil.SetupMiniRedis(t)
		t.Cleanup(cleanup)
		redisDB := testutil.NewTestRedisDB(t, mr)
		t.Cleanup(func() { redisDB.Close() })

		limiter := NewRateLimiter(redisDB, 5, time.Minute)
		handler := limiter.Limit("test")(okHandler())

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "203.0.113.42:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, "5", rec.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "4", rec.Header().Get("X-RateLimit-Remaining"))
	})
}
