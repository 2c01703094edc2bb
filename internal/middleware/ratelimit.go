package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/madiyar/authkit/internal/database"
	"github.com/madiyar/authkit/pkg/cache"
	"github.com/madiyar/authkit/pkg/utils"
	"github.com/rs/zerolog/log"
)

// RateLimiter implements distributed per-IP rate limiting backed by Redis.
// Each endpoint gets an independent counter so the login limit does not
// consume the register budget.
//
// Redis key pattern: "ratelimit:{ip}:{endpoint}" with TTL equal to the
// window. On Redis errors the limiter fails open so an outage never locks
// users out.
type RateLimiter struct {
	redis       *database.RedisDB
	maxRequests int           // Maximum requests allowed per window
	window      time.Duration // Counter reset interval
}

// NewRateLimiter creates a rate limiter.
//
// Example:
//
//	// Allow 20 auth attempts per minute per IP
//	limiter := middleware.NewRateLimiter(redisDB, 20, time.Minute)
//	r.With(limiter.Limit("login")).Post("/api/v1/auth/login", handler.Login)
func NewRateLimiter(redis *database.RedisDB, maxRequests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		redis:       redis,
		maxRequests: maxRequests,
		window:      window,
	}
}

// Limit creates middleware that rate-limits an endpoint by client IP.
//
// Responses carry X-RateLimit-Limit and X-RateLimit-Remaining; a rejected
// request gets 429 with Retry-After set to the window length.
func (rl *RateLimiter) Limit(endpoint string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := utils.ExtractClientIP(r)

			count, err := rl.redis.IncrementRateLimit(r.Context(), cache.RateLimitKey(ip, endpoint), rl.window)
			if err != nil {
				log.Error().Err(err).Str("ip", ip).Msg("Failed to check rate limit")
				// Continue on error to avoid blocking legitimate requests
				next.ServeHTTP(w, r)
				return
			}

			if count > int64(rl.maxRequests) {
				log.Warn().
					Str("ip", ip).
					Str("endpoint", endpoint).
					Int64("count", count).
					Msg("Rate limit exceeded")

				w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", rl.maxRequests))
				w.Header().Set("X-RateLimit-Remaining", "0")
				w.Header().Set("Retry-After", fmt.Sprintf("%d", int(rl.window.Seconds())))

				http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				return
			}

			w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", rl.maxRequests))
			w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", rl.maxRequests-int(count)))

			next.ServeHTTP(w, r)
		})
	}
}
