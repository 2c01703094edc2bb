package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/madiyar/authkit/internal/database"
	"github.com/madiyar/authkit/pkg/utils"
	"github.com/rs/zerolog/log"
)

// HealthHandler handles health check endpoints for monitoring and
// orchestration. Health is a plain liveness probe; Ready additionally
// verifies connectivity to PostgreSQL and Redis.
type HealthHandler struct {
	postgres *database.PostgresDB
	redis    *database.RedisDB
}

// NewHealthHandler creates a health handler with database dependencies.
//
// Example:
//
//	healthHandler := handlers.NewHealthHandler(postgresDB, redisDB)
//	r.Get("/health", healthHandler.Health)
//	r.Get("/ready", healthHandler.Ready)
func NewHealthHandler(postgres *database.PostgresDB, redis *database.RedisDB) *HealthHandler {
	return &HealthHandler{
		postgres: postgres,
		redis:    redis,
	}
}

// HealthResponse is the body of both probes.
//
// JSON example:
//
//	{
//	  "status": "ok",
//	  "timestamp": "2024-01-20T14:30:00Z",
//	  "services": {"postgres": "healthy", "redis": "healthy"}
//	}
type HealthResponse struct {
	Status    string            `json:"status"`             // "ok" or "degraded"
	Timestamp time.Time         `json:"timestamp"`          // Current server time
	Services  map[string]string `json:"services,omitempty"` // Per-dependency health (readiness only)
}

// Health is the liveness probe. Always 200 while the process is serving;
// dependencies are not checked.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, r, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
	})
}

// Ready is the readiness probe: pings PostgreSQL and Redis with a 5-second
// timeout and returns 503 with status "degraded" if either is down, so the
// instance is pulled from the load balancer pool until it recovers.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	services := make(map[string]string)
	allHealthy := true

	if err := h.postgres.Ping(ctx); err != nil {
		log.Error().Err(err).Msg("PostgreSQL health check failed")
		services["postgres"] = "unhealthy"
		allHealthy = false
	} else {
		services["postgres"] = "healthy"
	}

	if err := h.redis.Ping(ctx); err != nil {
		log.Error().Err(err).Msg("Redis health check failed")
		services["redis"] = "unhealthy"
		allHealthy = false
	} else {
		services["redis"] = "healthy"
	}

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Services:  services,
	}

	statusCode := http.StatusOK
	if !allHealthy {
		response.Status = "degraded"
		statusCode = http.StatusServiceUnavailable
	}

	utils.RespondWithJSON(w, r, statusCode, response)
}
