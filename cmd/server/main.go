package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/madiyar/authkit/internal/database"
	"github.com/madiyar/authkit/internal/handlers"
	"github.com/madiyar/authkit/internal/middleware"
	"github.com/madiyar/authkit/internal/services"
	"github.com/madiyar/authkit/pkg/cache"
	"github.com/madiyar/authkit/pkg/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Initialize logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().
		Str("env", cfg.Server.Environment).
		Str("port", cfg.Server.Port).
		Msg("Starting auth service")

	// Initialize PostgreSQL
	postgresDB, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer postgresDB.Close()

	if err := postgresDB.RunMigrations(context.Background(), database.Schema); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Initialize Redis (rate limit counters, geolocation cache)
	redisDB, err := database.NewRedisDB(&cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisDB.Close()

	cacheInstance := cache.NewCache(redisDB.Client())

	// Initialize services
	credentialService := services.NewCredentialService(postgresDB, 0)
	sessionService := services.NewSessionService(postgresDB, cfg.Session.TTL)
	tokenService := services.NewTokenService(&cfg.Token)
	geoService := services.NewGeoService(cacheInstance)
	authService := services.NewAuthService(credentialService, sessionService, tokenService, geoService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, tokenService.RefreshTTL(), cfg.Server.IsProduction())
	healthHandler := handlers.NewHealthHandler(postgresDB, redisDB)

	// Initialize middleware
	rateLimiter := middleware.NewRateLimiter(redisDB, cfg.RateLimit.RequestsPerWindow, cfg.RateLimit.Window)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recoverer())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.ClientURL))
	r.Use(chimiddleware.Compress(5))
	r.Use(chimiddleware.Timeout(60 * time.Second))

	// Health check endpoints
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", middleware.MetricsHandler())

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			// Public endpoints (rate limited)
			r.Group(func(r chi.Router) {
				r.Use(rateLimiter.Limit("auth"))
				r.Post("/register", authHandler.Register)
				r.Post("/login", authHandler.Login)
				r.Post("/refresh", authHandler.Refresh)
			})

			// Protected endpoints (require a bearer access token)
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth(tokenService))
				r.Get("/me", authHandler.Me)
				r.Post("/logout", authHandler.Logout)
				r.Get("/sessions", authHandler.ListSessions)
				r.Delete("/sessions/{id}", authHandler.RevokeSession)
				r.Post("/sessions/revoke-others", authHandler.RevokeOtherSessions)
			})
		})
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", server.Addr).Msg("Server started")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Wait for interrupt signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped gracefully")
}
