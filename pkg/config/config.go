// Package config provides application configuration management with
// environment variable loading, validation, and sensible defaults. It
// supports .env files for local development and validates all required
// settings on startup to prevent runtime configuration errors.
//
// Configuration is loaded once with Load(), which returns an immutable
// Config struct passed by reference into services; business logic never
// reads ambient environment state directly.
//
// Example usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal().Err(err).Msg("Failed to load configuration")
//	}
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
// It aggregates all configuration sections into a single struct
// for easy access throughout the application.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Token     TokenConfig
	Session   SessionConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds server-specific configuration including port,
// environment, and the frontend origin allowed by CORS.
type ServerConfig struct {
	Port        string
	Environment string
	ClientURL   string // Frontend origin (CORS, cookie audience)
}

// IsProduction reports whether the service runs with production settings
// (affects the Secure flag on auth cookies).
func (c *ServerConfig) IsProduction() bool {
	return c.Environment == "production"
}

// DatabaseConfig holds PostgreSQL connection parameters and pool settings.
type DatabaseConfig struct {
	Host     string
	Port     string
	Database string
	User     string
	Password string
	MaxConns int // Maximum number of connections in the pool
}

// RedisConfig holds Redis connection parameters. Redis backs the rate
// limiter counters and the geolocation cache, not the session records.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	PoolSize int
}

// TokenConfig holds the two signing secrets and the token lifetimes.
// Access and refresh tokens are signed with distinct secrets so that
// compromise of one cannot forge the other token type.
type TokenConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration // Access token lifetime (default: 24h)
	RefreshTTL    time.Duration // Refresh token lifetime (default: 30 days)
}

// SessionConfig holds the session validity window applied on creation and
// on every sliding-expiration extension.
type SessionConfig struct {
	TTL time.Duration // Session validity window (default: 30 days)
}

// RateLimitConfig holds rate limiting configuration for the auth endpoints.
type RateLimitConfig struct {
	RequestsPerWindow int
	Window            time.Duration
}

// Load reads and validates configuration from environment variables.
// It attempts to load a .env file if present (for local development) but
// doesn't fail if the file is missing (for production deployments).
//
// Required environment variables:
//   - POSTGRES_PASSWORD: database password
//   - JWT_SECRET: access token signing secret (>=32 bytes)
//   - JWT_REFRESH_SECRET: refresh token signing secret (>=32 bytes, distinct)
//
// Optional variables have sensible defaults; see .env.example.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	_ = godotenv.Load()

	postgresPassword, err := getEnvRequired("POSTGRES_PASSWORD")
	if err != nil {
		return nil, err
	}

	jwtSecret, err := getEnvRequired("JWT_SECRET")
	if err != nil {
		return nil, err
	}

	jwtRefreshSecret, err := getEnvRequired("JWT_REFRESH_SECRET")
	if err != nil {
		return nil, err
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "4000"),
			Environment: getEnv("ENV", "development"),
			ClientURL:   getEnv("CLIENT_URL", "http://localhost:5173"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnv("POSTGRES_PORT", "5432"),
			Database: getEnv("POSTGRES_DB", "authdb"),
			User:     getEnv("POSTGRES_USER", "authuser"),
			Password: postgresPassword,
			MaxConns: getEnvAsInt("POSTGRES_MAX_CONNS", 25),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			PoolSize: getEnvAsInt("REDIS_POOL_SIZE", 100),
		},
		Token: TokenConfig{
			AccessSecret:  []byte(jwtSecret),
			RefreshSecret: []byte(jwtRefreshSecret),
			AccessTTL:     getEnvAsDuration("ACCESS_TOKEN_TTL", 24*time.Hour),
			RefreshTTL:    getEnvAsDuration("REFRESH_TOKEN_TTL", 720*time.Hour), // 30 days
		},
		Session: SessionConfig{
			TTL: getEnvAsDuration("SESSION_TTL", 720*time.Hour), // 30 days
		},
		RateLimit: RateLimitConfig{
			RequestsPerWindow: getEnvAsInt("RATE_LIMIT_REQUESTS", 100),
			Window:            getEnvAsDuration("RATE_LIMIT_WINDOW", 1*time.Minute),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Validate checks if all required configuration is present and valid.
// Called automatically by Load() but can also be used independently
// in tests.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		return fmt.Errorf("server port must be a valid integer: %w", err)
	}

	if _, err := strconv.Atoi(c.Database.Port); err != nil {
		return fmt.Errorf("database port must be a valid integer: %w", err)
	}

	if _, err := strconv.Atoi(c.Redis.Port); err != nil {
		return fmt.Errorf("redis port must be a valid integer: %w", err)
	}

	if _, err := url.ParseRequestURI(c.Server.ClientURL); err != nil {
		return fmt.Errorf("invalid client URL: %w", err)
	}

	if len(c.Token.AccessSecret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 bytes")
	}
	if len(c.Token.RefreshSecret) < 32 {
		return fmt.Errorf("JWT refresh secret must be at least 32 bytes")
	}
	// Distinct secrets are the whole point of having two of them.
	if string(c.Token.AccessSecret) == string(c.Token.RefreshSecret) {
		return fmt.Errorf("JWT access and refresh secrets must differ")
	}

	if c.Database.Password == "" {
		return fmt.Errorf("database password is required")
	}

	if c.Session.TTL <= 0 {
		return fmt.Errorf("session TTL must be positive")
	}

	return nil
}

// DSN returns the PostgreSQL Data Source Name (connection string) formatted
// for use with the lib/pq driver.
//
// Note: SSL is disabled for local development. In production, consider
// enabling SSL and configuring appropriate certificates.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.Database,
	)
}

// Address returns the Redis server address in "host:port" format.
func (c *RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// Helper functions for environment variable parsing

// getEnv retrieves an environment variable with a default fallback.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvRequired retrieves a required environment variable.
// Returns an error if the variable is not set or is empty.
func getEnvRequired(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("required environment variable %s is not set", key)
	}
	return value, nil
}

// getEnvAsInt retrieves an environment variable as an integer with a default
// fallback. If the variable is not set or cannot be parsed, returns defaultValue.
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration retrieves an environment variable as a time.Duration with
// a default fallback. Supports Go duration format: "300ms", "1.5h", "2h45m".
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
