package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        "4000",
			Environment: "development",
			ClientURL:   "http://localhost:5173",
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     "5432",
			Database: "authdb",
			User:     "authuser",
			Password: "secret",
		},
		Redis: RedisConfig{
			Host: "localhost",
			Port: "6379",
		},
		Token: TokenConfig{
			AccessSecret:  []byte("test-access-secret-minimum-32-bytes!"),
			RefreshSecret: []byte("test-refresh-secret-minimum-32-bytes"),
			AccessTTL:     24 * time.Hour,
			RefreshTTL:    720 * time.Hour,
		},
		Session: SessionConfig{TTL: 720 * time.Hour},
	}
}

func TestLoad(t *testing.T) {
	t.Run("loads with required variables set", func(t *testing.T) {
		t.Setenv("POSTGRES_PASSWORD", "secret")
		t.Setenv("JWT_SECRET", "test-access-secret-minimum-32-bytes!")
		t.Setenv("JWT_REFRESH_SECRET", "test-refresh-secret-minimum-32-bytes")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "4000", cfg.Server.Port)
		assert.Equal(t, 24*time.Hour, cfg.Token.AccessTTL)
		assert.Equal(t, 720*time.Hour, cfg.Token.RefreshTTL)
		assert.Equal(t, 720*time.Hour, cfg.Session.TTL)
	})

	t.Run("fails without the database password", func(t *testing.T) {
		t.Setenv("POSTGRES_PASSWORD", "")
		t.Setenv("JWT_SECRET", "test-access-secret-minimum-32-bytes!")
		t.Setenv("JWT_REFRESH_SECRET", "test-refresh-secret-minimum-32-bytes")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("honors TTL overrides", func(t *testing.T) {
		t.Setenv("POSTGRES_PASSWORD", "secret")
		t.Setenv("JWT_SECRET", "test-access-secret-minimum-32-bytes!")
		t.Setenv("JWT_REFRESH_SECRET", "test-refresh-secret-minimum-32-bytes")
		t.Setenv("ACCESS_TOKEN_TTL", "15m")
		t.Setenv("SESSION_TTL", "48h")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 15*time.Minute, cfg.Token.AccessTTL)
		assert.Equal(t, 48*time.Hour, cfg.Session.TTL)
	})
}

func TestValidate(t *testing.T) {
	t.Run("accepts a valid config", func(t *testing.T) {
		assert.NoError(t, validConfig().Validate())
	})

	t.Run("rejects short secrets", func(t *testing.T) {
		cfg := validConfig()
		cfg.Token.AccessSecret = []byte("short")
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects identical access and refresh secrets", func(t *testing.T) {
		cfg := validConfig()
		cfg.Token.RefreshSecret = cfg.Token.AccessSecret
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects a non-numeric port", func(t *testing.T) {
		cfg := validConfig()
		cfg.Server.Port = "http"
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects an invalid client URL", func(t *testing.T) {
		cfg := validConfig()
		cfg.Server.ClientURL = "not a url"
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects a non-positive session TTL", func(t *testing.T) {
		cfg := validConfig()
		cfg.Session.TTL = 0
		assert.Error(t, cfg.Validate())
	})
}

func TestDSN(t *testing.T) {
	cfg := validConfig()
	dsn := cfg.Database.DSN()
	assert.Contains(t, dsn, "host=localhost")
	assert.Contains(t, dsn, "dbname=authdb")
	assert.Contains(t, dsn, "sslmode=disable")
}

func TestRedisAddress(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, "localhost:6379", cfg.Redis.Address())
}
