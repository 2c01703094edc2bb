// Package database provides database access layers for PostgreSQL and Redis.
// Implements connection management, query operations, and schema setup with
// automatic retry logic and connection pooling.
//
// PostgreSQL holds the persistent records: users (credential store) and
// sessions (session store). Sessions deliberately live in PostgreSQL rather
// than a TTL-based store: an expired session row must remain physically
// present while being invisible to reads, so that the refresh flow can tell
// an expired session apart from an absent one.
//
// Redis is used for rate limiting counters and the geolocation cache.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/madiyar/authkit/internal/models"
	"github.com/madiyar/authkit/pkg/config"
	"github.com/madiyar/authkit/pkg/utils"
	"github.com/rs/zerolog/log"
)

// Sentinel errors returned by the storage layer. Services map these onto
// the structured faults that cross the HTTP boundary.
var (
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate indicates a unique constraint violation (e.g. an email
	// that is already registered).
	ErrDuplicate = errors.New("record already exists")
)

// uniqueViolation is the PostgreSQL error code for unique constraint breaches.
const uniqueViolation = "23505"

// PostgresDB wraps a PostgreSQL connection pool and provides high-level
// methods for user and session persistence.
//
// Features:
//   - Automatic connection retry with exponential backoff
//   - Connection pooling (configurable max connections)
//   - Health check support
type PostgresDB struct {
	db *sql.DB // Underlying connection pool
}

// NewPostgresDB creates a new PostgreSQL connection with automatic retry.
// Implements exponential backoff retry logic to handle transient connection
// failures during startup (e.g., database container not ready yet).
//
// Connection pool settings:
//   - MaxOpenConns: from configuration (default: 25)
//   - MaxIdleConns: half of MaxOpenConns
//   - ConnMaxLifetime: 1 hour
func NewPostgresDB(cfg *config.DatabaseConfig) (*PostgresDB, error) {
	var db *sql.DB
	var connErr error

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	retryConfig := utils.DatabaseRetryConfig()
	retryConfig.MaxAttempts = 5
	retryConfig.InitialDelay = 100 * time.Millisecond
	retryConfig.MaxDelay = 3 * time.Second

	err := utils.Retry(ctx, retryConfig, func() error {
		var err error
		db, err = sql.Open("postgres", cfg.DSN())
		if err != nil {
			connErr = err
			log.Warn().Err(err).Msg("Failed to open database connection, retrying...")
			return err
		}

		db.SetMaxOpenConns(cfg.MaxConns)
		db.SetMaxIdleConns(cfg.MaxConns / 2)
		db.SetConnMaxLifetime(time.Hour)

		pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer pingCancel()

		if err := db.PingContext(pingCtx); err != nil {
			connErr = err
			log.Warn().Err(err).Msg("Failed to ping database, retrying...")
			db.Close() // Clean up failed connection
			return err
		}

		return nil
	})

	if err != nil {
		if connErr != nil {
			return nil, fmt.Errorf("failed to connect to database after retries: %w", connErr)
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Info().Msg("Successfully connected to PostgreSQL")

	return &PostgresDB{db: db}, nil
}

// Close closes the database connection and releases all resources.
func (p *PostgresDB) Close() error {
	return p.db.Close()
}

// Ping checks if the database connection is alive.
// Used by health check endpoints to verify database availability.
func (p *PostgresDB) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// RunMigrations executes the given schema SQL. Called once at startup.
func (p *PostgresDB) RunMigrations(ctx context.Context, migrationSQL string) error {
	if _, err := p.db.ExecContext(ctx, migrationSQL); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info().Msg("Database migrations completed")
	return nil
}

// CreateUser inserts a new user record. The password must already be hashed;
// this layer never sees a plaintext password.
//
// Returns ErrDuplicate if a user with the same email or username exists.
func (p *PostgresDB) CreateUser(ctx context.Context, email, username, passwordHash string) (*models.User, error) {
	query := `
		INSERT INTO users (email, username, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, email, username, password_hash, created_at, updated_at
	`

	var user models.User
	err := p.db.QueryRowContext(ctx, query, email, username, passwordHash).Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.Info().
		Str("user_id", user.ID.String()).
		Str("email", user.Email).
		Msg("User created")

	return &user, nil
}

// GetUserByEmail retrieves a user by email (exact, case-sensitive match).
// Returns ErrNotFound if no such user exists.
func (p *PostgresDB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, email, username, password_hash, created_at, updated_at
		FROM users
		WHERE email = $1
	`
	return p.scanUser(p.db.QueryRowContext(ctx, query, email))
}

// GetUserByID retrieves a user by their unique UUID.
// Returns ErrNotFound if no such user exists.
func (p *PostgresDB) GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	query := `
		SELECT id, email, username, password_hash, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	return p.scanUser(p.db.QueryRowContext(ctx, query, userID))
}

func (p *PostgresDB) scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// CreateSession inserts a session row with its device metadata.
// The caller supplies ID, CreatedAt and ExpiresAt.
func (p *PostgresDB) CreateSession(ctx context.Context, session *models.Session) error {
	query := `
		INSERT INTO sessions (
			id, user_id, user_agent, ip_address,
			browser_name, browser_version, os_name, os_version,
			device_type, device_vendor, device_model,
			created_at, expires_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := p.db.ExecContext(ctx, query,
		session.ID,
		session.UserID,
		session.UserAgent,
		session.IPAddress,
		session.Device.BrowserName,
		session.Device.BrowserVersion,
		session.Device.OSName,
		session.Device.OSVersion,
		session.Device.DeviceType,
		session.Device.DeviceVendor,
		session.Device.DeviceModel,
		session.CreatedAt,
		session.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

const sessionColumns = `
	id, user_id, user_agent, ip_address,
	browser_name, browser_version, os_name, os_version,
	device_type, device_vendor, device_model,
	created_at, expires_at
`

// GetSession retrieves a session row by ID regardless of expiry. Callers
// that only want valid sessions must check ExpiresAt themselves; the
// refresh flow relies on seeing expired rows to report "expired" rather
// than "not found". Returns ErrNotFound if the row is absent.
func (p *PostgresDB) GetSession(ctx context.Context, sessionID uuid.UUID) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`
	return p.scanSession(p.db.QueryRowContext(ctx, query, sessionID))
}

// ExtendSession pushes the session's expiry forward (sliding expiration)
// and returns the updated row. Returns ErrNotFound if the row is absent.
//
// Concurrent extensions are last-write-wins; no stronger ordering is needed.
func (p *PostgresDB) ExtendSession(ctx context.Context, sessionID uuid.UUID, expiresAt time.Time) (*models.Session, error) {
	query := `
		UPDATE sessions SET expires_at = $2
		WHERE id = $1
		RETURNING ` + sessionColumns
	return p.scanSession(p.db.QueryRowContext(ctx, query, sessionID, expiresAt))
}

// ListLiveSessions returns all sessions for a user whose expiry is after
// the given instant, newest-created first. Expired rows are filtered here
// even though they may still exist physically.
func (p *PostgresDB) ListLiveSessions(ctx context.Context, userID uuid.UUID, now time.Time) ([]*models.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE user_id = $1 AND expires_at > $2
		ORDER BY created_at DESC
	`

	rows, err := p.db.QueryContext(ctx, query, userID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.Session
	for rows.Next() {
		session, err := p.scanSessionRow(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}

	return sessions, nil
}

// DeleteSession removes a session row scoped to its owning user.
// Returns ErrNotFound if no row matched (absent or owned by someone else),
// which callers surface as already-logged-out.
func (p *PostgresDB) DeleteSession(ctx context.Context, sessionID, userID uuid.UUID) error {
	result, err := p.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE id = $1 AND user_id = $2`,
		sessionID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (p *PostgresDB) scanSession(row *sql.Row) (*models.Session, error) {
	session, err := p.scanSessionRow(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return session, err
}

func (p *PostgresDB) scanSessionRow(row rowScanner) (*models.Session, error) {
	var session models.Session
	err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.UserAgent,
		&session.IPAddress,
		&session.Device.BrowserName,
		&session.Device.BrowserVersion,
		&session.Device.OSName,
		&session.Device.OSVersion,
		&session.Device.DeviceType,
		&session.Device.DeviceVendor,
		&session.Device.DeviceModel,
		&session.CreatedAt,
		&session.ExpiresAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}
	return &session, nil
}

// Schema is the database schema applied at startup.
const Schema = `
	CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		email VARCHAR(255) UNIQUE NOT NULL,
		username VARCHAR(255) UNIQUE NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);

	CREATE TABLE IF NOT EXISTS sessions (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		user_agent TEXT NOT NULL DEFAULT '',
		ip_address VARCHAR(64) NOT NULL DEFAULT '',
		browser_name VARCHAR(64) NOT NULL DEFAULT '',
		browser_version VARCHAR(64) NOT NULL DEFAULT '',
		os_name VARCHAR(64) NOT NULL DEFAULT '',
		os_version VARCHAR(64) NOT NULL DEFAULT '',
		device_type VARCHAR(32) NOT NULL DEFAULT '',
		device_vendor VARCHAR(64) NOT NULL DEFAULT '',
		device_model VARCHAR(64) NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		expires_at TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_user_id ON sessions(user_id);
	CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at);
`
