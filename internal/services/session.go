package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/madiyar/authkit/internal/apperr"
	"github.com/madiyar/authkit/internal/database"
	"github.com/madiyar/authkit/internal/models"
	"github.com/mileusna/useragent"
	"github.com/rs/zerolog/log"
)

// SessionStore defines the interface for session persistence.
// The store keeps expired rows readable: FindLive-style filtering happens
// in this service, not by storage-level expiry.
type SessionStore interface {
	CreateSession(ctx context.Context, session *models.Session) error
	GetSession(ctx context.Context, sessionID uuid.UUID) (*models.Session, error)
	ExtendSession(ctx context.Context, sessionID uuid.UUID, expiresAt time.Time) (*models.Session, error)
	ListLiveSessions(ctx context.Context, userID uuid.UUID, now time.Time) ([]*models.Session, error)
	DeleteSession(ctx context.Context, sessionID, userID uuid.UUID) error
}

// SessionService manages the session lifecycle: one session per
// authenticated device, created on login/registration, extended on token
// refresh (sliding expiration), deleted on logout or revocation, and
// otherwise left to passive expiry. There is no background reaper; expiry
// is enforced lazily on every read.
type SessionService struct {
	store SessionStore
	ttl   time.Duration // Session validity window (default: 30 days)
	now   func() time.Time
}

// NewSessionService creates a session service with the given validity
// window.
//
// Example:
//
//	sessionSvc := services.NewSessionService(postgresDB, 720*time.Hour)
func NewSessionService(store SessionStore, ttl time.Duration) *SessionService {
	return &SessionService{
		store: store,
		ttl:   ttl,
		now:   time.Now,
	}
}

// Create opens a new session for a user after successful authentication.
// The raw User-Agent is parsed into a structured device descriptor at
// creation time; parsing is best-effort and an empty or unreadable
// User-Agent yields an empty descriptor, never an error.
func (s *SessionService) Create(ctx context.Context, userID uuid.UUID, userAgent, ipAddress string) (*models.Session, error) {
	now := s.now()
	session := &models.Session{
		ID:        uuid.New(),
		UserID:    userID,
		UserAgent: userAgent,
		Device:    ParseUserAgent(userAgent),
		IPAddress: ipAddress,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	if err := s.store.CreateSession(ctx, session); err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to create session")
		return nil, apperr.Internal("Failed to create session")
	}

	log.Info().
		Str("user_id", userID.String()).
		Str("session_id", session.ID.String()).
		Str("device", session.Device.Describe()).
		Msg("Session created")

	return session, nil
}

// Get returns the session row regardless of expiry, or a 404 fault if it is
// absent. The refresh flow uses this to distinguish an expired session
// ("Session expired") from a deleted one ("Session not found").
func (s *SessionService) Get(ctx context.Context, sessionID uuid.UUID) (*models.Session, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, apperr.NotFound("Session not found")
		}
		log.Error().Err(err).Str("session_id", sessionID.String()).Msg("Failed to get session")
		return nil, apperr.Internal("Failed to get session")
	}
	return session, nil
}

// FindLive returns the session only if it exists and has not expired.
// An expired session is reported as not-found; from the caller's
// perspective a dead session and a missing one are the same thing.
func (s *SessionService) FindLive(ctx context.Context, sessionID uuid.UUID) (*models.Session, error) {
	session, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.Live(s.now()) {
		return nil, apperr.NotFound("Session not found")
	}
	return session, nil
}

// Extend pushes the session expiry forward by the full validity window
// (sliding expiration). Used on every successful token refresh. Concurrent
// extensions are last-write-wins.
func (s *SessionService) Extend(ctx context.Context, sessionID uuid.UUID) (*models.Session, error) {
	session, err := s.store.ExtendSession(ctx, sessionID, s.now().Add(s.ttl))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, apperr.NotFound("Session not found")
		}
		log.Error().Err(err).Str("session_id", sessionID.String()).Msg("Failed to extend session")
		return nil, apperr.Internal("Failed to extend session")
	}
	return session, nil
}

// ListLiveForUser returns all of the user's sessions whose expiry lies in
// the future, newest-created first. Rows that have expired but still exist
// physically are never included.
func (s *SessionService) ListLiveForUser(ctx context.Context, userID uuid.UUID) ([]*models.Session, error) {
	sessions, err := s.store.ListLiveSessions(ctx, userID, s.now())
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to list sessions")
		return nil, apperr.Internal("Failed to list sessions")
	}
	return sessions, nil
}

// Delete removes a session owned by the given user. Deleting twice yields a
// 404 fault the second time, which callers should treat as
// already-logged-out. The owner scoping means one user cannot revoke
// another user's session.
func (s *SessionService) Delete(ctx context.Context, sessionID, userID uuid.UUID) error {
	if err := s.store.DeleteSession(ctx, sessionID, userID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return apperr.NotFound("Session not found")
		}
		log.Error().Err(err).Str("session_id", sessionID.String()).Msg("Failed to delete session")
		return apperr.Internal("Failed to delete session")
	}

	log.Info().
		Str("user_id", userID.String()).
		Str("session_id", sessionID.String()).
		Msg("Session deleted")

	return nil
}

// ParseUserAgent extracts a structured device descriptor from a User-Agent
// header. Best-effort: an empty or unrecognized string yields an empty
// descriptor whose Describe() falls back to the "Unknown" literals.
func ParseUserAgent(userAgent string) models.DeviceInfo {
	if userAgent == "" {
		return models.DeviceInfo{}
	}

	ua := useragent.Parse(userAgent)

	deviceType := ""
	switch {
	case ua.Mobile:
		deviceType = "mobile"
	case ua.Tablet:
		deviceType = "tablet"
	case ua.Desktop:
		deviceType = "desktop"
	}

	return models.DeviceInfo{
		BrowserName:    ua.Name,
		BrowserVersion: ua.Version,
		OSName:         ua.OS,
		OSVersion:      ua.OSVersion,
		DeviceType:     deviceType,
		DeviceModel:    ua.Device,
	}
}
