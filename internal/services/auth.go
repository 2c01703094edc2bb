package services

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/madiyar/authkit/internal/apperr"
	"github.com/madiyar/authkit/internal/models"
	"github.com/rs/zerolog/log"
)

// Locator resolves an IP address to a display location for session lists.
// Implemented by GeoService; may be nil, in which case locations are
// omitted.
type Locator interface {
	Locate(ctx context.Context, ipAddress string) string
}

// AuthService is the stateless orchestrator composing the credential store,
// session store and token service. Every operation is independently
// invocable and safe under concurrent invocation across sessions and users;
// nothing here holds state between calls.
//
// Per session the lifecycle is ACTIVE until either passive expiry
// (EXPIRED) or explicit deletion via logout/revocation (REVOKED); both are
// terminal.
type AuthService struct {
	credentials *CredentialService
	sessions    *SessionService
	tokens      *TokenService
	geo         Locator
}

// NewAuthService wires the orchestrator. geo may be nil.
func NewAuthService(credentials *CredentialService, sessions *SessionService, tokens *TokenService, geo Locator) *AuthService {
	return &AuthService{
		credentials: credentials,
		sessions:    sessions,
		tokens:      tokens,
		geo:         geo,
	}
}

// DeviceMetadata carries the request-level context captured at
// authentication time: the raw User-Agent and the client IP. Both are
// optional.
type DeviceMetadata struct {
	UserAgent string
	IPAddress string
}

// AuthResult is the payload returned by Register and Login: the public user
// projection plus a fresh token pair bound to the newly created session.
type AuthResult struct {
	User         models.PublicUser
	AccessToken  string
	RefreshToken string
	SessionID    uuid.UUID
}

// TokenPair is the payload returned by Refresh after rotation.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Register creates a user, opens the first session for the registering
// device and issues both tokens. A duplicate email fails with 409 before
// any session is created.
func (s *AuthService) Register(ctx context.Context, email, username, password string, device DeviceMetadata) (*AuthResult, error) {
	user, err := s.credentials.Register(ctx, email, username, password)
	if err != nil {
		return nil, err
	}

	return s.openSession(ctx, user, device)
}

// Login verifies credentials and opens a brand-new session for the device.
// Prior sessions are neither reused nor merged: a user may hold many
// concurrent sessions, one per device. Unknown email and wrong password
// fail identically.
func (s *AuthService) Login(ctx context.Context, email, password string, device DeviceMetadata) (*AuthResult, error) {
	user, err := s.credentials.VerifyCredentials(ctx, email, password)
	if err != nil {
		return nil, err
	}

	return s.openSession(ctx, user, device)
}

// openSession creates the session and mints the token pair shared by
// Register and Login.
func (s *AuthService) openSession(ctx context.Context, user *models.User, device DeviceMetadata) (*AuthResult, error) {
	session, err := s.sessions.Create(ctx, user.ID, device.UserAgent, device.IPAddress)
	if err != nil {
		return nil, err
	}

	accessToken, err := s.tokens.IssueAccessToken(user.ID, session.ID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to issue access token")
		return nil, apperr.Internal("Failed to issue tokens")
	}

	refreshToken, err := s.tokens.IssueRefreshToken(session.ID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to issue refresh token")
		return nil, apperr.Internal("Failed to issue tokens")
	}

	return &AuthResult{
		User:         user.Public(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		SessionID:    session.ID,
	}, nil
}

// Refresh exchanges a valid refresh token for a rotated token pair.
//
// The token alone proves nothing: the embedded session is re-validated
// against live storage, so a deleted or expired session immediately
// invalidates every outstanding refresh token for it. On success the
// session expiry slides forward and both tokens are reissued. The previous
// refresh token is superseded rather than blacklisted; it stays
// cryptographically valid until its own expiry.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, ok := s.tokens.VerifyRefreshToken(refreshToken)
	if !ok {
		return nil, apperr.Unauthorized("Invalid refresh token")
	}

	sessionID, err := uuid.Parse(claims.SessionID)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid refresh token")
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if apperr.From(err).Status == http.StatusNotFound {
			return nil, apperr.Unauthorized("Session not found")
		}
		return nil, err
	}

	if !session.Live(s.sessions.now()) {
		return nil, apperr.Unauthorized("Session expired")
	}

	session, err = s.sessions.Extend(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	accessToken, err := s.tokens.IssueAccessToken(session.UserID, session.ID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to issue access token")
		return nil, apperr.Internal("Failed to issue tokens")
	}

	newRefreshToken, err := s.tokens.IssueRefreshToken(session.ID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to issue refresh token")
		return nil, apperr.Internal("Failed to issue tokens")
	}

	log.Info().
		Str("session_id", session.ID.String()).
		Msg("Tokens rotated")

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
	}, nil
}

// Logout deletes the caller's own session. A second logout for the same
// session yields 404, which callers should treat as already-logged-out.
func (s *AuthService) Logout(ctx context.Context, sessionID, userID uuid.UUID) error {
	return s.sessions.Delete(ctx, sessionID, userID)
}

// ListSessions returns the caller's live sessions newest-first, each
// annotated with a device description, a best-effort location and the
// is-current flag derived from the caller's own session id.
func (s *AuthService) ListSessions(ctx context.Context, userID, currentSessionID uuid.UUID) ([]models.SessionInfo, error) {
	sessions, err := s.sessions.ListLiveForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	infos := make([]models.SessionInfo, 0, len(sessions))
	for _, session := range sessions {
		location := ""
		if s.geo != nil {
			location = s.geo.Locate(ctx, session.IPAddress)
		}
		infos = append(infos, models.SessionInfo{
			ID:        session.ID,
			Device:    session.Device.Describe(),
			Location:  location,
			IPAddress: session.IPAddress,
			CreatedAt: session.CreatedAt,
			ExpiresAt: session.ExpiresAt,
			IsCurrent: session.ID == currentSessionID,
		})
	}

	return infos, nil
}

// RevokeSession deletes one of the caller's sessions by id ("log out that
// device"). The delete is scoped to the caller: revoking a session that
// belongs to a different user reports 404 rather than touching it.
func (s *AuthService) RevokeSession(ctx context.Context, sessionID, userID uuid.UUID) error {
	return s.sessions.Delete(ctx, sessionID, userID)
}

// RevokeOtherSessions deletes every live session of the user except the
// current one ("log out all other devices"). Individual failures are
// logged and skipped. Returns the number of sessions revoked.
func (s *AuthService) RevokeOtherSessions(ctx context.Context, userID, currentSessionID uuid.UUID) (int, error) {
	sessions, err := s.sessions.ListLiveForUser(ctx, userID)
	if err != nil {
		return 0, err
	}

	revoked := 0
	for _, session := range sessions {
		if session.ID == currentSessionID {
			continue
		}
		if err := s.sessions.Delete(ctx, session.ID, userID); err != nil {
			log.Warn().
				Err(err).
				Str("session_id", session.ID.String()).
				Msg("Failed to revoke session")
			continue
		}
		revoked++
	}

	log.Info().
		Str("user_id", userID.String()).
		Int("revoked_count", revoked).
		Msg("Other sessions revoked")

	return revoked, nil
}

// Profile returns the public projection of the authenticated user.
func (s *AuthService) Profile(ctx context.Context, userID uuid.UUID) (models.PublicUser, error) {
	user, err := s.credentials.GetUser(ctx, userID)
	if err != nil {
		return models.PublicUser{}, err
	}
	return user.Public(), nil
}
