package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/madiyar/authkit/internal/database"
	"github.com/madiyar/authkit/internal/models"
)

// MemoryUserStore is an in-memory UserStore implementation for tests.
// It mirrors the PostgreSQL store's contract: duplicate email or username
// fails with database.ErrDuplicate, misses fail with database.ErrNotFound.
type MemoryUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
}

// NewMemoryUserStore creates an empty in-memory user store.
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[uuid.UUID]*models.User)}
}

// CreateUser stores a new user, rejecting duplicate emails and usernames.
func (s *MemoryUserStore) CreateUser(ctx context.Context, email, username, passwordHash string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email || u.Username == username {
			return nil, database.ErrDuplicate
		}
	}

	now := time.Now()
	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.users[user.ID] = user

	copy := *user
	return &copy, nil
}

// GetUserByEmail returns the user with the given email or ErrNotFound.
func (s *MemoryUserStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			copy := *u
			return &copy, nil
		}
	}
	return nil, database.ErrNotFound
}

// GetUserByID returns the user with the given id or ErrNotFound.
func (s *MemoryUserStore) GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, database.ErrNotFound
	}
	copy := *u
	return &copy, nil
}

// MemorySessionStore is an in-memory SessionStore implementation for tests.
// Like the PostgreSQL store, it keeps expired rows readable: GetSession
// returns them and only ListLiveSessions filters on expiry.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*models.Session
}

// NewMemorySessionStore creates an empty in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[uuid.UUID]*models.Session)}
}

// CreateSession stores a session row.
func (s *MemorySessionStore) CreateSession(ctx context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *session
	s.sessions[session.ID] = &copy
	return nil
}

// GetSession returns the session row regardless of expiry, or ErrNotFound.
func (s *MemorySessionStore) GetSession(ctx context.Context, sessionID uuid.UUID) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, database.ErrNotFound
	}
	copy := *session
	return &copy, nil
}

// ExtendSession updates the session expiry and returns the updated row.
func (s *MemorySessionStore) ExtendSession(ctx context.Context, sessionID uuid.UUID, expiresAt time.Time) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, database.ErrNotFound
	}
	session.ExpiresAt = expiresAt

	copy := *session
	return &copy, nil
}

// ListLiveSessions returns the user's unexpired sessions newest-created
// first.
func (s *MemorySessionStore) ListLiveSessions(ctx context.Context, userID uuid.UUID, now time.Time) ([]*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []*models.Session
	for _, session := range s.sessions {
		if session.UserID == userID && session.ExpiresAt.After(now) {
			copy := *session
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

// DeleteSession removes the session if it exists and belongs to the user.
func (s *MemorySessionStore) DeleteSession(ctx context.Context, sessionID, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok || session.UserID != userID {
		return database.ErrNotFound
	}
	delete(s.sessions, sessionID)
	return nil
}

// Count returns the number of session rows, expired included.
func (s *MemorySessionStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
