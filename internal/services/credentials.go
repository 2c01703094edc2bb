package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/madiyar/authkit/internal/apperr"
	"github.com/madiyar/authkit/internal/database"
	"github.com/madiyar/authkit/internal/models"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// UserStore defines the interface for user persistence.
// This interface abstracts PostgreSQL operations for the credential store,
// enabling testing and dependency injection.
type UserStore interface {
	CreateUser(ctx context.Context, email, username, passwordHash string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

// CredentialService owns user records and credential verification.
// Passwords are bcrypt-hashed with a configurable cost factor before they
// reach storage; the plaintext is discarded immediately after hashing.
//
// Hashing is CPU-bound and runs on the request goroutine; the Go scheduler
// keeps it from stalling unrelated requests.
type CredentialService struct {
	store UserStore
	cost  int // bcrypt work factor
}

// NewCredentialService creates a credential service. A cost of 0 selects
// bcrypt.DefaultCost.
func NewCredentialService(store UserStore, cost int) *CredentialService {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &CredentialService{store: store, cost: cost}
}

// Register creates a new user with a hashed password.
// Fails with a 409 Conflict fault if the email (or username) is taken.
func (s *CredentialService) Register(ctx context.Context, email, username, password string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		log.Error().Err(err).Msg("Failed to hash password")
		return nil, apperr.Internal("Failed to create user")
	}

	user, err := s.store.CreateUser(ctx, email, username, string(hash))
	if err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, apperr.Conflict("User already exists")
		}
		log.Error().Err(err).Str("email", email).Msg("Failed to create user")
		return nil, apperr.Internal("Failed to create user")
	}

	log.Info().
		Str("user_id", user.ID.String()).
		Msg("User registered")

	return user, nil
}

// VerifyCredentials looks up a user by email and checks the password
// against the stored hash. Unknown email and wrong password fail with the
// identical fault so the two cases are indistinguishable to a caller.
func (s *CredentialService) VerifyCredentials(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, apperr.InvalidCredentials()
		}
		log.Error().Err(err).Msg("Failed to look up user")
		return nil, apperr.Internal("Failed to verify credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.InvalidCredentials()
	}

	return user, nil
}

// GetUser retrieves a user by ID for profile reads.
func (s *CredentialService) GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, apperr.NotFound("User not found")
		}
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to fetch user")
		return nil, apperr.Internal("Failed to fetch user")
	}
	return user, nil
}
