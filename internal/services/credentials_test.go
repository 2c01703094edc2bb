package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/madiyar/authkit/internal/apperr"
	"github.com/madiyar/authkit/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func setupCredentialService() (*CredentialService, *testutil.MemoryUserStore) {
	store := testutil.NewMemoryUserStore()
	// MinCost keeps the bcrypt work factor out of the test runtime
	return NewCredentialService(store, bcrypt.MinCost), store
}

func TestCredentialRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a user with a hashed password", func(t *testing.T) {
		svc, store := setupCredentialService()

		user, err := svc.Register(ctx, "new@example.com", "newuser", "hunter22")
		require.NoError(t, err)
		assert.Equal(t, "new@example.com", user.Email)
		assert.Equal(t, "newuser", user.Username)
		assert.NotEmpty(t, user.ID)

		stored, err := store.GetUserByEmail(ctx, "new@example.com")
		require.NoError(t, err)
		assert.NotEqual(t, "hunter22", stored.PasswordHash)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("hunter22")))
	})

	t.Run("rejects a duplicate email with 409", func(t *testing.T) {
		svc, _ := setupCredentialService()

		_, err := svc.Register(ctx, "dup@example.com", "first", "password1")
		require.NoError(t, err)

		_, err = svc.Register(ctx, "dup@example.com", "second", "password2")
		require.Error(t, err)
		assert.Equal(t, 409, apperr.From(err).Status)
		assert.Equal(t, apperr.CodeConflict, apperr.From(err).Code)
	})
}

func TestVerifyCredentials(t *testing.T) {
	ctx := context.Background()

	t.Run("accepts the registered password", func(t *testing.T) {
		svc, _ := setupCredentialService()

		registered, err := svc.Register(ctx, "login@example.com", "loginuser", "s3cret-pw")
		require.NoError(t, err)

		user, err := svc.VerifyCredentials(ctx, "login@example.com", "s3cret-pw")
		require.NoError(t, err)
		assert.Equal(t, registered.ID, user.ID)
	})

	t.Run("unknown email and wrong password fail identically", func(t *testing.T) {
		svc, _ := setupCredentialService()

		_, err := svc.Register(ctx, "known@example.com", "knownuser", "right-password")
		require.NoError(t, err)

		_, errUnknown := svc.VerifyCredentials(ctx, "unknown@example.com", "whatever")
		_, errWrong := svc.VerifyCredentials(ctx, "known@example.com", "wrong-password")

		require.Error(t, errUnknown)
		require.Error(t, errWrong)
		assert.Equal(t, apperr.From(errUnknown), apperr.From(errWrong))
		assert.Equal(t, 401, apperr.From(errUnknown).Status)
		assert.Equal(t, "Invalid email or password", apperr.From(errUnknown).Message)
	})
}

func TestGetUser(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the user by id", func(t *testing.T) {
		svc, _ := setupCredentialService()

		registered, err := svc.Register(ctx, "me@example.com", "meuser", "password")
		require.NoError(t, err)

		user, err := svc.GetUser(ctx, registered.ID)
		require.NoError(t, err)
		assert.Equal(t, "me@example.com", user.Email)
	})

	t.Run("returns 404 for an unknown id", func(t *testing.T) {
		svc, _ := setupCredentialService()

		_, err := svc.GetUser(ctx, uuid.New())
		require.Error(t, err)
		assert.Equal(t, 404, apperr.From(err).Status)
	})
}
