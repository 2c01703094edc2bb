package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructors(t *testing.T) {
	t.Run("maps statuses and codes", func(t *testing.T) {
		assert.Equal(t, 409, Conflict("taken").Status)
		assert.Equal(t, CodeConflict, Conflict("taken").Code)

		assert.Equal(t, 401, InvalidCredentials().Status)
		assert.Equal(t, "Invalid email or password", InvalidCredentials().Message)

		assert.Equal(t, 401, Unauthorized("no").Status)
		assert.Equal(t, 404, NotFound("gone").Status)
		assert.Equal(t, 500, Internal("boom").Status)
	})

	t.Run("Error returns the message", func(t *testing.T) {
		assert.Equal(t, "gone", NotFound("gone").Error())
	})
}

func TestFrom(t *testing.T) {
	t.Run("passes a fault through unchanged", func(t *testing.T) {
		fault := NotFound("Session not found")
		assert.Same(t, fault, From(fault))
	})

	t.Run("unwraps a wrapped fault", func(t *testing.T) {
		fault := Conflict("User already exists")
		wrapped := fmt.Errorf("register: %w", fault)
		assert.Same(t, fault, From(wrapped))
	})

	t.Run("collapses unknown errors to a generic 500", func(t *testing.T) {
		got := From(errors.New("pq: connection refused"))
		assert.Equal(t, 500, got.Status)
		assert.Equal(t, "Internal server error", got.Message)
		assert.NotContains(t, got.Message, "pq")
	})
}
