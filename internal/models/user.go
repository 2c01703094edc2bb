// Package models defines the core domain models for the application.
// These models represent the data structures used throughout the system
// for users, sessions, and authentication state.
//
// All models include appropriate JSON and database struct tags for
// serialization and storage mapping. Sensitive fields are marked with
// `json:"-"` to prevent accidental exposure in API responses.
package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered account identified by email and username.
// The PasswordHash field holds a bcrypt hash and is never serialized;
// API responses must use the Public projection instead.
//
// JSON example (via Public):
//
//	{
//	  "id": "550e8400-e29b-41d4-a716-446655440000",
//	  "email": "user@example.com",
//	  "username": "user42",
//	  "created_at": "2024-01-15T10:30:00Z",
//	  "updated_at": "2024-01-15T10:30:00Z"
//	}
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`                 // Unique user identifier
	Email        string    `json:"email" db:"email"`           // Unique email address (case-sensitive as stored)
	Username     string    `json:"username" db:"username"`     // Unique display name
	PasswordHash string    `json:"-" db:"password_hash"`       // bcrypt hash (NEVER exposed in JSON)
	CreatedAt    time.Time `json:"created_at" db:"created_at"` // Account creation timestamp
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"` // Last modification timestamp
}

// PublicUser is the user projection safe for external callers.
// It carries everything User does except the password hash.
type PublicUser struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Public strips the password hash from a user record.
// Every user-facing response goes through this projection.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
