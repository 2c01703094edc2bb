// Package testutil provides common testing utilities, fixtures, and helpers
// for use across all test files in the project.
package testutil

import (
	"time"

	"github.com/google/uuid"
	"github.com/madiyar/authkit/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// TestPassword is the plaintext password behind every fixture user.
const TestPassword = "correct-horse-battery"

// HashPassword bcrypt-hashes a password at MinCost to keep tests fast.
func HashPassword(password string) string {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err) // MinCost hashing cannot fail on valid input
	}
	return string(hash)
}

// TestUser creates a test user with default values. The stored hash matches
// TestPassword.
func TestUser() *models.User {
	return &models.User{
		ID:           uuid.New(),
		Email:        "test@example.com",
		Username:     "testuser",
		PasswordHash: HashPassword(TestPassword),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
}

// TestUserWithEmail creates a test user with a specific email
func TestUserWithEmail(email string) *models.User {
	user := TestUser()
	user.Email = email
	return user
}

// TestUserWithID creates a test user with a specific ID
func TestUserWithID(id uuid.UUID) *models.User {
	user := TestUser()
	user.ID = id
	return user
}

// TestSession creates a live test session for the given user.
func TestSession(userID uuid.UUID) *models.Session {
	now := time.Now()
	return &models.Session{
		ID:        uuid.New(),
		UserID:    userID,
		UserAgent: UserAgents.Chrome,
		Device: models.DeviceInfo{
			BrowserName:    "Chrome",
			BrowserVersion: "120.0.0.0",
			OSName:         "Windows",
			OSVersion:      "10",
			DeviceType:     "desktop",
		},
		IPAddress: IPAddresses.Public,
		CreatedAt: now,
		ExpiresAt: now.Add(720 * time.Hour),
	}
}

// UserAgents provides common user agent strings for testing
var UserAgents = struct {
	Chrome       string
	Safari       string
	Firefox      string
	Edge         string
	MobileChrome string
	MobileSafari string
	Unknown      string
}{
	Chrome:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	Safari:       "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15",
	Firefox:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	Edge:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0",
	MobileChrome: "Mozilla/5.0 (Linux; Android 13) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.6099.144 Mobile Safari/537.36",
	MobileSafari: "Mozilla/5.0 (iPhone; CPU iPhone OS 17_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
	Unknown:      "",
}

// IPAddresses provides test IP addresses
var IPAddresses = struct {
	Public     string
	Private    string
	Localhost  string
	Private10  string
	Private172 string
}{
	Public:     "203.0.113.42",
	Private:    "192.168.1.100",
	Localhost:  "127.0.0.1",
	Private10:  "10.0.0.1",
	Private172: "172.16.0.1",
}
