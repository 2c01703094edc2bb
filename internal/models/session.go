package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// DeviceInfo is the structured device descriptor parsed from a User-Agent
// string at session-creation time. All fields are best-effort; an absent or
// unparseable User-Agent yields the zero value, never an error.
type DeviceInfo struct {
	BrowserName    string `json:"browser_name,omitempty"`
	BrowserVersion string `json:"browser_version,omitempty"`
	OSName         string `json:"os_name,omitempty"`
	OSVersion      string `json:"os_version,omitempty"`
	DeviceType     string `json:"device_type,omitempty"` // "desktop", "mobile" or "tablet"
	DeviceVendor   string `json:"device_vendor,omitempty"`
	DeviceModel    string `json:"device_model,omitempty"`
}

// Describe renders the descriptor as a human-readable summary like
// "Chrome 118 on Windows 10 (Desktop)". Missing fields fall back to
// "Unknown Browser", "Unknown OS" and "Desktop".
func (d DeviceInfo) Describe() string {
	browser := "Unknown Browser"
	if d.BrowserName != "" {
		browser = d.BrowserName
		if d.BrowserVersion != "" {
			browser += " " + d.BrowserVersion
		}
	}

	os := "Unknown OS"
	if d.OSName != "" {
		os = d.OSName
		if d.OSVersion != "" {
			os += " " + d.OSVersion
		}
	}

	device := "Desktop"
	if d.DeviceType != "" {
		device = strings.ToUpper(d.DeviceType[:1]) + d.DeviceType[1:]
	}

	return browser + " on " + os + " (" + device + ")"
}

// Session represents one authenticated device/browser instance.
// A user may hold many concurrent sessions; each is independently
// expirable and revocable.
//
// ExpiresAt is the sole authority for validity: a session whose ExpiresAt
// is not after "now" is dead even while the row still exists in storage.
// There is no background reaper; expiry is checked lazily on read.
type Session struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	UserID    uuid.UUID  `json:"user_id" db:"user_id"` // Owning user (reference, not ownership)
	UserAgent string     `json:"user_agent,omitempty" db:"user_agent"`
	Device    DeviceInfo `json:"device"`
	IPAddress string     `json:"ip_address,omitempty" db:"ip_address"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	ExpiresAt time.Time  `json:"expires_at" db:"expires_at"`
}

// Live reports whether the session is still valid at the given instant.
func (s *Session) Live(now time.Time) bool {
	return s.ExpiresAt.After(now)
}

// SessionInfo is the sanitized session view returned by the session-listing
// endpoint. IsCurrent marks the session matching the caller's own session id.
//
// JSON example:
//
//	{
//	  "id": "c0a80101-0000-4000-8000-000000000001",
//	  "device": "Chrome 118 on Windows 10 (Desktop)",
//	  "location": "Almaty, Kazakhstan",
//	  "ip_address": "203.0.113.42",
//	  "created_at": "2024-01-20T14:45:00Z",
//	  "expires_at": "2024-02-19T14:45:00Z",
//	  "is_current": true
//	}
type SessionInfo struct {
	ID        uuid.UUID `json:"id"`
	Device    string    `json:"device"`
	Location  string    `json:"location,omitempty"`
	IPAddress string    `json:"ip_address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	IsCurrent bool      `json:"is_current"`
}
