package utils

import (
	"net"
	"net/http"
	"strings"
)

// ExtractClientIP extracts the real client IP address from HTTP request headers.
// It checks headers in the following priority order:
//  1. X-Forwarded-For (takes the first IP if multiple are present)
//  2. X-Real-IP
//  3. RemoteAddr (strips port if present)
//
// This function is useful when the application is behind a reverse proxy or
// load balancer.
func ExtractClientIP(r *http.Request) string {
	// Try X-Forwarded-For header first (reverse proxy/load balancer)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		xff = strings.TrimSpace(xff)

		// X-Forwarded-For can contain multiple IPs: "client, proxy1, proxy2"
		// Take the first IP (the original client)
		if idx := strings.IndexByte(xff, ','); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return xff
	}

	// Try X-Real-IP header (alternative proxy header)
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	// Fall back to RemoteAddr ("IP:port" or "[IPv6]:port")
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// IsPrivateIP checks if an IP address is private, loopback, or link-local.
// Used to skip geolocation lookups for internal traffic.
//
// Example:
//
//	if utils.IsPrivateIP(clientIP) {
//	    location = "Local Network"
//	}
func IsPrivateIP(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	return parsed.IsLoopback() ||
		parsed.IsPrivate() ||
		parsed.IsLinkLocalUnicast() ||
		parsed.IsLinkLocalMulticast()
}
