package cache

import "fmt"

// Key prefixes for different cache types.
const (
	GeoLocationPrefix = "geo:"
	RateLimitPrefix   = "ratelimit:"
)

// GeoLocationKey generates a cache key for a resolved IP geolocation.
//
// Example: "geo:203.0.113.42"
func GeoLocationKey(ip string) string {
	return GeoLocationPrefix + ip
}

// RateLimitKey generates a counter key scoping a client IP to an endpoint.
//
// Example: "ratelimit:203.0.113.42:login"
func RateLimitKey(ip, endpoint string) string {
	return fmt.Sprintf("%s%s:%s", RateLimitPrefix, ip, endpoint)
}
