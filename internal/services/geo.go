package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/madiyar/authkit/pkg/cache"
	"github.com/madiyar/authkit/pkg/utils"
	"github.com/rs/zerolog/log"
)

// GeoService resolves IP addresses to human-readable locations for the
// session list. Lookups go to the free ip-api.com service (45 requests per
// minute, no API key) and results are cached in Redis for 24 hours to stay
// well under that limit.
//
// Resolution is strictly best-effort: private IPs map to "Local Network"
// and any lookup failure falls back to the bare IP address.
type GeoService struct {
	cache  *cache.Cache
	client *http.Client
}

// NewGeoService creates a geolocation service backed by the given cache.
func NewGeoService(c *cache.Cache) *GeoService {
	return &GeoService{
		cache:  c,
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

// Locate returns a location string like "Almaty, Kazakhstan" for the given
// IP, "Local Network" for private addresses, or the IP itself when the
// lookup fails.
func (g *GeoService) Locate(ctx context.Context, ipAddress string) string {
	if ipAddress == "" {
		return ""
	}
	if utils.IsPrivateIP(ipAddress) {
		return "Local Network"
	}

	key := cache.GeoLocationKey(ipAddress)
	var cached string
	if err := g.cache.Get(ctx, key, &cached); err == nil {
		return cached
	} else if err != cache.ErrCacheMiss {
		log.Warn().Err(err).Str("ip", ipAddress).Msg("Geolocation cache read failed")
	}

	location := g.fetch(ipAddress)

	if err := g.cache.Set(ctx, key, location, 24*time.Hour); err != nil {
		log.Warn().Err(err).Str("ip", ipAddress).Msg("Failed to cache geolocation")
	}

	return location
}

// fetch queries ip-api.com. Any failure returns the bare IP.
func (g *GeoService) fetch(ipAddress string) string {
	url := fmt.Sprintf("http://ip-api.com/json/%s?fields=status,country,city", ipAddress)

	resp, err := g.client.Get(url)
	if err != nil {
		return ipAddress
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ipAddress
	}

	var result struct {
		Status  string `json:"status"`
		Country string `json:"country"`
		City    string `json:"city"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return ipAddress
	}
	if result.Status != "success" {
		return ipAddress
	}

	var parts []string
	if result.City != "" {
		parts = append(parts, result.City)
	}
	if result.Country != "" {
		parts = append(parts, result.Country)
	}
	if len(parts) == 0 {
		return ipAddress
	}

	return strings.Join(parts, ", ")
}
