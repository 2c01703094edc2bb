package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/madiyar/authkit/internal/testutil"
	"github.com/madiyar/authkit/pkg/cache"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupGeoService(t *testing.T) (*GeoService, *cache.Cache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	c := cache.NewCache(client)
	return NewGeoService(c), c, mr
}

func TestGeoLocate(t *testing.T) {
	ctx := context.Background()

	t.Run("empty IP resolves to empty", func(t *testing.T) {
		svc, _, _ := setupGeoService(t)
		assert.Equal(t, "", svc.Locate(ctx, ""))
	})

	t.Run("private IPs resolve to Local Network without a lookup", func(t *testing.T) {
		svc, _, _ := setupGeoService(t)

		assert.Equal(t, "Local Network", svc.Locate(ctx, testutil.IPAddresses.Private))
		assert.Equal(t, "Local Network", svc.Locate(ctx, testutil.IPAddresses.Localhost))
		assert.Equal(t, "Local Network", svc.Locate(ctx, testutil.IPAddresses.Private10))
	})

	t.Run("serves a cached location without fetching", func(t *testing.T) {
		svc, c, _ := setupGeoService(t)

		key := cache.GeoLocationKey(testutil.IPAddresses.Public)
		require.NoError(t, c.Set(ctx, key, "Almaty, Kazakhstan", 24*time.Hour))

		assert.Equal(t, "Almaty, Kazakhstan", svc.Locate(ctx, testutil.IPAddresses.Public))
	})
}
