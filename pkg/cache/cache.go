// Package cache provides a generic Redis-based caching layer with JSON
// serialization. It offers a high-level API for caching arbitrary Go values
// with automatic marshaling/unmarshaling and TTL-based expiration.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Cache provides a generic caching interface with JSON serialization.
// All operations use JSON, making it easy to cache any Go value.
type Cache struct {
	client *redis.Client
}

// NewCache creates a new cache instance wrapping a Redis client.
func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Get retrieves a value from cache and unmarshals it into the target.
// Returns ErrCacheMiss if the key doesn't exist. The target must be a
// pointer to the type you want to unmarshal into.
//
// Example:
//
//	var location string
//	err := geoCache.Get(ctx, cache.GeoLocationKey(ip), &location)
//	if err == cache.ErrCacheMiss {
//	    // Key not found, fetch from upstream
//	}
func (c *Cache) Get(ctx context.Context, key string, target interface{}) error {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return ErrCacheMiss
		}
		log.Error().Err(err).Str("key", key).Msg("Failed to get from cache")
		return fmt.Errorf("cache get error: %w", err)
	}

	if err := json.Unmarshal(data, target); err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to unmarshal cached data")
		return fmt.Errorf("unmarshal error: %w", err)
	}

	return nil
}

// Set stores a value in cache with the specified TTL.
// The value is automatically marshaled to JSON.
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to set cache")
		return fmt.Errorf("cache set error: %w", err)
	}

	return nil
}

// Delete removes one or more keys from the cache.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache delete error: %w", err)
	}
	return nil
}

// GetOrSet implements the cache-aside pattern: on a miss, loader is invoked
// and its result is cached with the given TTL before being unmarshaled into
// target. Loader errors are returned unchanged; cache write failures are
// logged and ignored so a flaky cache never breaks the read path.
func (c *Cache) GetOrSet(ctx context.Context, key string, ttl time.Duration, target interface{}, loader func() (interface{}, error)) error {
	err := c.Get(ctx, key, target)
	if err == nil {
		return nil
	}
	if err != ErrCacheMiss {
		log.Warn().Err(err).Str("key", key).Msg("Cache read failed, falling through to loader")
	}

	value, err := loader()
	if err != nil {
		return err
	}

	if err := c.Set(ctx, key, value, ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to populate cache")
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}
	return json.Unmarshal(data, target)
}
