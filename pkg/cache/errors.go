package cache

import "errors"

// ErrCacheMiss is returned by Get when the key does not exist.
// Callers should treat a miss as "load from the source", not as a failure.
var ErrCacheMiss = errors.New("cache miss")
