// Package cache stores registry responses between runs.
//
// Caching is opt-in: the CLI uses [NullCache] unless a TTL is configured, in
// which case it picks [RedisCache] when a Redis URL is set and [FileCache]
// otherwise. Keys are namespaced with [Key] so different endpoints never
// collide.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry TTL.
//
// Implementations must be safe for concurrent use: the analysis phase reads
// and writes from many goroutines at once.
type Cache interface {
	// Get returns the stored bytes and true on a hit. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A zero ttl means the entry never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// Key builds a namespaced cache key, e.g. Key("npm", "left-pad") = "http:npm:left-pad".
func Key(namespace, name string) string {
	return "http:" + namespace + ":" + name
}
