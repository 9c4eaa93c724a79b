// Package cache stores computed results keyed by graph content.
//
// The editor caches auto-layout results by snapshot hash and layout
// options, so re-running layout on an unchanged graph is free. Backends:
//
//   - [FileCache]: JSON files under a directory, for the CLI
//   - [RedisCache]: a shared Redis instance, for the HTTP server
//   - [NullCache]: stores nothing, for tests or when caching is disabled
//
// Keys are built by a [Keyer] so that callers never assemble key strings
// by hand:
//
//	keyer := cache.NewDefaultKeyer()
//	key := keyer.LayoutKey(cache.Hash([]byte(snapshot)), opts.Key())
//	if data, ok, _ := c.Get(ctx, key); ok {
//	    // decode the cached layout.Result
//	}
package cache

import (
	"context"
	"time"
)

// DefaultTTL is the lifetime of cached layout results.
const DefaultTTL = 7 * 24 * time.Hour

// Cache is a byte-oriented key/value cache with expiration.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend's resources.
	Close() error
}
