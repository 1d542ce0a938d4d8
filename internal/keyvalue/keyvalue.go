// Package keyvalue provides the shared key-value store used by the secret
// cache coherency layer: TTL'd entries plus atomic per-project counters.
package keyvalue

import (
	"context"
	"time"
)

// Store is the minimal capability set the cache layer needs. Increment must
// be atomic so concurrent writers each bump the counter exactly once and the
// increments commute.
type Store interface {
	// Get returns the value for key. A missing key is reported via the
	// boolean, not an error; errors mean the backend itself failed.
	Get(ctx context.Context, key string) (string, bool, error)

	// SetWithTTL stores value under key with the given expiry.
	SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error

	// Increment atomically increments the counter at key and returns the new
	// value. A missing counter is treated as 0.
	Increment(ctx context.Context, key string) (int64, error)

	// Expire refreshes the TTL of an existing key.
	Expire(ctx context.Context, key string, ttl time.Duration) error
}
