package domain

import (
	"context"
	"time"
)

// CacheError is a sentinel error reported by a Cache.
type CacheError string

func (e CacheError) Error() string {
	return string(e)
}

// ErrCacheMiss means the key is absent or has expired. Callers treat it as
// "nothing stored yet", never as a failure.
const ErrCacheMiss = CacheError("cache: key not found")

// Cache is the key/value store behind anonymous local history and revoked
// token markers. Every value carries its own expiry.
type Cache interface {
	// Get returns ErrCacheMiss when nothing is stored under key.
	Get(ctx context.Context, key string) (string, error)

	// Set overwrites key. An expiration of 0 keeps the value until deleted.
	Set(ctx context.Context, key string, value string, expiration time.Duration) error

	// Delete succeeds when the key is already gone.
	Delete(ctx context.Context, key string) error

	Ping(ctx context.Context) error
}

// VolatileCache is implemented by caches that live in process memory: their
// contents are lost on restart and are not shared between instances.
type VolatileCache interface {
	Cache
	Volatile() bool
}
