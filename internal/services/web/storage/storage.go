package storage

import (
	"context"
	"time"
)

// CacheEntry is one cached backend payload with its freshness window.
type CacheEntry struct {
	Key         string
	Scope       string
	Payload     []byte
	RefreshedAt time.Time
	ExpiresAt   time.Time
}

// Fresh reports whether the entry may be served without asking the backend.
func (e CacheEntry) Fresh(now time.Time) bool {
	return now.Before(e.ExpiresAt)
}

// CacheStore persists cache entries.
type CacheStore interface {
	GetCacheEntry(ctx context.Context, key string) (CacheEntry, bool, error)
	PutCacheEntry(ctx context.Context, entry CacheEntry) error
	DeleteScope(ctx context.Context, scope string) error
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
	Close() error
}
