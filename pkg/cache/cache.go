package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a key has no cached entry.
var ErrNotFound = errors.New("cache: entry not found")

// Entry is a cached value with the time it was stored.
type Entry struct {
	Value    []byte    `json:"value"`
	StoredAt time.Time `json:"stored_at"`
}

// Age returns how long ago the entry was stored.
func (e Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.StoredAt)
}

// Cache is an injected key -> {value, timestamp} store. Implementations must be
// safe for concurrent use. Staleness decisions belong to the caller: entries
// outlive any freshness threshold so a stale value stays readable as a fallback.
type Cache interface {
	Get(ctx context.Context, key string) (Entry, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
