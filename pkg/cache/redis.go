package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a Cache backed by a Redis instance. Entries are stored as a JSON
// envelope carrying the stored-at timestamp, with a retention window well past
// any freshness threshold so stale values remain available as fallbacks.
type Redis struct {
	client    redis.Cmdable
	keyPrefix string
	retention time.Duration
}

// NewRedis creates a Redis-backed cache. retention bounds how long entries
// survive; zero means 7 days.
func NewRedis(client redis.Cmdable, keyPrefix string, retention time.Duration) *Redis {
	if retention <= 0 {
		retention = 7 * 24 * time.Hour
	}
	return &Redis{
		client:    client,
		keyPrefix: keyPrefix,
		retention: retention,
	}
}

func (r *Redis) key(key string) string {
	if r.keyPrefix == "" {
		return key
	}
	return r.keyPrefix + ":" + key
}

// Get returns the entry for key or ErrNotFound.
func (r *Redis) Get(ctx context.Context, key string) (Entry, error) {
	raw, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, fmt.Errorf("cache get %q: %w", key, err)
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return Entry{}, fmt.Errorf("cache decode %q: %w", key, err)
	}
	return entry, nil
}

// Set stores value under key, stamping it with the current time.
func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	entry := Entry{Value: value, StoredAt: time.Now()}
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("cache encode %q: %w", key, err)
	}
	if err := r.client.Set(ctx, r.key(key), raw, r.retention).Err(); err != nil {
		return fmt.Errorf("cache set %q: %w", key, err)
	}
	return nil
}

// Delete removes the entry for key.
func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("cache delete %q: %w", key, err)
	}
	return nil
}
