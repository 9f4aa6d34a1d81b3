package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_SetGetDelete(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set(ctx, "k", []byte("v1")))

	entry, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), entry.Value)
	assert.False(t, entry.StoredAt.IsZero())

	require.NoError(t, store.Delete(ctx, "k"))
	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_OverwriteRefreshesTimestamp(t *testing.T) {
	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryWithClock(func() time.Time { return clock })
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v1")))
	first, err := store.Get(ctx, "k")
	require.NoError(t, err)

	clock = clock.Add(time.Hour)
	require.NoError(t, store.Set(ctx, "k", []byte("v2")))
	second, err := store.Get(ctx, "k")
	require.NoError(t, err)

	assert.Equal(t, []byte("v2"), second.Value)
	assert.Equal(t, time.Hour, second.StoredAt.Sub(first.StoredAt))
}

func TestEntry_Age(t *testing.T) {
	stored := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	entry := Entry{StoredAt: stored}

	assert.Equal(t, 3*time.Hour, entry.Age(stored.Add(3*time.Hour)))
}

func TestRedis_GetMiss(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedis(client, "fundex", time.Hour)

	mock.ExpectGet("fundex:trust_score:abc").RedisNil()

	_, err := store.Get(context.Background(), "trust_score:abc")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedis_SetThenGet(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedis(client, "fundex", time.Hour)
	ctx := context.Background()

	mock.CustomMatch(func(expected, actual []interface{}) error {
		return nil
	}).ExpectSet("fundex:k", []byte("ignored"), time.Hour).SetVal("OK")

	require.NoError(t, store.Set(ctx, "k", []byte("payload")))

	stored := Entry{Value: []byte("payload"), StoredAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	raw, err := json.Marshal(stored)
	require.NoError(t, err)

	mock.ExpectGet("fundex:k").SetVal(string(raw))

	entry, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), entry.Value)
	assert.True(t, stored.StoredAt.Equal(entry.StoredAt))
}

func TestRedis_Delete(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedis(client, "", time.Hour)

	mock.ExpectDel("k").SetVal(1)

	require.NoError(t, store.Delete(context.Background(), "k"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
