package keyvalue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_GetSet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, found, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.SetWithTTL(ctx, "k", "v", time.Minute))

	value, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v", value)
}

func TestMemoryStore_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	now := time.Now()
	store.SetClock(func() time.Time { return now })

	require.NoError(t, store.SetWithTTL(ctx, "k", "v", time.Minute))

	// Advance past the TTL
	store.SetClock(func() time.Time { return now.Add(2 * time.Minute) })

	_, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryStore_Increment(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	v, err := store.Increment(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	v, err = store.Increment(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)
}

func TestMemoryStore_Expire(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	now := time.Now()
	store.SetClock(func() time.Time { return now })

	require.NoError(t, store.SetWithTTL(ctx, "k", "v", time.Minute))
	require.NoError(t, store.Expire(ctx, "k", time.Hour))

	// Past the original TTL but inside the refreshed one.
	store.SetClock(func() time.Time { return now.Add(30 * time.Minute) })

	_, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
}
