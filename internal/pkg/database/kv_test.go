package database

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalKV_GetSet(t *testing.T) {
	ctx := context.Background()
	kv := NewLocalKV(100, time.Hour)

	_, err := kv.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, kv.Set(ctx, "token:abc", "user-1", time.Minute))
	v, err := kv.Get(ctx, "token:abc")
	require.NoError(t, err)
	assert.Equal(t, "user-1", v)

	require.NoError(t, kv.Del(ctx, "token:abc"))
	_, err = kv.Get(ctx, "token:abc")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestLocalKV_PerKeyTTL(t *testing.T) {
	ctx := context.Background()
	kv := NewLocalKV(100, time.Hour)
	now := time.Now()
	kv.now = func() time.Time { return now }

	require.NoError(t, kv.Set(ctx, "short", "1", time.Second))
	require.NoError(t, kv.Set(ctx, "forever", "2", 0))

	now = now.Add(2 * time.Second)

	_, err := kv.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrCacheMiss)
	v, err := kv.Get(ctx, "forever")
	require.NoError(t, err)
	assert.Equal(t, "2", v)
}

func TestLocalKV_Sets(t *testing.T) {
	ctx := context.Background()
	kv := NewLocalKV(100, time.Hour)

	require.NoError(t, kv.SAdd(ctx, "user:1:tokens", time.Hour, "a", "b"))
	require.NoError(t, kv.SAdd(ctx, "user:1:tokens", time.Hour, "c"))
	require.NoError(t, kv.SRem(ctx, "user:1:tokens", "b"))

	members, err := kv.SMembers(ctx, "user:1:tokens")
	require.NoError(t, err)
	sort.Strings(members)
	assert.Equal(t, []string{"a", "c"}, members)

	empty, err := kv.SMembers(ctx, "user:2:tokens")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestCache_JSONRoundTrip(t *testing.T) {
	ctx := context.Background()
	cache := NewCache(NewLocalKV(10, time.Hour), "weather:", time.Minute)

	type reading struct {
		Temp float64 `json:"temp"`
	}

	var got reading
	found, err := cache.GetJSON(ctx, "12.97:77.59", &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, cache.SetJSON(ctx, "12.97:77.59", reading{Temp: 28.5}))
	found, err = cache.GetJSON(ctx, "12.97:77.59", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.InDelta(t, 28.5, got.Temp, 1e-9)

	require.NoError(t, cache.Delete(ctx, "12.97:77.59"))
	found, _ = cache.GetJSON(ctx, "12.97:77.59", &got)
	assert.False(t, found)
}

func TestLocalKV_RateLimit(t *testing.T) {
	ctx := context.Background()
	kv := NewLocalKV(100, time.Hour)
	now := time.Now()
	kv.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		ok, remaining, err := kv.RateLimit(ctx, "rl:1.2.3.4", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, int64(2-i), remaining)
	}

	ok, remaining, err := kv.RateLimit(ctx, "rl:1.2.3.4", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, remaining)

	now = now.Add(61 * time.Second)
	ok, _, err = kv.RateLimit(ctx, "rl:1.2.3.4", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "window resets")
}
