package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)

	cache, err := NewRedisCache(RedisConfig{Address: server.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = cache.Close()
	})
	return cache, server
}

func TestCacheRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	type payload struct {
		Code int `json:"code"`
	}

	require.NoError(t, cache.Set(ctx, "verify:a@b.c", payload{Code: 123456}, time.Minute))

	var got payload
	require.NoError(t, cache.Get(ctx, "verify:a@b.c", &got))
	assert.Equal(t, 123456, got.Code)
}

func TestCacheGetMissingKey(t *testing.T) {
	cache, _ := newTestCache(t)

	var got string
	err := cache.Get(context.Background(), "nope", &got)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCacheTTLExpiry(t *testing.T) {
	cache, server := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "code", 42, 10*time.Second))
	server.FastForward(11 * time.Second)

	var got int
	err := cache.Get(ctx, "code", &got)
	assert.ErrorIs(t, err, ErrNotFound, "expired keys behave like missing keys")
}

func TestCacheDeleteAndExists(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "k", "v", 0))

	exists, err := cache.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, cache.Delete(ctx, "k"))
	require.NoError(t, cache.Delete(ctx, "k"), "deleting an absent key is fine")

	exists, err = cache.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, exists)
}
