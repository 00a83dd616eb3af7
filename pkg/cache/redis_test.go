package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/platinummonkey/cssprep/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupRedisCache creates a miniredis instance and a cache connected to it
func setupRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	c, err := NewRedisCache(context.Background(), config.CacheConfig{
		RedisURL: "redis://" + mr.Addr(),
		TTL:      time.Hour,
	})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	return c, mr
}

func TestRedisCache_GetSet(t *testing.T) {
	ctx := context.Background()
	c, mr := setupRedisCache(t)

	_, err := c.Get(ctx, testKey("main.styl"))
	assert.ErrorIs(t, err, ErrCacheMiss)

	entry := &Entry{OutputName: "main.css", Compiled: "body{}"}
	require.NoError(t, c.Set(ctx, testKey("main.styl"), entry))

	redisKey := redisKeyPrefix + testKey("main.styl").String()
	assert.True(t, mr.Exists(redisKey))
	assert.Equal(t, time.Hour, mr.TTL(redisKey))

	got, err := c.Get(ctx, testKey("main.styl"))
	require.NoError(t, err)
	assert.Equal(t, entry, got)

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestRedisCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c, mr := setupRedisCache(t)

	require.NoError(t, c.Set(ctx, testKey("a"), &Entry{Compiled: "x"}))
	mr.FastForward(2 * time.Hour)

	_, err := c.Get(ctx, testKey("a"))
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCache_CorruptData(t *testing.T) {
	ctx := context.Background()
	c, mr := setupRedisCache(t)

	redisKey := redisKeyPrefix + testKey("a").String()
	require.NoError(t, mr.Set(redisKey, "{not json"))

	_, err := c.Get(ctx, testKey("a"))
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.False(t, mr.Exists(redisKey), "corrupt entry is dropped")
}

func TestNewRedisCache_Errors(t *testing.T) {
	_, err := NewRedisCache(context.Background(), config.CacheConfig{RedisURL: "not a url"})
	assert.Error(t, err)

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err = NewRedisCache(context.Background(), config.CacheConfig{RedisURL: "redis://" + addr})
	assert.ErrorIs(t, err, ErrCacheUnavailable)
}
