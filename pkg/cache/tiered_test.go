package cache

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTiered_BackfillsL1(t *testing.T) {
	ctx := context.Background()
	l1 := NewMemoryCache(10, time.Minute)
	l2, _ := setupRedisCache(t)
	logger, _ := test.NewNullLogger()
	tiered := NewTiered(l1, l2, logger)

	entry := &Entry{OutputName: "main.css", Compiled: "body{}"}
	require.NoError(t, l2.Set(ctx, testKey("main.styl"), entry))

	got, err := tiered.Get(ctx, testKey("main.styl"))
	require.NoError(t, err)
	assert.Equal(t, entry, got)

	local, err := l1.Get(ctx, testKey("main.styl"))
	require.NoError(t, err)
	assert.Equal(t, entry, local)
}

func TestTiered_SetWritesBoth(t *testing.T) {
	ctx := context.Background()
	l1 := NewMemoryCache(10, time.Minute)
	l2, _ := setupRedisCache(t)
	tiered := NewTiered(l1, l2, nil)

	require.NoError(t, tiered.Set(ctx, testKey("a"), &Entry{Compiled: "a"}))

	_, err := l1.Get(ctx, testKey("a"))
	assert.NoError(t, err)
	_, err = l2.Get(ctx, testKey("a"))
	assert.NoError(t, err)

	_, err = tiered.Get(ctx, testKey("missing"))
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestTiered_SharedFailureIsMiss(t *testing.T) {
	ctx := context.Background()
	l1 := NewMemoryCache(10, time.Minute)
	l2, mr := setupRedisCache(t)
	logger, hook := test.NewNullLogger()
	tiered := NewTiered(l1, l2, logger)

	mr.Close()

	_, err := tiered.Get(ctx, testKey("a"))
	assert.ErrorIs(t, err, ErrCacheMiss)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "Shared cache lookup failed", hook.LastEntry().Message)

	assert.NoError(t, tiered.Set(ctx, testKey("a"), &Entry{}), "shared store failure is not fatal")
	_, err = l1.Get(ctx, testKey("a"))
	assert.NoError(t, err)
}
