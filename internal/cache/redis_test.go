// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	c, err := NewRedisCacheFromURL("redis://"+mr.Addr()+"/0", "test:", time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestRedisCache_Basic(t *testing.T) {
	c, mr := newTestRedisCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "reviews:google", []byte(`{"rating":4.9}`), 0))
	assert.True(t, mr.Exists("test:reviews:google"), "key stored with prefix")

	got, err := c.Get(ctx, "reviews:google")
	require.NoError(t, err)
	assert.JSONEq(t, `{"rating":4.9}`, string(got))

	has, err := c.Has(ctx, "reviews:google")
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, c.Delete(ctx, "reviews:google"))
	_, err = c.Get(ctx, "reviews:google")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCache_TTL(t *testing.T) {
	c, mr := newTestRedisCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "short", []byte("v"), 10*time.Second))
	assert.Equal(t, 10*time.Second, mr.TTL("test:short"))

	require.NoError(t, c.Set(ctx, "default", []byte("v"), 0))
	assert.Equal(t, time.Minute, mr.TTL("test:default"))

	mr.FastForward(11 * time.Second)
	_, err := c.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCache_DeleteByPrefixAndClear(t *testing.T) {
	c, mr := newTestRedisCache(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("other:untouched", "x"))
	for _, k := range []string{"content:about", "content:achievements", "geo:search:x"} {
		require.NoError(t, c.Set(ctx, k, []byte("v"), 0))
	}

	require.NoError(t, c.DeleteByPrefix(ctx, "content:"))
	assert.False(t, mr.Exists("test:content:about"))
	assert.False(t, mr.Exists("test:content:achievements"))
	assert.True(t, mr.Exists("test:geo:search:x"))

	require.NoError(t, c.Clear(ctx))
	assert.False(t, mr.Exists("test:geo:search:x"))
	assert.True(t, mr.Exists("other:untouched"), "Clear stays within prefix")
}

func TestRedisCache_StatsAndPing(t *testing.T) {
	c, _ := newTestRedisCache(t)
	ctx := context.Background()

	require.NoError(t, c.Ping(ctx))

	_ = c.Set(ctx, "a", []byte("1"), 0)
	_, _ = c.Get(ctx, "a")
	_, _ = c.Get(ctx, "b")

	s := c.Stats()
	assert.Equal(t, "redis", s.Backend)
	assert.Equal(t, int64(1), s.Hits)
	assert.Equal(t, int64(1), s.Misses)
	assert.Equal(t, 1, s.Items)
	assert.InDelta(t, 50.0, s.HitRate, 0.01)
}

func TestRedisCache_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	opts := DefaultRedisCacheOptions()
	opts.URL = "redis://" + addr
	opts.ConnectTimeout = 200 * time.Millisecond
	_, err := NewRedisCache(opts)
	assert.Error(t, err)
}

func TestRedisCache_RequiresURL(t *testing.T) {
	_, err := NewRedisCache(RedisCacheOptions{})
	assert.Error(t, err)
}
