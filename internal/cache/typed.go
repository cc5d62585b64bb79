// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"
)

// TypedCache stores JSON-encoded values of one type on top of a Cacher.
// Concurrent misses for the same key share a single load, which keeps
// bursts of identical geocoder or Places lookups to one upstream call.
type TypedCache[T any] struct {
	backend Cacher
	ttl     time.Duration
	group   singleflight.Group
}

// NewTypedCache wraps backend. ttl applies to every stored value.
func NewTypedCache[T any](backend Cacher, ttl time.Duration) *TypedCache[T] {
	return &TypedCache[T]{backend: backend, ttl: ttl}
}

// Get returns the cached value for key. Undecodable entries are evicted
// and reported as a miss.
func (c *TypedCache[T]) Get(ctx context.Context, key string) (*T, bool) {
	data, err := c.backend.Get(ctx, key)
	if err != nil {
		return nil, false
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		slog.Debug("evicting undecodable cache entry", "key", key, "error", err)
		_ = c.backend.Delete(ctx, key)
		return nil, false
	}
	return &v, true
}

// Set stores v under key.
func (c *TypedCache[T]) Set(ctx context.Context, key string, v *T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.backend.Set(ctx, key, data, c.ttl)
}

// Delete removes key.
func (c *TypedCache[T]) Delete(ctx context.Context, key string) error {
	return c.backend.Delete(ctx, key)
}

// GetOrSet returns the cached value for key or runs load and caches its
// result. Errors from load are returned and never cached. A failed write
// still returns the loaded value.
func (c *TypedCache[T]) GetOrSet(ctx context.Context, key string, load func() (*T, error)) (*T, error) {
	if v, ok := c.Get(ctx, key); ok {
		return v, nil
	}

	res, err, _ := c.group.Do(key, func() (any, error) {
		v, err := load()
		if err != nil {
			return nil, err
		}
		if err := c.Set(ctx, key, v); err != nil {
			slog.Debug("cache write failed", "key", key, "error", err)
		}
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return res.(*T), nil
}
