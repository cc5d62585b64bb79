// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"container/list"
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryCache is an in-process LRU cache with per-entry expiry. It backs
// single-instance deployments and tests.
type MemoryCache struct {
	mu      sync.Mutex
	items   map[string]*list.Element
	lru     *list.List // front is most recently used
	ttl     time.Duration
	maxSize int // 0 = unbounded
	bytes   int64
	closed  bool
	stop    chan struct{}
	now     func() time.Time

	hits, misses, sets int64
}

type memoryEntry struct {
	key       string
	value     []byte
	expiresAt time.Time
}

// MemoryCacheOptions configures the memory cache.
type MemoryCacheOptions struct {
	DefaultTTL      time.Duration
	MaxSize         int           // entries; 0 = unbounded
	CleanupInterval time.Duration // 0 = expire lazily only
}

// NewMemoryCache creates a memory cache.
func NewMemoryCache(opts MemoryCacheOptions) *MemoryCache {
	c := &MemoryCache{
		items:   make(map[string]*list.Element),
		lru:     list.New(),
		ttl:     opts.DefaultTTL,
		maxSize: opts.MaxSize,
		stop:    make(chan struct{}),
		now:     time.Now,
	}
	if opts.CleanupInterval > 0 {
		go c.janitor(opts.CleanupInterval)
	}
	return c
}

// NewSimpleMemoryCache creates an unbounded memory cache swept every minute.
func NewSimpleMemoryCache(ttl time.Duration) *MemoryCache {
	return NewMemoryCache(MemoryCacheOptions{DefaultTTL: ttl, CleanupInterval: time.Minute})
}

// Get returns a copy of the stored value.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrCacheClosed
	}

	e, ok := c.live(key)
	if !ok {
		c.misses++
		return nil, ErrCacheMiss
	}
	c.hits++
	c.lru.MoveToFront(e)
	return clone(e.Value.(*memoryEntry).value), nil
}

// Set stores a copy of value. A zero ttl uses the default.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrCacheClosed
	}
	if ttl == 0 {
		ttl = c.ttl
	}

	c.sets++
	expires := c.now().Add(ttl)
	if e, ok := c.items[key]; ok {
		ent := e.Value.(*memoryEntry)
		c.bytes += int64(len(value) - len(ent.value))
		ent.value, ent.expiresAt = clone(value), expires
		c.lru.MoveToFront(e)
		return nil
	}

	if c.maxSize > 0 && len(c.items) >= c.maxSize {
		c.pruneExpired()
		for len(c.items) >= c.maxSize {
			c.remove(c.lru.Back())
		}
	}
	c.items[key] = c.lru.PushFront(&memoryEntry{key: key, value: clone(value), expiresAt: expires})
	c.bytes += int64(len(value))
	return nil
}

// Delete removes key.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrCacheClosed
	}
	if e, ok := c.items[key]; ok {
		c.remove(e)
	}
	return nil
}

// DeleteByPrefix removes every key starting with prefix.
func (c *MemoryCache) DeleteByPrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrCacheClosed
	}
	for k, e := range c.items {
		if strings.HasPrefix(k, prefix) {
			c.remove(e)
		}
	}
	return nil
}

// Clear drops every entry.
func (c *MemoryCache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrCacheClosed
	}
	c.items = make(map[string]*list.Element)
	c.lru.Init()
	c.bytes = 0
	return nil
}

// Has reports whether key holds an unexpired value without touching its
// recency.
func (c *MemoryCache) Has(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false, ErrCacheClosed
	}
	_, ok := c.live(key)
	return ok, nil
}

// Ping fails only after Close.
func (c *MemoryCache) Ping(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrCacheClosed
	}
	return nil
}

// Close stops the janitor. It is safe to call more than once.
func (c *MemoryCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.stop)
	}
	return nil
}

// Stats implements StatsProvider.
func (c *MemoryCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Backend: "memory",
		Hits:    c.hits,
		Misses:  c.misses,
		Sets:    c.sets,
		Items:   len(c.items),
		HitRate: hitRate(c.hits, c.misses),
		Size:    c.bytes,
	}
}

// ResetStats implements StatsProvider.
func (c *MemoryCache) ResetStats() {
	c.mu.Lock()
	c.hits, c.misses, c.sets = 0, 0, 0
	c.mu.Unlock()
}

// live returns the element for key, dropping it if expired. Caller holds mu.
func (c *MemoryCache) live(key string) (*list.Element, bool) {
	e, ok := c.items[key]
	if !ok {
		return nil, false
	}
	if c.now().After(e.Value.(*memoryEntry).expiresAt) {
		c.remove(e)
		return nil, false
	}
	return e, true
}

// remove unlinks e. Caller holds mu.
func (c *MemoryCache) remove(e *list.Element) {
	ent := c.lru.Remove(e).(*memoryEntry)
	delete(c.items, ent.key)
	c.bytes -= int64(len(ent.value))
}

// pruneExpired drops expired entries. Caller holds mu.
func (c *MemoryCache) pruneExpired() {
	now := c.now()
	for e := c.lru.Back(); e != nil; {
		prev := e.Prev()
		if now.After(e.Value.(*memoryEntry).expiresAt) {
			c.remove(e)
		}
		e = prev
	}
}

func (c *MemoryCache) janitor(interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			c.mu.Lock()
			c.pruneExpired()
			c.mu.Unlock()
		case <-c.stop:
			return
		}
	}
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

var (
	_ Cacher        = (*MemoryCache)(nil)
	_ StatsProvider = (*MemoryCache)(nil)
)
