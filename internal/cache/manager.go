// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Key namespaces.
const (
	NamespaceContent = "content:"
	NamespaceGeo     = "geo:"
	NamespaceReviews = "reviews:"
)

// Key builds a cache key from a namespace and parts joined by colons.
func Key(namespace string, parts ...any) string {
	var b strings.Builder
	b.WriteString(namespace)
	for i, p := range parts {
		if i > 0 {
			b.WriteByte(':')
		}
		fmt.Fprint(&b, p)
	}
	return b.String()
}

// Manager owns the shared backend and exposes namespace-level invalidation.
type Manager struct {
	backend Cacher
}

// NewManager wraps a backend.
func NewManager(backend Cacher) *Manager {
	return &Manager{backend: backend}
}

// Backend returns the underlying cache.
func (m *Manager) Backend() Cacher {
	return m.backend
}

// InvalidateContent drops cached public content for one resource, or all
// resources when resource is empty.
func (m *Manager) InvalidateContent(ctx context.Context, resource string) {
	prefix := NamespaceContent
	if resource != "" {
		prefix += resource
	}
	if err := m.backend.DeleteByPrefix(ctx, prefix); err != nil {
		slog.Warn("cache invalidation failed", "prefix", prefix, "error", err, "category", "cache")
	}
}

// ClearAll empties the cache and resets statistics.
func (m *Manager) ClearAll(ctx context.Context) error {
	if err := m.backend.Clear(ctx); err != nil {
		return err
	}
	if sp, ok := m.backend.(StatsProvider); ok {
		sp.ResetStats()
	}
	slog.Info("cache cleared", "category", "cache")
	return nil
}

// Stats returns backend statistics when available.
func (m *Manager) Stats() (Stats, bool) {
	sp, ok := m.backend.(StatsProvider)
	if !ok {
		return Stats{}, false
	}
	return sp.Stats(), true
}

// Ping checks the backend.
func (m *Manager) Ping(ctx context.Context) error {
	return m.backend.Ping(ctx)
}

// Close releases the backend.
func (m *Manager) Close() error {
	return m.backend.Close()
}
