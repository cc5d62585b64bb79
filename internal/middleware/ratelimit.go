// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/olegiv/realty-go/internal/util"
)

// APIError represents a JSON error response for the API.
type APIError struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details,omitempty"`
	} `json:"error"`
}

// WriteAPIError writes a JSON error response.
func WriteAPIError(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	apiErr := APIError{}
	apiErr.Error.Code = code
	apiErr.Error.Message = message
	apiErr.Error.Details = details

	_ = json.NewEncoder(w).Encode(apiErr)
}

// limiterCache keeps one token bucket per key and forgets keys that have
// been idle, so a scan from many addresses cannot grow it without bound.
type limiterCache[K comparable] struct {
	mu      sync.Mutex
	entries map[K]*limiterEntry
	rate    rate.Limit
	burst   int
	max     int
	now     func() time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLimiterCache[K comparable](rps float64, burst int) *limiterCache[K] {
	return &limiterCache[K]{
		entries: make(map[K]*limiterEntry),
		rate:    rate.Limit(rps),
		burst:   burst,
		max:     maxTrackedIPs,
		now:     time.Now,
	}
}

// get returns the limiter for key, creating it on first use. When the
// cache is full, entries idle for more than limiterIdle are dropped first.
func (lc *limiterCache[K]) get(key K) *rate.Limiter {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	now := lc.now()
	if e, ok := lc.entries[key]; ok {
		e.lastSeen = now
		return e.limiter
	}
	if len(lc.entries) >= lc.max {
		if lc.pruneLocked(now, limiterIdle) == 0 {
			// everyone is active; start over rather than refuse new clients
			slog.Info("rate limiter table full, resetting", "entries", len(lc.entries))
			lc.entries = make(map[K]*limiterEntry)
		}
	}
	e := &limiterEntry{limiter: rate.NewLimiter(lc.rate, lc.burst), lastSeen: now}
	lc.entries[key] = e
	return e.limiter
}

// prune drops entries unused for longer than idle and returns how many.
func (lc *limiterCache[K]) prune(idle time.Duration) int {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	return lc.pruneLocked(lc.now(), idle)
}

func (lc *limiterCache[K]) pruneLocked(now time.Time, idle time.Duration) int {
	n := 0
	for k, e := range lc.entries {
		if now.Sub(e.lastSeen) > idle {
			delete(lc.entries, k)
			n++
		}
	}
	return n
}

func (lc *limiterCache[K]) size() int {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	return len(lc.entries)
}

const (
	maxTrackedIPs = 10000
	limiterIdle   = 10 * time.Minute
)

// RateLimiter limits requests per client IP.
type RateLimiter struct {
	cache *limiterCache[string]
}

// NewRateLimiter creates a per-IP limiter allowing rps requests per second
// with the given burst.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{cache: newLimiterCache[string](rps, burst)}
}

// Allow reports whether a request from ip may proceed.
func (rl *RateLimiter) Allow(ip string) bool {
	return rl.cache.get(ip).Allow()
}

// Run forgets idle clients every interval until ctx is cancelled.
func (rl *RateLimiter) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := rl.cache.prune(limiterIdle); n > 0 {
				slog.Debug("pruned idle rate limiters", "count", n)
			}
		}
	}
}

// Middleware rejects requests over the limit with 429.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := util.ClientIP(r)
		if !rl.Allow(ip) {
			slog.Debug("rate limit exceeded", "ip", ip, "path", r.URL.Path)
			w.Header().Set("Retry-After", "1")
			WriteAPIError(w, http.StatusTooManyRequests, "rate_limit_exceeded", "Rate limit exceeded. Please slow down.", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
