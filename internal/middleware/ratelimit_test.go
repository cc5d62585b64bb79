// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestWriteAPIError(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteAPIError(rr, http.StatusBadRequest, "validation_error", "Invalid input", map[string]string{"email": "required"})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var body APIError
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != "validation_error" || body.Error.Message != "Invalid input" {
		t.Errorf("body = %+v", body)
	}
	if body.Error.Details["email"] != "required" {
		t.Errorf("details = %v", body.Error.Details)
	}
}

func TestLimiterCache(t *testing.T) {
	lc := newLimiterCache[string](1, 1)

	if lc.get("a") != lc.get("a") {
		t.Error("same key should return the same limiter")
	}
	now := time.Now()
	lc.now = func() time.Time { return now }
	lc.get("b")
	if lc.size() != 2 {
		t.Errorf("size = %d, want 2", lc.size())
	}

	now = now.Add(5 * time.Minute)
	lc.get("b")
	now = now.Add(6 * time.Minute)
	if n := lc.prune(limiterIdle); n != 1 {
		t.Errorf("pruned %d, want 1", n)
	}
	if lc.size() != 1 {
		t.Errorf("size after prune = %d, want 1", lc.size())
	}
}

func TestLimiterCacheFullDropsIdleFirst(t *testing.T) {
	lc := newLimiterCache[string](1, 1)
	lc.max = 2
	now := time.Now()
	lc.now = func() time.Time { return now }

	lc.get("old")
	now = now.Add(time.Hour)
	active := lc.get("active")
	lc.get("new")

	if lc.size() != 2 {
		t.Fatalf("size = %d, want 2", lc.size())
	}
	if lc.get("active") != active {
		t.Error("active client lost its bucket")
	}
}

func TestRateLimiterMiddleware(t *testing.T) {
	rl := NewRateLimiter(0.001, 3)
	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/properties", nil)
		req.RemoteAddr = ip + ":1234"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr.Code
	}

	for i := range 3 {
		if code := send("198.51.100.1"); code != http.StatusOK {
			t.Fatalf("request %d = %d, want 200", i+1, code)
		}
	}
	if code := send("198.51.100.1"); code != http.StatusTooManyRequests {
		t.Errorf("over limit = %d, want 429", code)
	}
	if code := send("198.51.100.2"); code != http.StatusOK {
		t.Errorf("other IP = %d, want 200", code)
	}
}
