// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// fakeClock is a manually advanced time source.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func testLoginProtection(maxAttempts int, lockoutDuration, attemptWindow time.Duration) (*LoginProtection, *fakeClock) {
	lp := NewLoginProtection(LoginProtectionConfig{
		IPRateLimit:       10,
		IPBurst:           100,
		MaxFailedAttempts: maxAttempts,
		LockoutDuration:   lockoutDuration,
		AttemptWindow:     attemptWindow,
	})
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	lp.now = clock.now
	return lp, clock
}

func TestNewLoginProtectionDefaultValues(t *testing.T) {
	lp := NewLoginProtection(LoginProtectionConfig{})

	if lp.maxFailedAttempts != 5 {
		t.Errorf("maxFailedAttempts = %d, want 5 (default)", lp.maxFailedAttempts)
	}
	if lp.lockoutDuration != 15*time.Minute {
		t.Errorf("lockoutDuration = %v, want 15m (default)", lp.lockoutDuration)
	}
	if lp.attemptWindow != 15*time.Minute {
		t.Errorf("attemptWindow = %v, want 15m (default)", lp.attemptWindow)
	}
}

func TestLoginProtectionIsAccountLocked(t *testing.T) {
	lp, clock := testLoginProtection(3, time.Minute, time.Hour)
	email := "buyer@example.com"

	if locked, _ := lp.IsAccountLocked(email); locked {
		t.Error("Account should not be locked initially")
	}

	for range 3 {
		lp.RecordFailedAttempt(email)
	}

	locked, remaining := lp.IsAccountLocked(email)
	if !locked {
		t.Fatal("Account should be locked after max failed attempts")
	}
	if remaining != time.Minute {
		t.Errorf("remaining = %v, want 1m", remaining)
	}

	// Lookup is case-insensitive.
	if locked, _ := lp.IsAccountLocked("  Buyer@Example.com "); !locked {
		t.Error("lock should apply regardless of email case")
	}

	clock.advance(time.Minute + time.Second)
	if locked, _ := lp.IsAccountLocked(email); locked {
		t.Error("Account should be unlocked after lockout expires")
	}
}

func TestLoginProtectionRecordFailedAttempt(t *testing.T) {
	lp, _ := testLoginProtection(3, time.Minute, time.Hour)
	email := "buyer@example.com"

	for i := 1; i <= 2; i++ {
		if locked, _ := lp.RecordFailedAttempt(email); locked {
			t.Errorf("attempt %d should not lock account", i)
		}
	}

	locked, duration := lp.RecordFailedAttempt(email)
	if !locked {
		t.Error("Third attempt should lock account")
	}
	if duration != time.Minute {
		t.Errorf("duration = %v, want 1m", duration)
	}
}

func TestLoginProtectionRecordSuccessfulLogin(t *testing.T) {
	lp, _ := testLoginProtection(3, time.Minute, time.Minute)
	email := "buyer@example.com"

	lp.RecordFailedAttempt(email)
	lp.RecordFailedAttempt(email)
	lp.RecordSuccessfulLogin(email)

	if remaining := lp.GetRemainingAttempts(email); remaining != 3 {
		t.Errorf("GetRemainingAttempts() = %d, want 3", remaining)
	}
}

func TestLoginProtectionGetRemainingAttempts(t *testing.T) {
	lp, _ := testLoginProtection(5, time.Minute, time.Minute)
	email := "buyer@example.com"

	if remaining := lp.GetRemainingAttempts(email); remaining != 5 {
		t.Errorf("GetRemainingAttempts() = %d, want 5", remaining)
	}

	lp.RecordFailedAttempt(email)
	if remaining := lp.GetRemainingAttempts(email); remaining != 4 {
		t.Errorf("GetRemainingAttempts() = %d, want 4", remaining)
	}

	lp.RecordFailedAttempt(email)
	lp.RecordFailedAttempt(email)
	if remaining := lp.GetRemainingAttempts(email); remaining != 2 {
		t.Errorf("GetRemainingAttempts() = %d, want 2", remaining)
	}
}

func TestLoginProtectionExponentialBackoff(t *testing.T) {
	lp, clock := testLoginProtection(2, 10*time.Minute, time.Hour)
	email := "buyer@example.com"

	var durations []time.Duration
	for range 4 {
		lp.RecordFailedAttempt(email)
		locked, d := lp.RecordFailedAttempt(email)
		if !locked {
			t.Fatal("expected lockout")
		}
		durations = append(durations, d)
		clock.advance(d + time.Second)
	}

	want := []time.Duration{10 * time.Minute, 20 * time.Minute, 40 * time.Minute, 80 * time.Minute}
	for i := range want {
		if durations[i] != want[i] {
			t.Errorf("lockout %d = %v, want %v", i+1, durations[i], want[i])
		}
	}
}

func TestLoginProtectionLockoutCap(t *testing.T) {
	lp, clock := testLoginProtection(1, 10*time.Hour, time.Hour)
	email := "buyer@example.com"

	var last time.Duration
	for range 4 {
		_, last = lp.RecordFailedAttempt(email)
		// A first failure only opens the window when maxAttempts is 1.
		if last == 0 {
			_, last = lp.RecordFailedAttempt(email)
		}
		clock.advance(last + time.Second)
	}
	if last != maxLockout {
		t.Errorf("lockout = %v, want cap %v", last, maxLockout)
	}
}

func TestLoginProtectionAttemptWindowReset(t *testing.T) {
	lp, clock := testLoginProtection(5, time.Minute, time.Minute)
	email := "buyer@example.com"

	lp.RecordFailedAttempt(email)
	if remaining := lp.GetRemainingAttempts(email); remaining != 4 {
		t.Errorf("GetRemainingAttempts() = %d, want 4", remaining)
	}

	clock.advance(2 * time.Minute)
	if remaining := lp.GetRemainingAttempts(email); remaining != 5 {
		t.Errorf("GetRemainingAttempts() after window = %d, want 5", remaining)
	}
}

func TestLoginProtectionCleanup(t *testing.T) {
	lp, clock := testLoginProtection(5, time.Minute, time.Minute)

	lp.RecordFailedAttempt("old@example.com")
	clock.advance(2 * time.Minute)
	lp.RecordFailedAttempt("fresh@example.com")

	lp.cleanupStaleEntries()

	if _, ok := lp.failedAttempts["old@example.com"]; ok {
		t.Error("stale entry should be removed")
	}
	if _, ok := lp.failedAttempts["fresh@example.com"]; !ok {
		t.Error("fresh entry should be kept")
	}
}

func TestLoginProtectionMiddleware(t *testing.T) {
	lp := NewLoginProtection(LoginProtectionConfig{IPRateLimit: 0.001, IPBurst: 2})

	wrapped := lp.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(method string) int {
		req := httptest.NewRequest(method, "/auth/login", nil)
		req.RemoteAddr = "203.0.113.7:5000"
		rr := httptest.NewRecorder()
		wrapped.ServeHTTP(rr, req)
		return rr.Code
	}

	if code := send(http.MethodPost); code != http.StatusOK {
		t.Errorf("first POST = %d, want 200", code)
	}
	if code := send(http.MethodPost); code != http.StatusOK {
		t.Errorf("second POST = %d, want 200", code)
	}
	if code := send(http.MethodPost); code != http.StatusTooManyRequests {
		t.Errorf("third POST = %d, want 429", code)
	}
	if code := send(http.MethodGet); code != http.StatusOK {
		t.Errorf("GET = %d, want 200 (not limited)", code)
	}
}

func TestWriteLocked(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteLocked(rr, 90*time.Second)

	if rr.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", rr.Code)
	}
	if got := rr.Header().Get("Retry-After"); got != "90" {
		t.Errorf("Retry-After = %q, want 90", got)
	}
}
