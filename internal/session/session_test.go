// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCookieSettings(t *testing.T) {
	dev := New(true)
	assert.False(t, dev.Cookie.Secure)
	assert.True(t, dev.Cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, dev.Cookie.SameSite)
	assert.Equal(t, Lifetime, dev.Lifetime)

	prod := New(false)
	assert.True(t, prod.Cookie.Secure)
}

func TestOAuthStateRoundTrip(t *testing.T) {
	sm := New(true)

	// First request stores the state and returns the session cookie.
	put := sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		PutOAuthState(r.Context(), sm, "abc123")
	}))
	rec := httptest.NewRecorder()
	put.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/google", nil))
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	check := func(state string) bool {
		var ok bool
		h := sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok = CheckOAuthState(r.Context(), sm, state)
		}))
		req := httptest.NewRequest(http.MethodGet, "/auth/google/callback", nil)
		for _, c := range cookies {
			req.AddCookie(c)
		}
		h.ServeHTTP(httptest.NewRecorder(), req)
		return ok
	}

	assert.False(t, check("wrong"), "mismatched state accepted")
	// The state was consumed by the failed attempt.
	assert.False(t, check("abc123"), "state reusable after check")
}

func TestOAuthStateMatches(t *testing.T) {
	sm := New(true)

	var ok bool
	h := sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		PutOAuthState(r.Context(), sm, "xyz")
		ok = CheckOAuthState(r.Context(), sm, "xyz")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, ok)
}
