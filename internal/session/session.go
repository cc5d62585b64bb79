// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session keeps short-lived browser state for the Google sign-in
// round trip.
package session

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
)

const oauthStateKey = "oauth_state"

// Lifetime bounds how long a sign-in attempt may take.
const Lifetime = 10 * time.Minute

// New creates a session manager with an in-memory store.
func New(isDev bool) *scs.SessionManager {
	sm := scs.New()
	sm.Store = memstore.NewWithCleanupInterval(time.Minute)

	sm.Lifetime = Lifetime
	sm.Cookie.Name = "realty_oauth"
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = !isDev // Secure cookies in production only
	sm.Cookie.Persist = false

	return sm
}

// PutOAuthState remembers the state sent to the identity provider.
func PutOAuthState(ctx context.Context, sm *scs.SessionManager, state string) {
	sm.Put(ctx, oauthStateKey, state)
}

// CheckOAuthState consumes the stored state and compares it with the one
// returned by the provider. A state can only be checked once.
func CheckOAuthState(ctx context.Context, sm *scs.SessionManager, state string) bool {
	stored := sm.PopString(ctx, oauthStateKey)
	if stored == "" || state == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(state)) == 1
}
