// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for authentication,
// authorization, and request context handling.
package middleware

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/olegiv/realty-go/internal/auth"
	"github.com/olegiv/realty-go/internal/logging"
	"github.com/olegiv/realty-go/internal/model"
	"github.com/olegiv/realty-go/internal/util"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// Context keys for caller data.
const (
	ContextKeyUser     ContextKey = "user"
	ContextKeyAdminKey ContextKey = "admin_key"
)

// AdminKeyHeader carries the shared back-office secret.
const AdminKeyHeader = "X-Admin-Key"

// UserLoader loads the account behind a token subject.
type UserLoader interface {
	GetUser(ctx context.Context, id int64) (*model.User, error)
}

// Authenticator resolves the caller from a bearer token or the admin key.
type Authenticator struct {
	tokens   *auth.TokenIssuer
	users    UserLoader
	adminKey string
}

// NewAuthenticator creates an Authenticator. An empty adminKey disables
// the X-Admin-Key header.
func NewAuthenticator(tokens *auth.TokenIssuer, users UserLoader, adminKey string) *Authenticator {
	return &Authenticator{tokens: tokens, users: users, adminKey: adminKey}
}

// bearerToken returns the token of an "Authorization: Bearer" header.
func bearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func (a *Authenticator) validAdminKey(r *http.Request) bool {
	given := r.Header.Get(AdminKeyHeader)
	if a.adminKey == "" || given == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(given), []byte(a.adminKey)) == 1
}

// Authenticate loads the caller into the request context when a valid
// token or admin key is present. It never rejects a request; guards do.
func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if r.Header.Get(AdminKeyHeader) != "" {
			if a.validAdminKey(r) {
				ctx = context.WithValue(ctx, ContextKeyAdminKey, true)
			} else {
				slog.Warn("invalid admin key",
					logging.KeyCategory, model.EventCategoryAuth,
					logging.KeyIP, util.ClientIP(r),
					logging.KeyURL, r.URL.Path)
			}
		}

		if token := bearerToken(r); token != "" {
			if user := a.loadUser(ctx, token); user != nil {
				ctx = context.WithValue(ctx, ContextKeyUser, user)
			}
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *Authenticator) loadUser(ctx context.Context, token string) *model.User {
	claims, err := a.tokens.Parse(token)
	if err != nil {
		return nil
	}
	id, err := claims.UserID()
	if err != nil {
		return nil
	}
	user, err := a.users.GetUser(ctx, id)
	if err != nil {
		slog.Debug("token subject not loaded", "user_id", id, "error", err)
		return nil
	}
	return user
}

// GetUser retrieves the authenticated user from the request context.
// Returns nil if no user is in context.
func GetUser(r *http.Request) *model.User {
	user, _ := r.Context().Value(ContextKeyUser).(*model.User)
	return user
}

// GetUserID returns the authenticated user's ID, or 0.
func GetUserID(r *http.Request) int64 {
	if user := GetUser(r); user != nil {
		return user.ID
	}
	return 0
}

// GetUserIDPtr returns the authenticated user's ID as a pointer for event logging.
func GetUserIDPtr(r *http.Request) *int64 {
	if user := GetUser(r); user != nil {
		id := user.ID
		return &id
	}
	return nil
}

// HasAdminKey reports whether the request carried a valid admin key.
func HasAdminKey(r *http.Request) bool {
	ok, _ := r.Context().Value(ContextKeyAdminKey).(bool)
	return ok
}

// IsAdmin reports whether the caller is an admin by token or admin key.
func IsAdmin(r *http.Request) bool {
	if HasAdminKey(r) {
		return true
	}
	user := GetUser(r)
	return user != nil && user.IsAdmin()
}

// RequireUser rejects requests without a valid token.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetUser(r) == nil {
			WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Authentication required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin accepts an admin token or a valid admin key.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if IsAdmin(r) {
			next.ServeHTTP(w, r)
			return
		}
		denyAdmin(w, r)
	})
}

// AdminJWTOnly accepts an admin token and ignores the admin key.
func AdminJWTOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user := GetUser(r); user != nil && user.IsAdmin() {
			next.ServeHTTP(w, r)
			return
		}
		denyAdmin(w, r)
	})
}

func denyAdmin(w http.ResponseWriter, r *http.Request) {
	user := GetUser(r)
	if user == nil {
		WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Authentication required", nil)
		return
	}
	slog.Warn("access denied: admin required",
		logging.KeyCategory, model.EventCategoryAuth,
		logging.KeyUserID, user.ID,
		logging.KeyIP, util.ClientIP(r),
		logging.KeyURL, r.URL.Path)
	WriteAPIError(w, http.StatusForbidden, "forbidden", "Admin access required", nil)
}
