// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/olegiv/realty-go/internal/auth"
	"github.com/olegiv/realty-go/internal/model"
)

const testAdminKey = "k3y-For-The-Back-Office-0123456789"

type fakeUsers map[int64]*model.User

func (f fakeUsers) GetUser(_ context.Context, id int64) (*model.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, errors.New("not found")
}

func newTestAuthenticator(t *testing.T) (*Authenticator, *auth.TokenIssuer) {
	t.Helper()
	tokens := auth.NewTokenIssuer("test-secret-with-enough-length-1234567890", time.Hour)
	users := fakeUsers{
		1: {Base: model.Base{ID: 1}, Email: "admin@example.com", Role: model.RoleAdmin},
		2: {Base: model.Base{ID: 2}, Email: "buyer@example.com", Role: model.RoleUser},
	}
	return NewAuthenticator(tokens, users, testAdminKey), tokens
}

func issue(t *testing.T, tokens *auth.TokenIssuer, id int64, role string) string {
	t.Helper()
	tok, err := tokens.Issue(id, "x@example.com", role)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return tok
}

func TestGetUser(t *testing.T) {
	t.Run("no user in context", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if user := GetUser(req); user != nil {
			t.Errorf("GetUser() = %v, want nil", user)
		}
		if id := GetUserID(req); id != 0 {
			t.Errorf("GetUserID() = %d, want 0", id)
		}
		if GetUserIDPtr(req) != nil {
			t.Error("GetUserIDPtr() should be nil")
		}
	})

	t.Run("user in context", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		u := &model.User{Base: model.Base{ID: 123}, Email: "test@example.com"}
		req = req.WithContext(context.WithValue(req.Context(), ContextKeyUser, u))

		if got := GetUser(req); got == nil || got.ID != 123 {
			t.Fatalf("GetUser() = %v, want user 123", got)
		}
		if p := GetUserIDPtr(req); p == nil || *p != 123 {
			t.Errorf("GetUserIDPtr() = %v, want 123", p)
		}
	})
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"Bearer abc", "abc"},
		{"bearer abc", "abc"},
		{"Basic abc", ""},
		{"Bearer", ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		if got := bearerToken(req); got != tt.want {
			t.Errorf("bearerToken(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

func TestAuthenticate(t *testing.T) {
	a, tokens := newTestAuthenticator(t)

	var seen *http.Request
	h := a.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r
	}))

	tests := []struct {
		name      string
		token     string
		adminKey  string
		wantUser  int64
		wantAdmin bool
	}{
		{name: "anonymous"},
		{name: "valid user token", token: issue(t, tokens, 2, model.RoleUser), wantUser: 2},
		{name: "admin token", token: issue(t, tokens, 1, model.RoleAdmin), wantUser: 1, wantAdmin: true},
		{name: "garbage token", token: "not-a-jwt"},
		{name: "unknown subject", token: issue(t, tokens, 99, model.RoleUser)},
		{name: "admin key", adminKey: testAdminKey, wantAdmin: true},
		{name: "wrong admin key", adminKey: "nope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			if tt.adminKey != "" {
				req.Header.Set(AdminKeyHeader, tt.adminKey)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			if got := GetUserID(seen); got != tt.wantUser {
				t.Errorf("user = %d, want %d", got, tt.wantUser)
			}
			if got := IsAdmin(seen); got != tt.wantAdmin {
				t.Errorf("IsAdmin = %v, want %v", got, tt.wantAdmin)
			}
		})
	}
}

func TestAdminKeyDisabledWhenEmpty(t *testing.T) {
	tokens := auth.NewTokenIssuer("test-secret-with-enough-length-1234567890", time.Hour)
	a := NewAuthenticator(tokens, fakeUsers{}, "")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(AdminKeyHeader, "")
	if a.validAdminKey(req) {
		t.Error("empty configured key must never match")
	}
}

func TestGuards(t *testing.T) {
	a, tokens := newTestAuthenticator(t)
	userToken := issue(t, tokens, 2, model.RoleUser)
	adminToken := issue(t, tokens, 1, model.RoleAdmin)

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	guards := map[string]func(http.Handler) http.Handler{
		"user":      RequireUser,
		"admin":     RequireAdmin,
		"admin-jwt": AdminJWTOnly,
	}

	tests := []struct {
		guard    string
		token    string
		adminKey string
		want     int
	}{
		{"user", "", "", http.StatusUnauthorized},
		{"user", userToken, "", http.StatusOK},
		{"user", adminToken, "", http.StatusOK},
		{"admin", "", "", http.StatusUnauthorized},
		{"admin", userToken, "", http.StatusForbidden},
		{"admin", adminToken, "", http.StatusOK},
		{"admin", "", testAdminKey, http.StatusOK},
		{"admin-jwt", "", testAdminKey, http.StatusUnauthorized},
		{"admin-jwt", userToken, "", http.StatusForbidden},
		{"admin-jwt", adminToken, "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.guard, func(t *testing.T) {
			h := a.Authenticate(guards[tt.guard](ok))
			req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			if tt.adminKey != "" {
				req.Header.Set(AdminKeyHeader, tt.adminKey)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d", rr.Code, tt.want)
			}
		})
	}
}
