// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/olegiv/realty-go/internal/auth"
	"github.com/olegiv/realty-go/internal/cache"
	"github.com/olegiv/realty-go/internal/geo"
	"github.com/olegiv/realty-go/internal/mail"
	"github.com/olegiv/realty-go/internal/media"
	"github.com/olegiv/realty-go/internal/middleware"
	"github.com/olegiv/realty-go/internal/model"
	"github.com/olegiv/realty-go/internal/reviews"
	"github.com/olegiv/realty-go/internal/service"
	"github.com/olegiv/realty-go/internal/session"
	"github.com/olegiv/realty-go/internal/testutil"
)

const (
	testSecret   = "test-secret-that-is-long-enough-1234567890"
	testAdminKey = "test-admin-key"
)

type testServer struct {
	t       *testing.T
	db      *gorm.DB
	mail    *mail.Recorder
	tokens  *auth.TokenIssuer
	router  http.Handler
	uploads string
}

type serverOption func(*Deps)

func newTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()

	db := testutil.TestDB(t)
	rec := &mail.Recorder{}
	mailer, err := mail.NewMailer(rec, mail.Config{Brand: "Pacific Realty", FrontendURL: "http://front.test", AdminEmail: "admin@realty.test"})
	require.NoError(t, err)
	bg := service.NewBackground(context.Background())
	t.Cleanup(bg.Wait)

	cm := cache.NewManager(cache.NewSimpleMemoryCache(time.Minute))
	tokens := auth.NewTokenIssuer(testSecret, time.Hour)
	uploads := t.TempDir()

	pdfs := service.NewPDFService(db, uploads, "Pacific Realty")
	authSvc := service.NewAuthService(db, tokens, mailer, pdfs, bg)
	blogs := service.NewBlogService(db, nil)
	local, err := media.NewLocalStore(uploads, "http://api.test")
	require.NoError(t, err)

	d := Deps{
		Auth:       authSvc,
		Properties: service.NewPropertyService(db),
		Blogs:      blogs,
		Contacts:   service.NewContactService(db, mailer, bg),
		Visits:     service.NewVisitService(db, mailer, bg),
		VideoChats: service.NewVideoChatService(db, mailer, bg),
		Newsletter: service.NewNewsletterService(db, mailer, bg, service.NewsletterConfig{BackendURL: "http://api.test", BatchSize: 90}),
		Marketing:  service.NewMarketingService(db, mailer, pdfs, bg, "http://front.test"),
		PDFs:       pdfs,
		Content:    service.NewContentService(db, cm, time.Minute),
		Stats:      service.NewStatsService(db, blogs, authSvc),
		Events:     service.NewEventService(db),
		Media:      media.NewService(local),
		Geo:        geo.NewClient("http://127.0.0.1:1", "http://127.0.0.1:1", cm.Backend()),
		Reviews:    reviews.NewClient("", "", "", cm.Backend()),
		Sessions:   session.New(true),
		LoginProtection: middleware.NewLoginProtection(middleware.LoginProtectionConfig{
			IPRateLimit: 1000,
			IPBurst:     1000,
		}),
		FrontendURL: "http://front.test",
	}
	for _, o := range opts {
		o(&d)
	}

	r := chi.NewRouter()
	r.Use(middleware.NewAuthenticator(tokens, authSvc, testAdminKey).Authenticate)
	NewHandler(d).Routes(r)

	return &testServer{t: t, db: db, mail: rec, tokens: tokens, router: r, uploads: uploads}
}

// credential is how a request authenticates: a bearer token, the admin
// key or nothing.
type credential func(*http.Request)

func bearer(token string) credential {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func adminKey(r *http.Request) { r.Header.Set(middleware.AdminKeyHeader, testAdminKey) }

func (s *testServer) do(method, path string, body any, creds ...credential) *httptest.ResponseRecorder {
	s.t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(s.t, err)
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range creds {
		c(req)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) createUser(email, password, role string) (*model.User, string) {
	s.t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(s.t, err)
	u := &model.User{Email: email, FirstName: "Test", LastName: "User", Role: role, PasswordHash: &hash, IsEmailVerified: true}
	require.NoError(s.t, s.db.Create(u).Error)
	token, err := s.tokens.Issue(u.ID, u.Email, u.Role)
	require.NoError(s.t, err)
	return u, token
}

// envelope is the decoded success or error body.
type envelope struct {
	Data  json.RawMessage `json:"data"`
	Meta  map[string]int  `json:"meta"`
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func decodeData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &v), w.Body.String())
	return v
}

func TestSignupThenLogin(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/auth/signup", map[string]string{
		"email": "jane@example.com", "password": "supersecret", "firstName": "Jane", "lastName": "Doe",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	res := decodeData[service.AuthResult](t, w)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "jane@example.com", res.User.Email)

	w = s.do(http.MethodPost, "/auth/signup", map[string]string{
		"email": "jane@example.com", "password": "supersecret", "firstName": "Jane", "lastName": "Doe",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodPost, "/auth/login", credentials{Email: "jane@example.com", Password: "supersecret"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	login := decodeData[service.AuthResult](t, w)

	w = s.do(http.MethodGet, "/auth/profile", nil, bearer(login.Token))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Jane", decodeData[model.User](t, w).FirstName)

	w = s.do(http.MethodPost, "/auth/login", credentials{Email: "jane@example.com", Password: "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginLocksAccountAfterRepeatedFailures(t *testing.T) {
	s := newTestServer(t, func(d *Deps) {
		d.LoginProtection = middleware.NewLoginProtection(middleware.LoginProtectionConfig{
			IPRateLimit:       1000,
			IPBurst:           1000,
			MaxFailedAttempts: 3,
		})
	})
	s.createUser("bob@example.com", "correct-horse", model.RoleUser)

	bad := credentials{Email: "bob@example.com", Password: "wrong-password"}
	for range 2 {
		w := s.do(http.MethodPost, "/auth/login", bad)
		require.Equal(t, http.StatusUnauthorized, w.Code)
	}
	w := s.do(http.MethodPost, "/auth/login", bad)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// The right password is refused while locked.
	w = s.do(http.MethodPost, "/auth/login", credentials{Email: "BOB@example.com", Password: "correct-horse"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestAdminLoginRejectsRegularUser(t *testing.T) {
	s := newTestServer(t)
	s.createUser("user@example.com", "password123", model.RoleUser)
	s.createUser("boss@example.com", "password123", model.RoleAdmin)

	w := s.do(http.MethodPost, "/auth/admin/login", credentials{Email: "user@example.com", Password: "password123"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Admin access required", decodeEnvelope(t, w).Error.Message)

	w = s.do(http.MethodPost, "/auth/admin/login", credentials{Email: "boss@example.com", Password: "password123"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestForgotPasswordDoesNotRevealAccounts(t *testing.T) {
	s := newTestServer(t)
	s.createUser("known@example.com", "password123", model.RoleUser)

	known := s.do(http.MethodPost, "/auth/forgot-password", emailRequest{Email: "known@example.com"})
	unknown := s.do(http.MethodPost, "/auth/forgot-password", emailRequest{Email: "nobody@example.com"})

	assert.Equal(t, http.StatusOK, known.Code)
	assert.Equal(t, known.Code, unknown.Code)
	assert.JSONEq(t, known.Body.String(), unknown.Body.String())
}

func TestRouteGuards(t *testing.T) {
	s := newTestServer(t)
	_, userToken := s.createUser("user@example.com", "password123", model.RoleUser)
	_, adminToken := s.createUser("admin@example.com", "password123", model.RoleAdmin)

	tests := []struct {
		name   string
		method string
		path   string
		creds  []credential
		want   int
	}{
		{"profile needs a user", http.MethodGet, "/auth/profile", nil, http.StatusUnauthorized},
		{"profile with user token", http.MethodGet, "/auth/profile", []credential{bearer(userToken)}, http.StatusOK},
		{"admin route anonymous", http.MethodGet, "/admin/stats", nil, http.StatusUnauthorized},
		{"admin route with user token", http.MethodGet, "/admin/stats", []credential{bearer(userToken)}, http.StatusForbidden},
		{"admin route with admin token", http.MethodGet, "/admin/stats", []credential{bearer(adminToken)}, http.StatusOK},
		{"admin route with admin key", http.MethodGet, "/admin/stats", []credential{adminKey}, http.StatusOK},
		{"admin list refuses the key alone", http.MethodGet, "/auth/admins", []credential{adminKey}, http.StatusUnauthorized},
		{"admin list with admin token", http.MethodGet, "/auth/admins", []credential{bearer(adminToken)}, http.StatusOK},
		{"public properties", http.MethodGet, "/properties", nil, http.StatusOK},
		{"blog stats need admin", http.MethodGet, "/blogs/stats", nil, http.StatusUnauthorized},
		{"achievements all needs admin", http.MethodGet, "/achievements/all", nil, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(tt.method, tt.path, nil, tt.creds...)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestFavorites(t *testing.T) {
	s := newTestServer(t)
	_, token := s.createUser("fan@example.com", "password123", model.RoleUser)
	p := &model.Property{Title: "Sea View", Type: model.PropertyTypeVilla, Status: model.PropertyStatusForSale}
	require.NoError(t, s.db.Create(p).Error)
	path := "/auth/favorites/" + itoa(p.ID)

	assert.Equal(t, http.StatusCreated, s.do(http.MethodPost, path, nil, bearer(token)).Code)
	assert.Equal(t, http.StatusConflict, s.do(http.MethodPost, path, nil, bearer(token)).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPost, "/auth/favorites/9999", nil, bearer(token)).Code)

	w := s.do(http.MethodGet, "/auth/favorites", nil, bearer(token))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeData[[]model.Property](t, w), 1)

	assert.Equal(t, http.StatusOK, s.do(http.MethodPost, path+"/remove", nil, bearer(token)).Code)
	w = s.do(http.MethodGet, "/auth/favorites", nil, bearer(token))
	assert.Empty(t, decodeData[[]model.Property](t, w))
}

func TestDeleteAdmin(t *testing.T) {
	s := newTestServer(t)
	me, token := s.createUser("me@example.com", "password123", model.RoleAdmin)
	other, _ := s.createUser("other@example.com", "password123", model.RoleAdmin)

	w := s.do(http.MethodDelete, "/auth/admin/"+itoa(me.ID), nil, bearer(token))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodDelete, "/auth/admin/"+itoa(other.ID), nil, bearer(token))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGoogleSignIn(t *testing.T) {
	t.Run("start without configuration", func(t *testing.T) {
		s := newTestServer(t)
		w := s.do(http.MethodGet, "/auth/google", nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("callback with a bad state redirects with an error", func(t *testing.T) {
		s := newTestServer(t, func(d *Deps) {
			d.Google = auth.NewGoogleOAuth("client-id", "client-secret", "http://api.test/auth/google/callback")
		})
		w := s.do(http.MethodGet, "/auth/google/callback?state=forged&code=abc", nil)
		require.Equal(t, http.StatusFound, w.Code)

		loc, err := url.Parse(w.Header().Get("Location"))
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(loc.String(), "http://front.test/auth/callback?"))
		assert.NotEmpty(t, loc.Query().Get("error"))
		assert.Empty(t, loc.Query().Get("token"))
	})

	t.Run("start redirects to google", func(t *testing.T) {
		s := newTestServer(t, func(d *Deps) {
			d.Google = auth.NewGoogleOAuth("client-id", "client-secret", "http://api.test/auth/google/callback")
		})
		w := s.do(http.MethodGet, "/auth/google", nil)
		require.Equal(t, http.StatusFound, w.Code)
		loc, err := url.Parse(w.Header().Get("Location"))
		require.NoError(t, err)
		assert.NotEmpty(t, loc.Query().Get("state"))
		assert.NotEmpty(t, w.Header().Get("Set-Cookie"))
	})
}
