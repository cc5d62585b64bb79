// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/olegiv/realty-go/internal/auth"
	"github.com/olegiv/realty-go/internal/mail"
	"github.com/olegiv/realty-go/internal/model"
	"github.com/olegiv/realty-go/internal/testutil"
)

const testSecret = "test-secret-that-is-long-enough-1234567890"

type testEnv struct {
	db     *gorm.DB
	mail   *mail.Recorder
	mailer *mail.Mailer
	bg     *Background
	tokens *auth.TokenIssuer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	rec := &mail.Recorder{}
	m, err := mail.NewMailer(rec, mail.Config{FrontendURL: "http://front.test", AdminEmail: "admin@realty.test"})
	require.NoError(t, err)
	bg := NewBackground(context.Background())
	t.Cleanup(bg.Wait)
	return &testEnv{
		db:     testutil.TestDB(t),
		mail:   rec,
		mailer: m,
		bg:     bg,
		tokens: auth.NewTokenIssuer(testSecret, time.Hour),
	}
}

func (e *testEnv) createUser(t *testing.T, email, password, role string, verified bool) *model.User {
	t.Helper()
	u := &model.User{Email: email, FirstName: "Test", LastName: "User", Role: role, IsEmailVerified: verified}
	if password != "" {
		hash, err := auth.HashPassword(password)
		require.NoError(t, err)
		u.PasswordHash = &hash
	}
	require.NoError(t, e.db.Create(u).Error)
	return u
}

func (e *testEnv) createProperty(t *testing.T, title, typ, status string, bedrooms int) *model.Property {
	t.Helper()
	p := &model.Property{Title: title, Type: typ, Status: status, Bedrooms: bedrooms, Price: 100000}
	require.NoError(t, e.db.Create(p).Error)
	return p
}
