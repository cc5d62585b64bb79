// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/olegiv/realty-go/internal/auth"
	"github.com/olegiv/realty-go/internal/handler"
	"github.com/olegiv/realty-go/internal/logging"
	"github.com/olegiv/realty-go/internal/middleware"
	"github.com/olegiv/realty-go/internal/model"
	"github.com/olegiv/realty-go/internal/service"
	"github.com/olegiv/realty-go/internal/session"
	"github.com/olegiv/realty-go/internal/util"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type verifyRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type resetRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	h.signIn(w, r, h.auth.Login)
}

// AdminLogin handles POST /auth/admin/login.
func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	h.signIn(w, r, h.auth.AdminLogin)
}

// signIn runs a password login behind the per-account lockout.
func (h *Handler) signIn(w http.ResponseWriter, r *http.Request, login func(ctx context.Context, email, password string) (*service.AuthResult, error)) {
	var in credentials
	if !decode(w, r, &in) {
		return
	}

	if locked, remaining := h.loginGuard.IsAccountLocked(in.Email); locked {
		middleware.WriteLocked(w, remaining)
		return
	}

	res, err := login(r.Context(), in.Email, in.Password)
	if errors.Is(err, service.ErrUnauthorized) {
		slog.Warn("failed login",
			logging.KeyCategory, model.EventCategoryAuth,
			logging.KeyIP, util.ClientIP(r),
			"email", in.Email)
		if locked, d := h.loginGuard.RecordFailedAttempt(in.Email); locked {
			middleware.WriteLocked(w, d)
			return
		}
	}
	if err != nil {
		handler.WriteServiceError(w, r, err)
		return
	}

	h.loginGuard.RecordSuccessfulLogin(in.Email)
	slog.Info("user logged in",
		logging.KeyCategory, model.EventCategoryAuth,
		logging.KeyUserID, res.User.ID,
		logging.KeyIP, util.ClientIP(r))
	handler.WriteSuccess(w, res, nil)
}

// Signup handles POST /auth/signup.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var in service.SignupInput
	if !decode(w, r, &in) {
		return
	}
	res, err := h.auth.Signup(r.Context(), in)
	created(w, r, res, err)
}

// SendVerificationOTP handles POST /auth/send-verification-otp. The
// response never reveals whether the address is registered.
func (h *Handler) SendVerificationOTP(w http.ResponseWriter, r *http.Request) {
	var in emailRequest
	if !decode(w, r, &in) {
		return
	}
	if err := h.auth.SendVerificationOTP(r.Context(), in.Email); err != nil && !errors.Is(err, service.ErrInvalidInput) {
		slog.Error("sending verification code", "error", err)
	}
	handler.WriteSuccess(w, message{Message: "If the account exists, a verification code has been sent"}, nil)
}

// VerifyEmail handles POST /auth/verify-email.
func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var in verifyRequest
	if !decode(w, r, &in) {
		return
	}
	user, err := h.auth.VerifyEmail(r.Context(), in.Email, in.OTP)
	respond(w, r, user, err)
}

// ForgotPassword handles POST /auth/forgot-password.
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var in emailRequest
	if !decode(w, r, &in) {
		return
	}
	if err := h.auth.ForgotPassword(r.Context(), in.Email); err != nil && !errors.Is(err, service.ErrInvalidInput) {
		handler.WriteServiceError(w, r, err)
		return
	}
	handler.WriteSuccess(w, message{Message: "If the account exists, a reset code has been sent"}, nil)
}

// ResetPassword handles POST /auth/reset-password.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var in resetRequest
	if !decode(w, r, &in) {
		return
	}
	err := h.auth.ResetPassword(r.Context(), in.Email, in.OTP, in.NewPassword)
	respond(w, r, message{Message: "Password has been reset"}, err)
}

// ChangePassword handles POST /auth/change-password.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var in changePasswordRequest
	if !decode(w, r, &in) {
		return
	}
	err := h.auth.ChangePassword(r.Context(), middleware.GetUserID(r), in.CurrentPassword, in.NewPassword)
	respond(w, r, message{Message: "Password changed"}, err)
}

// Profile handles GET /auth/profile.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	handler.WriteSuccess(w, middleware.GetUser(r), nil)
}

// UpdateProfile handles PUT /auth/profile.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var in service.ProfileInput
	if !decode(w, r, &in) {
		return
	}
	user, err := h.auth.UpdateProfile(r.Context(), middleware.GetUserID(r), in)
	respond(w, r, user, err)
}

// ListFavorites handles GET /auth/favorites.
func (h *Handler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	props, err := h.auth.ListFavorites(r.Context(), middleware.GetUserID(r))
	respond(w, r, props, err)
}

// AddFavorite handles POST /auth/favorites/{propertyId}.
func (h *Handler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "propertyId")
	if !ok {
		return
	}
	err := h.auth.AddFavorite(r.Context(), middleware.GetUserID(r), id)
	created(w, r, message{Message: "Added to favorites"}, err)
}

// RemoveFavorite handles DELETE /auth/favorites/{propertyId}.
func (h *Handler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "propertyId")
	if !ok {
		return
	}
	err := h.auth.RemoveFavorite(r.Context(), middleware.GetUserID(r), id)
	respond(w, r, message{Message: "Removed from favorites"}, err)
}

// ListAdmins handles GET /auth/admins.
func (h *Handler) ListAdmins(w http.ResponseWriter, r *http.Request) {
	admins, err := h.auth.ListAdmins(r.Context())
	respond(w, r, admins, err)
}

// CreateAdmin handles POST /auth/admin/create.
func (h *Handler) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	var in service.SignupInput
	if !decode(w, r, &in) {
		return
	}
	user, err := h.auth.CreateAdmin(r.Context(), in)
	created(w, r, user, err)
}

// DeleteAdmin handles DELETE /auth/admin/{id}.
func (h *Handler) DeleteAdmin(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	deleted(w, r, "Admin", h.auth.DeleteAdmin(r.Context(), middleware.GetUserID(r), id))
}

// GoogleStart handles GET /auth/google.
func (h *Handler) GoogleStart(w http.ResponseWriter, r *http.Request) {
	if h.google == nil {
		handler.WriteError(w, http.StatusServiceUnavailable, "not_configured", "Google sign-in is not configured", nil)
		return
	}
	state, err := auth.RandomState()
	if err != nil {
		handler.WriteServiceError(w, r, err)
		return
	}
	session.PutOAuthState(r.Context(), h.sessions, state)
	http.Redirect(w, r, h.google.AuthCodeURL(state), http.StatusFound)
}

// GoogleCallback handles GET /auth/google/callback and always redirects
// back to the frontend.
func (h *Handler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	fail := func(msg string) {
		http.Redirect(w, r, h.callbackURL(url.Values{"error": {msg}}), http.StatusFound)
	}

	if h.google == nil {
		fail("Google sign-in is not configured")
		return
	}
	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		fail(e)
		return
	}
	if !session.CheckOAuthState(r.Context(), h.sessions, q.Get("state")) {
		slog.Warn("google sign-in state mismatch",
			logging.KeyCategory, model.EventCategoryAuth,
			logging.KeyIP, util.ClientIP(r))
		fail("Invalid sign-in state")
		return
	}

	profile, err := h.google.Exchange(r.Context(), q.Get("code"))
	if err != nil {
		slog.Warn("google code exchange failed", logging.KeyCategory, model.EventCategoryAuth, "error", err)
		fail("Google authentication failed")
		return
	}
	res, err := h.auth.LoginWithGoogle(r.Context(), profile)
	if err != nil {
		var se *service.Error
		if errors.As(err, &se) {
			fail(se.Message)
			return
		}
		slog.Error("google sign-in failed", "error", err)
		fail("Google authentication failed")
		return
	}

	user, err := json.Marshal(res.User)
	if err != nil {
		fail("Google authentication failed")
		return
	}
	http.Redirect(w, r, h.callbackURL(url.Values{
		"token":   {res.Token},
		"user":    {string(user)},
		"success": {"true"},
	}), http.StatusFound)
}

func (h *Handler) callbackURL(q url.Values) string {
	return strings.TrimRight(h.frontendURL, "/") + "/auth/callback?" + q.Encode()
}
