// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

// GoogleProfile is the subset of Google's userinfo response used for sign-in.
type GoogleProfile struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
}

// GoogleOAuth runs the authorization-code flow against Google.
type GoogleOAuth struct {
	config      *oauth2.Config
	userInfoURL string
	http        *resty.Client
}

// NewGoogleOAuth creates a Google OAuth client.
func NewGoogleOAuth(clientID, clientSecret, callbackURL string) *GoogleOAuth {
	return &GoogleOAuth{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL: googleUserInfoURL,
		http:        resty.New().SetTimeout(15 * time.Second),
	}
}

// AuthCodeURL returns the consent page URL carrying state.
func (g *GoogleOAuth) AuthCodeURL(state string) string {
	return g.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the authorization code for a token and fetches the
// user's profile.
func (g *GoogleOAuth) Exchange(ctx context.Context, code string) (*GoogleProfile, error) {
	tok, err := g.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging code: %w", err)
	}

	var profile GoogleProfile
	r, err := g.http.R().
		SetContext(ctx).
		SetAuthToken(tok.AccessToken).
		SetResult(&profile).
		Get(g.userInfoURL)
	if err != nil {
		return nil, fmt.Errorf("fetching userinfo: %w", err)
	}
	if r.IsError() {
		return nil, fmt.Errorf("fetching userinfo: status %d", r.StatusCode())
	}
	if profile.Email == "" || profile.Subject == "" {
		return nil, errors.New("google profile has no email")
	}
	return &profile, nil
}
