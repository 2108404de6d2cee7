// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/yorticia/yorticia-site/cliparse"
)

// StateCookie holds the OAuth state between redirect and callback
const StateCookie = "oauth_state"

const googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

var (
	ErrOAuthDisabled    = errors.New("google login is not configured")
	ErrEmailNotVerified = errors.New("google account email is not verified")
	ErrNotAdmin         = errors.New("account is not an administrator")
)

type userInfo struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
}

// GoogleLogin runs the authorization code flow and checks the account
// against the admin allow list
type GoogleLogin struct {
	config      *oauth2.Config
	allowed     []string
	userInfoURL string
}

// NewGoogleLogin returns nil when no client is configured
func NewGoogleLogin(cfg cliparse.Config) *GoogleLogin {
	if cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "" {
		return nil
	}
	return &GoogleLogin{
		config: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			Endpoint:     google.Endpoint,
			RedirectURL:  cfg.SiteURL + "/admin/oauth/callback",
			Scopes:       []string{"openid", "email"},
		},
		allowed:     cfg.AdminEmails,
		userInfoURL: googleUserInfoURL,
	}
}

// AuthCodeURL is where the browser is sent to sign in
func (g *GoogleLogin) AuthCodeURL(state string) string {
	return g.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the callback code for a token and returns the admin email
func (g *GoogleLogin) Exchange(ctx context.Context, code string) (string, error) {
	if g == nil {
		return "", ErrOAuthDisabled
	}

	tok, err := g.config.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("failed to exchange code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := g.config.Client(ctx, tok).Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch user info: status %d", resp.StatusCode)
	}

	var info userInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", fmt.Errorf("failed to decode user info: %w", err)
	}
	if !info.EmailVerified {
		return "", ErrEmailNotVerified
	}

	email := strings.ToLower(info.Email)
	if !slices.Contains(g.allowed, email) {
		return "", ErrNotAdmin
	}
	return email, nil
}
