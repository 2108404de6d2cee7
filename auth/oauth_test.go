// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/yorticia/yorticia-site/cliparse"
)

// fakeGoogle serves a token endpoint and a userinfo endpoint
func fakeGoogle(t *testing.T, info userInfo) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.Form.Get("code") != "good-code" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "access-123",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("GET /userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(info)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestLogin(srv *httptest.Server) *GoogleLogin {
	return &GoogleLogin{
		config: &oauth2.Config{
			ClientID:     "client",
			ClientSecret: "secret",
			Endpoint: oauth2.Endpoint{
				AuthURL:   srv.URL + "/auth",
				TokenURL:  srv.URL + "/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
			RedirectURL: "https://yorticia.test/admin/oauth/callback",
			Scopes:      []string{"openid", "email"},
		},
		allowed:     []string{"yorticia@example.com"},
		userInfoURL: srv.URL + "/userinfo",
	}
}

func TestNewGoogleLogin_Disabled(t *testing.T) {
	require.Nil(t, NewGoogleLogin(cliparse.Config{}))

	var g *GoogleLogin
	_, err := g.Exchange(context.Background(), "code")
	require.ErrorIs(t, err, ErrOAuthDisabled)
}

func TestGoogleLogin_AuthCodeURL(t *testing.T) {
	g := NewGoogleLogin(cliparse.Config{
		GoogleClientID:     "client",
		GoogleClientSecret: "secret",
		SiteURL:            "https://yorticia.test",
	})
	require.NotNil(t, g)

	u := g.AuthCodeURL("state-xyz")
	require.True(t, strings.HasPrefix(u, "https://accounts.google.com/"))
	require.Contains(t, u, "state=state-xyz")
	require.Contains(t, u, "redirect_uri=https%3A%2F%2Fyorticia.test%2Fadmin%2Foauth%2Fcallback")
}

func TestGoogleLogin_Exchange(t *testing.T) {
	tests := []struct {
		name    string
		info    userInfo
		code    string
		want    string
		wantErr error
	}{
		{"allowed admin", userInfo{Email: "Yorticia@Example.com", EmailVerified: true}, "good-code", "yorticia@example.com", nil},
		{"unverified email", userInfo{Email: "yorticia@example.com"}, "good-code", "", ErrEmailNotVerified},
		{"not on allow list", userInfo{Email: "stranger@example.com", EmailVerified: true}, "good-code", "", ErrNotAdmin},
		{"bad code", userInfo{Email: "yorticia@example.com", EmailVerified: true}, "bad-code", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestLogin(fakeGoogle(t, tt.info))

			email, err := g.Exchange(context.Background(), tt.code)
			if tt.want == "" {
				require.Error(t, err)
				if tt.wantErr != nil {
					require.ErrorIs(t, err, tt.wantErr)
				}
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, email)
		})
	}
}
