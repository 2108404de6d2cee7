// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/yorticia/yorticia-site/auth"
	"github.com/yorticia/yorticia-site/cliparse"
	"github.com/yorticia/yorticia-site/middleware"
	"github.com/yorticia/yorticia-site/models"
	"github.com/yorticia/yorticia-site/validation"
)

const stateTTL = 10 * time.Minute

// SessionHandler logs the admin in and out
type SessionHandler struct {
	cfg      cliparse.Config
	sessions *auth.SessionManager
	google   *auth.GoogleLogin
	secure   bool
}

// google may be nil when OAuth login is not configured
func NewSessionHandler(cfg cliparse.Config, sessions *auth.SessionManager, google *auth.GoogleLogin) *SessionHandler {
	return &SessionHandler{
		cfg:      cfg,
		sessions: sessions,
		google:   google,
		secure:   strings.HasPrefix(cfg.SiteURL, "https://"),
	}
}

// Login handles POST /admin/login
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := validation.Struct(&req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := auth.CheckCredentials(h.cfg.AdminUsername, h.cfg.AdminPasswordHash, req.Username, req.Password); err != nil {
		slog.Warn("admin login failed", "ip_hash", auth.HashIP(middleware.GetClientIP(r), h.cfg.UnsubscribeSalt))
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	token, expiresAt, err := h.sessions.Issue(req.Username, auth.MethodPassword)
	if err != nil {
		slog.Error("failed to issue session", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to log in")
		return
	}

	h.setSession(w, token, expiresAt)
	slog.Info("admin logged in", "subject", req.Username, "method", auth.MethodPassword)

	middleware.JSONResponse(w, http.StatusOK, models.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Subject:   req.Username,
	})
}

// Logout handles POST /admin/logout
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /admin/me
func (h *SessionHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.AdminFromContext(r.Context())
	if !ok {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Admin login required")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.MeResponse{
		Subject: claims.Subject,
		Method:  claims.Method,
	})
}

// OAuthLogin handles GET /admin/oauth/login
func (h *SessionHandler) OAuthLogin(w http.ResponseWriter, r *http.Request) {
	if h.google == nil {
		middleware.ErrorResponse(w, http.StatusNotFound, "Google login is not enabled")
		return
	}

	state, err := auth.GenerateState()
	if err != nil {
		slog.Error("failed to generate oauth state", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to start login")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.StateCookie,
		Value:    state,
		Path:     "/admin/oauth",
		MaxAge:   int(stateTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.google.AuthCodeURL(state), http.StatusFound)
}

// OAuthCallback handles GET /admin/oauth/callback
func (h *SessionHandler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	if h.google == nil {
		middleware.ErrorResponse(w, http.StatusNotFound, "Google login is not enabled")
		return
	}

	cookie, err := r.Cookie(auth.StateCookie)
	state := r.URL.Query().Get("state")
	if err != nil || state == "" || subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(state)) != 1 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid login state")
		return
	}
	http.SetCookie(w, &http.Cookie{Name: auth.StateCookie, Path: "/admin/oauth", MaxAge: -1})

	if e := r.URL.Query().Get("error"); e != "" {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Google login was cancelled")
		return
	}

	email, err := h.google.Exchange(r.Context(), r.URL.Query().Get("code"))
	switch {
	case errors.Is(err, auth.ErrNotAdmin), errors.Is(err, auth.ErrEmailNotVerified):
		slog.Warn("google login rejected", "error", err)
		middleware.ErrorResponse(w, http.StatusForbidden, "This account cannot manage the site")
		return
	case err != nil:
		slog.Error("google login failed", "error", err)
		middleware.ErrorResponse(w, http.StatusBadGateway, "Google login failed")
		return
	}

	token, expiresAt, err := h.sessions.Issue(email, auth.MethodGoogle)
	if err != nil {
		slog.Error("failed to issue session", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to log in")
		return
	}

	h.setSession(w, token, expiresAt)
	slog.Info("admin logged in", "subject", email, "method", auth.MethodGoogle)
	http.Redirect(w, r, "/admin/me", http.StatusFound)
}

func (h *SessionHandler) setSession(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
