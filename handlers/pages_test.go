// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/yorticia/yorticia-site/models"
	"github.com/yorticia/yorticia-site/pages"
)

func newPageHandler(t *testing.T, env *testEnv) *PageHandler {
	t.Helper()
	renderer, err := pages.New(env.cfg.SiteURL)
	if err != nil {
		t.Fatalf("Failed to load pages: %v", err)
	}
	return NewPageHandler(renderer, env.gallery, env.calendar)
}

func TestPages(t *testing.T) {
	env := setupEnv(t)
	handler := newPageHandler(t, env)
	handler.now = func() time.Time { return time.UnixMilli(1717000000000) }

	env.uploadImage(t, "editorial", "Spring editorial", "May 2024")
	start := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Hour)
	syncEvents(t, env, models.Event{ID: "casting", Title: "Open casting", Start: start, End: start.Add(time.Hour), Status: "confirmed"})

	tests := []struct {
		name           string
		path           string
		category       string
		serve          func(http.ResponseWriter, *http.Request)
		expectedStatus int
		contains       string
	}{
		{"home", "/", "", handler.Home, http.StatusOK, "Editorial"},
		{"about", "/about", "", handler.About, http.StatusOK, "About"},
		{"portfolio", "/portfolio", "", handler.Portfolio, http.StatusOK, "Swimwear"},
		{"category", "/portfolio/editorial", "editorial", handler.Category, http.StatusOK, "Spring editorial"},
		{"unknown category", "/portfolio/weddings", "weddings", handler.Category, http.StatusNotFound, "Not found"},
		{"contact", "/contact", "", handler.Contact, http.StatusOK, `name="started_at" value="1717000000000"`},
		{"calendar", "/calendar", "", handler.Calendar, http.StatusOK, "Open casting"},
		{"subscribe", "/subscribe", "", handler.Subscribe, http.StatusOK, "Subscribe"},
		{"not found", "/missing", "", handler.NotFound, http.StatusNotFound, "Not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.category != "" {
				req.SetPathValue("category", tt.category)
			}
			w := httptest.NewRecorder()

			tt.serve(w, req)

			if w.Code != tt.expectedStatus {
				t.Fatalf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if !strings.Contains(w.Body.String(), tt.contains) {
				t.Errorf("Expected page to contain %q", tt.contains)
			}
		})
	}
}

func TestPagesCacheControl(t *testing.T) {
	env := setupEnv(t)
	handler := newPageHandler(t, env)

	tests := []struct {
		name      string
		serve     func(http.ResponseWriter, *http.Request)
		wantCache string
	}{
		{"contact form is per visitor", handler.Contact, "no-store"},
		{"about is shared", handler.About, pages.CacheControl},
		{"subscribe is shared", handler.Subscribe, pages.CacheControl},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.serve(w, httptest.NewRequest("GET", "/", nil))

			if got := w.Header().Get("Cache-Control"); got != tt.wantCache {
				t.Errorf("Expected Cache-Control %q, got %q", tt.wantCache, got)
			}
		})
	}
}
