// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/yorticia/yorticia-site/cache"
	"github.com/yorticia/yorticia-site/calendar"
	"github.com/yorticia/yorticia-site/cliparse"
	"github.com/yorticia/yorticia-site/contact"
	"github.com/yorticia/yorticia-site/docstore"
	"github.com/yorticia/yorticia-site/gallery"
	"github.com/yorticia/yorticia-site/mailer"
	"github.com/yorticia/yorticia-site/models"
	"github.com/yorticia/yorticia-site/objstore"
	"github.com/yorticia/yorticia-site/subscribe"
	"github.com/yorticia/yorticia-site/testutil"
)

// testEnv holds the services behind the handlers under test
type testEnv struct {
	cfg       cliparse.Config
	db        *sql.DB
	store     *docstore.Store
	bucket    *objstore.MemoryBucket
	mail      *mailer.Recorder
	provider  *calendar.StaticProvider
	gallery   *gallery.Service
	contact   *contact.Service
	subscribe *subscribe.Service
	calendar  *calendar.Service
	syncer    *calendar.Syncer
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := testutil.GetTestConfig()
	conn := testutil.SetupTestDB(t)
	store := docstore.New(conn)
	bucket := objstore.NewMemory(cfg.StoragePublicURL)
	mail := &mailer.Recorder{}
	provider := calendar.NewStaticProvider()
	calendarCache := cache.New("calendar", time.Minute)

	return &testEnv{
		cfg:       cfg,
		db:        conn,
		store:     store,
		bucket:    bucket,
		mail:      mail,
		provider:  provider,
		gallery:   gallery.NewService(store, bucket, cache.New("gallery", time.Minute)),
		contact:   contact.NewService(store, mail, cfg),
		subscribe: subscribe.NewService(store, mail, cfg),
		calendar:  calendar.NewService(store, calendarCache),
		syncer:    calendar.NewSyncer(store, provider, calendarCache, cfg.CalendarID),
	}
}

// uploadImage stores a small PNG in the gallery
func (e *testEnv) uploadImage(t *testing.T, category, title, dateRange string) models.Image {
	t.Helper()

	img, err := e.gallery.Upload(context.Background(), gallery.UploadInput{
		Category:  category,
		Title:     title,
		DateRange: dateRange,
		Data:      testutil.PNG(t, 4, 3),
	})
	if err != nil {
		t.Fatalf("Failed to upload test image: %v", err)
	}
	return img
}

// newJSONRequest builds a request with a JSON body; string bodies are sent raw
func newJSONRequest(t *testing.T, method, path string, body interface{}) *http.Request {
	t.Helper()

	var data []byte
	if str, ok := body.(string); ok {
		data = []byte(str)
	} else {
		var err error
		data, err = json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}
