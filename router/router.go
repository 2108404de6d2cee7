// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/yorticia/yorticia-site/auth"
	"github.com/yorticia/yorticia-site/cache"
	"github.com/yorticia/yorticia-site/calendar"
	"github.com/yorticia/yorticia-site/cliparse"
	"github.com/yorticia/yorticia-site/contact"
	"github.com/yorticia/yorticia-site/docstore"
	"github.com/yorticia/yorticia-site/gallery"
	"github.com/yorticia/yorticia-site/handlers"
	"github.com/yorticia/yorticia-site/mailer"
	"github.com/yorticia/yorticia-site/metrics"
	"github.com/yorticia/yorticia-site/middleware"
	"github.com/yorticia/yorticia-site/objstore"
	"github.com/yorticia/yorticia-site/pages"
	"github.com/yorticia/yorticia-site/subscribe"
)

const (
	galleryCacheTTL  = 10 * time.Minute
	calendarCacheTTL = 5 * time.Minute

	loginRateLimit  = 10
	loginRateWindow = 15 * time.Minute
)

// Services is everything the HTTP layer needs
type Services struct {
	Config    cliparse.Config
	Gallery   *gallery.Service
	Contact   *contact.Service
	Subscribe *subscribe.Service
	Calendar  *calendar.Service
	Syncer    *calendar.Syncer // nil without a calendar provider
	Sessions  *auth.SessionManager
	Google    *auth.GoogleLogin // nil without OAuth credentials
	Pages     *pages.Renderer
}

// NewServices wires the domain services over one database. provider may be nil.
func NewServices(db *sql.DB, cfg cliparse.Config, bucket objstore.Bucket, mail mailer.Mailer, provider calendar.Provider) (*Services, error) {
	store := docstore.New(db)
	galleryCache := cache.New("gallery", galleryCacheTTL)
	calendarCache := cache.New("calendar", calendarCacheTTL)

	sessions, err := auth.NewSessionManager(cfg.SessionSecret)
	if err != nil {
		return nil, err
	}
	renderer, err := pages.New(cfg.SiteURL)
	if err != nil {
		return nil, fmt.Errorf("failed to load pages: %w", err)
	}

	s := &Services{
		Config:    cfg,
		Gallery:   gallery.NewService(store, bucket, galleryCache),
		Contact:   contact.NewService(store, mail, cfg),
		Subscribe: subscribe.NewService(store, mail, cfg),
		Calendar:  calendar.NewService(store, calendarCache),
		Sessions:  sessions,
		Google:    auth.NewGoogleLogin(cfg),
		Pages:     renderer,
	}
	if provider != nil {
		s.Syncer = calendar.NewSyncer(store, provider, calendarCache, cfg.CalendarID)
	}
	return s, nil
}

func NewRouter(s *Services) *http.ServeMux {
	mux := http.NewServeMux()
	log := middleware.WithLogging
	admin := middleware.RequireAdmin(s.Sessions)

	// Initialize handlers
	galleryHandler := handlers.NewGalleryHandler(s.Gallery)
	contactHandler := handlers.NewContactHandler(s.Contact)
	subscribeHandler := handlers.NewSubscribeHandler(s.Subscribe)
	calendarHandler := handlers.NewCalendarHandler(s.Calendar)
	sessionHandler := handlers.NewSessionHandler(s.Config, s.Sessions, s.Google)
	adminHandler := handlers.NewAdminHandler(s.Gallery, s.Contact, s.Subscribe, s.Syncer)
	pageHandler := handlers.NewPageHandler(s.Pages, s.Gallery, s.Calendar)

	contactLimit := limitByClientIP(s.Config.ContactRateLimit, s.Config.ContactRateWindow, func() {
		metrics.RecordContactSubmission(metrics.ContactRejected)
	})
	subscribeLimit := limitByClientIP(s.Config.ContactRateLimit, s.Config.ContactRateWindow, nil)
	loginLimit := limitByClientIP(loginRateLimit, loginRateWindow, nil)

	// Health check and metrics
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", metrics.Handler())

	// Public pages
	mux.HandleFunc("GET /{$}", log(pageHandler.Home))
	mux.HandleFunc("GET /about", log(pageHandler.About))
	mux.HandleFunc("GET /portfolio", log(pageHandler.Portfolio))
	mux.HandleFunc("GET /portfolio/{category}", log(pageHandler.Category))
	mux.HandleFunc("GET /contact", log(pageHandler.Contact))
	mux.HandleFunc("GET /calendar", log(pageHandler.Calendar))
	mux.HandleFunc("GET /subscribe", log(pageHandler.Subscribe))
	mux.Handle("GET /static/", pages.Static())

	// Public API
	mux.HandleFunc("GET /api/gallery", log(galleryHandler.Categories))
	mux.HandleFunc("GET /api/gallery/{category}", log(galleryHandler.List))
	mux.HandleFunc("GET /api/gallery/{category}/{id}", log(galleryHandler.Get))
	mux.HandleFunc("POST /api/contact", log(contactLimit(contactHandler.Submit)))
	mux.HandleFunc("POST /api/subscribe", log(subscribeLimit(subscribeHandler.Subscribe)))
	mux.HandleFunc("GET /api/unsubscribe", log(subscribeHandler.Unsubscribe))
	mux.HandleFunc("GET /api/calendar", log(calendarHandler.Month))
	mux.HandleFunc("GET /api/calendar/upcoming", log(calendarHandler.Upcoming))

	// Admin sessions
	mux.HandleFunc("POST /admin/login", log(loginLimit(sessionHandler.Login)))
	mux.HandleFunc("POST /admin/logout", log(sessionHandler.Logout))
	mux.HandleFunc("GET /admin/oauth/login", log(sessionHandler.OAuthLogin))
	mux.HandleFunc("GET /admin/oauth/callback", log(loginLimit(sessionHandler.OAuthCallback)))
	mux.HandleFunc("GET /admin/me", log(admin(sessionHandler.Me)))

	// Admin management
	mux.HandleFunc("POST /admin/images", log(admin(adminHandler.UploadImage)))
	mux.HandleFunc("PATCH /admin/images/{id}", log(admin(adminHandler.UpdateImage)))
	mux.HandleFunc("DELETE /admin/images/{id}", log(admin(adminHandler.DeleteImage)))
	mux.HandleFunc("POST /admin/images/bulk-delete", log(admin(adminHandler.BulkDelete)))
	mux.HandleFunc("PUT /admin/images/{id}/pin", log(admin(adminHandler.SetPinned)))
	mux.HandleFunc("GET /admin/messages", log(admin(adminHandler.Messages)))
	mux.HandleFunc("GET /admin/subscribers", log(admin(adminHandler.Subscribers)))
	mux.HandleFunc("GET /admin/subscribers.csv", log(admin(adminHandler.SubscribersCSV)))
	mux.HandleFunc("POST /admin/calendar/sync", log(admin(adminHandler.SyncCalendar)))

	// Everything else
	mux.HandleFunc("GET /", log(pageHandler.NotFound))

	return mux
}

// Handler wraps the router with the site-wide middleware
func Handler(s *Services) http.Handler {
	mux := middleware.ClientIP(s.Config.TrustedProxies)(NewRouter(s))
	return middleware.SecurityHeaders(middleware.CORS(s.Config.SiteURL)(mux))
}

// limitByClientIP allows limit requests per window per client IP. onLimit
// runs before the 429 is written.
func limitByClientIP(limit int, window time.Duration, onLimit func()) func(http.HandlerFunc) http.HandlerFunc {
	limiter := httprate.NewRateLimiter(limit, window,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			return middleware.GetClientIP(r), nil
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			if onLimit != nil {
				onLimit()
			}
			middleware.ErrorResponse(w, http.StatusTooManyRequests, "Too many requests, please try again later")
		}),
	)

	return func(next http.HandlerFunc) http.HandlerFunc {
		return limiter.Handler(next).ServeHTTP
	}
}
