// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/yorticia/yorticia-site/calendar"
	"github.com/yorticia/yorticia-site/gallery"
	"github.com/yorticia/yorticia-site/pages"
)

// PageHandler renders the public HTML pages
type PageHandler struct {
	pages    *pages.Renderer
	gallery  *gallery.Service
	calendar *calendar.Service
	now      func() time.Time
}

func NewPageHandler(p *pages.Renderer, g *gallery.Service, c *calendar.Service) *PageHandler {
	return &PageHandler{pages: p, gallery: g, calendar: c, now: time.Now}
}

// Home handles GET /{$}
func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.gallery.Categories(r.Context())
	if err != nil {
		h.serverError(w, "home", err)
		return
	}
	events, err := h.calendar.Upcoming(r.Context(), 3)
	if err != nil {
		slog.Warn("failed to load upcoming events", "error", err)
	}

	h.pages.Render(w, http.StatusOK, "home", pages.Data{
		Description: "Portfolio of Yorticia: editorial, commercial, swimwear and fitness modeling.",
		Active:      "home",
		Content:     h.pages.Content("bio"),
		Categories:  summaries,
		Events:      events,
	})
}

// About handles GET /about
func (h *PageHandler) About(w http.ResponseWriter, r *http.Request) {
	h.pages.Render(w, http.StatusOK, "about", pages.Data{
		Title:   "About",
		Active:  "about",
		Content: h.pages.Content("about"),
	})
}

// Portfolio handles GET /portfolio
func (h *PageHandler) Portfolio(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.gallery.Categories(r.Context())
	if err != nil {
		h.serverError(w, "portfolio", err)
		return
	}
	h.pages.Render(w, http.StatusOK, "portfolio", pages.Data{
		Title:      "Portfolio",
		Active:     "portfolio",
		Categories: summaries,
	})
}

// Category handles GET /portfolio/{category}
func (h *PageHandler) Category(w http.ResponseWriter, r *http.Request) {
	category, err := gallery.LookupCategory(r.PathValue("category"))
	if errors.Is(err, gallery.ErrUnknownCategory) {
		h.NotFound(w, r)
		return
	}

	order, err := gallery.ParseOrder(r.URL.Query().Get("sort"))
	if err != nil {
		order = gallery.OrderNewest
	}

	images, err := h.gallery.List(r.Context(), gallery.ListOptions{Category: category.Slug, Order: order})
	if err != nil {
		h.serverError(w, "category", err)
		return
	}

	h.pages.Render(w, http.StatusOK, "category", pages.Data{
		Title:       category.Title,
		Description: category.Description,
		Active:      "portfolio",
		Category:    category,
		Images:      images,
	})
}

// Contact handles GET /contact
func (h *PageHandler) Contact(w http.ResponseWriter, r *http.Request) {
	h.pages.Render(w, http.StatusOK, "contact", pages.Data{
		Title:     "Contact",
		Active:    "contact",
		StartedAt: h.now().UnixMilli(),
	})
}

// Calendar handles GET /calendar
func (h *PageHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	events, err := h.calendar.Upcoming(r.Context(), calendar.MaxUpcoming)
	if err != nil {
		h.serverError(w, "calendar", err)
		return
	}
	h.pages.Render(w, http.StatusOK, "calendar", pages.Data{
		Title:  "Calendar",
		Active: "calendar",
		Events: events,
	})
}

// Subscribe handles GET /subscribe
func (h *PageHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	h.pages.Render(w, http.StatusOK, "subscribe", pages.Data{
		Title:  "Subscribe",
		Active: "subscribe",
	})
}

// NotFound renders the 404 page
func (h *PageHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.pages.Render(w, http.StatusNotFound, "notfound", pages.Data{Title: "Not found"})
}

func (h *PageHandler) serverError(w http.ResponseWriter, page string, err error) {
	slog.Error("failed to load page data", "page", page, "error", err)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}
