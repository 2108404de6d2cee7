// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/yorticia/yorticia-site/gallery"
	"github.com/yorticia/yorticia-site/middleware"
)

type GalleryHandler struct {
	gallery *gallery.Service
}

func NewGalleryHandler(g *gallery.Service) *GalleryHandler {
	return &GalleryHandler{gallery: g}
}

// Categories handles GET /api/gallery
func (h *GalleryHandler) Categories(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.gallery.Categories(r.Context())
	if err != nil {
		slog.Error("failed to list categories", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to load gallery")
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=60")
	middleware.JSONResponse(w, http.StatusOK, summaries)
}

// List handles GET /api/gallery/{category}?sort=&from=&to=
func (h *GalleryHandler) List(w http.ResponseWriter, r *http.Request) {
	order, err := gallery.ParseOrder(r.URL.Query().Get("sort"))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "sort must be newest, oldest or title")
		return
	}

	images, err := h.gallery.List(r.Context(), gallery.ListOptions{
		Category: r.PathValue("category"),
		Order:    order,
		From:     r.URL.Query().Get("from"),
		To:       r.URL.Query().Get("to"),
	})
	switch {
	case errors.Is(err, gallery.ErrUnknownCategory):
		middleware.ErrorResponse(w, http.StatusNotFound, "Category not found")
		return
	case errors.Is(err, gallery.ErrInvalidDateRange), errors.Is(err, gallery.ErrEmptyDateRange):
		middleware.ErrorResponse(w, http.StatusBadRequest, "from and to must be dates like \"May 2024\"")
		return
	case err != nil:
		slog.Error("failed to list images", "category", r.PathValue("category"), "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to load gallery")
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=60")
	middleware.JSONResponse(w, http.StatusOK, images)
}

// Get handles GET /api/gallery/{category}/{id}
func (h *GalleryHandler) Get(w http.ResponseWriter, r *http.Request) {
	category := r.PathValue("category")
	img, err := h.gallery.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, gallery.ErrImageNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Image not found")
		return
	}
	if err != nil {
		slog.Error("failed to get image", "image_id", r.PathValue("id"), "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to load image")
		return
	}

	// The image must live under the requested category
	if category != gallery.CategoryAll && img.Category != category {
		middleware.ErrorResponse(w, http.StatusNotFound, "Image not found")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, img)
}
