// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/yorticia/yorticia-site/calendar"
	"github.com/yorticia/yorticia-site/contact"
	"github.com/yorticia/yorticia-site/gallery"
	"github.com/yorticia/yorticia-site/middleware"
	"github.com/yorticia/yorticia-site/models"
	"github.com/yorticia/yorticia-site/subscribe"
	"github.com/yorticia/yorticia-site/validation"
)

// Multipart overhead allowed on top of the image itself
const uploadOverhead = 1 << 20

// AdminHandler serves the authenticated management API
type AdminHandler struct {
	gallery   *gallery.Service
	contact   *contact.Service
	subscribe *subscribe.Service
	syncer    *calendar.Syncer
}

// syncer may be nil when no calendar is configured
func NewAdminHandler(g *gallery.Service, c *contact.Service, s *subscribe.Service, syncer *calendar.Syncer) *AdminHandler {
	return &AdminHandler{gallery: g, contact: c, subscribe: s, syncer: syncer}
}

// UploadImage handles POST /admin/images (multipart: file, category, title, alt, date_range)
func (h *AdminHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, gallery.MaxUploadSize+uploadOverhead)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			middleware.ErrorResponse(w, http.StatusRequestEntityTooLarge, gallery.ErrFileTooLarge.Error())
			return
		}
		middleware.ErrorResponse(w, http.StatusBadRequest, "Expected a multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, _, err := r.FormFile("file")
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, gallery.MaxUploadSize+1))
	if err != nil {
		slog.Error("failed to read upload", "error", err)
		middleware.ErrorResponse(w, http.StatusBadRequest, "Failed to read file")
		return
	}

	img, err := h.gallery.Upload(r.Context(), gallery.UploadInput{
		Category:  r.FormValue("category"),
		Title:     r.FormValue("title"),
		Alt:       r.FormValue("alt"),
		DateRange: r.FormValue("date_range"),
		Data:      data,
	})
	if err != nil {
		writeGalleryError(w, err, "Failed to upload image")
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, img)
}

// UpdateImage handles PATCH /admin/images/{id}
func (h *AdminHandler) UpdateImage(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateImageRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := validation.Struct(&req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	img, err := h.gallery.Update(r.Context(), r.PathValue("id"), gallery.UpdateInput{
		Title:     req.Title,
		Alt:       req.Alt,
		DateRange: req.DateRange,
		Category:  req.Category,
	})
	if err != nil {
		writeGalleryError(w, err, "Failed to update image")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, img)
}

// DeleteImage handles DELETE /admin/images/{id}
func (h *AdminHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	if err := h.gallery.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeGalleryError(w, err, "Failed to delete image")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BulkDelete handles POST /admin/images/bulk-delete. A failure part way
// answers 500 and still lists the images that were removed.
func (h *AdminHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	var req models.BulkDeleteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := validation.Struct(&req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.gallery.BulkDelete(r.Context(), req.IDs)
	if err != nil {
		slog.Error("bulk delete failed", "requested", len(req.IDs), "deleted", len(result.Deleted), "error", err)
		middleware.JSONResponse(w, http.StatusInternalServerError, models.BulkDeleteResponse{
			Error:    http.StatusText(http.StatusInternalServerError),
			Message:  fmt.Sprintf("Bulk delete stopped part way after %d images; retry the remaining ones", len(result.Deleted)),
			Deleted:  result.Deleted,
			NotFound: result.NotFound,
		})
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.BulkDeleteResponse{
		Deleted:  result.Deleted,
		NotFound: result.NotFound,
	})
}

// SetPinned handles PUT /admin/images/{id}/pin. A version conflict answers
// 409 with the current image so the client can undo its optimistic toggle.
func (h *AdminHandler) SetPinned(w http.ResponseWriter, r *http.Request) {
	var req models.SetPinnedRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := validation.Struct(&req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	img, err := h.gallery.SetPinned(r.Context(), r.PathValue("id"), req.Pinned, req.ExpectedVersion)
	if errors.Is(err, gallery.ErrVersionConflict) {
		middleware.JSONResponse(w, http.StatusConflict, img)
		return
	}
	if err != nil {
		writeGalleryError(w, err, "Failed to update image")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, img)
}

// Messages handles GET /admin/messages
func (h *AdminHandler) Messages(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.contact.List(r.Context())
	if err != nil {
		slog.Error("failed to list messages", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to load messages")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, msgs)
}

// Subscribers handles GET /admin/subscribers
func (h *AdminHandler) Subscribers(w http.ResponseWriter, r *http.Request) {
	subs, err := h.subscribe.List(r.Context())
	if err != nil {
		slog.Error("failed to list subscribers", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to load subscribers")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, subs)
}

// SubscribersCSV handles GET /admin/subscribers.csv
func (h *AdminHandler) SubscribersCSV(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="subscribers.csv"`)
	w.Header().Set("Cache-Control", "no-store")

	if err := h.subscribe.WriteCSV(r.Context(), w); err != nil {
		// Headers are already sent
		slog.Error("failed to export subscribers", "error", err)
	}
}

// SyncCalendar handles POST /admin/calendar/sync
func (h *AdminHandler) SyncCalendar(w http.ResponseWriter, r *http.Request) {
	if h.syncer == nil {
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "No calendar is configured")
		return
	}

	result, err := h.syncer.Sync(r.Context())
	if err != nil {
		slog.Error("manual calendar sync failed", "error", err)
		middleware.ErrorResponse(w, http.StatusBadGateway, "Calendar sync failed")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, result)
}

// writeGalleryError maps gallery errors to HTTP responses
func writeGalleryError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, gallery.ErrImageNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, "Image not found")
	case errors.Is(err, gallery.ErrFileTooLarge):
		middleware.ErrorResponse(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, gallery.ErrUnsupportedType):
		middleware.ErrorResponse(w, http.StatusUnsupportedMediaType, "Images must be JPEG, PNG, WebP or GIF")
	case errors.Is(err, gallery.ErrUnknownCategory),
		errors.Is(err, gallery.ErrEmptyFile),
		errors.Is(err, gallery.ErrTitleTooLong),
		errors.Is(err, gallery.ErrNothingToUpdate),
		errors.Is(err, gallery.ErrInvalidDateRange),
		errors.Is(err, gallery.ErrEmptyDateRange):
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("gallery request failed", "message", fallback, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, fallback)
	}
}
