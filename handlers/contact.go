// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/yorticia/yorticia-site/contact"
	"github.com/yorticia/yorticia-site/middleware"
	"github.com/yorticia/yorticia-site/models"
	"github.com/yorticia/yorticia-site/validation"
)

const contactThanks = "Thanks! Your message is on its way."

type ContactHandler struct {
	contact *contact.Service
}

func NewContactHandler(c *contact.Service) *ContactHandler {
	return &ContactHandler{contact: c}
}

// Submit handles POST /api/contact (JSON or form-encoded)
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	req, err := parseContact(w, r)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	_, err = h.contact.Submit(r.Context(), req, contact.Meta{
		IP:        middleware.GetClientIP(r),
		UserAgent: r.UserAgent(),
	})

	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		middleware.ErrorResponse(w, http.StatusBadRequest, verr.Error())
		return
	case errors.Is(err, contact.ErrTooManyLinks):
		middleware.ErrorResponse(w, http.StatusUnprocessableEntity, "Please include at most 3 links")
		return
	case errors.Is(err, contact.ErrEmailFailed):
		middleware.ErrorResponse(w, http.StatusBadGateway, "Your message was saved but could not be delivered right now")
		return
	case err != nil:
		slog.Error("failed to submit contact message", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to send message")
		return
	}

	// Spam that was dropped gets the same answer as a delivered message
	middleware.JSONResponse(w, http.StatusOK, models.ContactResponse{Message: contactThanks})
}

func parseContact(w http.ResponseWriter, r *http.Request) (models.ContactRequest, error) {
	var req models.ContactRequest

	if !isForm(r) {
		err := middleware.ParseJSONBody(r, &req)
		return req, err
	}

	r.Body = http.MaxBytesReader(w, r.Body, middleware.MaxJSONBody)
	if err := r.ParseForm(); err != nil {
		return req, err
	}
	req.Name = r.PostFormValue("name")
	req.Email = r.PostFormValue("email")
	req.Subject = r.PostFormValue("subject")
	req.Message = r.PostFormValue("message")
	req.Website = r.PostFormValue("website")
	if v := r.PostFormValue("started_at"); v != "" {
		startedAt, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return req, err
		}
		req.StartedAt = startedAt
	}
	return req, nil
}

// isForm reports a URL-encoded form post
func isForm(r *http.Request) bool {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mediaType == "application/x-www-form-urlencoded"
}
