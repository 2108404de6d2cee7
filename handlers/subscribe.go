// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/yorticia/yorticia-site/auth"
	"github.com/yorticia/yorticia-site/middleware"
	"github.com/yorticia/yorticia-site/models"
	"github.com/yorticia/yorticia-site/subscribe"
	"github.com/yorticia/yorticia-site/validation"
)

type SubscribeHandler struct {
	subscribe *subscribe.Service
}

func NewSubscribeHandler(s *subscribe.Service) *SubscribeHandler {
	return &SubscribeHandler{subscribe: s}
}

var subscribeMessages = map[string]string{
	subscribe.StatusSubscribed:        "Thanks for subscribing!",
	subscribe.StatusAlreadySubscribed: "You're already subscribed.",
	subscribe.StatusResubscribed:      "Welcome back! You're subscribed again.",
}

// Subscribe handles POST /api/subscribe (JSON or form-encoded)
func (h *SubscribeHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req models.SubscribeRequest
	if isForm(r) {
		r.Body = http.MaxBytesReader(w, r.Body, middleware.MaxJSONBody)
		if err := r.ParseForm(); err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		req.Email = r.PostFormValue("email")
		req.Name = r.PostFormValue("name")
	} else if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	status, err := h.subscribe.Subscribe(r.Context(), req)
	var verr *validation.Error
	if errors.As(err, &verr) {
		middleware.ErrorResponse(w, http.StatusBadRequest, verr.Error())
		return
	}
	if err != nil {
		slog.Error("failed to subscribe", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to subscribe")
		return
	}

	code := http.StatusOK
	if status == subscribe.StatusSubscribed {
		code = http.StatusCreated
	}
	middleware.JSONResponse(w, code, models.SubscribeResponse{
		Status:  status,
		Message: subscribeMessages[status],
	})
}

// Unsubscribe handles GET /api/unsubscribe?email=&token=
func (h *SubscribeHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	token := r.URL.Query().Get("token")
	if email == "" || token == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "email and token are required")
		return
	}

	err := h.subscribe.Unsubscribe(r.Context(), email, token)
	switch {
	case errors.Is(err, auth.ErrInvalidUnsubscribeToken):
		middleware.ErrorResponse(w, http.StatusForbidden, "Invalid unsubscribe link")
		return
	case errors.Is(err, subscribe.ErrSubscriberNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, "Subscriber not found")
		return
	case err != nil:
		slog.Error("failed to unsubscribe", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to unsubscribe")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.SubscribeResponse{
		Status:  models.SubscriberUnsubscribed,
		Message: "You've been unsubscribed.",
	})
}
