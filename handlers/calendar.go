// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/yorticia/yorticia-site/calendar"
	"github.com/yorticia/yorticia-site/middleware"
)

type CalendarHandler struct {
	calendar *calendar.Service
	now      func() time.Time
}

func NewCalendarHandler(c *calendar.Service) *CalendarHandler {
	return &CalendarHandler{calendar: c, now: time.Now}
}

// Month handles GET /api/calendar?month=YYYY-MM (default: current month)
func (h *CalendarHandler) Month(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	if month == "" {
		month = h.now().Format("2006-01")
	}

	events, err := h.calendar.Month(r.Context(), month)
	if errors.Is(err, calendar.ErrInvalidMonth) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "month must be formatted YYYY-MM")
		return
	}
	if err != nil {
		slog.Error("failed to load calendar month", "month", month, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to load calendar")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, events)
}

// Upcoming handles GET /api/calendar/upcoming?limit=
func (h *CalendarHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	limit := 5
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > calendar.MaxUpcoming {
			middleware.ErrorResponse(w, http.StatusBadRequest, "limit must be between 1 and 50")
			return
		}
		limit = n
	}

	events, err := h.calendar.Upcoming(r.Context(), limit)
	if err != nil {
		slog.Error("failed to load upcoming events", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to load calendar")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, events)
}
