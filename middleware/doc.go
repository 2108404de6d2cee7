// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs completion (status, duration_ms) and records the request in the
Prometheus metrics under the matched route pattern.

# Admin Sessions

	admin := middleware.RequireAdmin(sessions)
	mux.HandleFunc("GET /admin/me", middleware.WithLogging(admin(h.Me)))

The session token is read from the admin_session cookie or an
Authorization: Bearer header. AdminFromContext returns its claims.

# CORS and Security Headers

	handler := middleware.SecurityHeaders(middleware.CORS(cfg.SiteURL)(mux))

CORS only answers for the listed origins.

# JSON Helpers

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")

	var req models.SubscribeRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

# Client IP Extraction

	handler = middleware.ClientIP(cfg.TrustedProxies)(mux)
	ip := middleware.GetClientIP(r)

The address is the TCP peer unless that peer is a configured trusted proxy.
Used for rate limiting and the hashed IP stored with contact messages.
*/
package middleware
