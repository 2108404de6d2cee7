// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the Yorticia site.

# Handler Types

Each handler is a struct holding the services it calls:

  - PageHandler: server-rendered pages
  - GalleryHandler: public gallery API
  - ContactHandler: contact form (JSON or form-encoded)
  - SubscribeHandler: subscribe and unsubscribe
  - CalendarHandler: month and upcoming events
  - SessionHandler: admin login, logout and Google sign-in
  - AdminHandler: uploads, edits, deletes, pins, inbox and subscriber export

# Errors

Service errors map to statuses:

	validation.Error             → 400
	gallery.ErrImageNotFound     → 404
	gallery.ErrVersionConflict   → 409 (body is the current image)
	contact.ErrTooManyLinks      → 422
	contact.ErrEmailFailed       → 502
	auth.ErrInvalidUnsubscribeToken → 403

All error bodies are models.ErrorResponse written by middleware.ErrorResponse.
*/
package handlers
