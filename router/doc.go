// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the Yorticia site.

# Wiring

NewServices builds the domain services over one database connection:

	services, err := router.NewServices(db, cfg, bucket, mailer, provider)
	server := &http.Server{Handler: router.Handler(services)}

A nil calendar provider disables the syncer and POST /admin/calendar/sync
answers 503. The gallery and calendar services get separate caches.

# Endpoints

Health and metrics:

	GET /health
	GET /metrics

Pages:

	GET /  /about  /portfolio  /portfolio/{category}  /contact  /calendar  /subscribe
	GET /static/...

Public API:

	GET  /api/gallery                    - Categories with counts
	GET  /api/gallery/{category}         - Images (sort, from, to)
	GET  /api/gallery/{category}/{id}    - One image
	POST /api/contact                    - Contact form (rate limited)
	POST /api/subscribe                  - Subscribe (rate limited)
	GET  /api/unsubscribe                - Unsubscribe link target
	GET  /api/calendar?month=YYYY-MM     - Month of events
	GET  /api/calendar/upcoming?limit=   - Next events

Admin (session required except login and OAuth):

	POST   /admin/login, /admin/logout
	GET    /admin/oauth/login, /admin/oauth/callback, /admin/me
	POST   /admin/images
	PATCH  /admin/images/{id}
	DELETE /admin/images/{id}
	POST   /admin/images/bulk-delete
	PUT    /admin/images/{id}/pin
	GET    /admin/messages, /admin/subscribers, /admin/subscribers.csv
	POST   /admin/calendar/sync

# Rate Limits

Contact and subscribe share CONTACT_RATE_LIMIT per CONTACT_RATE_WINDOW per
client IP. Login attempts are limited to 10 per 15 minutes.
*/
package router
