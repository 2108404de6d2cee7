// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the Yorticia site server.

The server renders the public portfolio pages, serves the gallery, contact,
subscription and calendar APIs, and hosts the admin API used to manage
uploads.

# Starting the Server

	DATABASE_URL=site.db SESSION_SECRET=... UNSUBSCRIBE_SALT=... go run .

Or with flags:

	go run . -p 3318 -d "postgres://..." -t postgres

Generate the admin password hash:

	go run . hash-password

# Configuration

Required settings:

  - DATABASE_URL (-d): SQLite path or PostgreSQL connection string
  - SESSION_SECRET (--session-secret): admin session signing key, 32+ characters
  - UNSUBSCRIBE_SALT (--unsubscribe-salt): unsubscribe token secret

Optional integrations are enabled by their settings: S3_ENDPOINT for object
storage (in-memory otherwise), RESEND_API_KEY for email (logged otherwise),
GOOGLE_CALENDAR_ID for calendar sync, GOOGLE_CLIENT_ID for Google sign-in.
LOG_FORMAT=json switches logs to JSON.

# Architecture

  - handlers: HTTP request handlers (pages, gallery, contact, subscribe, calendar, admin)
  - router: Route definitions, service wiring and rate limits
  - middleware: CORS, logging, security headers, admin sessions, JSON helpers
  - gallery, contact, subscribe, calendar: domain services
  - docstore, objstore, cache: storage
  - auth, validation, mailer, pages, metrics: supporting packages
  - db: Connection and schema
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
