// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON, with go-playground/validator tags:

  - LoginRequest: username, password
  - UpdateImageRequest: optional title, alt, date_range, category
  - BulkDeleteRequest: ids
  - SetPinnedRequest: pinned, expected_version
  - ContactRequest: name, email, subject, message, website (honeypot), started_at
  - SubscribeRequest: email, name

# Response Types

  - LoginResponse: token, expires_at, subject
  - BulkDeleteResponse: deleted, not_found
  - ContactResponse, SubscribeResponse, SyncResponse
  - ErrorResponse: error, message

# Domain Types

Documents stored in the document store:

  - Image: gallery image metadata (collection "images")
  - ContactMessage: contact form submission (collection "messages")
  - Subscriber: newsletter subscriber (collection "subscribers")
  - Event: synced calendar event (collection "events")
  - SyncState: last calendar sync (collection "sync_state")

Category and CategorySummary describe the fixed gallery categories.
*/
package models
