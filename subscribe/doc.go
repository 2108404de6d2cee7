// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package subscribe manages newsletter subscribers. Subscribers are keyed by
// the SHA-256 of their normalized email, and unsubscribe links are signed
// with UNSUBSCRIBE_SALT so no token table is needed.
package subscribe
