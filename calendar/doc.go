// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package calendar mirrors the booking calendar from Google Calendar.

# Sync

Syncer.Sync reads the window from 30 days ago to 180 days ahead through a
Provider, upserts every event into the "events" collection and deletes
stored events in that window the provider no longer returns. The result is
recorded in the "sync_state" collection and the "calendar" cache tag is
invalidated. Syncer.Run repeats this on an interval.

GoogleProvider expands recurring events, follows page tokens and trips a
circuit breaker after three consecutive failures. Cancelled events are
skipped. StaticProvider serves fixed events for tests and local runs.

# Reading

Service.Month and Service.Upcoming read only from the store, never from
Google, and are cached until the next sync.
*/
package calendar
