// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the SQL connection and creates the schema.

# Connecting

Open picks the driver from Config.DatabaseType:

  - postgres: github.com/lib/pq
  - sqlite: modernc.org/sqlite (pure Go, no cgo)

	conn, err := db.Open(cfg)

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

There is a single table, document, holding every collection of the
document store (see package docstore):

  - collection, id: composite primary key
  - data: JSON payload
  - created_at, updated_at: unix nanoseconds

Timestamps are integers so both drivers scan them the same way.
*/
package db
