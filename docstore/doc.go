// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package docstore is a small document database on top of database/sql.

Documents are JSON payloads addressed by (collection, id) and stored in the
document table created by package db. The API mirrors what the site needs
from a hosted document database:

	store := docstore.New(conn)
	images := store.Collection("images")

	err := images.Create(ctx, id, img)      // ErrAlreadyExists if taken
	doc, err := images.Get(ctx, id)         // ErrNotFound if missing
	err = doc.DataTo(&img)

# Transactions

	err := store.RunTransaction(ctx, func(tx *docstore.Tx) error {
		doc, err := tx.Get("images", id)
		...
		return tx.Update(doc, img)
	})

Tx.Update only writes when the row still carries the update time it was read
with. Otherwise it returns ErrConflict and RunTransaction runs the callback
again, up to MaxAttempts times, so read-modify-write callbacks must be safe
to repeat.

# Bulk Deletes

DeleteMany commits at most MaxBatchSize deletions per transaction and
returns the ids it removed, including on a partial failure.
*/
package docstore
