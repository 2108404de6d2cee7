// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound      = errors.New("document not found")
	ErrAlreadyExists = errors.New("document already exists")
	ErrConflict      = errors.New("document changed since it was read")
)

// MaxBatchSize caps the number of writes committed together by DeleteMany.
const MaxBatchSize = 500

// MaxAttempts is how many times RunTransaction runs its callback when a
// conditional write loses to a concurrent one.
const MaxAttempts = 5

// Document is one stored JSON document.
type Document struct {
	Collection string
	ID         string
	Data       json.RawMessage
	CreateTime time.Time
	UpdateTime time.Time
}

// DataTo decodes the document payload into v.
func (d *Document) DataTo(v any) error {
	if err := json.Unmarshal(d.Data, v); err != nil {
		return fmt.Errorf("failed to decode %s/%s: %w", d.Collection, d.ID, err)
	}
	return nil
}

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db  *sql.DB
	now func() time.Time
}

func New(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Collection returns a handle to the named collection. Collections exist
// implicitly; there is nothing to create.
func (s *Store) Collection(name string) *Collection {
	return &Collection{store: s, name: name}
}

// RunTransaction runs fn inside a single SQL transaction. Any error returned
// by fn rolls the transaction back and is returned unchanged. When fn fails
// with ErrConflict the whole callback is retried, up to MaxAttempts times.
func (s *Store) RunTransaction(ctx context.Context, fn func(tx *Tx) error) error {
	var err error
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		err = s.runOnce(ctx, fn)
		if !errors.Is(err, ErrConflict) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return err
}

func (s *Store) runOnce(ctx context.Context, fn func(tx *Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&Tx{ctx: ctx, tx: sqlTx, store: s}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type Collection struct {
	store *Store
	name  string
}

func (c *Collection) Name() string {
	return c.name
}

func (c *Collection) Get(ctx context.Context, id string) (*Document, error) {
	return getDoc(ctx, c.store.db, c.name, id)
}

// Create inserts a new document and fails with ErrAlreadyExists if the id is taken.
func (c *Collection) Create(ctx context.Context, id string, v any) error {
	return createDoc(ctx, c.store.db, c.name, id, v, c.store.now())
}

// Set writes the document, replacing any existing payload.
func (c *Collection) Set(ctx context.Context, id string, v any) error {
	return setDoc(ctx, c.store.db, c.name, id, v, c.store.now())
}

// Delete removes the document. Deleting a missing document is not an error.
func (c *Collection) Delete(ctx context.Context, id string) error {
	_, err := deleteDoc(ctx, c.store.db, c.name, id)
	return err
}

// List returns every document in the collection, oldest first.
func (c *Collection) List(ctx context.Context) ([]*Document, error) {
	rows, err := c.store.db.QueryContext(ctx, `
		SELECT id, data, created_at, updated_at
		FROM document
		WHERE collection = $1
		ORDER BY created_at, id
	`, c.name)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", c.name, err)
	}
	defer rows.Close()

	docs := []*Document{}
	for rows.Next() {
		doc := &Document{Collection: c.name}
		var data string
		var created, updated int64
		if err := rows.Scan(&doc.ID, &data, &created, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", c.name, err)
		}
		doc.Data = json.RawMessage(data)
		doc.CreateTime = time.Unix(0, created).UTC()
		doc.UpdateTime = time.Unix(0, updated).UTC()
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", c.name, err)
	}

	return docs, nil
}

// DeleteMany removes the given documents in batches of MaxBatchSize, each
// batch committed in its own transaction. It returns the ids that were
// removed, in input order; on error they cover the batches committed before
// the failure.
func (c *Collection) DeleteMany(ctx context.Context, ids []string) ([]string, error) {
	removed := []string{}
	for start := 0; start < len(ids); start += MaxBatchSize {
		end := min(start+MaxBatchSize, len(ids))

		var batch []string
		err := c.store.RunTransaction(ctx, func(tx *Tx) error {
			batch = batch[:0]
			for _, id := range ids[start:end] {
				ok, err := deleteDoc(ctx, tx.tx, c.name, id)
				if err != nil {
					return err
				}
				if ok {
					batch = append(batch, id)
				}
			}
			return nil
		})
		if err != nil {
			return removed, fmt.Errorf("bulk delete of %s stopped at batch %d after %d deletions: %w",
				c.name, start/MaxBatchSize, len(removed), err)
		}
		removed = append(removed, batch...)
	}

	return removed, nil
}

// Tx is a transaction handle passed to RunTransaction callbacks.
type Tx struct {
	ctx   context.Context
	tx    *sql.Tx
	store *Store
}

func (t *Tx) Get(collection, id string) (*Document, error) {
	return getDoc(t.ctx, t.tx, collection, id)
}

func (t *Tx) Create(collection, id string, v any) error {
	return createDoc(t.ctx, t.tx, collection, id, v, t.store.now())
}

func (t *Tx) Set(collection, id string, v any) error {
	return setDoc(t.ctx, t.tx, collection, id, v, t.store.now())
}

// Update replaces the payload of doc only if nobody has written it since doc
// was read. A lost race returns ErrConflict, which makes RunTransaction retry.
func (t *Tx) Update(doc *Document, v any) error {
	return updateDoc(t.ctx, t.tx, doc, v, t.store.now())
}

func (t *Tx) Delete(collection, id string) error {
	_, err := deleteDoc(t.ctx, t.tx, collection, id)
	return err
}

func getDoc(ctx context.Context, q querier, collection, id string) (*Document, error) {
	doc := &Document{Collection: collection, ID: id}
	var data string
	var created, updated int64
	err := q.QueryRowContext(ctx, `
		SELECT data, created_at, updated_at
		FROM document
		WHERE collection = $1 AND id = $2
	`, collection, id).Scan(&data, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s/%s: %w", collection, id, err)
	}

	doc.Data = json.RawMessage(data)
	doc.CreateTime = time.Unix(0, created).UTC()
	doc.UpdateTime = time.Unix(0, updated).UTC()
	return doc, nil
}

func createDoc(ctx context.Context, q querier, collection, id string, v any, now time.Time) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s/%s: %w", collection, id, err)
	}

	res, err := q.ExecContext(ctx, `
		INSERT INTO document (collection, id, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (collection, id) DO NOTHING
	`, collection, id, string(data), now.UnixNano(), now.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to create %s/%s: %w", collection, id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to create %s/%s: %w", collection, id, err)
	}
	if n == 0 {
		return ErrAlreadyExists
	}
	return nil
}

func setDoc(ctx context.Context, q querier, collection, id string, v any, now time.Time) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s/%s: %w", collection, id, err)
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO document (collection, id, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (collection, id) DO UPDATE
		SET data = excluded.data, updated_at = excluded.updated_at
	`, collection, id, string(data), now.UnixNano(), now.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to set %s/%s: %w", collection, id, err)
	}
	return nil
}

func updateDoc(ctx context.Context, q querier, doc *Document, v any, now time.Time) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s/%s: %w", doc.Collection, doc.ID, err)
	}

	read := doc.UpdateTime.UnixNano()
	stamp := max(now.UnixNano(), read+1)
	res, err := q.ExecContext(ctx, `
		UPDATE document SET data = $1, updated_at = $2
		WHERE collection = $3 AND id = $4 AND updated_at = $5
	`, string(data), stamp, doc.Collection, doc.ID, read)
	if err != nil {
		return fmt.Errorf("failed to update %s/%s: %w", doc.Collection, doc.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update %s/%s: %w", doc.Collection, doc.ID, err)
	}
	if n == 0 {
		return ErrConflict
	}
	doc.Data = json.RawMessage(data)
	doc.UpdateTime = time.Unix(0, stamp).UTC()
	return nil
}

func deleteDoc(ctx context.Context, q querier, collection, id string) (bool, error) {
	res, err := q.ExecContext(ctx, `
		DELETE FROM document WHERE collection = $1 AND id = $2
	`, collection, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}
	return n > 0, nil
}
