// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package calendar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yorticia/yorticia-site/cache"
	"github.com/yorticia/yorticia-site/docstore"
	"github.com/yorticia/yorticia-site/metrics"
	"github.com/yorticia/yorticia-site/models"
)

const (
	// Collection holds one document per synced event.
	Collection = "events"
	// StateCollection holds the single sync state document.
	StateCollection = "sync_state"
	stateID         = "calendar"

	lookBack  = 30 * 24 * time.Hour
	lookAhead = 180 * 24 * time.Hour
)

// Syncer copies events from the provider into the document store.
type Syncer struct {
	store      *docstore.Store
	events     *docstore.Collection
	provider   Provider
	cache      *cache.Cache
	calendarID string
	now        func() time.Time
}

func NewSyncer(store *docstore.Store, provider Provider, c *cache.Cache, calendarID string) *Syncer {
	return &Syncer{
		store:      store,
		events:     store.Collection(Collection),
		provider:   provider,
		cache:      c,
		calendarID: calendarID,
		now:        time.Now,
	}
}

// Sync fetches the window around now, upserts every event and deletes
// stored events inside the window that the provider no longer returns.
func (s *Syncer) Sync(ctx context.Context) (models.SyncResponse, error) {
	started := time.Now()
	now := s.now().UTC()
	min, max := now.Add(-lookBack), now.Add(lookAhead)

	fetched, err := s.provider.ListEvents(ctx, s.calendarID, min, max)
	if err != nil {
		s.recordFailure(ctx, now, err)
		return models.SyncResponse{}, fmt.Errorf("failed to fetch events: %w", err)
	}

	stored, err := s.events.List(ctx)
	if err != nil {
		s.recordFailure(ctx, now, err)
		return models.SyncResponse{}, fmt.Errorf("failed to list stored events: %w", err)
	}

	seen := make(map[string]bool, len(fetched))
	for _, ev := range fetched {
		seen[ev.ID] = true
	}

	var stale []string
	for _, doc := range stored {
		if seen[doc.ID] {
			continue
		}
		var ev models.Event
		if err := doc.DataTo(&ev); err != nil {
			return models.SyncResponse{}, err
		}
		// Events outside the window are history and stay
		if ev.End.After(min) && ev.Start.Before(max) {
			stale = append(stale, doc.ID)
		}
	}

	err = s.store.RunTransaction(ctx, func(tx *docstore.Tx) error {
		for _, ev := range fetched {
			if err := tx.Set(Collection, ev.ID, ev); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.recordFailure(ctx, now, err)
		return models.SyncResponse{}, fmt.Errorf("failed to store events: %w", err)
	}

	deleted, err := s.events.DeleteMany(ctx, stale)
	if err != nil {
		s.cache.InvalidateTag(cache.TagCalendar)
		s.recordFailure(ctx, now, err)
		return models.SyncResponse{}, fmt.Errorf("failed to delete stale events: %w", err)
	}

	result := models.SyncResponse{Upserted: len(fetched), Deleted: len(deleted), At: now}
	state := models.SyncState{LastSyncAt: now, Upserted: result.Upserted, Deleted: result.Deleted}
	if err := s.store.Collection(StateCollection).Set(ctx, stateID, state); err != nil {
		slog.Warn("failed to record sync state", "error", err)
	}

	s.cache.InvalidateTag(cache.TagCalendar)
	metrics.RecordCalendarSync(len(fetched), nil)
	slog.Info("calendar synced",
		"upserted", result.Upserted,
		"deleted", result.Deleted,
		"duration_ms", time.Since(started).Milliseconds())
	return result, nil
}

// Run syncs immediately and then every interval until ctx is done.
// Failed syncs are logged and retried on the next tick.
func (s *Syncer) Run(ctx context.Context, interval time.Duration) error {
	if _, err := s.Sync(ctx); err != nil && ctx.Err() == nil {
		slog.Error("calendar sync failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.Sync(ctx); err != nil && ctx.Err() == nil {
				slog.Error("calendar sync failed", "error", err)
			}
		}
	}
}

// State returns the last recorded sync, or a zero state before the first sync.
func (s *Syncer) State(ctx context.Context) (models.SyncState, error) {
	var state models.SyncState
	doc, err := s.store.Collection(StateCollection).Get(ctx, stateID)
	if errors.Is(err, docstore.ErrNotFound) {
		return state, nil
	}
	if err != nil {
		return state, err
	}
	err = doc.DataTo(&state)
	return state, err
}

func (s *Syncer) recordFailure(ctx context.Context, at time.Time, cause error) {
	metrics.RecordCalendarSync(0, cause)

	state, err := s.State(ctx)
	if err != nil {
		slog.Warn("failed to read sync state", "error", err)
	}
	state.LastError = fmt.Sprintf("%s: %v", at.Format(time.RFC3339), cause)
	if err := s.store.Collection(StateCollection).Set(ctx, stateID, state); err != nil {
		slog.Warn("failed to record sync failure", "error", err)
	}
}
