// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package calendar

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/yorticia/yorticia-site/cache"
	"github.com/yorticia/yorticia-site/docstore"
	"github.com/yorticia/yorticia-site/models"
)

// MaxUpcoming caps Upcoming
const MaxUpcoming = 50

var ErrInvalidMonth = errors.New("month must be formatted YYYY-MM")

// Service reads synced events for the public calendar.
type Service struct {
	events *docstore.Collection
	cache  *cache.Cache
	now    func() time.Time
}

func NewService(store *docstore.Store, c *cache.Cache) *Service {
	return &Service{
		events: store.Collection(Collection),
		cache:  c,
		now:    time.Now,
	}
}

// Month returns the events overlapping the month ("2006-01"), ordered by start.
func (s *Service) Month(ctx context.Context, month string) ([]models.Event, error) {
	first, err := time.Parse("2006-01", month)
	if err != nil {
		return nil, ErrInvalidMonth
	}
	next := first.AddDate(0, 1, 0)

	key := "month:" + month
	if v, ok := s.cache.Get(key); ok {
		return slices.Clone(v.([]models.Event)), nil
	}

	all, err := s.all(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]models.Event, 0)
	for _, ev := range all {
		if ev.End.After(first) && ev.Start.Before(next) {
			out = append(out, ev)
		}
	}

	s.cache.Set(key, out, cache.TagCalendar)
	return slices.Clone(out), nil
}

// Upcoming returns the next n events that have not ended yet.
func (s *Service) Upcoming(ctx context.Context, n int) ([]models.Event, error) {
	if n <= 0 {
		n = 5
	}
	n = min(n, MaxUpcoming)

	key := fmt.Sprintf("upcoming:%d", n)
	if v, ok := s.cache.Get(key); ok {
		return slices.Clone(v.([]models.Event)), nil
	}

	all, err := s.all(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	out := make([]models.Event, 0, n)
	for _, ev := range all {
		if ev.End.After(now) {
			out = append(out, ev)
			if len(out) == n {
				break
			}
		}
	}

	s.cache.Set(key, out, cache.TagCalendar)
	return slices.Clone(out), nil
}

func (s *Service) all(ctx context.Context) ([]models.Event, error) {
	docs, err := s.events.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	out := make([]models.Event, 0, len(docs))
	for _, d := range docs {
		var ev models.Event
		if err := d.DataTo(&ev); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
