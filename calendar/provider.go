// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package calendar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/yorticia/yorticia-site/cliparse"
	"github.com/yorticia/yorticia-site/models"
)

// Provider lists events from an external calendar.
type Provider interface {
	ListEvents(ctx context.Context, calendarID string, min, max time.Time) ([]models.Event, error)
}

const (
	pageSize       = 250
	maxPages       = 40
	statusCanceled = "cancelled"
)

// GoogleProvider reads events through the Google Calendar API.
type GoogleProvider struct {
	svc     *gcal.Service
	breaker *gobreaker.CircuitBreaker[[]models.Event]
}

// NewGoogleProvider authenticates with the API key when one is configured,
// then the credentials file, then application default credentials. Extra
// options are appended last.
func NewGoogleProvider(ctx context.Context, cfg cliparse.Config, extra ...option.ClientOption) (*GoogleProvider, error) {
	var opts []option.ClientOption
	switch {
	case cfg.CalendarAPIKey != "":
		opts = append(opts, option.WithAPIKey(cfg.CalendarAPIKey))
	case cfg.CalendarCredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CalendarCredentialsFile), option.WithScopes(gcal.CalendarReadonlyScope))
	}
	opts = append(opts, extra...)

	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar client: %w", err)
	}

	settings := gobreaker.Settings{
		Name:        "google-calendar",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	}

	return &GoogleProvider{
		svc:     svc,
		breaker: gobreaker.NewCircuitBreaker[[]models.Event](settings),
	}, nil
}

func (p *GoogleProvider) ListEvents(ctx context.Context, calendarID string, min, max time.Time) ([]models.Event, error) {
	events, err := p.breaker.Execute(func() ([]models.Event, error) {
		return p.list(ctx, calendarID, min, max)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("calendar provider unavailable: %w", err)
	}
	return events, err
}

func (p *GoogleProvider) list(ctx context.Context, calendarID string, min, max time.Time) ([]models.Event, error) {
	var out []models.Event
	pageToken := ""

	for page := 0; page < maxPages; page++ {
		call := p.svc.Events.List(calendarID).
			Context(ctx).
			SingleEvents(true).
			OrderBy("startTime").
			TimeMin(min.Format(time.RFC3339)).
			TimeMax(max.Format(time.RFC3339)).
			MaxResults(pageSize)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list events: %w", err)
		}

		for _, item := range resp.Items {
			ev, ok, err := convertEvent(item)
			if err != nil {
				slog.Warn("skipping unreadable event", "event_id", item.Id, "error", err)
				continue
			}
			if ok {
				out = append(out, ev)
			}
		}

		if resp.NextPageToken == "" {
			return out, nil
		}
		pageToken = resp.NextPageToken
	}

	return nil, fmt.Errorf("calendar returned more than %d pages", maxPages)
}

// convertEvent maps an API event; ok is false for cancelled events.
func convertEvent(item *gcal.Event) (models.Event, bool, error) {
	if item.Status == statusCanceled {
		return models.Event{}, false, nil
	}
	if item.Start == nil || item.End == nil {
		return models.Event{}, false, errors.New("event has no start or end")
	}

	ev := models.Event{
		ID:          item.Id,
		Title:       item.Summary,
		Description: item.Description,
		Location:    item.Location,
		Status:      item.Status,
		HTMLLink:    item.HtmlLink,
	}
	if ev.Title == "" {
		ev.Title = "Busy"
	}

	var err error
	if item.Start.Date != "" {
		// All-day events carry dates; the end date is exclusive
		ev.AllDay = true
		if ev.Start, err = time.Parse(time.DateOnly, item.Start.Date); err != nil {
			return models.Event{}, false, err
		}
		if ev.End, err = time.Parse(time.DateOnly, item.End.Date); err != nil {
			return models.Event{}, false, err
		}
	} else {
		if ev.Start, err = time.Parse(time.RFC3339, item.Start.DateTime); err != nil {
			return models.Event{}, false, err
		}
		if ev.End, err = time.Parse(time.RFC3339, item.End.DateTime); err != nil {
			return models.Event{}, false, err
		}
	}

	if item.Updated != "" {
		if updated, err := time.Parse(time.RFC3339, item.Updated); err == nil {
			ev.UpdatedAt = updated.UTC()
		}
	}
	return ev, true, nil
}

// StaticProvider serves a fixed set of events. Err, when set, is returned
// instead.
type StaticProvider struct {
	mu     sync.Mutex
	events []models.Event
	Err    error
	Calls  int
}

func NewStaticProvider(events ...models.Event) *StaticProvider {
	return &StaticProvider{events: events}
}

// SetEvents replaces the served events
func (p *StaticProvider) SetEvents(events ...models.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = events
}

func (p *StaticProvider) ListEvents(ctx context.Context, calendarID string, min, max time.Time) ([]models.Event, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls++
	if p.Err != nil {
		return nil, p.Err
	}

	var out []models.Event
	for _, ev := range p.events {
		if ev.End.After(min) && ev.Start.Before(max) {
			out = append(out, ev)
		}
	}
	return out, nil
}
