// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package contact

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yorticia/yorticia-site/mailer"
	"github.com/yorticia/yorticia-site/metrics"
	"github.com/yorticia/yorticia-site/models"
	"github.com/yorticia/yorticia-site/testutil"
	"github.com/yorticia/yorticia-site/validation"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *mailer.Recorder) {
	t.Helper()
	rec := &mailer.Recorder{}
	s := NewService(testutil.SetupTestStore(t), rec, testutil.GetTestConfig())
	s.now = func() time.Time { return now }
	return s, rec
}

func validRequest() models.ContactRequest {
	return models.ContactRequest{
		Name:      "Ana Ruiz",
		Email:     "ana@example.com",
		Subject:   "Editorial booking",
		Message:   "Hi! We would love to book a shoot in May.",
		StartedAt: now.Add(-30 * time.Second).UnixMilli(),
	}
}

func TestSubmit_Accepted(t *testing.T) {
	s, rec := newTestService(t)
	ctx := context.Background()

	res, err := s.Submit(ctx, validRequest(), Meta{IP: "203.0.113.7", UserAgent: "test"})
	require.NoError(t, err)
	require.Equal(t, metrics.ContactSent, res.Outcome)
	require.True(t, res.Message.Emailed)
	require.NotEqual(t, "203.0.113.7", res.Message.IPHash)
	require.Len(t, res.Message.IPHash, 16)

	sent := rec.Sent()
	require.Len(t, sent, 1)
	require.Equal(t, "ana@example.com", sent[0].ReplyTo)
	require.Equal(t, []string{"bookings@yorticia.test"}, sent[0].To)
	require.Equal(t, "[Contact] Editorial booking", sent[0].Subject)
	require.Contains(t, sent[0].Text, "book a shoot")

	msgs, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.True(t, msgs[0].Emailed)
}

func TestSubmit_SpamChecks(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(r *models.ContactRequest)
		wantOutcome string
		wantErr     error
		wantStored  bool
	}{
		{
			name:        "honeypot filled",
			mutate:      func(r *models.ContactRequest) { r.Website = "http://spam.example" },
			wantOutcome: metrics.ContactSpam,
		},
		{
			name:        "honeypot wins over invalid fields",
			mutate:      func(r *models.ContactRequest) { r.Website = "x"; r.Email = "bad" },
			wantOutcome: metrics.ContactSpam,
		},
		{
			name:        "too fast",
			mutate:      func(r *models.ContactRequest) { r.StartedAt = now.Add(-time.Second).UnixMilli() },
			wantOutcome: metrics.ContactSpam,
		},
		{
			name:        "missing started_at",
			mutate:      func(r *models.ContactRequest) { r.StartedAt = 0 },
			wantOutcome: metrics.ContactSpam,
		},
		{
			name:        "started in the future",
			mutate:      func(r *models.ContactRequest) { r.StartedAt = now.Add(time.Minute).UnixMilli() },
			wantOutcome: metrics.ContactSpam,
		},
		{
			name: "too many links",
			mutate: func(r *models.ContactRequest) {
				r.Message = "see http://a.example https://b.example www.c.example http://d.example"
			},
			wantOutcome: metrics.ContactRejected,
			wantErr:     ErrTooManyLinks,
		},
		{
			name: "three links allowed",
			mutate: func(r *models.ContactRequest) {
				r.Message = "portfolio http://a.example https://b.example www.c.example"
			},
			wantOutcome: metrics.ContactSent,
			wantStored:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, rec := newTestService(t)
			req := validRequest()
			tt.mutate(&req)

			res, err := s.Submit(context.Background(), req, Meta{IP: "198.51.100.1"})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			require.Equal(t, tt.wantOutcome, res.Outcome)

			msgs, err := s.List(context.Background())
			require.NoError(t, err)
			if tt.wantStored {
				require.Len(t, msgs, 1)
				require.Len(t, rec.Sent(), 1)
			} else {
				require.Empty(t, msgs)
				require.Empty(t, rec.Sent())
			}
		})
	}
}

func TestSubmit_Invalid(t *testing.T) {
	s, _ := newTestService(t)
	req := validRequest()
	req.Email = "not-an-email"

	_, err := s.Submit(context.Background(), req, Meta{})
	var verr *validation.Error
	require.True(t, errors.As(err, &verr))
	require.Equal(t, "email", verr.Fields[0].Field)
}

func TestSubmit_TrimsBeforeValidating(t *testing.T) {
	s, _ := newTestService(t)
	req := validRequest()
	req.Message = "   short    "

	_, err := s.Submit(context.Background(), req, Meta{})
	var verr *validation.Error
	require.True(t, errors.As(err, &verr))
}

func TestSubmit_EmailFailure(t *testing.T) {
	s, rec := newTestService(t)
	rec.Err = errors.New("provider down")

	res, err := s.Submit(context.Background(), validRequest(), Meta{})
	require.ErrorIs(t, err, ErrEmailFailed)
	require.Equal(t, metrics.ContactFailed, res.Outcome)

	// Stored even though the email failed
	msgs, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.False(t, msgs[0].Emailed)
}

func TestList_NewestFirst(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	for i, name := range []string{"First", "Second", "Third"} {
		s.now = func() time.Time { return now.Add(time.Duration(i) * time.Hour) }
		req := validRequest()
		req.Name = name
		req.StartedAt = now.Add(-time.Hour).UnixMilli()
		_, err := s.Submit(ctx, req, Meta{})
		require.NoError(t, err)
	}

	msgs, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	require.Equal(t, "Third", msgs[0].Name)
	require.Equal(t, "First", msgs[2].Name)
}

func TestCountLinks(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"no links here", 0},
		{"http://a.example", 1},
		{"HTTPS://A.EXAMPLE and www.b.example", 2},
		{strings.Repeat("http://x ", 5), 5},
		{"see awww.example", 0},
	}

	for _, tt := range tests {
		if got := CountLinks(tt.text); got != tt.want {
			t.Errorf("CountLinks(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}
