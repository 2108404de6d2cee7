// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package subscribe

import (
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/yorticia/yorticia-site/auth"
	"github.com/yorticia/yorticia-site/cliparse"
	"github.com/yorticia/yorticia-site/docstore"
	"github.com/yorticia/yorticia-site/mailer"
	"github.com/yorticia/yorticia-site/models"
	"github.com/yorticia/yorticia-site/validation"
)

// Collection holds one document per subscriber, keyed by email hash.
const Collection = "subscribers"

// Subscribe outcomes
const (
	StatusSubscribed        = "subscribed"
	StatusAlreadySubscribed = "already_subscribed"
	StatusResubscribed      = "resubscribed"
)

var ErrSubscriberNotFound = errors.New("subscriber not found")

type Service struct {
	store   *docstore.Store
	subs    *docstore.Collection
	mail    mailer.Mailer
	salt    string
	siteURL string
	from    string
	now     func() time.Time
}

func NewService(store *docstore.Store, m mailer.Mailer, cfg cliparse.Config) *Service {
	return &Service{
		store:   store,
		subs:    store.Collection(Collection),
		mail:    m,
		salt:    cfg.UnsubscribeSalt,
		siteURL: strings.TrimRight(cfg.SiteURL, "/"),
		from:    cfg.ContactFrom,
		now:     time.Now,
	}
}

// NormalizeEmail trims and lowercases an address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// DocumentID is the hex SHA-256 of the normalized email
func DocumentID(email string) string {
	sum := sha256.Sum256([]byte(NormalizeEmail(email)))
	return hex.EncodeToString(sum[:])
}

// Subscribe adds or reactivates a subscriber and reports which happened.
func (s *Service) Subscribe(ctx context.Context, req models.SubscribeRequest) (string, error) {
	req.Email = NormalizeEmail(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if err := validation.Struct(&req); err != nil {
		return "", err
	}

	id := DocumentID(req.Email)
	now := s.now().UTC()
	var status string

	err := s.store.RunTransaction(ctx, func(tx *docstore.Tx) error {
		doc, err := tx.Get(Collection, id)
		if errors.Is(err, docstore.ErrNotFound) {
			status = StatusSubscribed
			err := tx.Create(Collection, id, models.Subscriber{
				Email:        req.Email,
				Name:         req.Name,
				Status:       models.SubscriberActive,
				SubscribedAt: now,
			})
			if errors.Is(err, docstore.ErrAlreadyExists) {
				// a concurrent request created it first; rerun against that row
				return docstore.ErrConflict
			}
			return err
		}
		if err != nil {
			return err
		}

		var sub models.Subscriber
		if err := doc.DataTo(&sub); err != nil {
			return err
		}
		if sub.Status == models.SubscriberActive {
			status = StatusAlreadySubscribed
			return nil
		}

		status = StatusResubscribed
		sub.Status = models.SubscriberActive
		sub.SubscribedAt = now
		sub.UnsubscribedAt = nil
		if req.Name != "" {
			sub.Name = req.Name
		}
		return tx.Update(doc, sub)
	})
	if err != nil {
		return "", fmt.Errorf("failed to subscribe: %w", err)
	}

	slog.Info("subscription", "subscriber_id", id[:12], "status", status)

	if status != StatusAlreadySubscribed {
		if err := s.mail.Send(ctx, s.welcome(req.Email)); err != nil {
			slog.Warn("failed to send welcome email", "subscriber_id", id[:12], "error", err)
		}
	}
	return status, nil
}

// UnsubscribeToken returns the token embedded in unsubscribe links
func (s *Service) UnsubscribeToken(email string) string {
	return auth.GenerateUnsubscribeToken(email, s.salt)
}

// UnsubscribeURL returns the one-click unsubscribe link for email
func (s *Service) UnsubscribeURL(email string) string {
	q := url.Values{}
	q.Set("email", NormalizeEmail(email))
	q.Set("token", s.UnsubscribeToken(email))
	return s.siteURL + "/api/unsubscribe?" + q.Encode()
}

// Unsubscribe marks the subscriber inactive. Unsubscribing twice is not an error.
func (s *Service) Unsubscribe(ctx context.Context, email, token string) error {
	if err := auth.ValidateUnsubscribeToken(email, token, s.salt); err != nil {
		return err
	}

	id := DocumentID(email)
	err := s.store.RunTransaction(ctx, func(tx *docstore.Tx) error {
		doc, err := tx.Get(Collection, id)
		if err != nil {
			return err
		}

		var sub models.Subscriber
		if err := doc.DataTo(&sub); err != nil {
			return err
		}
		if sub.Status == models.SubscriberUnsubscribed {
			return nil
		}

		now := s.now().UTC()
		sub.Status = models.SubscriberUnsubscribed
		sub.UnsubscribedAt = &now
		return tx.Update(doc, sub)
	})
	if errors.Is(err, docstore.ErrNotFound) {
		return ErrSubscriberNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to unsubscribe: %w", err)
	}

	slog.Info("unsubscribed", "subscriber_id", id[:12])
	return nil
}

// List returns every subscriber ordered by subscription time, oldest first.
func (s *Service) List(ctx context.Context) ([]models.Subscriber, error) {
	docs, err := s.subs.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}

	out := make([]models.Subscriber, 0, len(docs))
	for _, d := range docs {
		var sub models.Subscriber
		if err := d.DataTo(&sub); err != nil {
			return nil, err
		}
		out = append(out, sub)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SubscribedAt.Before(out[j].SubscribedAt)
	})
	return out, nil
}

// WriteCSV writes email,name,status,subscribed_at rows with a header
func (s *Service) WriteCSV(ctx context.Context, w io.Writer) error {
	subs, err := s.List(ctx)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"email", "name", "status", "subscribed_at"}); err != nil {
		return err
	}
	for _, sub := range subs {
		row := []string{
			sub.Email,
			csvSafe(sub.Name),
			sub.Status,
			sub.SubscribedAt.Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// csvSafe neutralizes values a spreadsheet would evaluate as a formula
func csvSafe(v string) string {
	if v != "" && strings.ContainsRune("=+-@", rune(v[0])) {
		return "'" + v
	}
	return v
}

func (s *Service) welcome(email string) mailer.Message {
	text := "Thanks for subscribing! You'll hear about new work and upcoming shoots.\n\n" +
		"To unsubscribe at any time: " + s.UnsubscribeURL(email) + "\n"
	return mailer.Message{
		From:    s.from,
		To:      []string{email},
		Subject: "You're subscribed",
		Text:    text,
	}
}
