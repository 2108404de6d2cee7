// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package contact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yorticia/yorticia-site/auth"
	"github.com/yorticia/yorticia-site/cliparse"
	"github.com/yorticia/yorticia-site/docstore"
	"github.com/yorticia/yorticia-site/mailer"
	"github.com/yorticia/yorticia-site/metrics"
	"github.com/yorticia/yorticia-site/models"
	"github.com/yorticia/yorticia-site/validation"
)

// Collection holds one document per accepted message.
const Collection = "messages"

const (
	// MinFillTime is the fastest a person can plausibly complete the form
	MinFillTime = 3 * time.Second
	// MaxLinks is the most links a message may contain
	MaxLinks = 3
)

var (
	ErrTooManyLinks = errors.New("message contains too many links")
	ErrEmailFailed  = errors.New("message saved but email delivery failed")
)

var linkPattern = regexp.MustCompile(`(?i)\bhttps?://|\bwww\.`)

// Meta describes where a submission came from
type Meta struct {
	IP        string
	UserAgent string
}

// Result reports what happened to a submission. Dropped submissions
// still look successful to the sender.
type Result struct {
	Outcome string // one of the metrics.Contact* values
	Message *models.ContactMessage
}

type Service struct {
	messages *docstore.Collection
	mail     mailer.Mailer
	from     string
	to       string
	salt     string
	now      func() time.Time
}

func NewService(store *docstore.Store, m mailer.Mailer, cfg cliparse.Config) *Service {
	return &Service{
		messages: store.Collection(Collection),
		mail:     m,
		from:     cfg.ContactFrom,
		to:       cfg.ContactTo,
		salt:     cfg.UnsubscribeSalt,
		now:      time.Now,
	}
}

// Submit runs the spam checks, stores the message and emails it.
func (s *Service) Submit(ctx context.Context, req models.ContactRequest, meta Meta) (Result, error) {
	if req.Website != "" {
		slog.Info("contact honeypot triggered", "ip_hash", auth.HashIP(meta.IP, s.salt))
		metrics.RecordContactSubmission(metrics.ContactSpam)
		return Result{Outcome: metrics.ContactSpam}, nil
	}

	if s.tooFast(req.StartedAt) {
		slog.Info("contact submitted too fast", "ip_hash", auth.HashIP(meta.IP, s.salt), "started_at", req.StartedAt)
		metrics.RecordContactSubmission(metrics.ContactSpam)
		return Result{Outcome: metrics.ContactSpam}, nil
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Subject = strings.TrimSpace(req.Subject)
	req.Message = strings.TrimSpace(req.Message)

	if err := validation.Struct(&req); err != nil {
		metrics.RecordContactSubmission(metrics.ContactRejected)
		return Result{Outcome: metrics.ContactRejected}, err
	}

	if CountLinks(req.Message) > MaxLinks {
		metrics.RecordContactSubmission(metrics.ContactRejected)
		return Result{Outcome: metrics.ContactRejected}, ErrTooManyLinks
	}

	msg := &models.ContactMessage{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Email:     req.Email,
		Subject:   req.Subject,
		Message:   req.Message,
		IPHash:    auth.HashIP(meta.IP, s.salt),
		UserAgent: truncate(meta.UserAgent, 300),
		CreatedAt: s.now().UTC(),
	}

	if err := s.messages.Create(ctx, msg.ID, msg); err != nil {
		metrics.RecordContactSubmission(metrics.ContactFailed)
		return Result{Outcome: metrics.ContactFailed}, fmt.Errorf("failed to store message: %w", err)
	}

	if err := s.mail.Send(ctx, s.email(msg)); err != nil {
		slog.Error("failed to email contact message", "message_id", msg.ID, "error", err)
		metrics.RecordContactSubmission(metrics.ContactFailed)
		return Result{Outcome: metrics.ContactFailed, Message: msg}, fmt.Errorf("%w: %v", ErrEmailFailed, err)
	}

	msg.Emailed = true
	if err := s.messages.Set(ctx, msg.ID, msg); err != nil {
		// The email already went out
		slog.Warn("failed to mark message emailed", "message_id", msg.ID, "error", err)
	}

	slog.Info("contact message accepted", "message_id", msg.ID)
	metrics.RecordContactSubmission(metrics.ContactSent)
	return Result{Outcome: metrics.ContactSent, Message: msg}, nil
}

// List returns stored messages, newest first.
func (s *Service) List(ctx context.Context) ([]models.ContactMessage, error) {
	docs, err := s.messages.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	out := make([]models.ContactMessage, 0, len(docs))
	for _, d := range docs {
		var m models.ContactMessage
		if err := d.DataTo(&m); err != nil {
			return nil, fmt.Errorf("failed to decode message %s: %w", d.ID, err)
		}
		out = append(out, m)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// CountLinks counts URLs in text
func CountLinks(text string) int {
	return len(linkPattern.FindAllStringIndex(text, -1))
}

// tooFast reports submissions sent sooner than MinFillTime after the form
// was rendered. A missing or future timestamp counts as too fast.
func (s *Service) tooFast(startedAtMillis int64) bool {
	if startedAtMillis <= 0 {
		return true
	}
	elapsed := s.now().Sub(time.UnixMilli(startedAtMillis))
	return elapsed < MinFillTime
}

func (s *Service) email(msg *models.ContactMessage) mailer.Message {
	subject := msg.Subject
	if subject == "" {
		subject = "New inquiry"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\n", msg.Name, msg.Email)
	fmt.Fprintf(&b, "Received: %s\n\n", msg.CreatedAt.Format(time.RFC1123))
	b.WriteString(msg.Message)
	b.WriteString("\n")

	return mailer.Message{
		From:    s.from,
		To:      []string{s.to},
		ReplyTo: msg.Email,
		Subject: "[Contact] " + subject,
		Text:    b.String(),
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
