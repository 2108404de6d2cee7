// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/yorticia/yorticia-site/models"
)

func validContact() models.ContactRequest {
	return models.ContactRequest{
		Name:      "Jamie Booker",
		Email:     "jamie@agency.example",
		Subject:   "Summer campaign",
		Message:   "We would love to book you for a two day shoot in July.",
		StartedAt: time.Now().Add(-30 * time.Second).UnixMilli(),
	}
}

func TestContactSubmit(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    interface{}
		mailErr        error
		expectedStatus int
		expectedSent   int
	}{
		{
			name:           "valid message",
			requestBody:    validContact(),
			expectedStatus: http.StatusOK,
			expectedSent:   1,
		},
		{
			name: "honeypot filled",
			requestBody: func() models.ContactRequest {
				req := validContact()
				req.Website = "http://spam.example"
				return req
			}(),
			expectedStatus: http.StatusOK,
		},
		{
			name: "submitted too fast",
			requestBody: func() models.ContactRequest {
				req := validContact()
				req.StartedAt = time.Now().UnixMilli()
				return req
			}(),
			expectedStatus: http.StatusOK,
		},
		{
			name: "missing email",
			requestBody: func() models.ContactRequest {
				req := validContact()
				req.Email = ""
				return req
			}(),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "too many links",
			requestBody: func() models.ContactRequest {
				req := validContact()
				req.Message = "see http://a.example http://b.example www.c.example https://d.example"
				return req
			}(),
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name:           "email provider down",
			requestBody:    validContact(),
			mailErr:        errors.New("provider down"),
			expectedStatus: http.StatusBadGateway,
		},
		{
			name:           "invalid JSON",
			requestBody:    "invalid json",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupEnv(t)
			env.mail.Err = tt.mailErr
			handler := NewContactHandler(env.contact)

			req := newJSONRequest(t, "POST", "/api/contact", tt.requestBody)
			w := httptest.NewRecorder()

			handler.Submit(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d. Body: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			if got := len(env.mail.Sent()); got != tt.expectedSent {
				t.Errorf("Expected %d emails, got %d", tt.expectedSent, got)
			}
		})
	}
}

func TestContactSubmitForm(t *testing.T) {
	env := setupEnv(t)
	handler := NewContactHandler(env.contact)

	c := validContact()
	form := url.Values{
		"name":       {c.Name},
		"email":      {c.Email},
		"subject":    {c.Subject},
		"message":    {c.Message},
		"website":    {""},
		"started_at": {strconv.FormatInt(c.StartedAt, 10)},
	}
	req := httptest.NewRequest("POST", "/api/contact", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", "form-test")
	w := httptest.NewRecorder()

	handler.Submit(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Body: %s", w.Code, w.Body.String())
	}

	sent := env.mail.Sent()
	if len(sent) != 1 {
		t.Fatalf("Expected 1 email, got %d", len(sent))
	}
	if sent[0].ReplyTo != c.Email {
		t.Errorf("Expected reply-to %s, got %s", c.Email, sent[0].ReplyTo)
	}

	msgs, err := env.contact.List(context.Background())
	if err != nil {
		t.Fatalf("Failed to list messages: %v", err)
	}
	if len(msgs) != 1 || !msgs[0].Emailed || msgs[0].UserAgent != "form-test" {
		t.Errorf("Unexpected stored messages: %+v", msgs)
	}
}

func TestContactSubmitFormBadStartedAt(t *testing.T) {
	env := setupEnv(t)
	handler := NewContactHandler(env.contact)

	req := httptest.NewRequest("POST", "/api/contact", strings.NewReader("name=a&started_at=yesterday"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()

	handler.Submit(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}
