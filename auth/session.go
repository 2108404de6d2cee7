// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// SessionCookie carries the admin session token
	SessionCookie = "admin_session"
	// SessionTTL is how long an admin session stays valid
	SessionTTL = 12 * time.Hour

	issuer = "yorticia-site"
)

// Login methods recorded in the session
const (
	MethodPassword = "password"
	MethodGoogle   = "google"
)

var ErrInvalidSession = errors.New("invalid or expired session")

// SessionClaims are the JWT claims of an admin session
type SessionClaims struct {
	Method string `json:"method"`
	jwt.RegisteredClaims
}

// SessionManager issues and validates admin session tokens (HS256)
type SessionManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSessionManager(secret string) (*SessionManager, error) {
	if len(secret) < 32 {
		return nil, errors.New("session secret must be at least 32 characters")
	}
	return &SessionManager{secret: []byte(secret), ttl: SessionTTL, now: time.Now}, nil
}

// Issue signs a session for subject (the admin username or email)
func (m *SessionManager) Issue(subject, method string) (string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(m.ttl)

	id, err := GenerateID(16)
	if err != nil {
		return "", time.Time{}, err
	}

	claims := SessionClaims{
		Method: method,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Subject:   subject,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session: %w", err)
	}
	return token, expiresAt, nil
}

// Validate parses a session token, rejecting other signing methods,
// other issuers and expired tokens
func (m *SessionManager) Validate(token string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidSession
	}
	if claims.Subject == "" {
		return nil, ErrInvalidSession
	}
	return claims, nil
}
