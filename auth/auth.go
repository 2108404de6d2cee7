// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidUnsubscribeToken = errors.New("invalid unsubscribe token")
	ErrInvalidToken            = errors.New("invalid token format")
)

// GenerateID creates a random hex ID of the specified byte length
func GenerateID(byteLen int) (string, error) {
	b := make([]byte, byteLen)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate random ID: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// GenerateUnsubscribeToken creates an HMAC-based token for an email address
// This is deterministic and verifiable, so nothing has to be stored
func GenerateUnsubscribeToken(email, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(strings.ToLower(strings.TrimSpace(email))))
	sum := h.Sum(nil)
	// Use URL-safe base64 and trim padding so the token drops into a link
	return strings.TrimRight(base64.URLEncoding.EncodeToString(sum), "=")
}

// ValidateUnsubscribeToken checks if the token belongs to the email address
func ValidateUnsubscribeToken(email, token, salt string) error {
	expected := GenerateUnsubscribeToken(email, salt)
	if !hmac.Equal([]byte(token), []byte(expected)) {
		return ErrInvalidUnsubscribeToken
	}
	return nil
}

// GenerateState creates a random secure value for the OAuth state cookie
func GenerateState() (string, error) {
	b := make([]byte, 24) // 24 bytes = 192 bits of entropy
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	// URL-safe base64 without padding
	return strings.TrimRight(base64.URLEncoding.EncodeToString(b), "="), nil
}

// HashIP creates a one-way hash of an IP address for privacy
// Includes salt to prevent rainbow table attacks
func HashIP(ip, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(ip))
	sum := h.Sum(nil)
	// Return first 16 hex chars (64 bits) - enough for deduplication
	return hex.EncodeToString(sum[:8])
}
