// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides admin authentication and token utilities.

# Admin Login

The site has a single admin account configured by username and bcrypt hash:

	err := auth.CheckCredentials(cfg.AdminUsername, cfg.AdminPasswordHash, user, pass)

HashPassword produces the hash for ADMIN_PASSWORD_HASH (see the hash-password
subcommand). Alternatively GoogleLogin runs the OAuth authorization code flow
and accepts verified Google accounts listed in ADMIN_EMAILS.

# Sessions

Successful logins receive an HS256 JWT valid for 12 hours:

	sessions, _ := auth.NewSessionManager(cfg.SessionSecret)
	token, expiresAt, err := sessions.Issue("admin", auth.MethodPassword)
	claims, err := sessions.Validate(token)

The token travels in the admin_session cookie or an Authorization: Bearer header.
Tokens signed with any other algorithm are rejected.

# Unsubscribe Tokens

Unsubscribe links carry an HMAC-SHA256 of the normalized email:

	token := auth.GenerateUnsubscribeToken(email, salt)
	err := auth.ValidateUnsubscribeToken(email, token, salt)

Like the session tokens nothing is stored; the salt is the only secret.

# ID Generation and IP Hashing

	id, err := auth.GenerateID(16)   // 32 hex characters
	hash := auth.HashIP(ip, salt)    // 16 hex characters

Contact messages store the hashed IP only.
*/
package auth
