// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

A .env file (ENV_FILE, default ".env") is loaded first when present.
Values already in the environment win over the file.

# CLI Flags

	-p                Server port
	-d                Database URL
	-t                Database type (sqlite or postgres)
	--session-secret  Admin session signing secret
	--unsubscribe-salt Unsubscribe token salt

# Environment Variables

Flags fall back to environment variables:

	PORT             → -p
	DATABASE_URL     → -d
	DATABASE_TYPE    → -t
	SESSION_SECRET   → --session-secret
	UNSUBSCRIBE_SALT → --unsubscribe-salt

Everything else is environment only: SITE_URL, ADMIN_USERNAME,
ADMIN_PASSWORD_HASH, ADMIN_EMAILS, GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET,
S3_ENDPOINT, S3_ACCESS_KEY, S3_SECRET_KEY, S3_BUCKET, S3_USE_SSL,
S3_PUBLIC_URL, RESEND_API_KEY, CONTACT_FROM, CONTACT_TO,
GOOGLE_CALENDAR_ID, GOOGLE_CALENDAR_API_KEY, GOOGLE_APPLICATION_CREDENTIALS,
CALENDAR_SYNC_INTERVAL, CONTACT_RATE_LIMIT, CONTACT_RATE_WINDOW,
TRUSTED_PROXIES.

# Validation

ParseFlags returns an error if required values are missing:

  - DATABASE_URL must be provided
  - SESSION_SECRET must be provided (32+ characters)
  - UNSUBSCRIBE_SALT must be provided
  - ADMIN_USERNAME and ADMIN_PASSWORD_HASH come as a pair
  - S3_BUCKET is required once S3_ENDPOINT is set
  - CONTACT_TO is required once RESEND_API_KEY is set
  - TRUSTED_PROXIES entries must be IPs or CIDRs
*/
package cliparse
