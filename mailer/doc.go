// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package mailer sends outgoing email. Resend is used in production; Log
// stands in when RESEND_API_KEY is unset and Recorder captures mail in tests.
package mailer
