// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package validation wraps a shared go-playground/validator instance.
// Field names in errors are the JSON names; the custom "category" tag accepts
// the fixed gallery category slugs.
package validation
