// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package pages renders the public site from embedded html/template files.
// Bio and about copy live in content/*.md and are rendered once with goldmark
// at startup.
package pages
