// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package gallery

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	ErrEmptyDateRange   = errors.New("date range is empty")
	ErrInvalidDateRange = errors.New("invalid date range")
)

// DateRange is a half-open interval [Start, End).
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether the two ranges share at least one instant.
func (r DateRange) Overlaps(o DateRange) bool {
	return r.Start.Before(o.End) && o.Start.Before(r.End)
}

type granularity int

const (
	byDay granularity = iota
	byMonth
	byYear
)

type dateLayout struct {
	layout string
	unit   granularity
}

// Tried in order; the first layout that parses wins.
var dateLayouts = []dateLayout{
	{"2006-01-02", byDay},
	{"January 2, 2006", byDay},
	{"Jan 2, 2006", byDay},
	{"2 January 2006", byDay},
	{"2 Jan 2006", byDay},
	{"2006-01", byMonth},
	{"01/2006", byMonth},
	{"January 2006", byMonth},
	{"Jan 2006", byMonth},
	{"2006", byYear},
}

// Spaced hyphen, en/em dash (spacing optional) or the word "to".
var rangeSeparator = regexp.MustCompile(`(?i)\s*[–—]\s*|\s+-\s+|\s+to\s+`)

var spaces = regexp.MustCompile(`\s+`)

// ParseDateRange parses labels such as "2024", "Mar 2024", "2024-03-15",
// "Mar 2024 - Jun 2024" or "2023 to 2024". A single date covers its whole
// period; a range runs from the start of the earlier date to the end of the
// later one, so reversed ranges are accepted.
func ParseDateRange(s string) (DateRange, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DateRange{}, ErrEmptyDateRange
	}

	parts := rangeSeparator.Split(s, -1)
	if len(parts) > 2 {
		return DateRange{}, fmt.Errorf("%w: %q has more than two dates", ErrInvalidDateRange, s)
	}

	first, err := parseDate(parts[0])
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: %q", ErrInvalidDateRange, s)
	}
	if len(parts) == 1 {
		return first, nil
	}

	second, err := parseDate(parts[1])
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: %q", ErrInvalidDateRange, s)
	}

	r := first
	if second.Start.Before(r.Start) {
		r.Start = second.Start
	}
	if second.End.After(r.End) {
		r.End = second.End
	}
	return r, nil
}

func parseDate(s string) (DateRange, error) {
	s = strings.Trim(strings.TrimSpace(s), ".,")
	s = spaces.ReplaceAllString(s, " ")
	if s == "" {
		return DateRange{}, ErrEmptyDateRange
	}

	for _, l := range dateLayouts {
		t, err := time.Parse(l.layout, s)
		if err != nil {
			continue
		}
		switch l.unit {
		case byDay:
			return DateRange{Start: t, End: t.AddDate(0, 0, 1)}, nil
		case byMonth:
			return DateRange{Start: t, End: t.AddDate(0, 1, 0)}, nil
		default:
			return DateRange{Start: t, End: t.AddDate(1, 0, 0)}, nil
		}
	}
	return DateRange{}, ErrInvalidDateRange
}
