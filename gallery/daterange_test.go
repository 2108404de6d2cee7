// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package gallery

import (
	"errors"
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseDateRange(t *testing.T) {
	tests := []struct {
		input     string
		wantStart time.Time
		wantEnd   time.Time
	}{
		{"2024", day(2024, 1, 1), day(2025, 1, 1)},
		{"2024-03", day(2024, 3, 1), day(2024, 4, 1)},
		{"03/2024", day(2024, 3, 1), day(2024, 4, 1)},
		{"Mar 2024", day(2024, 3, 1), day(2024, 4, 1)},
		{"march 2024", day(2024, 3, 1), day(2024, 4, 1)},
		{"2024-03-15", day(2024, 3, 15), day(2024, 3, 16)},
		{"Mar 15, 2024", day(2024, 3, 15), day(2024, 3, 16)},
		{"15 March 2024", day(2024, 3, 15), day(2024, 3, 16)},
		{"  Mar   2024  ", day(2024, 3, 1), day(2024, 4, 1)},
		{"Mar 2024 - Jun 2024", day(2024, 3, 1), day(2024, 7, 1)},
		{"Mar 2024 – Jun 2024", day(2024, 3, 1), day(2024, 7, 1)},
		{"Mar 2024–Jun 2024", day(2024, 3, 1), day(2024, 7, 1)},
		{"2023 to 2024", day(2023, 1, 1), day(2025, 1, 1)},
		{"2023 TO 2024-02", day(2023, 1, 1), day(2024, 3, 1)},
		{"2024-01-10 — 2024-01-12", day(2024, 1, 10), day(2024, 1, 13)},
		// Reversed ranges still cover both ends
		{"Jun 2024 - Mar 2024", day(2024, 3, 1), day(2024, 7, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDateRange(tt.input)
			if err != nil {
				t.Fatalf("ParseDateRange(%q) error = %v", tt.input, err)
			}
			if !got.Start.Equal(tt.wantStart) || !got.End.Equal(tt.wantEnd) {
				t.Errorf("ParseDateRange(%q) = [%s, %s), want [%s, %s)",
					tt.input, got.Start, got.End, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestParseDateRange_Errors(t *testing.T) {
	tests := []struct {
		input string
		want  error
	}{
		{"", ErrEmptyDateRange},
		{"   ", ErrEmptyDateRange},
		{"someday", ErrInvalidDateRange},
		{"2024-13", ErrInvalidDateRange},
		{"Mar 2024 - ", ErrInvalidDateRange},
		{"2022 - 2023 - 2024", ErrInvalidDateRange},
		{"Mar 2024 - whenever", ErrInvalidDateRange},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := ParseDateRange(tt.input)
			if !errors.Is(err, tt.want) {
				t.Errorf("ParseDateRange(%q) error = %v, want %v", tt.input, err, tt.want)
			}
		})
	}
}

func TestDateRange_Overlaps(t *testing.T) {
	q1 := DateRange{Start: day(2024, 1, 1), End: day(2024, 4, 1)}

	tests := []struct {
		name  string
		other DateRange
		want  bool
	}{
		{"inside", DateRange{day(2024, 2, 1), day(2024, 3, 1)}, true},
		{"straddles start", DateRange{day(2023, 12, 1), day(2024, 1, 2)}, true},
		{"touches end", DateRange{day(2024, 4, 1), day(2024, 5, 1)}, false},
		{"before", DateRange{day(2023, 1, 1), day(2024, 1, 1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := q1.Overlaps(tt.other); got != tt.want {
				t.Errorf("Overlaps() = %v, want %v", got, tt.want)
			}
			if got := tt.other.Overlaps(q1); got != tt.want {
				t.Errorf("Overlaps() is not symmetric")
			}
		})
	}
}
