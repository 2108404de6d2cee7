// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package gallery

import (
	"cmp"
	"errors"
	"slices"
	"strings"

	"github.com/yorticia/yorticia-site/models"
)

var ErrUnknownOrder = errors.New("unknown sort order")

type Order string

const (
	OrderNewest Order = "newest"
	OrderOldest Order = "oldest"
	OrderTitle  Order = "title"
)

// ParseOrder maps a sort query value to an Order; empty means newest.
func ParseOrder(s string) (Order, error) {
	switch Order(strings.ToLower(strings.TrimSpace(s))) {
	case "", OrderNewest:
		return OrderNewest, nil
	case OrderOldest:
		return OrderOldest, nil
	case OrderTitle:
		return OrderTitle, nil
	}
	return "", ErrUnknownOrder
}

type sortable struct {
	img   models.Image
	dates DateRange
	dated bool
}

// SortImages orders images in place. Pinned images always lead. Date orders
// use the parsed DateRange label, comparing end then start (newest: latest
// first; oldest: earliest first), and put images without a parseable label last. Remaining ties
// fall back to creation time, then ID, so the result is deterministic.
func SortImages(images []models.Image, order Order) {
	items := make([]sortable, len(images))
	for i, img := range images {
		r, err := ParseDateRange(img.DateRange)
		items[i] = sortable{img: img, dates: r, dated: err == nil}
	}

	slices.SortStableFunc(items, func(a, b sortable) int {
		if a.img.Pinned != b.img.Pinned {
			if a.img.Pinned {
				return -1
			}
			return 1
		}

		switch order {
		case OrderTitle:
			if c := cmp.Compare(strings.ToLower(a.img.Title), strings.ToLower(b.img.Title)); c != 0 {
				return c
			}
		case OrderOldest:
			if c := compareDated(a, b); c != 0 {
				return c
			}
			if a.dated {
				if c := a.dates.End.Compare(b.dates.End); c != 0 {
					return c
				}
				if c := a.dates.Start.Compare(b.dates.Start); c != 0 {
					return c
				}
			}
			if c := a.img.CreatedAt.Compare(b.img.CreatedAt); c != 0 {
				return c
			}
			return cmp.Compare(a.img.ID, b.img.ID)
		default:
			if c := compareDated(a, b); c != 0 {
				return c
			}
			if a.dated {
				if c := b.dates.End.Compare(a.dates.End); c != 0 {
					return c
				}
				if c := b.dates.Start.Compare(a.dates.Start); c != 0 {
					return c
				}
			}
		}

		if c := b.img.CreatedAt.Compare(a.img.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.img.ID, b.img.ID)
	})

	for i := range items {
		images[i] = items[i].img
	}
}

// dated images before undated ones
func compareDated(a, b sortable) int {
	switch {
	case a.dated == b.dated:
		return 0
	case a.dated:
		return -1
	default:
		return 1
	}
}

// FilterByDate keeps images whose date label overlaps window. Images without
// a parseable label are dropped.
func FilterByDate(images []models.Image, window DateRange) []models.Image {
	out := make([]models.Image, 0, len(images))
	for _, img := range images {
		r, err := ParseDateRange(img.DateRange)
		if err != nil {
			continue
		}
		if r.Overlaps(window) {
			out = append(out, img)
		}
	}
	return out
}
