// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package gallery

import (
	"errors"

	"github.com/yorticia/yorticia-site/models"
)

var ErrUnknownCategory = errors.New("unknown gallery category")

// CategoryAll lists every image regardless of category. It is a listing
// filter only; images are never stored under it.
const CategoryAll = "all"

var categories = []models.Category{
	{Slug: "editorial", Title: "Editorial", Description: "Magazine spreads and print editorials"},
	{Slug: "commercial", Title: "Commercial", Description: "Brand campaigns and product work"},
	{Slug: "swimwear", Title: "Swimwear", Description: "Swim and resort collections"},
	{Slug: "fitness", Title: "Fitness", Description: "Activewear and training shoots"},
	{Slug: "lifestyle", Title: "Lifestyle", Description: "Travel, everyday and social content"},
	{Slug: "behind-the-scenes", Title: "Behind the Scenes", Description: "On set, fittings and prep"},
}

// Categories returns the gallery categories in display order.
func Categories() []models.Category {
	out := make([]models.Category, len(categories))
	copy(out, categories)
	return out
}

// LookupCategory resolves a category slug.
func LookupCategory(slug string) (models.Category, error) {
	for _, c := range categories {
		if c.Slug == slug {
			return c, nil
		}
	}
	return models.Category{}, ErrUnknownCategory
}
