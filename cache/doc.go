// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cache provides the in-memory response cache used by the public
gallery and calendar endpoints.

Every entry is stored with a set of tags. Admin writes never compute which
keys they affect; they invalidate tags instead:

	c.Set("list:swimwear:newest::", images, cache.CategoryTag("swimwear"))
	...
	c.InvalidateTag(cache.TagGallery, cache.CategoryTag("swimwear"))

Tag scheme:

  - gallery: the category index (counts and covers)
  - gallery:<category>: listings of one category, "gallery:all" for the
    cross-category listing
  - image:<id>: single image lookups
  - calendar: month and upcoming views
*/
package cache
