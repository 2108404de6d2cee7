// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package gallery implements the image gallery: categories, date-range
labels, ordering, and the admin upload/edit/delete pipeline.

# Categories

The categories are fixed (editorial, commercial, swimwear, fitness,
lifestyle, behind-the-scenes). CategoryAll is accepted by List only.

# Date Ranges

Images carry a free text DateRange label. ParseDateRange understands

	2024
	2024-03, 03/2024, Mar 2024, March 2024
	2024-03-15, Mar 15, 2024, 15 March 2024
	Mar 2024 - Jun 2024, 2023 to 2024, 2024-01-10 – 2024-01-12

and returns a half-open interval. Labels drive SortImages and the
from/to listing filter.

# Ordering

Pinned images always come first, then:

  - newest: latest end date first
  - oldest: earliest start date first
  - title: case-insensitive title

Images with no parseable label go after dated ones.

# Writes

Upload puts the file in the bucket before writing the document and
removes the object if the document write fails. Delete and BulkDelete
remove documents first; object cleanup failures are logged only.
BulkDelete goes through docstore.DeleteMany, 500 documents per batch.

SetPinned supports optimistic clients: pass the version the client last
saw and a mismatch returns the stored image with ErrVersionConflict.

Every write invalidates the cache tags of the categories it touched.
*/
package gallery
