// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package metrics holds the Prometheus collectors for the site.

Collectors register with the default registry on package init and are
served by Handler at GET /metrics.

  - site_http_requests_total, site_http_request_duration_seconds: per route
    pattern (never the raw path, to keep label cardinality bounded)
  - site_contact_submissions_total: sent, spam, rejected, failed
  - site_cache_lookups_total, site_cache_invalidated_entries_total
  - site_calendar_syncs_total, site_calendar_events
  - site_gallery_mutations_total
*/
package metrics
