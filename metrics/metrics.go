// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Contact form outcomes
const (
	ContactSent     = "sent"
	ContactSpam     = "spam"
	ContactRejected = "rejected"
	ContactFailed   = "failed"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "site_http_requests_total",
			Help: "Total number of HTTP requests by route pattern",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "site_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	ContactSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "site_contact_submissions_total",
			Help: "Contact form submissions by outcome",
		},
		[]string{"outcome"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "site_cache_lookups_total",
			Help: "Response cache lookups by result",
		},
		[]string{"cache", "result"}, // "hit", "miss"
	)

	CacheInvalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "site_cache_invalidated_entries_total",
			Help: "Cache entries dropped by tag invalidation",
		},
		[]string{"cache"},
	)

	CalendarSyncs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "site_calendar_syncs_total",
			Help: "Calendar sync runs by result",
		},
		[]string{"result"},
	)

	CalendarEventsSynced = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "site_calendar_events",
			Help: "Events returned by the last successful calendar sync",
		},
	)

	GalleryMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "site_gallery_mutations_total",
			Help: "Gallery images changed by admin operation",
		},
		[]string{"operation"}, // "upload", "update", "delete", "pin"
	)
)

func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func RecordContactSubmission(outcome string) {
	ContactSubmissions.WithLabelValues(outcome).Inc()
}

func RecordCacheLookup(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheLookups.WithLabelValues(cache, result).Inc()
}

func RecordCacheInvalidation(cache string, dropped int) {
	CacheInvalidations.WithLabelValues(cache).Add(float64(dropped))
}

func RecordCalendarSync(events int, err error) {
	if err != nil {
		CalendarSyncs.WithLabelValues("error").Inc()
		return
	}
	CalendarSyncs.WithLabelValues("success").Inc()
	CalendarEventsSynced.Set(float64(events))
}

func RecordGalleryMutation(operation string, count int) {
	GalleryMutations.WithLabelValues(operation).Add(float64(count))
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
