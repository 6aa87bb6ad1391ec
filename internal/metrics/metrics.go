// Vigil - Website Uptime Monitoring and Audit Trail
// Copyright 2026 Vigil Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vigil-monitoring/vigil

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for:
// - API endpoint latency and throughput
// - Audit pipeline throughput (enqueued, dropped, persisted)
// - Audit store query performance (DuckDB)
// - Geolocation lookups and cache efficiency
// - Website ping checks

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Audit Pipeline Metrics
	AuditRecordsEnqueued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audit_records_enqueued_total",
			Help: "Total number of audit records accepted onto the queue",
		},
	)

	AuditRecordsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audit_records_dropped_total",
			Help: "Total number of audit records dropped due to a full queue",
		},
	)

	AuditRecordsPersisted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audit_records_persisted_total",
			Help: "Total number of audit records written to the store",
		},
	)

	AuditPersistErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audit_persist_errors_total",
			Help: "Total number of failed audit store writes",
		},
	)

	AuditQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "audit_queue_depth",
			Help: "Current number of audit records waiting to be persisted",
		},
	)

	AuditRecordsPurged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audit_records_purged_total",
			Help: "Total number of audit records removed by retention cleanup",
		},
	)

	// Audit Store Metrics (DuckDB)
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table"},
	)

	// Geolocation Metrics
	GeolocationLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geolocation_lookups_total",
			Help: "Total number of geolocation lookups by provider and result",
		},
		[]string{"provider", "result"}, // result: "success", "error", "rate_limited"
	)

	GeolocationCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "geolocation_cache_hits_total",
			Help: "Total number of geolocation cache hits",
		},
	)

	GeolocationCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "geolocation_cache_misses_total",
			Help: "Total number of geolocation cache misses (provider fetch required)",
		},
	)

	GeolocationAPICallDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "geolocation_api_call_duration_seconds",
			Help:    "Duration of external geolocation API calls",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Website Check Metrics
	WebsitePingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "website_pings_total",
			Help: "Total number of website ping checks",
		},
		[]string{"result"}, // "up", "down", "error"
	)

	WebsitePingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "website_ping_duration_seconds",
			Help:    "Duration of website ping checks in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordDBQuery records an audit store query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordGeolocationLookup records a provider lookup result
func RecordGeolocationLookup(provider, result string, duration time.Duration) {
	GeolocationLookups.WithLabelValues(provider, result).Inc()
	GeolocationAPICallDuration.Observe(duration.Seconds())
}

// RecordWebsitePing records the outcome of a website check
func RecordWebsitePing(result string, duration time.Duration) {
	WebsitePingsTotal.WithLabelValues(result).Inc()
	WebsitePingDuration.Observe(duration.Seconds())
}
