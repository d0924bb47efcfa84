// Sonosphere - Music Library 3D Visualization API
// Copyright 2026 Sonosphere Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/audiomaps/sonosphere

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for:
// - Database query performance (DuckDB)
// - API endpoint latency and throughput
// - Bulk coordinate load operations
// - Neighbor query latency
// - Object store circuit breaker state

var (
	// Database Metrics
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
		[]string{"operation", "table", "error_type"},
	)

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

	// Bulk Load Metrics
	LoadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "load_duration_seconds",
			Help:    "Duration of bulk coordinate load operations in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		},
	)

	LoadRecordsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "load_records_processed_total",
			Help: "Total number of coordinate records processed during loads",
		},
		[]string{"outcome"}, // "inserted", "updated", "skipped"
	)

	LoadErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "load_errors_total",
			Help: "Total number of fatal bulk load errors",
		},
		[]string{"error_type"}, // "object_store", "decode", "database"
	)

	LoadLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "load_last_success_timestamp",
			Help: "Unix timestamp of last successful bulk load",
		},
	)

	// Neighbor Query Metrics
	NeighborQueryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "neighbor_query_duration_seconds",
			Help:    "Duration of nearest-neighbor queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	NeighborIndexSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "neighbor_index_points",
			Help: "Number of points scanned by the last neighbor query",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		// Truncate long error messages
		if len(errorType) > 50 {
			errorType = errorType[:50]
		}
		DBQueryErrors.WithLabelValues(operation, table, errorType).Inc()
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordLoad records a completed bulk load with per-outcome record counts.
// A nil err marks the load successful and updates the last-success timestamp.
func RecordLoad(duration time.Duration, inserted, updated, skipped int, err error) {
	LoadDuration.Observe(duration.Seconds())
	LoadRecordsProcessed.WithLabelValues("inserted").Add(float64(inserted))
	LoadRecordsProcessed.WithLabelValues("updated").Add(float64(updated))
	LoadRecordsProcessed.WithLabelValues("skipped").Add(float64(skipped))
	if err == nil {
		LoadLastSuccess.Set(float64(time.Now().Unix()))
	}
}

// RecordLoadError records a fatal bulk load error by category.
func RecordLoadError(errorType string) {
	LoadErrors.WithLabelValues(errorType).Inc()
}

// RecordNeighborQuery records a neighbor query metric.
func RecordNeighborQuery(duration time.Duration, points int) {
	NeighborQueryDuration.Observe(duration.Seconds())
	NeighborIndexSize.Set(float64(points))
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordCircuitBreakerState updates the breaker state gauge for a named breaker.
func RecordCircuitBreakerState(name string, state int) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordCircuitBreakerRequest records a request outcome through a named breaker.
func RecordCircuitBreakerRequest(name, result string) {
	CircuitBreakerRequests.WithLabelValues(name, result).Inc()
}
