// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides Prometheus instrumentation for the
// dashboard metrics service.
//
// # Description
//
// Counters, histograms, and gauges covering the series store (records,
// evictions, queries), the live stream (connected clients, drops), the
// backend collector (probe failures, threshold breaches), and the export
// sink. Exposed on /metrics for Prometheus + Grafana.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Metric Definitions
// =============================================================================

// Namespace for all metrics
const metricsNamespace = "tekton"

// Subsystem for dashboard metrics
const dashboardSubsystem = "dashboard"

// DashboardMetrics holds all Prometheus metrics for the dashboard service.
//
// # Description
//
// Initialize once at startup via InitMetrics(). Store and broker hooks
// route through the helper methods rather than touching vectors directly.
//
// # Thread Safety
//
// All operations are thread-safe.
type DashboardMetrics struct {
	// SamplesRecordedTotal counts samples accepted into the store.
	// Labels: channel, source (collector, api, replay)
	SamplesRecordedTotal *prometheus.CounterVec

	// SamplesEvictedTotal counts samples dropped by capacity eviction.
	// Labels: channel
	SamplesEvictedTotal *prometheus.CounterVec

	// RangeQueriesTotal counts range queries by requested window.
	// Labels: window (1h, 6h, 24h, 7d, 30d, fallback, explicit)
	RangeQueriesTotal *prometheus.CounterVec

	// QueryDurationSeconds measures store read latency.
	// Labels: operation (history, range, channels)
	QueryDurationSeconds *prometheus.HistogramVec

	// WSClients tracks currently connected WebSocket sessions.
	WSClients prometheus.Gauge

	// StreamDroppedTotal counts events dropped for lagging subscribers.
	// Labels: subscriber
	StreamDroppedTotal *prometheus.CounterVec

	// ProbeFailuresTotal counts failed backend health probes.
	// Labels: target (tekton_core, apollo, sophia)
	ProbeFailuresTotal *prometheus.CounterVec

	// ProbeDurationSeconds measures backend probe round trips.
	// Labels: target
	ProbeDurationSeconds *prometheus.HistogramVec

	// ThresholdBreachesTotal counts resource threshold crossings.
	// Labels: channel, severity (warning, critical)
	ThresholdBreachesTotal *prometheus.CounterVec

	// ExportPointsTotal counts samples forwarded to the export sink.
	// Labels: status (written, failed, skipped)
	ExportPointsTotal *prometheus.CounterVec
}

// DefaultMetrics is the singleton instance of DashboardMetrics.
// Initialized by InitMetrics().
var DefaultMetrics *DashboardMetrics

// InitMetrics initializes the default metrics instance.
//
// # Description
//
// Creates and registers all Prometheus metrics. Call once at startup.
//
// # Limitations
//
//   - Panics if called twice (duplicate registration).
func InitMetrics() *DashboardMetrics {
	DefaultMetrics = &DashboardMetrics{
		SamplesRecordedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: dashboardSubsystem,
				Name:      "samples_recorded_total",
				Help:      "Total samples accepted into the series store by channel and source",
			},
			[]string{"channel", "source"},
		),

		SamplesEvictedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: dashboardSubsystem,
				Name:      "samples_evicted_total",
				Help:      "Total samples dropped by per-channel capacity eviction",
			},
			[]string{"channel"},
		),

		RangeQueriesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: dashboardSubsystem,
				Name:      "range_queries_total",
				Help:      "Total range queries by requested window",
			},
			[]string{"window"},
		),

		QueryDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: dashboardSubsystem,
				Name:      "query_duration_seconds",
				Help:      "Store read latency by operation",
				Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
			},
			[]string{"operation"},
		),

		WSClients: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: dashboardSubsystem,
				Name:      "ws_clients",
				Help:      "Currently connected WebSocket sessions",
			},
		),

		StreamDroppedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: dashboardSubsystem,
				Name:      "stream_dropped_total",
				Help:      "Events dropped because a subscriber's buffer was full",
			},
			[]string{"subscriber"},
		),

		ProbeFailuresTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: dashboardSubsystem,
				Name:      "collector_probe_failures_total",
				Help:      "Failed backend health probes by target",
			},
			[]string{"target"},
		),

		ProbeDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: dashboardSubsystem,
				Name:      "collector_probe_duration_seconds",
				Help:      "Backend health probe round-trip time",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
			},
			[]string{"target"},
		),

		ThresholdBreachesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: dashboardSubsystem,
				Name:      "collector_threshold_breaches_total",
				Help:      "Resource threshold crossings by channel and severity",
			},
			[]string{"channel", "severity"},
		),

		ExportPointsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: dashboardSubsystem,
				Name:      "export_points_total",
				Help:      "Samples forwarded to the export sink by outcome",
			},
			[]string{"status"},
		),
	}

	return DefaultMetrics
}

// =============================================================================
// Sources and Severities
// =============================================================================

// Source labels where a recorded sample came from.
type Source string

const (
	// SourceCollector marks samples recorded by the backend poller.
	SourceCollector Source = "collector"

	// SourceAPI marks samples pushed through POST /v1/metrics.
	SourceAPI Source = "api"
)

// Severity labels a threshold breach.
type Severity string

const (
	// SeverityWarning is the lower threshold band.
	SeverityWarning Severity = "warning"

	// SeverityCritical is the upper threshold band.
	SeverityCritical Severity = "critical"
)

// =============================================================================
// Helper Methods
// =============================================================================

// RecordSample counts one accepted sample.
func (m *DashboardMetrics) RecordSample(channel string, source Source) {
	m.SamplesRecordedTotal.WithLabelValues(channel, string(source)).Inc()
}

// RecordEviction counts samples dropped from a channel.
func (m *DashboardMetrics) RecordEviction(channel string, evicted int) {
	m.SamplesEvictedTotal.WithLabelValues(channel).Add(float64(evicted))
}

// RecordRangeQuery counts a range query. Pass the window name the caller
// sent, "fallback" when it was unrecognized, or "explicit" for duration
// queries.
func (m *DashboardMetrics) RecordRangeQuery(window string) {
	m.RangeQueriesTotal.WithLabelValues(window).Inc()
}

// ObserveQuery records a store read's latency.
func (m *DashboardMetrics) ObserveQuery(operation string, seconds float64) {
	m.QueryDurationSeconds.WithLabelValues(operation).Observe(seconds)
}

// WSConnected increments the connected-session gauge.
func (m *DashboardMetrics) WSConnected() {
	m.WSClients.Inc()
}

// WSDisconnected decrements the connected-session gauge.
func (m *DashboardMetrics) WSDisconnected() {
	m.WSClients.Dec()
}

// RecordStreamDrop counts an event dropped for a lagging subscriber.
func (m *DashboardMetrics) RecordStreamDrop(subscriber string) {
	m.StreamDroppedTotal.WithLabelValues(subscriber).Inc()
}

// RecordProbeFailure counts a failed backend probe.
func (m *DashboardMetrics) RecordProbeFailure(target string) {
	m.ProbeFailuresTotal.WithLabelValues(target).Inc()
}

// ObserveProbe records a probe round trip.
func (m *DashboardMetrics) ObserveProbe(target string, seconds float64) {
	m.ProbeDurationSeconds.WithLabelValues(target).Observe(seconds)
}

// RecordThresholdBreach counts a resource threshold crossing.
func (m *DashboardMetrics) RecordThresholdBreach(channel string, severity Severity) {
	m.ThresholdBreachesTotal.WithLabelValues(channel, string(severity)).Inc()
}

// RecordExport counts an export sink outcome: "written", "failed", or
// "skipped".
func (m *DashboardMetrics) RecordExport(status string) {
	m.ExportPointsTotal.WithLabelValues(status).Inc()
}
