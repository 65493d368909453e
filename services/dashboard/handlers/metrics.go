// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers implements the dashboard service's HTTP and WebSocket
// endpoints.
//
// Handlers are constructor functions taking their dependencies explicitly
// (store, broker, collector) and returning gin.HandlerFunc closures; there
// is no package-level service state.
package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ckoons/Tekton-sub001/services/dashboard/datatypes"
	"github.com/ckoons/Tekton-sub001/services/dashboard/metrics"
	"github.com/ckoons/Tekton-sub001/services/dashboard/observability"
	"github.com/ckoons/Tekton-sub001/services/dashboard/stream"
)

// Create a new tracer
var metricsTracer = otel.Tracer("tekton.dashboard.handlers")

// =============================================================================
// Record
// =============================================================================

// RecordMetric handles POST /v1/metrics.
//
// # Description
//
// Accepts one sample from an external producer (a browser panel or the
// CLI), validates the boundary rules, records it, and publishes it to the
// live stream. Responds 202: the sample is accepted into a bounded rolling
// window, not durably stored.
func RecordMetric(store *metrics.Store, broker *stream.Broker) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, span := metricsTracer.Start(c.Request.Context(), "RecordMetric")
		defer span.End()

		var req datatypes.RecordMetricRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
			return
		}
		if err := req.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		span.SetAttributes(attribute.String("channel", req.Channel))

		ts := req.Timestamp
		if ts == 0 {
			store.Record(req.Channel, *req.Value)
			// Read the stamped time back for the ack and the stream event.
			history := store.History(req.Channel)
			ts = history[len(history)-1].Timestamp
		} else {
			store.RecordAt(req.Channel, *req.Value, ts)
		}

		broker.Publish(stream.Event{
			Channel: req.Channel,
			Sample:  metrics.Sample{Timestamp: ts, Value: *req.Value},
		})
		if m := observability.DefaultMetrics; m != nil {
			m.RecordSample(req.Channel, observability.SourceAPI)
		}

		c.JSON(http.StatusAccepted, datatypes.RecordMetricResponse{
			Channel:   req.Channel,
			Timestamp: ts,
			Retained:  store.Len(req.Channel),
		})
	}
}

// =============================================================================
// Queries
// =============================================================================

// ListChannels handles GET /v1/metrics/channels.
func ListChannels(store *metrics.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		names := store.Channels()
		channels := make([]datatypes.ChannelInfo, 0, len(names))
		for _, name := range names {
			channels = append(channels, datatypes.ChannelInfo{
				Name:     name,
				Retained: store.Len(name),
			})
		}

		if m := observability.DefaultMetrics; m != nil {
			m.ObserveQuery("channels", time.Since(start).Seconds())
		}
		c.JSON(http.StatusOK, datatypes.ChannelListResponse{Channels: channels})
	}
}

// ChannelHistory handles GET /v1/metrics/:channel/history.
//
// Unknown channels are not 404s: the store's contract is "empty result,
// never an error", and the panels render "No data available" from an empty
// array.
func ChannelHistory(store *metrics.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		channel := c.Param("channel")
		start := time.Now()

		samples := store.History(channel)

		if m := observability.DefaultMetrics; m != nil {
			m.ObserveQuery("history", time.Since(start).Seconds())
		}
		c.JSON(http.StatusOK, datatypes.HistoryResponse{
			Channel: channel,
			Samples: samples,
		})
	}
}

// ChannelRange handles GET /v1/metrics/:channel/range.
//
// # Description
//
// Three call shapes, matching the time-range dropdown contract:
//
//   - ?window=1h|6h|24h|7d|30d — named window. Unrecognized names fall
//     back to 24h; the response flags the fallback but is still a 200.
//   - ?duration_ms=N — explicit duration in milliseconds.
//   - neither — no time filter at all, the full retained history.
//
// duration_ms wins when both are sent. A malformed duration_ms is the one
// genuine client error here.
func ChannelRange(store *metrics.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, span := metricsTracer.Start(c.Request.Context(), "ChannelRange")
		defer span.End()

		channel := c.Param("channel")
		span.SetAttributes(attribute.String("channel", channel))
		start := time.Now()

		resp := datatypes.RangeResponse{Channel: channel}

		if raw, ok := c.GetQuery("duration_ms"); ok {
			durationMS, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || durationMS < 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "duration_ms must be a non-negative integer"})
				return
			}
			resp.DurationMS = durationMS
			resp.Window = "explicit"
			resp.Samples = store.RangeDuration(channel, time.Duration(durationMS)*time.Millisecond)
			if m := observability.DefaultMetrics; m != nil {
				m.RecordRangeQuery("explicit")
			}
		} else if window, ok := c.GetQuery("window"); ok {
			label := window
			if !metrics.KnownWindow(window) {
				slog.Debug("Unknown range window, using 24h fallback",
					"channel", channel, "window", window)
				resp.Fallback = true
				label = "fallback"
			}
			resp.Window = window
			resp.Samples = store.Range(channel, window)
			if m := observability.DefaultMetrics; m != nil {
				m.RecordRangeQuery(label)
			}
		} else {
			// No filter requested: distinct from a bad window value, which
			// filters by the 24h default.
			resp.Samples = store.History(channel)
		}

		if m := observability.DefaultMetrics; m != nil {
			m.ObserveQuery("range", time.Since(start).Seconds())
		}
		c.JSON(http.StatusOK, resp)
	}
}

// =============================================================================
// Reset
// =============================================================================

// ResetStore handles DELETE /v1/metrics.
//
// The explicit cleanup hook: the store has no automatic expiry beyond
// capacity eviction, and the dashboard clears it on logout/teardown.
func ResetStore(store *metrics.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		channels := len(store.Channels())
		samples := store.TotalSamples()

		store.Reset()
		slog.Info("Metric store reset", "cleared_channels", channels, "cleared_samples", samples)

		c.JSON(http.StatusOK, datatypes.ResetResponse{
			Status:          "reset",
			ClearedChannels: channels,
			ClearedSamples:  samples,
		})
	}
}
