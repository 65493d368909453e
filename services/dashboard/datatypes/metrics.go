// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes provides request and response types for the dashboard
// metrics service HTTP and WebSocket API.
//
// This file contains the metric record/query types. For backend status
// types, see status.go.
package datatypes

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ckoons/Tekton-sub001/pkg/validation"
	"github.com/ckoons/Tekton-sub001/services/dashboard/metrics"
)

// =============================================================================
// Shared Validator Instance
// =============================================================================

// metricsValidate is the validator instance for metric datatypes.
// Initialized in init() with the channel-name validator.
var metricsValidate *validator.Validate

func init() {
	metricsValidate = validator.New()

	_ = metricsValidate.RegisterValidation("channel", validateChannelName)
}

// validateChannelName bridges pkg/validation's channel rules into a
// validator tag, so request structs can declare `validate:"channel"`.
func validateChannelName(fl validator.FieldLevel) bool {
	return validation.ValidateChannel(fl.Field().String()) == nil
}

// =============================================================================
// Record Request
// =============================================================================

// RecordMetricRequest is the body of POST /v1/metrics.
//
// # Description
//
// Pushes one sample into the series store. This is the path for producers
// outside the collector: browser panels reporting client-observed readings,
// or operators using `tekton record`.
//
// # Fields
//
//   - Channel: Required. Metric channel name (cpu, memory, apollo.up, ...).
//     Must pass the channel-name rules; the store itself is permissive, but
//     names arriving over the wire become Prometheus label values and chart
//     keys, so the boundary is strict.
//   - Value: Required. A JSON number for a scalar reading, or a JSON object
//     of numbers for a structured reading ({"in": 120, "out": 80}).
//   - Timestamp: Optional. Unix milliseconds. Zero means "stamp on arrival"
//     with the store's clock. Out-of-order timestamps are accepted and kept
//     in insertion order.
//
// # Examples
//
//	{"channel": "cpu", "value": 42.5}
//	{"channel": "network", "value": {"in": 120, "out": 80}, "timestamp": 1750000000000}
type RecordMetricRequest struct {
	Channel   string         `json:"channel" validate:"required,channel"`
	Value     *metrics.Value `json:"value" validate:"required"`
	Timestamp int64          `json:"timestamp,omitempty" validate:"gte=0"`
}

// Validate validates the RecordMetricRequest fields.
//
// Call after binding the JSON body. The Value shape itself is validated
// during unmarshalling (a number or an object of numbers); Validate covers
// presence and the channel name.
func (r *RecordMetricRequest) Validate() error {
	return metricsValidate.Struct(r)
}

// EnsureDefaults populates default values for optional fields.
//
// A zero Timestamp stays zero here; the handler maps it to "now" via the
// store's clock so that tests with a manual clock stay deterministic.
func (r *RecordMetricRequest) EnsureDefaults() {
	// Timestamp zero means clock-stamped; nothing else defaults.
}

// RecordMetricResponse acknowledges an accepted sample.
type RecordMetricResponse struct {
	Channel   string `json:"channel"`
	Timestamp int64  `json:"timestamp"`
	Retained  int    `json:"retained"`
}

// =============================================================================
// Query Responses
// =============================================================================

// ChannelInfo describes one channel in the channel listing.
type ChannelInfo struct {
	Name     string `json:"name"`
	Retained int    `json:"retained"`
}

// ChannelListResponse is the body of GET /v1/metrics/channels.
type ChannelListResponse struct {
	Channels []ChannelInfo `json:"channels"`
}

// HistoryResponse is the body of GET /v1/metrics/:channel/history.
//
// Samples are oldest first. An unknown channel yields an empty samples
// array with status 200; "no data" is a renderable result, not an error.
type HistoryResponse struct {
	Channel string           `json:"channel"`
	Samples []metrics.Sample `json:"samples"`
}

// RangeResponse is the body of GET /v1/metrics/:channel/range.
//
// Window echoes the resolved window name, "explicit" for duration queries,
// or "" when no filter was requested. Fallback is true when the caller sent
// an unrecognized window name and got the 24h default.
type RangeResponse struct {
	Channel    string           `json:"channel"`
	Window     string           `json:"window,omitempty"`
	DurationMS int64            `json:"duration_ms,omitempty"`
	Fallback   bool             `json:"fallback,omitempty"`
	Samples    []metrics.Sample `json:"samples"`
}

// ResetResponse is the body of DELETE /v1/metrics.
type ResetResponse struct {
	Status          string `json:"status"`
	ClearedChannels int    `json:"cleared_channels"`
	ClearedSamples  int    `json:"cleared_samples"`
}

// =============================================================================
// WebSocket Messages
// =============================================================================

// WSRequest is a client-to-server message on /v1/ws/metrics.
//
// Actions:
//   - "subscribe": replace the session's channel selection. Empty or
//     omitted Channels subscribes to every channel.
//   - "ping": liveness probe, answered with a "pong".
type WSRequest struct {
	Action   string   `json:"action"`
	Channels []string `json:"channels,omitempty"`
}

// Validate validates a WSRequest. Channel names in a subscribe action must
// pass the boundary rules; an invalid name fails the whole subscribe so the
// client notices instead of silently receiving nothing.
func (r *WSRequest) Validate() error {
	return validation.ValidateChannels(r.Channels)
}

// WSEvent is a server-to-client sample notification.
type WSEvent struct {
	Channel string         `json:"channel"`
	Sample  metrics.Sample `json:"sample"`
	Replay  bool           `json:"replay,omitempty"`
}

// WSAck is a server-to-client control message (session_created, subscribed,
// pong, error).
type WSAck struct {
	Action    string   `json:"action"`
	SessionID string   `json:"session_id,omitempty"`
	Channels  []string `json:"channels,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// =============================================================================
// Health
// =============================================================================

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status        string `json:"status"`
	Service       string `json:"service"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Channels      int    `json:"channels"`
	Samples       int    `json:"samples"`
}

// NewHealthResponse assembles the liveness body from current store state.
func NewHealthResponse(startedAt time.Time, channels, samples int) HealthResponse {
	return HealthResponse{
		Status:        "ok",
		Service:       "tekton-dashboard",
		UptimeSeconds: int64(time.Since(startedAt).Seconds()),
		Channels:      channels,
		Samples:       samples,
	}
}
