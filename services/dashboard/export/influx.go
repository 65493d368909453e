// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package export forwards recorded metric samples to InfluxDB.
//
// # Description
//
// The series store is deliberately in-memory and bounded; durability is an
// export concern. The sink subscribes to the stream broker and writes each
// event as a point in the configured bucket, so Grafana/Flux queries can
// reach further back than the store's rolling window. The sink is optional:
// the service only builds one when INFLUXDB_URL is configured.
//
// # Thread Safety
//
// One consuming goroutine owns the write path. Start and Close are safe to
// call from the service lifecycle.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/ckoons/Tekton-sub001/services/dashboard/metrics"
	"github.com/ckoons/Tekton-sub001/services/dashboard/observability"
	"github.com/ckoons/Tekton-sub001/services/dashboard/stream"
)

const (
	// SubscriberID identifies the sink on the broker. Drop counters use it.
	SubscriberID = "influx-export"

	// Measurement is the single measurement all samples land under.
	Measurement = "dashboard_metrics"

	// health-gated startup: attempts and spacing before giving up.
	healthAttempts = 10
	healthInterval = 3 * time.Second
)

// Config holds InfluxDB connection settings.
type Config struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// pointWriter is the slice of the InfluxDB blocking write API the sink
// uses. Tests substitute a recorder.
type pointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

// =============================================================================
// Sink
// =============================================================================

// Sink consumes broker events and writes them to InfluxDB.
type Sink struct {
	client influxdb2.Client
	write  pointWriter
	broker *stream.Broker

	wg sync.WaitGroup
}

// NewSink connects to InfluxDB and verifies it is healthy.
//
// # Description
//
// Pings the server up to ten times, three seconds apart, before giving up.
// The dashboard usually starts alongside its InfluxDB container; the retry
// window absorbs that startup race instead of failing the whole service.
//
// # Inputs
//
//   - ctx: Bounds the health-check retries.
//   - cfg: Connection settings. URL and Token are required.
//   - broker: Stream broker to subscribe to once started.
//
// # Outputs
//
//   - *Sink: Ready to Start.
//   - error: Missing settings, or InfluxDB unreachable after all retries.
func NewSink(ctx context.Context, cfg Config, broker *stream.Broker) (*Sink, error) {
	if cfg.URL == "" || cfg.Token == "" {
		return nil, fmt.Errorf("influxdb export requires URL and token")
	}

	client := influxdb2.NewClient(cfg.URL, cfg.Token)

	var ready bool
	for i := 0; i < healthAttempts; i++ {
		health, err := client.Health(ctx)
		if err == nil && health.Status == "pass" {
			ready = true
			break
		}

		var errMsg string
		if err != nil {
			errMsg = err.Error()
		} else if health != nil && health.Message != nil {
			errMsg = *health.Message
		}
		slog.Warn("InfluxDB not ready, retrying...", "attempt", i+1, "error", errMsg)

		select {
		case <-ctx.Done():
			client.Close()
			return nil, ctx.Err()
		case <-time.After(healthInterval):
		}
	}

	if !ready {
		client.Close()
		return nil, fmt.Errorf("influxdb not healthy after %d attempts", healthAttempts)
	}

	slog.Info("InfluxDB export sink connected",
		"url", cfg.URL, "org", cfg.Org, "bucket", cfg.Bucket)

	return &Sink{
		client: client,
		write:  client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		broker: broker,
	}, nil
}

// Start subscribes to the broker and begins forwarding events.
//
// # Description
//
// Launches the consuming goroutine. It exits when the broker closes the
// subscription (service shutdown) or the context is cancelled. Write
// failures are logged and counted, never fatal; losing an export point is
// preferable to stalling the dashboard.
func (s *Sink) Start(ctx context.Context) error {
	events, err := s.broker.Subscribe(SubscriberID, nil)
	if err != nil {
		return fmt.Errorf("export sink subscription failed: %w", err)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.consume(ctx, events)
	}()
	return nil
}

// consume drains the event stream into InfluxDB.
func (s *Sink) consume(ctx context.Context, events <-chan stream.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			s.forward(ctx, event)
		}
	}
}

// forward writes one event, skipping payloads InfluxDB cannot represent.
func (s *Sink) forward(ctx context.Context, event stream.Event) {
	point := pointFromEvent(event)
	if point == nil {
		slog.Debug("Skipping non-representable sample",
			"channel", event.Channel, "timestamp", event.Sample.Timestamp)
		if m := observability.DefaultMetrics; m != nil {
			m.RecordExport("skipped")
		}
		return
	}

	if err := s.write.WritePoint(ctx, point); err != nil {
		slog.Error("Failed to write point to InfluxDB",
			"channel", event.Channel, "error", err)
		if m := observability.DefaultMetrics; m != nil {
			m.RecordExport("failed")
		}
		return
	}

	if m := observability.DefaultMetrics; m != nil {
		m.RecordExport("written")
	}
}

// Close stops consuming and releases the InfluxDB client. The broker
// subscription is removed so Publish stops routing events here.
func (s *Sink) Close() {
	s.broker.Unsubscribe(SubscriberID)
	s.wg.Wait()
	if s.client != nil {
		s.client.Close()
	}
}

// =============================================================================
// Point Mapping
// =============================================================================

// pointFromEvent maps a sample to a line-protocol point.
//
// Scalars become a single "value" field; structured payloads one field per
// key. Line protocol has no encoding for NaN or ±Inf, so non-finite
// numbers are dropped (field-wise for structured payloads; a sample whose
// every field is non-finite yields nil). The store itself stays permissive;
// this boundary is where the representation limit lives.
func pointFromEvent(event stream.Event) *write.Point {
	fields := make(map[string]interface{})

	switch event.Sample.Value.Kind() {
	case metrics.KindStructured:
		for k, v := range event.Sample.Value.Fields() {
			if isFinite(v) {
				fields[k] = v
			}
		}
	default:
		if v := event.Sample.Value.Scalar(); isFinite(v) {
			fields["value"] = v
		}
	}

	if len(fields) == 0 {
		return nil
	}

	return write.NewPoint(
		Measurement,
		map[string]string{"channel": event.Channel},
		fields,
		time.UnixMilli(event.Sample.Timestamp),
	)
}

// isFinite reports whether v is representable in line protocol.
func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
