// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package export

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ckoons/Tekton-sub001/services/dashboard/metrics"
	"github.com/ckoons/Tekton-sub001/services/dashboard/stream"
)

// recordingWriter captures written points and optionally fails.
type recordingWriter struct {
	mu     sync.Mutex
	points []*write.Point
	fail   bool
}

func (w *recordingWriter) WritePoint(ctx context.Context, points ...*write.Point) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fail {
		return fmt.Errorf("write refused")
	}
	w.points = append(w.points, points...)
	return nil
}

func (w *recordingWriter) written() []*write.Point {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]*write.Point, len(w.points))
	copy(out, w.points)
	return out
}

// newTestSink builds a sink over a recording writer, bypassing the real
// InfluxDB connection.
func newTestSink(broker *stream.Broker) (*Sink, *recordingWriter) {
	writer := &recordingWriter{}
	return &Sink{write: writer, broker: broker}, writer
}

// =============================================================================
// Point Mapping Tests
// =============================================================================

func TestPointFromEvent_Scalar(t *testing.T) {
	event := stream.Event{
		Channel: "cpu",
		Sample:  metrics.Sample{Timestamp: 1750000000000, Value: metrics.NewScalar(42.5)},
	}

	point := pointFromEvent(event)
	require.NotNil(t, point)

	assert.Equal(t, Measurement, point.Name())
	assert.Equal(t, time.UnixMilli(1750000000000), point.Time())

	tags := map[string]string{}
	for _, tag := range point.TagList() {
		tags[tag.Key] = tag.Value
	}
	assert.Equal(t, "cpu", tags["channel"])

	fields := map[string]interface{}{}
	for _, field := range point.FieldList() {
		fields[field.Key] = field.Value
	}
	assert.Equal(t, 42.5, fields["value"])
}

func TestPointFromEvent_Structured(t *testing.T) {
	event := stream.Event{
		Channel: "network",
		Sample: metrics.Sample{
			Timestamp: 100,
			Value:     metrics.NewStructured(map[string]float64{"in": 120, "out": 80}),
		},
	}

	point := pointFromEvent(event)
	require.NotNil(t, point)

	fields := map[string]interface{}{}
	for _, field := range point.FieldList() {
		fields[field.Key] = field.Value
	}
	assert.Equal(t, 120.0, fields["in"])
	assert.Equal(t, 80.0, fields["out"])
}

func TestPointFromEvent_NonFinite(t *testing.T) {
	// Line protocol cannot carry NaN/Inf; the store stays permissive and
	// this boundary drops what it cannot represent.
	nan := stream.Event{
		Channel: "cpu",
		Sample:  metrics.Sample{Timestamp: 100, Value: metrics.NewScalar(math.NaN())},
	}
	assert.Nil(t, pointFromEvent(nan))

	inf := stream.Event{
		Channel: "cpu",
		Sample:  metrics.Sample{Timestamp: 100, Value: metrics.NewScalar(math.Inf(1))},
	}
	assert.Nil(t, pointFromEvent(inf))

	// Structured payloads drop only the non-finite fields.
	mixed := stream.Event{
		Channel: "network",
		Sample: metrics.Sample{
			Timestamp: 100,
			Value:     metrics.NewStructured(map[string]float64{"in": 120, "out": math.NaN()}),
		},
	}
	point := pointFromEvent(mixed)
	require.NotNil(t, point)
	require.Len(t, point.FieldList(), 1)
	assert.Equal(t, "in", point.FieldList()[0].Key)

	allBad := stream.Event{
		Channel: "network",
		Sample: metrics.Sample{
			Timestamp: 100,
			Value:     metrics.NewStructured(map[string]float64{"in": math.Inf(-1)}),
		},
	}
	assert.Nil(t, pointFromEvent(allBad))
}

// =============================================================================
// Consume Loop Tests
// =============================================================================

func TestSink_ForwardsBrokerEvents(t *testing.T) {
	broker := stream.NewBroker()
	defer broker.Close()

	sink, writer := newTestSink(broker)
	require.NoError(t, sink.Start(context.Background()))

	broker.Publish(stream.Event{
		Channel: "cpu",
		Sample:  metrics.Sample{Timestamp: 100, Value: metrics.NewScalar(1)},
	})
	broker.Publish(stream.Event{
		Channel: "memory",
		Sample:  metrics.Sample{Timestamp: 200, Value: metrics.NewScalar(2)},
	})

	require.Eventually(t, func() bool {
		return len(writer.written()) == 2
	}, 2*time.Second, 10*time.Millisecond)

	sink.client = nil // no real connection in tests
	sink.Close()
	assert.Zero(t, broker.SubscriberCount(), "Close should unsubscribe the sink")
}

func TestSink_WriteFailureIsNotFatal(t *testing.T) {
	broker := stream.NewBroker()
	defer broker.Close()

	sink, writer := newTestSink(broker)
	writer.fail = true
	require.NoError(t, sink.Start(context.Background()))

	broker.Publish(stream.Event{
		Channel: "cpu",
		Sample:  metrics.Sample{Timestamp: 100, Value: metrics.NewScalar(1)},
	})

	// The consume loop must survive the failure and keep accepting events.
	writer.mu.Lock()
	writer.fail = false
	writer.mu.Unlock()

	broker.Publish(stream.Event{
		Channel: "cpu",
		Sample:  metrics.Sample{Timestamp: 200, Value: metrics.NewScalar(2)},
	})

	require.Eventually(t, func() bool {
		points := writer.written()
		return len(points) == 1 && points[0].Time() == time.UnixMilli(200)
	}, 2*time.Second, 10*time.Millisecond)

	sink.Close()
}

func TestSink_StopsWhenBrokerCloses(t *testing.T) {
	broker := stream.NewBroker()

	sink, _ := newTestSink(broker)
	require.NoError(t, sink.Start(context.Background()))

	broker.Close()

	done := make(chan struct{})
	go func() {
		sink.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("consume loop did not exit after broker close")
	}
}
