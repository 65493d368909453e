// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package stream

import (
	"sync"
	"testing"

	"github.com/ckoons/Tekton-sub001/services/dashboard/metrics"
)

func event(channel string, ts int64, v float64) Event {
	return Event{Channel: channel, Sample: metrics.Sample{Timestamp: ts, Value: metrics.NewScalar(v)}}
}

// TestBroker_SubscribeAll tests that an empty filter receives every channel.
func TestBroker_SubscribeAll(t *testing.T) {
	broker := NewBroker()
	defer broker.Close()

	events, err := broker.Subscribe("all", nil)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	broker.Publish(event("cpu", 100, 1))
	broker.Publish(event("memory", 200, 2))

	first := <-events
	second := <-events
	if first.Channel != "cpu" || second.Channel != "memory" {
		t.Errorf("Expected cpu then memory, got %s then %s", first.Channel, second.Channel)
	}
}

// TestBroker_ChannelFilter tests that a filtered subscriber only sees its
// channels.
func TestBroker_ChannelFilter(t *testing.T) {
	broker := NewBroker()
	defer broker.Close()

	events, err := broker.Subscribe("cpu-only", []string{"cpu"})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	broker.Publish(event("memory", 100, 1))
	broker.Publish(event("cpu", 200, 2))

	got := <-events
	if got.Channel != "cpu" || got.Sample.Timestamp != 200 {
		t.Errorf("Filtered subscriber received wrong event: %+v", got)
	}
	if len(events) != 0 {
		t.Errorf("Expected no further buffered events, got %d", len(events))
	}
}

// TestBroker_Resubscribe tests that subscribing twice with one id swaps the
// filter without replacing the stream.
func TestBroker_Resubscribe(t *testing.T) {
	broker := NewBroker()
	defer broker.Close()

	first, err := broker.Subscribe("session", []string{"cpu"})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	second, err := broker.Subscribe("session", []string{"memory"})
	if err != nil {
		t.Fatalf("Re-subscribe failed: %v", err)
	}
	if first != second {
		t.Fatal("Re-subscribe should keep the existing stream")
	}
	if broker.SubscriberCount() != 1 {
		t.Fatalf("Expected 1 subscriber, got %d", broker.SubscriberCount())
	}

	broker.Publish(event("cpu", 100, 1))
	broker.Publish(event("memory", 200, 2))

	got := <-second
	if got.Channel != "memory" {
		t.Errorf("After filter swap, expected memory event, got %s", got.Channel)
	}
}

// TestBroker_DropWhenFull tests that a full subscriber buffer drops events
// and reports the lagging subscriber instead of blocking the publisher.
func TestBroker_DropWhenFull(t *testing.T) {
	var mu sync.Mutex
	drops := map[string]int{}

	broker := NewBroker(
		WithBufferSize(2),
		WithDropHandler(func(id string) {
			mu.Lock()
			drops[id]++
			mu.Unlock()
		}),
	)
	defer broker.Close()

	events, err := broker.Subscribe("slow", nil)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	for i := 0; i < 5; i++ {
		broker.Publish(event("cpu", int64(i), float64(i)))
	}

	mu.Lock()
	if drops["slow"] != 3 {
		t.Errorf("Expected 3 drops for the slow subscriber, got %d", drops["slow"])
	}
	mu.Unlock()

	// The two buffered events are the oldest two; drops discard the newest.
	got := <-events
	if got.Sample.Timestamp != 0 {
		t.Errorf("Expected first buffered event at ts 0, got %d", got.Sample.Timestamp)
	}
}

// TestBroker_Unsubscribe tests stream closure and idempotence.
func TestBroker_Unsubscribe(t *testing.T) {
	broker := NewBroker()
	defer broker.Close()

	events, _ := broker.Subscribe("gone", nil)

	if !broker.Unsubscribe("gone") {
		t.Error("Unsubscribe should report true for a registered id")
	}
	if broker.Unsubscribe("gone") {
		t.Error("Second unsubscribe should report false")
	}

	if _, open := <-events; open {
		t.Error("Stream should be closed after unsubscribe")
	}

	// Publishing to nobody must not panic.
	broker.Publish(event("cpu", 1, 1))
}

// TestBroker_Close tests shutdown semantics.
func TestBroker_Close(t *testing.T) {
	broker := NewBroker()

	events, _ := broker.Subscribe("a", nil)
	broker.Close()
	broker.Close() // idempotent

	if _, open := <-events; open {
		t.Error("Streams should be closed on broker close")
	}
	if _, err := broker.Subscribe("b", nil); err != ErrClosed {
		t.Errorf("Subscribe after close: expected ErrClosed, got %v", err)
	}
	if broker.SubscriberCount() != 0 {
		t.Errorf("Expected 0 subscribers after close, got %d", broker.SubscriberCount())
	}

	// Publish after close is a silent no-op.
	broker.Publish(event("cpu", 1, 1))
}

// TestBroker_ConcurrentPublish tests publisher/subscriber churn under the
// race detector.
func TestBroker_ConcurrentPublish(t *testing.T) {
	broker := NewBroker(WithBufferSize(512))
	defer broker.Close()

	events, _ := broker.Subscribe("reader", []string{"cpu"})

	var wg sync.WaitGroup
	var received sync.WaitGroup
	received.Add(1)
	go func() {
		defer received.Done()
		count := 0
		for range events {
			count++
			if count == 400 {
				return
			}
		}
	}()

	for p := 0; p < 4; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				broker.Publish(event("cpu", int64(i), float64(p)))
				broker.Publish(event("memory", int64(i), float64(p))) // filtered out
			}
		}(p)
	}

	wg.Wait()
	received.Wait()
}
