// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package stream fans recorded metric samples out to live consumers.
//
// The series store itself never notifies anyone; producers publish to a
// Broker after each successful record. WebSocket sessions and the export
// sink subscribe with their own buffered channels, so a stalled consumer
// loses its own events instead of stalling the collector.
package stream

import (
	"errors"
	"sync"

	"github.com/ckoons/Tekton-sub001/services/dashboard/metrics"
)

// ErrClosed is returned by Subscribe after the broker has shut down.
var ErrClosed = errors.New("stream: broker closed")

// DefaultBufferSize is the per-subscriber event buffer applied when no
// option overrides it. At the 10s collector cadence this absorbs several
// minutes of backlog before drops start.
const DefaultBufferSize = 64

// Event is one recorded sample, tagged with its channel name.
type Event struct {
	Channel string         `json:"channel"`
	Sample  metrics.Sample `json:"sample"`
}

// subscription is one consumer's registration.
type subscription struct {
	id       string
	channels map[string]struct{} // empty set means every channel
	events   chan Event
}

// matches reports whether the subscription wants events for channel.
func (s *subscription) matches(channel string) bool {
	if len(s.channels) == 0 {
		return true
	}
	_, ok := s.channels[channel]
	return ok
}

// =============================================================================
// Broker
// =============================================================================

// Broker routes published events to matching subscribers.
//
// # Thread Safety
//
// Safe for concurrent use. Publish holds a read lock while sending, so
// Unsubscribe and Close (which take the write lock) can never close a
// channel mid-send.
//
// # Limitations
//
//   - Delivery is best-effort: a subscriber with a full buffer loses the
//     event. The drop handler reports who fell behind.
type Broker struct {
	mu         sync.RWMutex
	subs       map[string]*subscription
	closed     bool
	bufferSize int
	onDrop     func(subscriberID string)
}

// Option configures a Broker.
type Option func(*Broker)

// WithBufferSize sets the per-subscriber event buffer.
func WithBufferSize(size int) Option {
	return func(b *Broker) {
		if size > 0 {
			b.bufferSize = size
		}
	}
}

// WithDropHandler installs a callback invoked once per dropped event with
// the lagging subscriber's id. The observability layer counts these.
func WithDropHandler(fn func(subscriberID string)) Option {
	return func(b *Broker) {
		b.onDrop = fn
	}
}

// NewBroker creates an empty broker.
func NewBroker(opts ...Option) *Broker {
	b := &Broker{
		subs:       make(map[string]*subscription),
		bufferSize: DefaultBufferSize,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers (or re-registers) a consumer.
//
// # Description
//
// An empty or nil channels slice subscribes to everything. Calling
// Subscribe again with the same id swaps the channel filter in place and
// returns the existing event stream, which is how a WebSocket session
// changes its selection without reconnecting.
//
// # Inputs
//
//   - id: Caller-chosen subscriber id (WebSocket session uuid,
//     "influx-export", ...).
//   - channels: Channel names to receive, empty for all.
//
// # Outputs
//
//   - <-chan Event: The subscriber's stream. Closed by Unsubscribe/Close.
//   - error: ErrClosed after shutdown.
func (b *Broker) Subscribe(id string, channels []string) (<-chan Event, error) {
	filter := make(map[string]struct{}, len(channels))
	for _, ch := range channels {
		filter[ch] = struct{}{}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}

	if existing, ok := b.subs[id]; ok {
		existing.channels = filter
		return existing.events, nil
	}

	sub := &subscription{
		id:       id,
		channels: filter,
		events:   make(chan Event, b.bufferSize),
	}
	b.subs[id] = sub
	return sub.events, nil
}

// Unsubscribe removes a consumer and closes its stream. Reports whether
// the id was registered.
func (b *Broker) Unsubscribe(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub, ok := b.subs[id]
	if !ok {
		return false
	}
	delete(b.subs, id)
	close(sub.events)
	return true
}

// Publish delivers an event to every matching subscriber without blocking.
//
// A subscriber whose buffer is full has this event dropped; the producer
// is never back-pressured by a slow dashboard tab.
func (b *Broker) Publish(event Event) {
	var dropped []string

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return
	}
	for _, sub := range b.subs {
		if !sub.matches(event.Channel) {
			continue
		}
		select {
		case sub.events <- event:
		default:
			dropped = append(dropped, sub.id)
		}
	}
	b.mu.RUnlock()

	if b.onDrop != nil {
		for _, id := range dropped {
			b.onDrop(id)
		}
	}
}

// SubscriberCount returns the number of registered consumers.
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close shuts the broker down: every stream is closed, later publishes are
// dropped, and later subscribes fail with ErrClosed. Idempotent.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, sub := range b.subs {
		close(sub.events)
		delete(b.subs, id)
	}
}
