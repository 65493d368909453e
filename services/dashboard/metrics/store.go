// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package metrics implements the bounded metric series store behind the
// Tekton dashboard panels.
//
// # Description
//
// The store accumulates timestamped samples per named channel (cpu, memory,
// disk, network, per-component probes), retains only the most recent N
// samples per channel, and answers either full-history reads or time-range
// queries ("everything within the last 6h"). Channels are created lazily on
// first record and live until an explicit Reset.
//
// Every read degrades instead of failing: an unknown channel reads as an
// empty sequence, an unrecognized window name falls back to the 24h span,
// and payloads are accepted without shape validation. A metric panel should
// render "no data", never an error page.
//
// # Thread Safety
//
// All Store methods are safe for concurrent use; a single mutex guards the
// channel map. Operations are non-blocking and bounded by the per-channel
// capacity.
//
// # Limitations
//
//   - Samples are kept in insertion order; callers pushing out-of-order
//     timestamps get them back out of order (documented, not validated).
//   - No persistence. The export sink forwards samples elsewhere when
//     durability is wanted.
package metrics

import (
	"sort"
	"sync"
	"time"
)

// DefaultCapacity is the per-channel retention bound applied when a Config
// leaves Capacity unset. Fifty samples at the dashboard's 10-second poll
// cadence is a bit over eight minutes of rolling history per channel.
const DefaultCapacity = 50

// =============================================================================
// Configuration
// =============================================================================

// Config holds store construction options. The zero value is usable; New
// fills in defaults.
type Config struct {
	// Capacity is the maximum number of retained samples per channel.
	// Values < 1 use DefaultCapacity.
	Capacity int

	// Clock supplies "now" for default timestamps and range cutoffs.
	// Nil uses the system clock.
	Clock Clock

	// OnEvict, when non-nil, is called after each record that pushed a
	// channel past capacity, with the channel name and the number of
	// samples dropped. The observability layer hangs its eviction counter
	// here; the store itself stays dependency-free.
	OnEvict func(channel string, evicted int)
}

// applyDefaults fills zero-valued fields.
func (c Config) applyDefaults() Config {
	if c.Capacity < 1 {
		c.Capacity = DefaultCapacity
	}
	if c.Clock == nil {
		c.Clock = NewSystemClock()
	}
	return c
}

// =============================================================================
// Store
// =============================================================================

// Store is the bounded metric series store.
//
// # Description
//
// One Store instance is owned by the dashboard service and handed to the
// collector and the HTTP handlers at construction time. There is no package
// level instance; ownership is explicit.
//
// # Thread Safety
//
// Safe for concurrent use. All operations take the store mutex; none block
// on anything else.
type Store struct {
	mu       sync.Mutex
	capacity int
	clock    Clock
	onEvict  func(channel string, evicted int)
	channels map[string][]Sample
}

// New creates a Store from cfg, applying defaults for zero values.
//
// # Examples
//
//	store := metrics.New(metrics.Config{})              // capacity 50, wall clock
//	store := metrics.New(metrics.Config{Capacity: 20})  // shallow panels
func New(cfg Config) *Store {
	cfg = cfg.applyDefaults()
	return &Store{
		capacity: cfg.Capacity,
		clock:    cfg.Clock,
		onEvict:  cfg.OnEvict,
		channels: make(map[string][]Sample),
	}
}

// Capacity returns the per-channel retention bound.
func (s *Store) Capacity() int {
	return s.capacity
}

// =============================================================================
// Write Path
// =============================================================================

// Record appends a sample stamped with the clock's current time.
//
// # Description
//
// Equivalent to RecordAt with the injected clock's now in milliseconds.
// Use this on the hot path where the caller has no better timestamp, e.g.
// samples pushed by a browser panel without one.
func (s *Store) Record(channel string, v Value) {
	s.RecordAt(channel, v, s.clock.Now().UnixMilli())
}

// RecordAt appends a sample with a caller-supplied timestamp.
//
// # Description
//
// The channel is created empty on first use. After the append, samples are
// dropped oldest-first until the channel is back at capacity. There are no
// error conditions: empty channel names, negative timestamps, duplicate or
// out-of-order timestamps, and non-finite scalars are all accepted as-is.
// Boundary layers validate what they care about before calling in.
//
// The store emits no notifications. A producer that wants listeners to see
// the sample publishes to the stream broker after this call returns.
//
// # Inputs
//
//   - channel: Channel name. Stored verbatim.
//   - v: Payload, opaque to the store.
//   - tsMillis: Sample time, Unix milliseconds.
func (s *Store) RecordAt(channel string, v Value, tsMillis int64) {
	var evicted int

	s.mu.Lock()
	seq := append(s.channels[channel], Sample{Timestamp: tsMillis, Value: v})
	if over := len(seq) - s.capacity; over > 0 {
		seq = seq[over:]
		evicted = over
	}
	s.channels[channel] = seq
	s.mu.Unlock()

	// Hook runs outside the lock so an instrumentation callback can never
	// deadlock against another store operation.
	if evicted > 0 && s.onEvict != nil {
		s.onEvict(channel, evicted)
	}
}

// =============================================================================
// Read Path
// =============================================================================

// History returns the full retained sequence for channel, oldest first.
//
// # Description
//
// The result is a copy; mutating it does not touch retained state.
// Unknown channels return an empty, non-nil slice. Two calls without an
// intervening record return equal sequences.
func (s *Store) History(channel string) []Sample {
	s.mu.Lock()
	defer s.mu.Unlock()

	seq := s.channels[channel]
	out := make([]Sample, len(seq))
	copy(out, seq)
	return out
}

// Range returns the samples recorded within the named window.
//
// # Description
//
// The window name maps to a duration per WindowDuration, including its
// 24h fallback for unrecognized names. The cutoff is now - duration; a
// sample survives when Timestamp >= cutoff. Order is preserved. Unknown
// channels and empty ranges return an empty, non-nil slice.
//
// Callers that want the whole history simply call History; "no filter"
// and "24h fallback" are distinct call shapes on purpose.
func (s *Store) Range(channel, window string) []Sample {
	return s.RangeDuration(channel, WindowDuration(window))
}

// RangeDuration returns the samples recorded within the last d.
//
// # Description
//
// The explicit-duration variant of Range, for callers that carry a
// millisecond span instead of a dropdown name. A zero or negative d puts
// the cutoff at or past now and selects nothing except samples stamped in
// the future.
func (s *Store) RangeDuration(channel string, d time.Duration) []Sample {
	cutoff := s.clock.Now().UnixMilli() - d.Milliseconds()

	s.mu.Lock()
	defer s.mu.Unlock()

	seq := s.channels[channel]
	out := make([]Sample, 0, len(seq))
	for _, sample := range seq {
		if sample.Timestamp >= cutoff {
			out = append(out, sample)
		}
	}
	return out
}

// Channels returns the names of all channels that have ever been recorded
// to, sorted for stable listings.
func (s *Store) Channels() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.channels))
	for name := range s.channels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of retained samples on channel, zero when the
// channel is unknown.
func (s *Store) Len(channel string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.channels[channel])
}

// TotalSamples returns the number of retained samples across all channels.
// The health endpoint reports it.
func (s *Store) TotalSamples() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, seq := range s.channels {
		total += len(seq)
	}
	return total
}

// =============================================================================
// Lifecycle
// =============================================================================

// Reset drops every channel.
//
// # Description
//
// The store has no automatic expiry beyond capacity eviction; this is the
// explicit cleanup hook the owning service calls on logout or teardown.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channels = make(map[string][]Sample)
}
