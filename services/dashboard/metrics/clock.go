// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package metrics

import (
	"sync"
	"time"
)

// =============================================================================
// Clock Abstraction
// =============================================================================

// Clock supplies the current time for default sample timestamps and range
// cutoffs.
//
// # Description
//
// The store computes "now" for two purposes: stamping samples recorded
// without an explicit timestamp, and anchoring range-query cutoffs
// (cutoff = now - window). Injecting the clock keeps both paths
// deterministic under test.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// systemClock reads the wall clock.
type systemClock struct{}

// NewSystemClock returns the production clock backed by time.Now.
func NewSystemClock() Clock {
	return systemClock{}
}

// Now returns the current wall-clock time.
func (systemClock) Now() time.Time {
	return time.Now()
}

// =============================================================================
// Manual Clock (for testing)
// =============================================================================

// ManualClock is a settable clock for tests.
//
// # Description
//
// Starts at a fixed instant and only moves when told to. Range-query tests
// use it to pin cutoff arithmetic to exact millisecond values instead of
// sleeping.
//
// # Thread Safety
//
// All methods are safe for concurrent use.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock creates a manual clock frozen at t.
func NewManualClock(t time.Time) *ManualClock {
	return &ManualClock{now: t}
}

// Now returns the clock's current instant.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to t.
func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Advance moves the clock forward by d. Negative d moves it backward;
// tests use that to simulate clock regression.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// =============================================================================
// Compile-time Interface Compliance
// =============================================================================

var (
	_ Clock = systemClock{}
	_ Clock = (*ManualClock)(nil)
)
