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
	"testing"
	"time"
)

// TestManualClock tests the set/advance controls the range tests rely on.
func TestManualClock(t *testing.T) {
	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := NewManualClock(start)

	if !clock.Now().Equal(start) {
		t.Fatalf("Expected frozen start time, got %v", clock.Now())
	}

	clock.Advance(90 * time.Second)
	if want := start.Add(90 * time.Second); !clock.Now().Equal(want) {
		t.Errorf("Advance: expected %v, got %v", want, clock.Now())
	}

	clock.Advance(-time.Hour)
	if want := start.Add(90*time.Second - time.Hour); !clock.Now().Equal(want) {
		t.Errorf("Backward advance: expected %v, got %v", want, clock.Now())
	}

	clock.Set(start)
	if !clock.Now().Equal(start) {
		t.Errorf("Set: expected %v, got %v", start, clock.Now())
	}
}

// TestSystemClock_Progresses sanity-checks the production clock.
func TestSystemClock_Progresses(t *testing.T) {
	clock := NewSystemClock()
	before := time.Now().Add(-time.Second)
	now := clock.Now()
	after := time.Now().Add(time.Second)

	if now.Before(before) || now.After(after) {
		t.Errorf("System clock out of band: %v not in (%v, %v)", now, before, after)
	}
}
