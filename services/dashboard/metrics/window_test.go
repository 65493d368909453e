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

// TestWindowDuration tests the documented name-to-duration mapping,
// including the 24h fallback for unrecognized names.
func TestWindowDuration(t *testing.T) {
	tests := []struct {
		name   string
		window string
		want   time.Duration
	}{
		{"one hour", Window1h, time.Hour},
		{"six hours", Window6h, 6 * time.Hour},
		{"one day", Window24h, 24 * time.Hour},
		{"seven days", Window7d, 7 * 24 * time.Hour},
		{"thirty days", Window30d, 30 * 24 * time.Hour},
		{"unknown name falls back to 24h", "garbage", 24 * time.Hour},
		{"empty name falls back to 24h", "", 24 * time.Hour},
		{"case sensitive, 1H falls back", "1H", 24 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WindowDuration(tt.window); got != tt.want {
				t.Errorf("WindowDuration(%q) = %v, want %v", tt.window, got, tt.want)
			}
		})
	}
}

// TestWindowDuration_MillisecondValues pins the exact millisecond spans the
// dashboard panels rely on.
func TestWindowDuration_MillisecondValues(t *testing.T) {
	tests := []struct {
		window string
		wantMs int64
	}{
		{Window1h, 3_600_000},
		{Window6h, 21_600_000},
		{Window24h, 86_400_000},
		{Window7d, 604_800_000},
		{Window30d, 2_592_000_000},
	}

	for _, tt := range tests {
		if got := WindowDuration(tt.window).Milliseconds(); got != tt.wantMs {
			t.Errorf("WindowDuration(%q) = %dms, want %dms", tt.window, got, tt.wantMs)
		}
	}
}

// TestKnownWindow tests recognition of documented names.
func TestKnownWindow(t *testing.T) {
	for _, name := range WindowNames() {
		if !KnownWindow(name) {
			t.Errorf("KnownWindow(%q) = false for a documented name", name)
		}
	}
	for _, name := range []string{"", "2h", "24H", "bogus"} {
		if KnownWindow(name) {
			t.Errorf("KnownWindow(%q) = true for an undocumented name", name)
		}
	}
}

// TestWindowNames_AscendingSpan tests that the documented order matches
// ascending duration, which the monotonicity tests depend on.
func TestWindowNames_AscendingSpan(t *testing.T) {
	names := WindowNames()
	for i := 0; i < len(names)-1; i++ {
		if WindowDuration(names[i]) >= WindowDuration(names[i+1]) {
			t.Errorf("WindowNames not ascending: %s (%v) >= %s (%v)",
				names[i], WindowDuration(names[i]), names[i+1], WindowDuration(names[i+1]))
		}
	}
}
