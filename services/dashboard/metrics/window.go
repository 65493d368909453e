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

import "time"

// =============================================================================
// Named Query Windows
// =============================================================================

// Named windows accepted by Store.Range. These mirror the time-range
// dropdown the dashboard offers on its metric panels.
const (
	Window1h  = "1h"
	Window6h  = "6h"
	Window24h = "24h"
	Window7d  = "7d"
	Window30d = "30d"
)

// DefaultWindow is the duration applied when a window name is not
// recognized. A panel that sends a garbled dropdown value gets "the last
// day" instead of an error.
const DefaultWindow = Window24h

// windowDurations maps each named window to its span.
var windowDurations = map[string]time.Duration{
	Window1h:  time.Hour,
	Window6h:  6 * time.Hour,
	Window24h: 24 * time.Hour,
	Window7d:  7 * 24 * time.Hour,
	Window30d: 30 * 24 * time.Hour,
}

// WindowDuration resolves a named window to its duration.
//
// # Description
//
// Unrecognized names resolve to the 24h duration. This fallback is a
// deliberate, pinned behavior carried over from the dashboard: a bad window
// value degrades to a usable default rather than surfacing an error.
//
// # Inputs
//
//   - name: One of the Window* constants, or anything else for the fallback.
//
// # Outputs
//
//   - time.Duration: The window span, 24h when the name is unknown.
func WindowDuration(name string) time.Duration {
	if d, ok := windowDurations[name]; ok {
		return d
	}
	return windowDurations[DefaultWindow]
}

// KnownWindow reports whether name is one of the documented window names.
// The query API uses it to tell "explicit 24h" apart from "fallback 24h"
// in logs without changing the result.
func KnownWindow(name string) bool {
	_, ok := windowDurations[name]
	return ok
}

// WindowNames returns the documented window names in ascending span order.
// The CLI uses this for flag help and completion.
func WindowNames() []string {
	return []string{Window1h, Window6h, Window24h, Window7d, Window30d}
}
