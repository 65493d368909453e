// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Backend service status types for the dashboard's component panel.
package datatypes

// ServiceStatus is the latest probe outcome for one backend target.
//
// # Fields
//
//   - Name: Target name from collector config (tekton_core, apollo, sophia).
//   - URL: Base URL probed.
//   - Up: Whether the last health probe succeeded.
//   - LatencyMillis: Round trip of the last successful probe.
//   - LastChecked: Unix milliseconds of the last probe, zero before the
//     first tick completes.
//   - ConsecutiveFailures: Failed probes since the last success. The status
//     panel escalates its styling as this grows.
type ServiceStatus struct {
	Name                string `json:"name"`
	URL                 string `json:"url"`
	Up                  bool   `json:"up"`
	LatencyMillis       int64  `json:"latency_ms"`
	LastChecked         int64  `json:"last_checked"`
	ConsecutiveFailures int    `json:"consecutive_failures"`
}

// ServiceStatusResponse is the body of GET /v1/status/services.
type ServiceStatusResponse struct {
	Services []ServiceStatus `json:"services"`
}
