// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command tekton is the operator CLI for the Tekton ops dashboard.
//
// It talks to the dashboard service over its HTTP and WebSocket API:
//
//	tekton status                    # component health panel in the terminal
//	tekton channels                  # metric channels and retained counts
//	tekton query cpu --window 1h     # range query against a channel
//	tekton record cpu 42.5           # push a sample
//	tekton watch cpu memory          # stream live samples
//
// The dashboard URL comes from --server or TEKTON_DASHBOARD_URL
// (default http://localhost:8080).
package main

import (
	"log"

	"github.com/spf13/cobra"
)

func main() {
	cobra.EnableCommandSorting = false
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}
