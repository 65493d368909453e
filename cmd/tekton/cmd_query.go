// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ckoons/Tekton-sub001/pkg/ux"
	"github.com/ckoons/Tekton-sub001/services/dashboard/metrics"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	queryWindow     string // named window (1h, 6h, 24h, 7d, 30d)
	queryDurationMS int64  // explicit duration in milliseconds
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// queryCmd runs a range query against one channel.
//
// # Examples
//
//	tekton query cpu                      # full retained history
//	tekton query cpu --window 1h          # last hour
//	tekton query cpu --duration-ms 30000  # last 30 seconds
//
// An unrecognized window name is not an error: the server falls back to the
// 24h span and the command prints a notice.
var queryCmd = &cobra.Command{
	Use:   "query [channel]",
	Short: "Query a metric channel's samples over a time range",
	Args:  cobra.ExactArgs(1),
	Run:   runQuery,
}

func init() {
	queryCmd.Flags().StringVarP(&queryWindow, "window", "w", "",
		"Named time window: 1h, 6h, 24h, 7d, 30d")
	queryCmd.Flags().Int64Var(&queryDurationMS, "duration-ms", -1,
		"Explicit duration in milliseconds (overrides --window)")
}

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

func runQuery(cmd *cobra.Command, args []string) {
	channel := args[0]
	client := newClient()
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	resp, err := client.Range(ctx, channel, queryWindow, queryDurationMS)
	if err != nil {
		ux.Error(err.Error())
		os.Exit(1)
	}

	if jsonOutput {
		encoded, _ := json.MarshalIndent(resp, "", "  ")
		fmt.Println(string(encoded))
		return
	}

	if resp.Fallback {
		ux.Warning(fmt.Sprintf("unknown window %q, server used the 24h default", queryWindow))
	}

	if len(resp.Samples) == 0 {
		ux.Muted(fmt.Sprintf("no samples on %q in the requested range", channel))
		return
	}

	ux.Title(fmt.Sprintf("%s (%d samples)", channel, len(resp.Samples)))
	widths := []int{24, 0}
	fmt.Println(ux.TableHeader(widths, "TIMESTAMP", "VALUE"))
	for _, sample := range resp.Samples {
		fmt.Println(ux.TableRow(widths,
			time.UnixMilli(sample.Timestamp).Format(time.RFC3339),
			formatValue(sample.Value),
		))
	}
}

// formatValue renders a sample payload for the terminal: a bare number for
// scalars, sorted key=value pairs for structured payloads.
func formatValue(v metrics.Value) string {
	if v.Kind() == metrics.KindStructured {
		fields := v.Fields()
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%g", k, fields[k]))
		}
		return strings.Join(parts, " ")
	}
	return fmt.Sprintf("%g", v.Scalar())
}
