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
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ckoons/Tekton-sub001/pkg/ux"
	"github.com/ckoons/Tekton-sub001/services/dashboard/datatypes"
	"github.com/ckoons/Tekton-sub001/services/dashboard/metrics"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var recordTimestamp int64 // explicit sample time, Unix milliseconds

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// recordCmd pushes one sample into the dashboard's store.
//
// # Examples
//
//	tekton record cpu 42.5
//	tekton record network in=120,out=80
//	tekton record cpu 42.5 --timestamp 1750000000000
//
// The value is either a single number (scalar channel) or comma-separated
// key=number pairs (structured channel). Omitting --timestamp stamps the
// sample on arrival.
var recordCmd = &cobra.Command{
	Use:   "record [channel] [value]",
	Short: "Push a metric sample to the dashboard",
	Args:  cobra.ExactArgs(2),
	Run:   runRecord,
}

func init() {
	recordCmd.Flags().Int64VarP(&recordTimestamp, "timestamp", "t", 0,
		"Sample time in Unix milliseconds (default: server receive time)")
}

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

func runRecord(cmd *cobra.Command, args []string) {
	channel := args[0]

	value, err := parseValue(args[1])
	if err != nil {
		ux.Error(err.Error())
		os.Exit(1)
	}

	client := newClient()
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	resp, err := client.Record(ctx, datatypes.RecordMetricRequest{
		Channel:   channel,
		Value:     &value,
		Timestamp: recordTimestamp,
	})
	if err != nil {
		ux.Error(err.Error())
		os.Exit(1)
	}

	ux.Success(fmt.Sprintf("recorded %s @ %s (%d retained)",
		resp.Channel,
		time.UnixMilli(resp.Timestamp).Format(time.RFC3339),
		resp.Retained))
}

// parseValue turns a CLI value argument into a sample payload.
//
// "42.5" is a scalar; "in=120,out=80" is a structured payload. Mixing the
// two forms or a malformed pair is an error.
func parseValue(raw string) (metrics.Value, error) {
	if !strings.Contains(raw, "=") {
		scalar, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return metrics.Value{}, fmt.Errorf(
				"invalid value %q: want a number or key=number pairs", raw)
		}
		return metrics.NewScalar(scalar), nil
	}

	fields := make(map[string]float64)
	for _, pair := range strings.Split(raw, ",") {
		key, valueStr, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return metrics.Value{}, fmt.Errorf("invalid field pair %q in %q", pair, raw)
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(valueStr), 64)
		if err != nil {
			return metrics.Value{}, fmt.Errorf("invalid number %q for field %q", valueStr, key)
		}
		fields[key] = value
	}
	return metrics.NewStructured(fields), nil
}
