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
	"time"

	"github.com/spf13/cobra"

	"github.com/ckoons/Tekton-sub001/pkg/ux"
)

// channelsCmd lists the metric channels the store currently holds.
var channelsCmd = &cobra.Command{
	Use:   "channels",
	Short: "List metric channels and their retained sample counts",
	Run:   runChannels,
}

func runChannels(cmd *cobra.Command, args []string) {
	client := newClient()
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	channels, err := client.Channels(ctx)
	if err != nil {
		ux.Error(err.Error())
		os.Exit(1)
	}

	if jsonOutput {
		encoded, _ := json.MarshalIndent(channels, "", "  ")
		fmt.Println(string(encoded))
		return
	}

	if len(channels) == 0 {
		ux.Muted("no channels recorded yet")
		return
	}

	widths := []int{28, 8}
	fmt.Println(ux.TableHeader(widths, "CHANNEL", "SAMPLES"))
	for _, ch := range channels {
		fmt.Println(ux.TableRow(widths, ch.Name, fmt.Sprintf("%d", ch.Retained)))
	}
}
