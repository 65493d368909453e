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
	"golang.org/x/sync/errgroup"

	"github.com/ckoons/Tekton-sub001/pkg/ux"
	"github.com/ckoons/Tekton-sub001/services/dashboard/datatypes"
)

// statusCmd shows the component status panel in the terminal.
//
// # Examples
//
//	tekton status           # styled component table
//	tekton status --json    # machine output for scripting
//
// Exits 1 when any component is down, so it slots into shell checks:
//
//	tekton status --plain || notify "Tekton degraded"
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show health and availability of the Tekton components",
	Run:   runStatus,
}

// statusReport is the --json payload.
type statusReport struct {
	Dashboard datatypes.HealthResponse  `json:"dashboard"`
	Services  []datatypes.ServiceStatus `json:"services"`
}

func runStatus(cmd *cobra.Command, args []string) {
	client := newClient()
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var report statusReport

	// Liveness and per-component statuses fetch concurrently.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		report.Dashboard, err = client.Health(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		report.Services, err = client.ServiceStatuses(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		ux.Error(err.Error())
		os.Exit(1)
	}

	if jsonOutput {
		encoded, _ := json.MarshalIndent(report, "", "  ")
		fmt.Println(string(encoded))
		if anyDown(report.Services) {
			os.Exit(1)
		}
		return
	}

	ux.Title("Tekton Component Status")
	ux.Muted(fmt.Sprintf("dashboard %s, up %s, %d channels / %d samples",
		report.Dashboard.Status,
		(time.Duration(report.Dashboard.UptimeSeconds) * time.Second).String(),
		report.Dashboard.Channels,
		report.Dashboard.Samples))
	fmt.Println()

	widths := []int{14, 28, 8, 12, 10}
	fmt.Println(ux.TableHeader(widths, "COMPONENT", "URL", "STATUS", "LATENCY", "FAILURES"))
	for _, svc := range report.Services {
		fmt.Println(ux.TableRow(widths,
			svc.Name,
			svc.URL,
			renderUp(svc.Up),
			fmt.Sprintf("%dms", svc.LatencyMillis),
			fmt.Sprintf("%d", svc.ConsecutiveFailures),
		))
	}

	if anyDown(report.Services) {
		fmt.Println()
		ux.Warning("one or more components are down")
		os.Exit(1)
	}
}

func anyDown(services []datatypes.ServiceStatus) bool {
	for _, svc := range services {
		if !svc.Up {
			return true
		}
	}
	return false
}

func renderUp(up bool) string {
	if ux.PlainMode() {
		if up {
			return "up"
		}
		return "down"
	}
	if up {
		return ux.IconSuccess.Render() + " up"
	}
	return ux.IconError.Render() + " down"
}
