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
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ckoons/Tekton-sub001/pkg/ux"
)

// Version is stamped by the build.
var Version = "dev"

// --- Global Command Variables ---
var (
	serverURL   string // dashboard base URL
	jsonOutput  bool   // raw JSON instead of tables
	plainOutput bool   // disable styling and icons

	rootCmd = &cobra.Command{
		Use:   "tekton",
		Short: "A cli to operate the Tekton ops dashboard",
		Long: `Tekton is the operator console for the Tekton platform's ops
				dashboard: component status, metric channels, range queries,
				sample recording, and live streaming from the terminal.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if plainOutput || jsonOutput {
				ux.SetPlainMode(true)
			}
		},
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the CLI version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("tekton " + Version)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s",
		defaultServerURL(), "Dashboard base URL (env: TEKTON_DASHBOARD_URL)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false,
		"Output raw JSON for scripting")
	rootCmd.PersistentFlags().BoolVar(&plainOutput, "plain", false,
		"Disable colors and icons")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(channelsCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)
}

// defaultServerURL resolves the dashboard URL from the environment.
func defaultServerURL() string {
	if url := os.Getenv("TEKTON_DASHBOARD_URL"); url != "" {
		return url
	}
	return "http://localhost:8080"
}
