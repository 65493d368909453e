// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command dashboard starts the Tekton ops dashboard metrics server.
//
// This is the main entry point for the containerized dashboard service.
// It reads configuration from environment variables and starts the server.
//
// # Environment Variables
//
//   - DASHBOARD_PORT: HTTP server port (default: 8080)
//   - COLLECTOR_CONFIG: Path to collector.yaml (optional; built-in core
//     targets when unset)
//   - COLLECTOR_INTERVAL_SECONDS: Backend poll cadence (default: 10)
//   - STORE_CAPACITY: Retained samples per channel (default: 50)
//   - DASHBOARD_API_TOKEN: Bearer token for mutating endpoints (optional)
//   - INFLUXDB_URL, INFLUXDB_TOKEN, INFLUXDB_ORG, INFLUXDB_BUCKET:
//     Export sink settings (optional; sink disabled without URL)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OpenTelemetry collector
//     (default: tekton-otel-collector:4317)
//
// # Usage
//
//	# Build
//	go build -o dashboard ./cmd/dashboard
//
//	# Run
//	./dashboard
//
//	# Or via container
//	podman-compose up dashboard
package main

import (
	"log"
	"log/slog"
	"os"
	"strconv"

	"github.com/ckoons/Tekton-sub001/services/dashboard"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Build configuration from environment variables
	cfg := dashboard.Config{
		Port:                     getEnvInt("DASHBOARD_PORT", 8080),
		CollectorConfigPath:      os.Getenv("COLLECTOR_CONFIG"),
		CollectorIntervalSeconds: getEnvInt("COLLECTOR_INTERVAL_SECONDS", 0),
		StoreCapacity:            getEnvInt("STORE_CAPACITY", 0),
		APIToken:                 os.Getenv("DASHBOARD_API_TOKEN"),
		InfluxURL:                os.Getenv("INFLUXDB_URL"),
		InfluxToken:              os.Getenv("INFLUXDB_TOKEN"),
		InfluxOrg:                os.Getenv("INFLUXDB_ORG"),
		InfluxBucket:             os.Getenv("INFLUXDB_BUCKET"),
		OTelEndpoint:             getEnvString("OTEL_EXPORTER_OTLP_ENDPOINT", "tekton-otel-collector:4317"),
	}

	slog.Info("Starting dashboard",
		"port", cfg.Port,
		"collector_config", cfg.CollectorConfigPath,
		"influx_export", cfg.InfluxURL != "",
	)

	svc, err := dashboard.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create dashboard: %v", err)
	}

	// Run the server (blocks until shutdown)
	if err := svc.Run(); err != nil {
		log.Fatalf("Dashboard error: %v", err)
	}
}

// getEnvString returns the environment variable value or a default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as int or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
