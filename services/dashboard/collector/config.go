// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package collector polls the Tekton component backends and feeds the
// metric series store.
//
// # Description
//
// On a fixed cadence (default 10s, the dashboard's observed polling
// interval) the collector probes each configured backend's health endpoint,
// records availability and latency samples, lifts any resource metrics the
// health body carries (cpu/memory/disk/network) into the shared dashboard
// channels, and publishes every recorded sample to the stream broker.
// Warning/critical thresholds on resource channels produce structured log
// warnings and Prometheus counters.
//
// The collector owns all timers and sockets. The store stays passive: it is
// only ever called synchronously from here or from the HTTP layer.
//
// # Thread Safety
//
// Collector is safe for concurrent use. Start launches one polling
// goroutine; Reload may be called from the config watcher at any time.
package collector

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied by DefaultConfig and for zero-valued fields in loaded
// configs.
const (
	// DefaultIntervalSeconds is the polling cadence.
	DefaultIntervalSeconds = 10

	// DefaultWorkers is the probe worker pool size. Three backends today;
	// headroom for deployments that add components.
	DefaultWorkers = 4

	// DefaultHealthPath is probed when a target does not name its own.
	DefaultHealthPath = "/health"

	// DefaultProbeTimeoutSeconds bounds one health probe round trip.
	DefaultProbeTimeoutSeconds = 5
)

// Target is one backend to probe.
type Target struct {
	// Name keys the target's channels: "<name>.up", "<name>.latency_ms".
	Name string `yaml:"name"`

	// BaseURL is the component's root URL, e.g. "http://localhost:8010".
	BaseURL string `yaml:"base_url"`

	// HealthPath overrides the probed path. Default "/health".
	HealthPath string `yaml:"health_path,omitempty"`
}

// Threshold is a warning/critical percentage pair for a resource channel.
type Threshold struct {
	Warning  float64 `yaml:"warning"`
	Critical float64 `yaml:"critical"`
}

// Config is the collector's YAML-backed configuration (collector.yaml).
//
// # Examples
//
//	interval_seconds: 10
//	targets:
//	  - name: tekton_core
//	    base_url: http://localhost:8010
//	  - name: apollo
//	    base_url: http://localhost:8012
//	thresholds:
//	  cpu: {warning: 70, critical: 90}
type Config struct {
	// IntervalSeconds is the polling cadence. Default 10.
	IntervalSeconds int `yaml:"interval_seconds,omitempty"`

	// Workers is the probe worker pool size. Default 4.
	Workers int `yaml:"workers,omitempty"`

	// ProbeTimeoutSeconds bounds one probe round trip. Default 5.
	ProbeTimeoutSeconds int `yaml:"probe_timeout_seconds,omitempty"`

	// Targets are the backends to probe. Default: the three core Tekton
	// components on their well-known ports.
	Targets []Target `yaml:"targets,omitempty"`

	// Thresholds map resource channel names to warning/critical bands.
	Thresholds map[string]Threshold `yaml:"thresholds,omitempty"`
}

// DefaultConfig returns the configuration the dashboard ships with: the
// three core components on their well-known ports and the monitoring
// daemon's resource thresholds.
func DefaultConfig() Config {
	return Config{
		IntervalSeconds:     DefaultIntervalSeconds,
		Workers:             DefaultWorkers,
		ProbeTimeoutSeconds: DefaultProbeTimeoutSeconds,
		Targets: []Target{
			{Name: "tekton_core", BaseURL: "http://localhost:8010"},
			{Name: "apollo", BaseURL: "http://localhost:8012"},
			{Name: "sophia", BaseURL: "http://localhost:8014"},
		},
		Thresholds: map[string]Threshold{
			"cpu":    {Warning: 70, Critical: 90},
			"memory": {Warning: 80, Critical: 95},
			"disk":   {Warning: 85, Critical: 95},
		},
	}
}

// applyDefaults fills zero-valued fields. Targets missing a health path get
// DefaultHealthPath; targets without a name or URL are dropped with an
// error so a half-written config is caught at load time.
func (c Config) applyDefaults() (Config, error) {
	if c.IntervalSeconds <= 0 {
		c.IntervalSeconds = DefaultIntervalSeconds
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.ProbeTimeoutSeconds <= 0 {
		c.ProbeTimeoutSeconds = DefaultProbeTimeoutSeconds
	}
	if len(c.Targets) == 0 {
		c.Targets = DefaultConfig().Targets
	}
	if c.Thresholds == nil {
		c.Thresholds = DefaultConfig().Thresholds
	}

	for i := range c.Targets {
		t := &c.Targets[i]
		if t.Name == "" || t.BaseURL == "" {
			return c, fmt.Errorf("target %d: name and base_url are required", i)
		}
		if t.HealthPath == "" {
			t.HealthPath = DefaultHealthPath
		}
	}

	for channel, th := range c.Thresholds {
		if th.Critical < th.Warning {
			return c, fmt.Errorf("threshold %q: critical (%.1f) below warning (%.1f)",
				channel, th.Critical, th.Warning)
		}
	}

	return c, nil
}

// Interval returns the polling cadence as a duration.
func (c Config) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// ProbeTimeout returns the per-probe timeout as a duration.
func (c Config) ProbeTimeout() time.Duration {
	return time.Duration(c.ProbeTimeoutSeconds) * time.Second
}

// LoadConfig reads and validates a collector config file.
//
// # Description
//
// Missing fields fall back to defaults, so a config naming only targets is
// valid. A missing file is an error; callers that want "no file, use
// defaults" check existence first (the service wiring does).
//
// # Inputs
//
//   - path: YAML config file path.
//
// # Outputs
//
//   - Config: Loaded config with defaults applied.
//   - error: Read or parse failure, or invalid targets/thresholds.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read collector config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse collector config: %w", err)
	}

	return cfg.applyDefaults()
}
