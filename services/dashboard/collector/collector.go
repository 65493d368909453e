// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/ckoons/Tekton-sub001/services/dashboard/datatypes"
	"github.com/ckoons/Tekton-sub001/services/dashboard/metrics"
	"github.com/ckoons/Tekton-sub001/services/dashboard/observability"
	"github.com/ckoons/Tekton-sub001/services/dashboard/stream"
)

// maxHealthBodyBytes bounds how much of a health response is read. Health
// bodies are small JSON documents; a misbehaving backend must not balloon
// the collector's memory.
const maxHealthBodyBytes = 64 * 1024

// =============================================================================
// Health Body
// =============================================================================

// healthBody is the component health document the Tekton backends serve.
// All resource fields are optional; a bare {"status": "ok"} is the minimum
// contract and still yields up/latency samples.
type healthBody struct {
	Status  string `json:"status"`
	Metrics struct {
		CPU     *float64           `json:"cpu"`
		Memory  *float64           `json:"memory"`
		Disk    *float64           `json:"disk"`
		Network map[string]float64 `json:"network"`
	} `json:"metrics"`
}

// targetState is the mutable per-target probe bookkeeping behind the
// status panel.
type targetState struct {
	target              Target
	up                  bool
	latencyMillis       int64
	lastChecked         int64
	consecutiveFailures int
}

// =============================================================================
// Collector
// =============================================================================

// Collector probes backend health endpoints and records the results.
//
// # Thread Safety
//
// Safe for concurrent use. One polling goroutine mutates target state under
// the collector mutex; Status and Reload may be called from any goroutine.
type Collector struct {
	store  *metrics.Store
	broker *stream.Broker
	client *http.Client
	clock  metrics.Clock

	mu      sync.RWMutex
	cfg     Config
	status  map[string]*targetState
	started bool

	startOnce sync.Once
	stop      chan struct{}
	done      chan struct{}
}

// Option configures a Collector.
type Option func(*Collector)

// WithClock injects the time source used for sample timestamps and
// last-checked bookkeeping. Tests pin it to a manual clock.
func WithClock(clock metrics.Clock) Option {
	return func(c *Collector) {
		c.clock = clock
	}
}

// WithHTTPClient overrides the probe HTTP client. The default carries the
// configured probe timeout; tests inject clients bound to httptest servers.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Collector) {
		c.client = client
	}
}

// New creates a Collector. The store and broker are constructor-injected;
// the collector never reaches for shared globals.
func New(cfg Config, store *metrics.Store, broker *stream.Broker, opts ...Option) (*Collector, error) {
	cfg, err := cfg.applyDefaults()
	if err != nil {
		return nil, fmt.Errorf("invalid collector config: %w", err)
	}

	c := &Collector{
		store:  store,
		broker: broker,
		clock:  metrics.NewSystemClock(),
		cfg:    cfg,
		status: make(map[string]*targetState),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		c.client = &http.Client{Timeout: cfg.ProbeTimeout()}
	}

	for _, t := range cfg.Targets {
		c.status[t.Name] = &targetState{target: t}
	}

	return c, nil
}

// =============================================================================
// Lifecycle
// =============================================================================

// Start launches the polling loop.
//
// # Description
//
// Runs one immediate poll so the dashboard has data right after startup,
// then polls on the configured interval until Stop is called or ctx is
// cancelled. Interval changes from Reload take effect on the next tick.
// Start is idempotent; only the first call launches the loop.
func (c *Collector) Start(ctx context.Context) {
	c.startOnce.Do(func() {
		c.mu.Lock()
		c.started = true
		c.mu.Unlock()
		go c.run(ctx)
	})
}

// Stop halts the polling loop and waits for in-flight probes to finish.
// Safe to call without a prior Start, and safe to call twice.
func (c *Collector) Stop() {
	select {
	case <-c.stop:
		// already stopped
	default:
		close(c.stop)
	}

	c.mu.RLock()
	started := c.started
	c.mu.RUnlock()
	if started {
		<-c.done
	}
}

// run is the polling loop body.
func (c *Collector) run(ctx context.Context) {
	defer close(c.done)

	slog.Info("Collector started",
		"targets", len(c.snapshotConfig().Targets),
		"interval", c.snapshotConfig().Interval())

	c.pollOnce(ctx)

	timer := time.NewTimer(c.snapshotConfig().Interval())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Collector stopping", "reason", "context cancelled")
			return
		case <-c.stop:
			slog.Info("Collector stopping", "reason", "stop requested")
			return
		case <-timer.C:
			c.pollOnce(ctx)
			timer.Reset(c.snapshotConfig().Interval())
		}
	}
}

// snapshotConfig returns the current config under the read lock.
func (c *Collector) snapshotConfig() Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg
}

// Reload swaps in a new configuration.
//
// # Description
//
// Called by the config watcher after a successful re-parse. Targets gain
// and lose status entries as the target list changes; the new interval
// applies from the next tick. Samples already recorded for removed targets
// stay in the store until capacity eviction ages them out.
func (c *Collector) Reload(cfg Config) error {
	cfg, err := cfg.applyDefaults()
	if err != nil {
		return fmt.Errorf("invalid collector config: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	known := make(map[string]struct{}, len(cfg.Targets))
	for _, t := range cfg.Targets {
		known[t.Name] = struct{}{}
		if state, ok := c.status[t.Name]; ok {
			state.target = t
		} else {
			c.status[t.Name] = &targetState{target: t}
		}
	}
	for name := range c.status {
		if _, ok := known[name]; !ok {
			delete(c.status, name)
		}
	}

	c.cfg = cfg
	slog.Info("Collector config reloaded",
		"targets", len(cfg.Targets), "interval", cfg.Interval())
	return nil
}

// =============================================================================
// Polling
// =============================================================================

// pollOnce fans the configured targets out to the worker pool and waits
// for every probe to complete.
func (c *Collector) pollOnce(ctx context.Context) {
	cfg := c.snapshotConfig()

	jobs := make(chan Target, len(cfg.Targets))
	var wg sync.WaitGroup

	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go c.probeWorker(ctx, i, &wg, jobs, cfg.ProbeTimeout())
	}

	for _, t := range cfg.Targets {
		jobs <- t
	}
	close(jobs)

	wg.Wait()
}

// probeWorker drains the job channel, probing one target at a time.
func (c *Collector) probeWorker(ctx context.Context, id int, wg *sync.WaitGroup,
	jobs <-chan Target, timeout time.Duration) {

	defer wg.Done()
	for target := range jobs {
		c.probe(ctx, target, timeout)
	}
}

// probe runs one health check and records its samples.
func (c *Collector) probe(ctx context.Context, target Target, timeout time.Duration) {
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := c.clock.Now()
	body, err := c.fetchHealth(probeCtx, target)
	latency := time.Since(start)
	now := c.clock.Now().UnixMilli()

	if m := observability.DefaultMetrics; m != nil {
		m.ObserveProbe(target.Name, latency.Seconds())
	}

	if err != nil {
		slog.Warn("Backend probe failed",
			"target", target.Name, "url", target.BaseURL, "error", err)
		if m := observability.DefaultMetrics; m != nil {
			m.RecordProbeFailure(target.Name)
		}
		c.recordAndPublish(target.Name+".up", metrics.NewScalar(0), now)
		c.updateStatus(target.Name, false, latency.Milliseconds(), now)
		return
	}

	c.recordAndPublish(target.Name+".up", metrics.NewScalar(1), now)
	c.recordAndPublish(target.Name+".latency_ms", metrics.NewScalar(float64(latency.Milliseconds())), now)
	c.updateStatus(target.Name, true, latency.Milliseconds(), now)

	// Resource metrics, when the health body carries them, land in the
	// shared dashboard channels the resource panels chart.
	if body.Metrics.CPU != nil {
		c.recordResource("cpu", *body.Metrics.CPU, now)
	}
	if body.Metrics.Memory != nil {
		c.recordResource("memory", *body.Metrics.Memory, now)
	}
	if body.Metrics.Disk != nil {
		c.recordResource("disk", *body.Metrics.Disk, now)
	}
	if len(body.Metrics.Network) > 0 {
		c.recordAndPublish("network", metrics.NewStructured(body.Metrics.Network), now)
	}
}

// fetchHealth GETs the target's health endpoint and decodes the body.
// Any non-200 status is a probe failure.
func (c *Collector) fetchHealth(ctx context.Context, target Target) (*healthBody, error) {
	url := target.BaseURL + target.HealthPath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build probe request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("probe request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("health endpoint returned %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxHealthBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read health body: %w", err)
	}

	var body healthBody
	if err := json.Unmarshal(data, &body); err != nil {
		// A 200 with an undecodable body still counts as up; the backend
		// answered, it just has nothing structured to say.
		slog.Debug("Health body not parseable, treating as bare liveness",
			"target", target.Name, "error", err)
		return &healthBody{}, nil
	}

	return &body, nil
}

// recordResource records a scalar resource sample and applies thresholds.
func (c *Collector) recordResource(channel string, value float64, now int64) {
	c.recordAndPublish(channel, metrics.NewScalar(value), now)
	c.checkThreshold(channel, value)
}

// recordAndPublish appends a sample to the store, then notifies the broker.
// The store itself emits nothing; publishing after a successful record is
// the producer's job.
func (c *Collector) recordAndPublish(channel string, v metrics.Value, tsMillis int64) {
	c.store.RecordAt(channel, v, tsMillis)
	c.broker.Publish(stream.Event{
		Channel: channel,
		Sample:  metrics.Sample{Timestamp: tsMillis, Value: v},
	})
	if m := observability.DefaultMetrics; m != nil {
		m.RecordSample(channel, observability.SourceCollector)
	}
}

// checkThreshold classifies a resource reading against the configured
// warning/critical bands and reports any crossing.
func (c *Collector) checkThreshold(channel string, value float64) {
	severity, threshold, ok := c.classify(channel, value)
	if !ok {
		return
	}

	slog.Warn("Resource threshold crossed",
		"channel", channel,
		"value", value,
		"severity", string(severity),
		"threshold", threshold)
	if m := observability.DefaultMetrics; m != nil {
		m.RecordThresholdBreach(channel, severity)
	}
}

// classify resolves a reading to a severity. Returns ok=false when the
// channel has no thresholds or the reading sits below the warning band.
func (c *Collector) classify(channel string, value float64) (observability.Severity, float64, bool) {
	c.mu.RLock()
	th, configured := c.cfg.Thresholds[channel]
	c.mu.RUnlock()

	if !configured {
		return "", 0, false
	}
	switch {
	case value >= th.Critical:
		return observability.SeverityCritical, th.Critical, true
	case value >= th.Warning:
		return observability.SeverityWarning, th.Warning, true
	default:
		return "", 0, false
	}
}

// =============================================================================
// Status Snapshot
// =============================================================================

// updateStatus records a probe outcome for the status panel.
func (c *Collector) updateStatus(name string, up bool, latencyMillis, now int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	state, ok := c.status[name]
	if !ok {
		// Target removed by a concurrent reload; its probe result is moot.
		return
	}

	state.up = up
	state.lastChecked = now
	if up {
		state.latencyMillis = latencyMillis
		state.consecutiveFailures = 0
	} else {
		state.consecutiveFailures++
	}
}

// Status returns the latest per-target probe outcomes, sorted by name.
// Targets not yet probed report down with a zero LastChecked.
func (c *Collector) Status() []datatypes.ServiceStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]datatypes.ServiceStatus, 0, len(c.status))
	for name, state := range c.status {
		out = append(out, datatypes.ServiceStatus{
			Name:                name,
			URL:                 state.target.BaseURL,
			Up:                  state.up,
			LatencyMillis:       state.latencyMillis,
			LastChecked:         state.lastChecked,
			ConsecutiveFailures: state.consecutiveFailures,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
