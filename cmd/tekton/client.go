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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/ckoons/Tekton-sub001/services/dashboard/datatypes"
)

// dashboardClient wraps the dashboard service's HTTP API.
//
// # Thread Safety
//
// Safe for concurrent use; the underlying http.Client is shared.
type dashboardClient struct {
	baseURL string
	token   string
	http    *http.Client
}

// newClient builds a client from the global --server flag and the
// DASHBOARD_API_TOKEN environment variable.
func newClient() *dashboardClient {
	return &dashboardClient{
		baseURL: strings.TrimRight(serverURL, "/"),
		token:   os.Getenv("DASHBOARD_API_TOKEN"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// wsURL maps the base URL to its WebSocket scheme for the watch command.
func (c *dashboardClient) wsURL(path string) string {
	base := c.baseURL
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base + path
}

// do issues one request and decodes the JSON response into out (when
// non-nil). Non-2xx responses surface the server's error field.
func (c *dashboardClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("dashboard unreachable at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4*1024*1024))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s", method, path, apiErr.Error)
		}
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// Health fetches GET /health.
func (c *dashboardClient) Health(ctx context.Context) (datatypes.HealthResponse, error) {
	var resp datatypes.HealthResponse
	err := c.do(ctx, http.MethodGet, "/health", nil, &resp)
	return resp, err
}

// ServiceStatuses fetches GET /v1/status/services.
func (c *dashboardClient) ServiceStatuses(ctx context.Context) ([]datatypes.ServiceStatus, error) {
	var resp datatypes.ServiceStatusResponse
	err := c.do(ctx, http.MethodGet, "/v1/status/services", nil, &resp)
	return resp.Services, err
}

// Channels fetches GET /v1/metrics/channels.
func (c *dashboardClient) Channels(ctx context.Context) ([]datatypes.ChannelInfo, error) {
	var resp datatypes.ChannelListResponse
	err := c.do(ctx, http.MethodGet, "/v1/metrics/channels", nil, &resp)
	return resp.Channels, err
}

// History fetches GET /v1/metrics/:channel/history.
func (c *dashboardClient) History(ctx context.Context, channel string) (datatypes.HistoryResponse, error) {
	var resp datatypes.HistoryResponse
	err := c.do(ctx, http.MethodGet,
		"/v1/metrics/"+url.PathEscape(channel)+"/history", nil, &resp)
	return resp, err
}

// Range fetches GET /v1/metrics/:channel/range with either a named window
// or an explicit duration. Both empty asks for the unfiltered history.
func (c *dashboardClient) Range(ctx context.Context, channel, window string, durationMS int64) (datatypes.RangeResponse, error) {
	query := url.Values{}
	if durationMS >= 0 {
		query.Set("duration_ms", fmt.Sprintf("%d", durationMS))
	} else if window != "" {
		query.Set("window", window)
	}

	path := "/v1/metrics/" + url.PathEscape(channel) + "/range"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var resp datatypes.RangeResponse
	err := c.do(ctx, http.MethodGet, path, nil, &resp)
	return resp, err
}

// Record pushes one sample via POST /v1/metrics.
func (c *dashboardClient) Record(ctx context.Context, req datatypes.RecordMetricRequest) (datatypes.RecordMetricResponse, error) {
	var resp datatypes.RecordMetricResponse
	err := c.do(ctx, http.MethodPost, "/v1/metrics", req, &resp)
	return resp, err
}
