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
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ckoons/Tekton-sub001/services/dashboard/datatypes"
)

func newFixtureClient(server *httptest.Server, token string) *dashboardClient {
	return &dashboardClient{
		baseURL: server.URL,
		token:   token,
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

func TestClient_ServiceStatuses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/status/services", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"services": [
			{"name": "apollo", "url": "http://localhost:8012", "up": true, "latency_ms": 7}
		]}`))
	}))
	defer server.Close()

	services, err := newFixtureClient(server, "").ServiceStatuses(context.Background())
	require.NoError(t, err)
	require.Len(t, services, 1)
	assert.Equal(t, "apollo", services[0].Name)
	assert.True(t, services[0].Up)
	assert.Equal(t, int64(7), services[0].LatencyMillis)
}

func TestClient_SendsBearerToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte(`{"channel": "cpu", "timestamp": 100, "retained": 1}`))
	}))
	defer server.Close()

	value, err := parseValue("1")
	require.NoError(t, err)

	client := newFixtureClient(server, "sekrit")
	_, err = client.Record(context.Background(), datatypes.RecordMetricRequest{
		Channel: "cpu",
		Value:   &value,
	})
	require.NoError(t, err)
	assert.Equal(t, "Bearer sekrit", gotAuth)
}

func TestClient_RangeQueryShapes(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"channel": "cpu", "samples": []}`))
	}))
	defer server.Close()

	client := newFixtureClient(server, "")
	ctx := context.Background()

	_, err := client.Range(ctx, "cpu", "1h", -1)
	require.NoError(t, err)
	assert.Equal(t, "window=1h", gotQuery)

	_, err = client.Range(ctx, "cpu", "1h", 30000)
	require.NoError(t, err)
	assert.Equal(t, "duration_ms=30000", gotQuery, "explicit duration wins over window")

	_, err = client.Range(ctx, "cpu", "", -1)
	require.NoError(t, err)
	assert.Empty(t, gotQuery, "no filter means no query parameters")
}

func TestClient_SurfacesServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": "duration_ms must be a non-negative integer"}`))
	}))
	defer server.Close()

	_, err := newFixtureClient(server, "").Range(context.Background(), "cpu", "", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duration_ms must be a non-negative integer")
}

func TestClient_WSURL(t *testing.T) {
	c := &dashboardClient{baseURL: "http://localhost:8080"}
	assert.Equal(t, "ws://localhost:8080/v1/ws/metrics", c.wsURL("/v1/ws/metrics"))

	c = &dashboardClient{baseURL: "https://dash.example.com"}
	assert.Equal(t, "wss://dash.example.com/v1/ws/metrics", c.wsURL("/v1/ws/metrics"))
}
