// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ckoons/Tekton-sub001/services/dashboard/handlers"
	"github.com/ckoons/Tekton-sub001/services/dashboard/metrics"
	"github.com/ckoons/Tekton-sub001/services/dashboard/middleware"
	"github.com/ckoons/Tekton-sub001/services/dashboard/stream"
)

// Deps carries the shared components the route handlers close over.
type Deps struct {
	Store  *metrics.Store
	Broker *stream.Broker

	// StatusProvider serves the backend status panel; normally the
	// collector. Nil skips the status route.
	StatusProvider handlers.StatusProvider

	// APIToken guards the mutating endpoints when non-empty.
	APIToken string

	StartedAt time.Time
}

// SetupRoutes registers the dashboard service's endpoints on router.
//
// Reads are open; writes (record, reset) sit behind bearer-token auth when a
// token is configured. The WebSocket endpoint is a read and stays open.
func SetupRoutes(router *gin.Engine, deps Deps) {
	router.GET("/health", handlers.HealthCheck(deps.Store, deps.StartedAt))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := middleware.TokenAuth(deps.APIToken)

	// API version 1 group
	v1 := router.Group("/v1")
	{
		v1.POST("/metrics", auth, handlers.RecordMetric(deps.Store, deps.Broker))
		v1.GET("/metrics/channels", handlers.ListChannels(deps.Store))
		v1.GET("/metrics/:channel/history", handlers.ChannelHistory(deps.Store))
		v1.GET("/metrics/:channel/range", handlers.ChannelRange(deps.Store))
		v1.DELETE("/metrics", auth, handlers.ResetStore(deps.Store))

		if deps.StatusProvider != nil {
			v1.GET("/status/services", handlers.ServiceStatuses(deps.StatusProvider))
		}

		v1.GET("/ws/metrics", handlers.MetricsWebSocket(deps.Store, deps.Broker))
	}
}
