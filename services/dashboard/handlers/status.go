// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ckoons/Tekton-sub001/services/dashboard/datatypes"
	"github.com/ckoons/Tekton-sub001/services/dashboard/metrics"
)

// StatusProvider supplies the latest backend probe outcomes. The collector
// implements it; handler tests substitute a fixture.
type StatusProvider interface {
	Status() []datatypes.ServiceStatus
}

// HealthCheck handles GET /health: service liveness plus store occupancy.
func HealthCheck(store *metrics.Store, startedAt time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, datatypes.NewHealthResponse(
			startedAt,
			len(store.Channels()),
			store.TotalSamples(),
		))
	}
}

// ServiceStatuses handles GET /v1/status/services: the component status
// panel's data source.
func ServiceStatuses(provider StatusProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, datatypes.ServiceStatusResponse{
			Services: provider.Status(),
		})
	}
}
