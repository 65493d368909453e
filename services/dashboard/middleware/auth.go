// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package middleware provides HTTP middleware for the dashboard service.
//
// # Authentication Flow
//
// Mutating routes (POST /v1/metrics, DELETE /v1/metrics) pass through
// TokenAuth, which compares a bearer token from the Authorization header
// against the configured API token:
//
//	Request
//	   │
//	   ▼
//	TokenAuth
//	   │
//	   ├─► Extract token from "Authorization: Bearer <token>"
//	   │
//	   ├─► Constant-time compare against configured token
//	   │
//	   └─► 401 on mismatch, next handler on match
//
// # Local Development Behavior
//
// When no token is configured (DASHBOARD_API_TOKEN unset), TokenAuth is a
// pass-through. A browser dashboard on localhost works without any auth
// infrastructure; the guard only engages once a token is deployed.
package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// bearerPrefix is the expected Authorization scheme.
const bearerPrefix = "Bearer "

// TokenAuth guards mutating routes with a static bearer token.
//
// # Description
//
// Returns a middleware that rejects requests whose Authorization header
// does not carry the configured token. An empty configured token disables
// the check entirely (local dev mode).
//
// # Inputs
//
//   - token: The expected API token. Empty disables the guard.
//
// # Outputs
//
//   - gin.HandlerFunc: Middleware aborting with 401 on auth failure.
//
// # Limitations
//
//   - Single static token, no per-user identity. The dashboard is an
//     operations surface behind the deployment boundary, not a multi-tenant
//     API.
func TokenAuth(token string) gin.HandlerFunc {
	if token == "" {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) {
			slog.Warn("Rejected request without bearer token",
				"path", c.Request.URL.Path, "remote", c.ClientIP())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		presented := strings.TrimPrefix(header, bearerPrefix)
		if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
			slog.Warn("Rejected request with invalid token",
				"path", c.Request.URL.Path, "remote", c.ClientIP())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Next()
	}
}
