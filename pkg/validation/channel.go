// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation provides input validation utilities for the dashboard
// API boundary.
//
// The metric series store itself accepts any channel name; validation is a
// boundary concern. The HTTP layer and the CLI use these validators so that
// names arriving from outside the process are well formed before they reach
// the store or appear as Prometheus label values.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// MaxChannelLength bounds channel names. Long enough for
// "<component>.latency_ms" style names with room to spare.
const MaxChannelLength = 128

// channelPattern matches valid metric channel names.
// Allows: lowercase letters, digits, underscores, hyphens, with dots
// separating segments (tekton_core.latency_ms, cpu, network).
// Segments must not be empty, so "cpu." and ".cpu" are rejected.
var channelPattern = regexp.MustCompile(`^[a-z0-9_\-]+(\.[a-z0-9_\-]+)*$`)

// ValidateChannel validates a metric channel name.
//
// Valid channels:
//   - 1-128 characters
//   - Lowercase letters a-z, digits 0-9, underscores, hyphens
//   - Dots (.) as segment separators, e.g. apollo.up
//
// Returns an error if the channel name is invalid.
//
// Example:
//
//	if err := validation.ValidateChannel(name); err != nil {
//	    c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
//	    return
//	}
func ValidateChannel(channel string) error {
	if channel == "" {
		return fmt.Errorf("channel name cannot be empty")
	}

	if len(channel) > MaxChannelLength {
		return fmt.Errorf("channel name too long: %d chars (max %d)", len(channel), MaxChannelLength)
	}

	if !channelPattern.MatchString(channel) {
		return fmt.Errorf("invalid channel name: %q (lowercase alphanumerics, underscores, hyphens, dot-separated segments)", channel)
	}

	return nil
}

// ValidateChannels validates multiple channel names.
// Returns an error listing all invalid channels if any fail validation.
func ValidateChannels(channels []string) error {
	var invalid []string
	for _, ch := range channels {
		if err := ValidateChannel(ch); err != nil {
			invalid = append(invalid, ch)
		}
	}

	if len(invalid) > 0 {
		return fmt.Errorf("invalid channels: %v", invalid)
	}
	return nil
}

// SanitizeChannel normalizes and validates a channel name.
// Returns the lowercase trimmed channel if valid, or an error if invalid.
//
// Use this when accepting channel names typed by an operator:
//
//	safe, err := validation.SanitizeChannel(userInput)
//	if err != nil {
//	    return err
//	}
func SanitizeChannel(channel string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(channel))
	if err := ValidateChannel(normalized); err != nil {
		return "", err
	}
	return normalized, nil
}
