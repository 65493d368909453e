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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ckoons/Tekton-sub001/services/dashboard/metrics"
)

func TestParseValue_Scalar(t *testing.T) {
	v, err := parseValue("42.5")
	require.NoError(t, err)
	assert.Equal(t, metrics.KindScalar, v.Kind())
	assert.Equal(t, 42.5, v.Scalar())

	v, err = parseValue("-3")
	require.NoError(t, err)
	assert.Equal(t, -3.0, v.Scalar())
}

func TestParseValue_Structured(t *testing.T) {
	v, err := parseValue("in=120,out=80")
	require.NoError(t, err)
	assert.Equal(t, metrics.KindStructured, v.Kind())
	assert.Equal(t, map[string]float64{"in": 120, "out": 80}, v.Fields())

	// Whitespace around pairs is tolerated.
	v, err = parseValue("rx_bytes= 1024.5 ,tx_bytes=2048")
	require.NoError(t, err)
	assert.Equal(t, 1024.5, v.Fields()["rx_bytes"])
}

func TestParseValue_Invalid(t *testing.T) {
	for _, raw := range []string{"high", "in=abc", "=5", "in=1,=2", "in"} {
		_, err := parseValue(raw)
		assert.Error(t, err, raw)
	}
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "42.5", formatValue(metrics.NewScalar(42.5)))
	assert.Equal(t, "in=120 out=80",
		formatValue(metrics.NewStructured(map[string]float64{"out": 80, "in": 120})))
}
