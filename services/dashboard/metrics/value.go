// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package metrics

import (
	"encoding/json"
	"fmt"
	"math"
)

// =============================================================================
// Sample Payload
// =============================================================================

// ValueKind discriminates the two payload shapes a sample can carry.
type ValueKind int

const (
	// KindScalar is a single numeric reading (cpu percent, latency in ms).
	KindScalar ValueKind = iota

	// KindStructured is a set of named numeric sub-values, such as
	// {in, out} for network throughput or {read, write} for disk I/O.
	KindStructured
)

// String returns a human-readable kind name for logs and errors.
func (k ValueKind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindStructured:
		return "structured"
	default:
		return fmt.Sprintf("ValueKind(%d)", int(k))
	}
}

// Value is the payload slot of a metric sample: either a scalar number or a
// structured record of named sub-values. Consumers switch on Kind() instead
// of probing dynamic types.
//
// # Description
//
// The store treats Value as opaque; it never inspects the payload beyond
// copying it. Structured payloads are copied on construction and copied
// again on read-out, so no caller ever holds a reference into retained
// state. Non-finite scalars (NaN, ±Inf) are carried as-is; boundaries that
// cannot represent them (JSON, line protocol) handle that at their edge.
//
// # Thread Safety
//
// Value is immutable after construction and safe to share across goroutines.
type Value struct {
	kind   ValueKind
	scalar float64
	fields map[string]float64
}

// NewScalar wraps a single numeric reading.
//
// # Inputs
//
//   - v: The reading. Any float64 is accepted, including NaN and ±Inf.
//
// # Outputs
//
//   - Value: A scalar-kind payload.
func NewScalar(v float64) Value {
	return Value{kind: KindScalar, scalar: v}
}

// NewStructured wraps a record of named sub-values.
//
// # Description
//
// The input map is copied, so the caller may reuse or mutate it after the
// call without affecting any sample already recorded.
//
// # Inputs
//
//   - fields: Named sub-values, e.g. {"in": 120, "out": 80}. May be nil or
//     empty; the payload is still structured-kind.
//
// # Outputs
//
//   - Value: A structured-kind payload holding a private copy of fields.
func NewStructured(fields map[string]float64) Value {
	copied := make(map[string]float64, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	return Value{kind: KindStructured, fields: copied}
}

// Kind reports which variant this payload holds.
func (v Value) Kind() ValueKind {
	return v.kind
}

// Scalar returns the numeric reading. Zero for structured payloads; check
// Kind() first when the variant matters.
func (v Value) Scalar() float64 {
	return v.scalar
}

// Fields returns a copy of the named sub-values. Nil for scalar payloads.
//
// The copy keeps retained samples isolated from callers that mutate the
// returned map.
func (v Value) Fields() map[string]float64 {
	if v.kind != KindStructured {
		return nil
	}
	copied := make(map[string]float64, len(v.fields))
	for k, val := range v.fields {
		copied[k] = val
	}
	return copied
}

// fieldsRef exposes the internal map without copying, for package-internal
// read-only paths (JSON encoding). Callers must not mutate the result.
func (v Value) fieldsRef() map[string]float64 {
	return v.fields
}

// =============================================================================
// JSON Encoding
// =============================================================================

// MarshalJSON encodes a scalar payload as a bare JSON number and a
// structured payload as an object of numbers.
//
// # Limitations
//
//   - JSON has no representation for NaN or ±Inf; non-finite numbers are
//     encoded as null rather than failing the whole response.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindStructured:
		out := make(map[string]json.RawMessage, len(v.fields))
		for k, f := range v.fieldsRef() {
			out[k] = encodeFloat(f)
		}
		return json.Marshal(out)
	default:
		return encodeFloat(v.scalar), nil
	}
}

// UnmarshalJSON decodes a JSON number into a scalar payload and a JSON
// object of numbers into a structured payload. Any other shape is an error;
// wire-level validation belongs to the API boundary, not the store.
func (v *Value) UnmarshalJSON(data []byte) error {
	var scalar float64
	if err := json.Unmarshal(data, &scalar); err == nil {
		*v = NewScalar(scalar)
		return nil
	}

	var fields map[string]float64
	if err := json.Unmarshal(data, &fields); err == nil {
		*v = NewStructured(fields)
		return nil
	}

	return fmt.Errorf("metric value must be a number or an object of numbers, got %s", string(data))
}

// encodeFloat renders a float as a JSON number, or null when JSON cannot
// carry the value.
func encodeFloat(f float64) json.RawMessage {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return json.RawMessage("null")
	}
	data, err := json.Marshal(f)
	if err != nil {
		return json.RawMessage("null")
	}
	return data
}

// =============================================================================
// Sample
// =============================================================================

// Sample is one timestamped reading on a channel.
//
// Timestamp is Unix milliseconds. Samples sit in a channel in insertion
// order; the store never re-sorts, so a caller-supplied out-of-order
// timestamp stays where it was inserted.
type Sample struct {
	Timestamp int64 `json:"timestamp"`
	Value     Value `json:"value"`
}
