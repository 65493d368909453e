// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"strings"
	"testing"
)

func TestTableRow_FixedWidths(t *testing.T) {
	SetPlainMode(true)
	defer SetPlainMode(false)

	row := TableRow([]int{10, 6, 8}, "tekton_core", "up", "12ms")
	// First column overflows its width; later columns still separated.
	if !strings.Contains(row, "tekton_core") || !strings.Contains(row, "12ms") {
		t.Errorf("Row missing cells: %q", row)
	}

	row = TableRow([]int{10, 6}, "cpu", "ok")
	if !strings.HasPrefix(row, "cpu       ") {
		t.Errorf("Expected 'cpu' padded to 10 chars, got %q", row)
	}
	if strings.HasSuffix(row, " ") {
		t.Errorf("Trailing whitespace should be trimmed: %q", row)
	}
}

func TestPadRight_CountsPrintableRunes(t *testing.T) {
	styled := "\x1b[32mok\x1b[0m"
	padded := padRight(styled, 5)
	if got := len([]rune(stripANSI(padded))); got != 5 {
		t.Errorf("Expected 5 printable runes, got %d (%q)", got, padded)
	}
}

func TestIcon_Render_PlainMode(t *testing.T) {
	SetPlainMode(true)
	defer SetPlainMode(false)

	if got := IconSuccess.Render(); got != "✓" {
		t.Errorf("Plain mode should render bare icon, got %q", got)
	}
}
