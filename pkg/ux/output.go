// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ux provides rich terminal output styling for the Tekton CLI.
package ux

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Tekton color palette - forge fire and cooled steel
var (
	// Primary palette (brightest to darkest)
	ColorEmberBright  = lipgloss.Color("#FFB454") // Bright ember - highlights, success accents
	ColorEmberPrimary = lipgloss.Color("#F29718") // Primary ember - main brand color
	ColorForgeGlow    = lipgloss.Color("#E8793A") // Forge glow - interactive elements
	ColorSteelLight   = lipgloss.Color("#8FA3B0") // Light steel - secondary text
	ColorSteelMedium  = lipgloss.Color("#5C6773") // Medium steel - borders, accents
	ColorSteelDark    = lipgloss.Color("#3E4B59") // Dark steel - muted elements

	// Semantic colors (keeping standard conventions for clarity)
	ColorSuccess = lipgloss.Color("#91B362") // Green for healthy components
	ColorWarning = lipgloss.Color("#F4D03F") // Gold/amber for warnings
	ColorError   = lipgloss.Color("#E74C3C") // Red for errors and down components
	ColorMuted   = lipgloss.Color("#5C6773") // Steel for muted text
)

// plainMode disables styling and icons. Set when stdout is not a terminal
// or when the operator asks for machine-friendly output.
var plainMode = !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd())

// SetPlainMode forces styling on or off, overriding TTY detection.
// The CLI wires its --plain flag and NO_COLOR handling through this.
func SetPlainMode(plain bool) {
	plainMode = plain
}

// PlainMode reports whether styled output is disabled.
func PlainMode() bool {
	return plainMode
}

func init() {
	if os.Getenv("NO_COLOR") != "" {
		plainMode = true
	}
}

// Styles provides pre-configured lipgloss styles
var Styles = struct {
	// Text styles
	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	Bold      lipgloss.Style
	Muted     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Highlight lipgloss.Style

	// Table styles
	TableHeader lipgloss.Style
	TableCell   lipgloss.Style

	// Status indicators
	StatusOK      lipgloss.Style
	StatusWarning lipgloss.Style
	StatusError   lipgloss.Style
	StatusPending lipgloss.Style
}{
	// Text styles
	Title:     lipgloss.NewStyle().Bold(true).Foreground(ColorEmberBright),
	Subtitle:  lipgloss.NewStyle().Foreground(ColorEmberPrimary),
	Bold:      lipgloss.NewStyle().Bold(true),
	Muted:     lipgloss.NewStyle().Foreground(ColorSteelMedium),
	Success:   lipgloss.NewStyle().Foreground(ColorSuccess),
	Warning:   lipgloss.NewStyle().Foreground(ColorWarning),
	Error:     lipgloss.NewStyle().Foreground(ColorError),
	Highlight: lipgloss.NewStyle().Foreground(ColorEmberBright).Bold(true),

	// Table styles
	TableHeader: lipgloss.NewStyle().Bold(true).Foreground(ColorSteelLight),
	TableCell:   lipgloss.NewStyle(),

	// Status indicators
	StatusOK:      lipgloss.NewStyle().SetString("✓").Foreground(ColorSuccess),
	StatusWarning: lipgloss.NewStyle().SetString("⚠").Foreground(ColorWarning),
	StatusError:   lipgloss.NewStyle().SetString("✗").Foreground(ColorError),
	StatusPending: lipgloss.NewStyle().SetString("○").Foreground(ColorSteelMedium),
}

// Icon provides themed status icons
type Icon string

const (
	IconSuccess Icon = "✓"
	IconWarning Icon = "⚠"
	IconError   Icon = "✗"
	IconPending Icon = "○"
	IconArrow   Icon = "→"
	IconBullet  Icon = "•"
)

// Render returns the icon with appropriate styling
func (i Icon) Render() string {
	if plainMode {
		return string(i)
	}
	switch i {
	case IconSuccess:
		return Styles.Success.Render(string(i))
	case IconWarning:
		return Styles.Warning.Render(string(i))
	case IconError:
		return Styles.Error.Render(string(i))
	case IconPending:
		return Styles.Muted.Render(string(i))
	default:
		return string(i)
	}
}

// Title prints a styled title
func Title(text string) {
	if plainMode {
		fmt.Println(text)
		return
	}
	fmt.Println(Styles.Title.Render(text))
}

// Success prints a success message with checkmark
func Success(text string) {
	if plainMode {
		fmt.Fprintf(os.Stdout, "OK: %s\n", text)
		return
	}
	fmt.Printf("%s %s\n", IconSuccess.Render(), Styles.Success.Render(text))
}

// Warning prints a warning message
func Warning(text string) {
	if plainMode {
		fmt.Fprintf(os.Stderr, "WARN: %s\n", text)
		return
	}
	fmt.Printf("%s %s\n", IconWarning.Render(), Styles.Warning.Render(text))
}

// Error prints an error message
func Error(text string) {
	if plainMode {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", text)
		return
	}
	fmt.Printf("%s %s\n", IconError.Render(), Styles.Error.Render(text))
}

// Info prints an informational message
func Info(text string) {
	if plainMode {
		fmt.Println(text)
		return
	}
	fmt.Printf("%s %s\n", Styles.Muted.Render("│"), text)
}

// Muted prints muted/secondary text
func Muted(text string) {
	if plainMode {
		fmt.Println(text)
		return
	}
	fmt.Println(Styles.Muted.Render(text))
}

// TableRow renders one row of fixed-width columns. Widths shorter than the
// cell content do not truncate; the column simply overflows.
func TableRow(widths []int, cells ...string) string {
	var b strings.Builder
	for i, cell := range cells {
		width := 0
		if i < len(widths) {
			width = widths[i]
		}
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(padRight(cell, width))
	}
	return strings.TrimRight(b.String(), " ")
}

// TableHeader renders a styled header row over the given column widths.
func TableHeader(widths []int, cells ...string) string {
	row := TableRow(widths, cells...)
	if plainMode {
		return row
	}
	return Styles.TableHeader.Render(row)
}

// padRight pads s with spaces to width. Styled cells carry ANSI escapes, so
// padding counts printable runes only.
func padRight(s string, width int) string {
	printable := len([]rune(stripANSI(s)))
	if printable >= width {
		return s
	}
	return s + strings.Repeat(" ", width-printable)
}

// stripANSI removes simple SGR escape sequences for width accounting.
func stripANSI(s string) string {
	var b strings.Builder
	inEscape := false
	for _, r := range s {
		switch {
		case inEscape:
			if r == 'm' {
				inEscape = false
			}
		case r == '\x1b':
			inEscape = true
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
