// Copyright 2026 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui provides terminal output helpers for the debtlens CLI: color
// output that respects --no-color/NO_COLOR, and a TTY check gating color
// and the progress bar on a real terminal.
package ui

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Pre-configured color instances for consistent CLI output.
var (
	Red    = color.New(color.FgRed)
	Yellow = color.New(color.FgYellow)
	Green  = color.New(color.FgGreen)
	Cyan   = color.New(color.FgCyan)
	Bold   = color.New(color.Bold)
	Dim    = color.New(color.Faint)
)

// InitColors configures global color output based on the --no-color flag.
// Called once in main() after flag parsing.
func InitColors(noColor bool) {
	color.NoColor = noColor
}

// IsTerminal reports whether fd (typically os.Stderr.Fd()) is a real TTY —
// used to decide whether the progress bar should render at all.
func IsTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Success prints a green success message with a checkmark prefix.
func Success(msg string) { _, _ = Green.Println("✓ " + msg) }

// Successf prints a formatted green success message.
func Successf(format string, args ...any) { _, _ = Green.Printf("✓ "+format+"\n", args...) }

// Warning prints a yellow warning message with a warning symbol prefix.
func Warning(msg string) { _, _ = Yellow.Println("⚠ " + msg) }

// Warningf prints a formatted yellow warning message.
func Warningf(format string, args ...any) { _, _ = Yellow.Printf("⚠ "+format+"\n", args...) }

// Error prints a red error message with an X prefix.
func Error(msg string) { _, _ = Red.Println("✗ " + msg) }

// Errorf prints a formatted red error message.
func Errorf(format string, args ...any) { _, _ = Red.Printf("✗ "+format+"\n", args...) }

// Info prints a cyan informational message with an info symbol prefix.
func Info(msg string) { _, _ = Cyan.Println("ℹ " + msg) }

// Infof prints a formatted cyan informational message.
func Infof(format string, args ...any) { _, _ = Cyan.Printf("ℹ "+format+"\n", args...) }

// Header prints a bold header with an underline separator.
func Header(text string) {
	_, _ = Bold.Println(text)
	fmt.Println(strings.Repeat("=", len(text)))
}

// Label returns a bold-formatted label string for inline use.
func Label(text string) string { return Bold.Sprint(text) }

// DimText returns a dim-formatted string for less important text.
func DimText(text string) string { return Dim.Sprint(text) }

// CountText returns a cyan-formatted count value for statistics display.
func CountText(count int) string { return Cyan.Sprint(count) }
