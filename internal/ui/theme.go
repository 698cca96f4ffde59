// Package ui renders assistant results for a terminal.
package ui

import (
	"os"

	"golang.org/x/term"
)

// Styles by role. Each is an ANSI SGR sequence.
const (
	Frame   = "\033[36m"
	Title   = "\033[1;36m"
	Heading = "\033[1;35m"
	Strong  = "\033[1m"
	Muted   = "\033[2m"
	Success = "\033[32m"
	Warning = "\033[33m"
	Failure = "\033[31m"

	reset = "\033[0m"
)

// Panel glyphs.
const (
	cornerTL = "╭"
	cornerTR = "╮"
	cornerBL = "╰"
	cornerBR = "╯"
	lineH    = "─"
	lineV    = "│"
	teeLeft  = "├"
	teeRight = "┤"
)

// stdoutTTY is fixed at startup; color can only be switched off later.
var (
	stdoutTTY    = term.IsTerminal(int(os.Stdout.Fd()))
	colorEnabled = stdoutTTY && os.Getenv("NO_COLOR") == ""
)

// SetNoColor disables color output. It never re-enables it.
func SetNoColor(disable bool) {
	if disable {
		colorEnabled = false
	}
}

// IsTTY reports whether stdout is a terminal.
func IsTTY() bool {
	return stdoutTTY
}

// TerminalWidth returns the width of stdout, or fallback when it is not a
// terminal.
func TerminalWidth(fallback int) int {
	if !stdoutTTY {
		return fallback
	}
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return fallback
	}
	return w
}

// Color wraps text in style when color is enabled.
func Color(style, text string) string {
	if !colorEnabled {
		return text
	}
	return style + text + reset
}
