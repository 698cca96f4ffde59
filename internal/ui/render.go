package ui

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bpassist/bpassist/internal/assistant"
	"github.com/bpassist/bpassist/internal/history"
)

// DefaultWidth is the panel width used when the terminal size is unknown.
const DefaultWidth = 78

const minWidth = 30

// RenderResult draws a completed summarize request as a boxed panel with a
// SUMMARY section followed by DETAILS.
func RenderResult(res assistant.Result, width int) string {
	width = clampWidth(width)

	var sb strings.Builder
	title := fmt.Sprintf(" %s ", res.Document)
	sb.WriteString(topBorder(title, width))

	scope := fmt.Sprintf("%d selected node(s)", res.NodeCount)
	if res.WholeGraph {
		scope = fmt.Sprintf("whole graph, %d node(s)", res.NodeCount)
	}
	sb.WriteString(formatInfoLine("Scope", scope, width))
	if res.Elapsed > 0 {
		sb.WriteString(formatInfoLine("Took", res.Elapsed.Round(time.Millisecond).String(), width))
	}
	if res.Annotation != nil {
		a := res.Annotation
		sb.WriteString(formatInfoLine("Comment", fmt.Sprintf("%dx%d at (%d, %d)", a.Width, a.Height, a.X, a.Y), width))
	}

	sb.WriteString(section("Summary", res.Parts.Summary, width))
	sb.WriteString(section("Details", res.Parts.Details, width))

	sb.WriteString(bottomBorder(width))
	return sb.String()
}

// RenderHistory lists history entries, newest first, one block each.
func RenderHistory(entries []history.Entry, width int) string {
	if len(entries) == 0 {
		return Color(Muted, "No history yet.") + "\n"
	}
	width = clampWidth(width)

	var sb strings.Builder
	for _, e := range entries {
		header := fmt.Sprintf("%s  %s", e.CreatedAt.Local().Format("2006-01-02 15:04"), e.Document)
		sb.WriteString(Color(Strong, header))
		if e.Provider != "" {
			sb.WriteString(Color(Muted, " ["+e.Provider+"]"))
		}
		sb.WriteString("\n")
		if e.Query != "" {
			sb.WriteString(Color(Muted, "  query: ") + e.Query + "\n")
		}
		for _, line := range wrap(e.Summary, width-2) {
			sb.WriteString("  " + line + "\n")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// RenderFlattened prints flattened node text with dimmed line numbers.
func RenderFlattened(text string) string {
	if text == "" {
		return Color(Muted, "(no nodes)") + "\n"
	}
	var sb strings.Builder
	for _, line := range strings.Split(text, "\n") {
		num, rest, ok := strings.Cut(line, ". ")
		if !ok {
			sb.WriteString(line + "\n")
			continue
		}
		sb.WriteString(Color(Muted, num+".") + " " + rest + "\n")
	}
	return sb.String()
}

// RenderError formats an error message
func RenderError(err error) string {
	return Color(Failure, fmt.Sprintf("Error: %v", err))
}

// RenderSuccess formats a success message
func RenderSuccess(msg string) string {
	return Color(Success, msg)
}

// RenderWarning formats a warning message
func RenderWarning(msg string) string {
	return Color(Warning, msg)
}

// RenderDim formats text in dim style
func RenderDim(msg string) string {
	return Color(Muted, msg)
}

func clampWidth(width int) int {
	if width <= 0 {
		return DefaultWidth
	}
	if width < minWidth {
		return minWidth
	}
	return width
}

func topBorder(title string, width int) string {
	leftDashes := 3
	rightDashes := width - 2 - leftDashes - utf8.RuneCountInString(title)
	if rightDashes < 0 {
		rightDashes = 0
	}
	var sb strings.Builder
	sb.WriteString(Color(Frame, cornerTL+strings.Repeat(lineH, leftDashes)))
	sb.WriteString(Color(Title, title))
	sb.WriteString(Color(Frame, strings.Repeat(lineH, rightDashes)+cornerTR))
	sb.WriteString("\n")
	return sb.String()
}

func bottomBorder(width int) string {
	return Color(Frame, cornerBL+strings.Repeat(lineH, width-2)+cornerBR) + "\n"
}

func divider(label string, width int) string {
	text := " " + label + " "
	rest := width - 3 - utf8.RuneCountInString(text)
	if rest < 0 {
		rest = 0
	}
	return Color(Frame, teeLeft+lineH) + Color(Heading, text) +
		Color(Frame, strings.Repeat(lineH, rest)+teeRight) + "\n"
}

func section(label, body string, width int) string {
	var sb strings.Builder
	sb.WriteString(divider(label, width))
	if strings.TrimSpace(body) == "" {
		sb.WriteString(formatLine(Color(Muted, "(empty)"), width))
		return sb.String()
	}
	for _, line := range wrap(body, width-4) {
		sb.WriteString(formatLine(line, width))
	}
	return sb.String()
}

// formatLine left-aligns text inside the box.
func formatLine(text string, width int) string {
	padding := width - 4 - visibleLength(text)
	if padding < 0 {
		padding = 0
	}
	var sb strings.Builder
	sb.WriteString(Color(Frame, lineV))
	sb.WriteString(" ")
	sb.WriteString(text)
	sb.WriteString(strings.Repeat(" ", padding))
	sb.WriteString(" ")
	sb.WriteString(Color(Frame, lineV))
	sb.WriteString("\n")
	return sb.String()
}

func formatInfoLine(label, value string, width int) string {
	return formatLine(Color(Muted, label+":")+" "+value, width)
}

// wrap breaks text into lines of at most width runes. Existing line breaks
// are kept; words longer than width are split.
func wrap(text string, width int) []string {
	if width < 1 {
		width = 1
	}
	var lines []string
	for _, para := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		var cur []rune
		for _, w := range words {
			word := []rune(w)
			for len(word) > width {
				if len(cur) > 0 {
					lines = append(lines, string(cur))
					cur = nil
				}
				lines = append(lines, string(word[:width]))
				word = word[width:]
			}
			switch {
			case len(cur) == 0:
				cur = word
			case len(cur)+1+len(word) <= width:
				cur = append(append(cur, ' '), word...)
			default:
				lines = append(lines, string(cur))
				cur = word
			}
		}
		if len(cur) > 0 {
			lines = append(lines, string(cur))
		}
	}
	return lines
}

// visibleLength returns the visible length of a string, ignoring ANSI codes
func visibleLength(s string) int {
	inEscape := false
	visible := 0
	for _, r := range s {
		if r == '\033' {
			inEscape = true
			continue
		}
		if inEscape {
			if r == 'm' {
				inEscape = false
			}
			continue
		}
		visible++
	}
	return visible
}
