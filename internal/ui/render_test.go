package ui

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpassist/bpassist/internal/assistant"
	"github.com/bpassist/bpassist/internal/graph"
	"github.com/bpassist/bpassist/internal/history"
)

func init() {
	SetNoColor(true)
}

func TestRenderResult_BoxedSections(t *testing.T) {
	res := assistant.Result{
		Document:  "BP_Door",
		NodeCount: 3,
		Parts: assistant.Parts{
			Details: "Opens the door when the player overlaps the trigger volume and plays a sound.",
			Summary: "Door logic.",
		},
		Annotation: &graph.Annotation{X: 50, Y: -50, Width: 300, Height: 200},
	}

	out := RenderResult(res, 40)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")

	for _, l := range lines {
		assert.Equal(t, 40, utf8.RuneCountInString(l), "line %q", l)
	}
	assert.Contains(t, lines[0], " BP_Door ")
	assert.Contains(t, out, "Scope: 3 selected node(s)")
	assert.Contains(t, out, "Comment: 300x200 at (50, -50)")
	assert.Less(t, strings.Index(out, "Summary"), strings.Index(out, "Details"))
	assert.Contains(t, out, "Door logic.")
}

func TestRenderResult_WholeGraphAndEmptySections(t *testing.T) {
	out := RenderResult(assistant.Result{Document: "BP", NodeCount: 7, WholeGraph: true}, 0)
	assert.Contains(t, out, "whole graph, 7 node(s)")
	assert.Equal(t, 2, strings.Count(out, "(empty)"))
	assert.NotContains(t, out, "Comment:")
}

func TestWrap(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width int
		want  []string
	}{
		{"fits", "a b c", 10, []string{"a b c"}},
		{"breaks on words", "alpha beta gamma", 10, []string{"alpha beta", "gamma"}},
		{"keeps paragraphs", "one\n\ntwo", 10, []string{"one", "", "two"}},
		{"splits long words", "abcdefghij", 4, []string{"abcd", "efgh", "ij"}},
		{"unicode", "ééé ééé", 3, []string{"ééé", "ééé"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, wrap(tt.text, tt.width))
		})
	}
}

func TestVisibleLength_IgnoresANSI(t *testing.T) {
	assert.Equal(t, 5, visibleLength("\033[1mhello\033[0m"))
	assert.Equal(t, 3, visibleLength("│a│"))
}

func TestRenderHistory(t *testing.T) {
	assert.Contains(t, RenderHistory(nil, 60), "No history yet.")

	out := RenderHistory([]history.Entry{{
		Document:  "BP_Door",
		Query:     "what does it do",
		Provider:  "gemini",
		Summary:   "Door logic.",
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 0, 0, time.UTC),
	}}, 60)
	assert.Contains(t, out, "BP_Door")
	assert.Contains(t, out, "[gemini]")
	assert.Contains(t, out, "query: what does it do")
	assert.Contains(t, out, "  Door logic.")
}

func TestRenderFlattened(t *testing.T) {
	assert.Equal(t, "(no nodes)\n", RenderFlattened(""))
	assert.Equal(t, "1. CALL: Vector.Add\n2. GET: IsOpen\n", RenderFlattened("1. CALL: Vector.Add\n2. GET: IsOpen"))
}

func TestColor_DisabledPassesThrough(t *testing.T) {
	assert.Equal(t, "plain", Color(Failure, "plain"))
	out := RenderResult(assistant.Result{Document: "BP", Parts: assistant.Parts{Summary: "s"}}, 40)
	assert.NotContains(t, out, "\033[")
}

func TestRenderError(t *testing.T) {
	assert.Equal(t, "Error: boom", RenderError(errors.New("boom")))
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpinner_WritesAndClears(t *testing.T) {
	var out syncBuffer
	s := NewSpinnerTo(&out, "Asking Gemini")

	s.Start()
	s.Start()
	require.True(t, s.IsRunning())
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Asking Gemini")
	}, 2*time.Second, 10*time.Millisecond)

	s.Stop()
	s.Stop()
	assert.False(t, s.IsRunning())
	assert.True(t, strings.HasSuffix(out.String(), "\r"))
}
