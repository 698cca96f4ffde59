package annotate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpassist/bpassist/internal/graph"
)

func TestPlace_EmptyText(t *testing.T) {
	_, ok := Place([]*graph.Node{{ID: "a"}}, "")
	assert.False(t, ok)
}

func TestPlace_WrapsSelection(t *testing.T) {
	nodes := []*graph.Node{
		{ID: "a", X: 100, Y: 40},
		nil,
		{ID: "b", X: -60, Y: 300},
	}

	a, ok := Place(nodes, "Opens the door when the player overlaps")
	require.True(t, ok)

	assert.Equal(t, -110, a.X)
	assert.Equal(t, -10, a.Y)
	// maxX = 100+200+50 = 350, maxY = 300+100+50 = 450
	assert.Equal(t, 460, a.Width)
	assert.Equal(t, 460, a.Height)
	assert.Equal(t, Color, a.Color)
	assert.Equal(t, []string{"a", "b"}, a.Contains)
	assert.NotEmpty(t, a.ID)
}

func TestPlace_SingleNode(t *testing.T) {
	a, ok := Place([]*graph.Node{{ID: "a", X: 0, Y: 0}}, "x")
	require.True(t, ok)
	assert.Equal(t, graph.Annotation{
		ID: a.ID, Text: "x", X: -50, Y: -50, Width: 300, Height: 200, Color: Color, Contains: []string{"a"},
	}, a)
}

func TestPlace_NoSelectionSizesFromText(t *testing.T) {
	tests := []struct {
		name       string
		length     int
		wantWidth  int
		wantHeight int
	}{
		{"short text clamps to minimum", 5, 200, 100},
		{"medium text", 40, 450, 100},
		{"long text clamps to maximum", 1000, 800, 400},
		{"height grows per 30 chars", 300, 800, 280},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, ok := Place(nil, strings.Repeat("a", tt.length))
			require.True(t, ok)
			assert.Equal(t, 0, a.X)
			assert.Equal(t, 0, a.Y)
			assert.Equal(t, tt.wantWidth, a.Width)
			assert.Equal(t, tt.wantHeight, a.Height)
			assert.Empty(t, a.Contains)
		})
	}
}

func TestPlace_UniqueIDs(t *testing.T) {
	a, _ := Place(nil, "one")
	b, _ := Place(nil, "one")
	assert.NotEqual(t, a.ID, b.ID)
}
