// Package annotate computes where a summary comment box goes on the graph.
package annotate

import (
	"math"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/bpassist/bpassist/internal/graph"
)

// Layout constants, in graph units.
const (
	NodeWidth  = 200
	NodeHeight = 100
	Padding    = 50

	// Color is the fill used for placed annotations.
	Color = "#FFFFFF"
)

// Place builds an annotation for text. With selected nodes the box wraps
// their bounding rectangle, every node counted as NodeWidth x NodeHeight,
// padded by Padding on every side. Without a selection it sits at the
// origin and is sized from the text length. Empty text yields ok=false.
func Place(selected []*graph.Node, text string) (a graph.Annotation, ok bool) {
	if text == "" {
		return graph.Annotation{}, false
	}

	a = graph.Annotation{
		ID:    uuid.NewString(),
		Text:  text,
		Color: Color,
	}

	minX, minY := math.MaxInt, math.MaxInt
	maxX, maxY := math.MinInt, math.MinInt
	for _, n := range selected {
		if n == nil {
			continue
		}
		minX = min(minX, n.X)
		minY = min(minY, n.Y)
		maxX = max(maxX, n.X+NodeWidth)
		maxY = max(maxY, n.Y+NodeHeight)
		a.Contains = append(a.Contains, n.ID)
	}

	if len(a.Contains) == 0 {
		length := utf8.RuneCountInString(text)
		a.Width = clamp(length*10+50, 200, 800)
		a.Height = clamp(length/30*20+80, 100, 400)
		return a, true
	}

	a.X = minX - Padding
	a.Y = minY - Padding
	a.Width = (maxX + Padding) - a.X
	a.Height = (maxY + Padding) - a.Y
	return a, true
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
