package host

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpassist/bpassist/internal/graph"
)

const doorJSON = `{"name": "BP_Door", "nodes": [
	{"id": "n1", "variants": ["event"], "event_member": "ReceiveBeginPlay", "x": 10, "y": 20},
	{"id": "n2", "title": "Print String", "x": 300, "y": 20}
], "selection": ["n2"]}`

func writeGraph(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestFileHost_ActiveDocumentSkipsUnreadable(t *testing.T) {
	dir := t.TempDir()
	broken := writeGraph(t, dir, "broken.json", "{not json")
	good := writeGraph(t, dir, "door.json", doorJSON)

	h := NewFileHost([]string{filepath.Join(dir, "missing.json"), broken, good})
	doc, ok := h.ActiveDocument()
	require.True(t, ok)
	assert.Equal(t, "BP_Door", doc.Name)

	again, ok := h.ActiveDocument()
	require.True(t, ok)
	assert.Same(t, doc, again)
}

func TestFileHost_NoDocument(t *testing.T) {
	h := NewFileHost(nil)
	_, ok := h.ActiveDocument()
	assert.False(t, ok)

	_, ok = h.FocusedView(&graph.Document{})
	assert.False(t, ok)
}

func TestFileHost_AddAnnotationPersists(t *testing.T) {
	path := writeGraph(t, t.TempDir(), "door.json", doorJSON)

	h := NewFileHost([]string{path})
	doc, ok := h.ActiveDocument()
	require.True(t, ok)
	view, ok := h.FocusedView(doc)
	require.True(t, ok)

	sel := view.SelectedNodes()
	require.Len(t, sel, 1)
	assert.Equal(t, "n2", sel[0].ID)
	assert.Len(t, view.AllNodes(), 2)

	require.NoError(t, view.AddAnnotation(graph.Annotation{ID: "c1", Text: "Prints on start"}))

	reloaded, err := graph.Load(path)
	require.NoError(t, err)
	require.Len(t, reloaded.Annotations, 1)
	assert.Equal(t, "Prints on start", reloaded.Annotations[0].Text)
}

func TestFileHost_AddAnnotationRollsBackOnSaveError(t *testing.T) {
	dir := t.TempDir()
	path := writeGraph(t, dir, "door.json", doorJSON)

	h := NewFileHost([]string{path})
	doc, _ := h.ActiveDocument()
	view, _ := h.FocusedView(doc)

	require.NoError(t, os.RemoveAll(dir))
	assert.Error(t, view.AddAnnotation(graph.Annotation{ID: "c1", Text: "lost"}))
	assert.Empty(t, doc.Annotations)
}

func TestMemory(t *testing.T) {
	doc := &graph.Document{Name: "BP", Nodes: []*graph.Node{{ID: "a"}}, Selection: []string{"a"}}
	m := NewMemory(doc)

	active, ok := m.ActiveDocument()
	require.True(t, ok)
	view, ok := m.FocusedView(active)
	require.True(t, ok)
	require.NoError(t, view.AddAnnotation(graph.Annotation{ID: "x"}))
	assert.Len(t, doc.Annotations, 1)

	_, ok = m.FocusedView(&graph.Document{})
	assert.False(t, ok)

	m.Unfocused = true
	_, ok = m.FocusedView(active)
	assert.False(t, ok)

	_, ok = NewMemory(nil).ActiveDocument()
	assert.False(t, ok)
}
