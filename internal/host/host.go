// Package host abstracts the editor that owns graph documents: which
// document is active, which view has focus, and how annotations are
// written back.
package host

import (
	"log/slog"
	"sync"

	"github.com/bpassist/bpassist/internal/graph"
	"github.com/bpassist/bpassist/internal/logging"
)

// Host resolves the active document and its focused view.
type Host interface {
	ActiveDocument() (*graph.Document, bool)
	FocusedView(doc *graph.Document) (View, bool)
}

// View is an editor view onto one document.
type View interface {
	// SelectedNodes returns the selection in order. Entries that no longer
	// resolve are nil.
	SelectedNodes() []*graph.Node
	AllNodes() []*graph.Node
	AddAnnotation(a graph.Annotation) error
}

// FileHost serves documents stored as graph files. The first path that
// loads becomes the active document; annotations are saved back to it.
type FileHost struct {
	paths  []string
	logger *slog.Logger

	mu     sync.Mutex
	active *graph.Document
	path   string
}

// Option configures a FileHost.
type Option func(*FileHost)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(h *FileHost) { h.logger = l }
}

// NewFileHost creates a host over paths. Nothing is read until
// ActiveDocument is called.
func NewFileHost(paths []string, opts ...Option) *FileHost {
	h := &FileHost{
		paths:  paths,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ActiveDocument loads the first readable path.
func (h *FileHost) ActiveDocument() (*graph.Document, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.active != nil {
		return h.active, true
	}
	for _, p := range h.paths {
		doc, err := graph.Load(p)
		if err != nil {
			h.logger.Warn("skipping graph file", "path", p, "error", err)
			continue
		}
		h.active, h.path = doc, p
		h.logger.Debug("active document", "name", doc.Name, "path", p, "nodes", len(doc.Nodes))
		return doc, true
	}
	return nil, false
}

// FocusedView returns the view for doc when it is the loaded document.
func (h *FileHost) FocusedView(doc *graph.Document) (View, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if doc == nil || doc != h.active {
		return nil, false
	}
	return &fileView{host: h, doc: doc, path: h.path}, true
}

type fileView struct {
	host *FileHost
	doc  *graph.Document
	path string
}

func (v *fileView) SelectedNodes() []*graph.Node { return v.doc.Selected() }

func (v *fileView) AllNodes() []*graph.Node { return v.doc.Nodes }

// AddAnnotation appends a and rewrites the file. The in-memory document is
// left unchanged when the save fails.
func (v *fileView) AddAnnotation(a graph.Annotation) error {
	v.host.mu.Lock()
	defer v.host.mu.Unlock()

	v.doc.Annotations = append(v.doc.Annotations, a)
	if err := graph.Save(v.path, v.doc); err != nil {
		v.doc.Annotations = v.doc.Annotations[:len(v.doc.Annotations)-1]
		return err
	}
	v.host.logger.Info("annotation saved", "path", v.path, "id", a.ID)
	return nil
}

// Memory is a host over a single in-memory document. HTTP handlers and
// tests use it.
type Memory struct {
	mu  sync.Mutex
	doc *graph.Document
	// Unfocused makes FocusedView report no view.
	Unfocused bool
}

// NewMemory creates a host whose active document is doc. A nil doc means
// no document is active.
func NewMemory(doc *graph.Document) *Memory {
	return &Memory{doc: doc}
}

func (m *Memory) ActiveDocument() (*graph.Document, bool) {
	return m.doc, m.doc != nil
}

func (m *Memory) FocusedView(doc *graph.Document) (View, bool) {
	if m.Unfocused || doc == nil || doc != m.doc {
		return nil, false
	}
	return &memoryView{m: m}, true
}

type memoryView struct {
	m *Memory
}

func (v *memoryView) SelectedNodes() []*graph.Node { return v.m.doc.Selected() }

func (v *memoryView) AllNodes() []*graph.Node { return v.m.doc.Nodes }

func (v *memoryView) AddAnnotation(a graph.Annotation) error {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	v.m.doc.Annotations = append(v.m.doc.Annotations, a)
	return nil
}
