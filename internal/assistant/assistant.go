// Package assistant drives one summarize request: it gathers nodes from the
// host, flattens them into a prompt, calls the generator, splits the reply
// and writes the summary back as an annotation.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bpassist/bpassist/internal/annotate"
	"github.com/bpassist/bpassist/internal/flatten"
	"github.com/bpassist/bpassist/internal/graph"
	"github.com/bpassist/bpassist/internal/history"
	"github.com/bpassist/bpassist/internal/host"
	"github.com/bpassist/bpassist/internal/llm"
	"github.com/bpassist/bpassist/internal/logging"
)

var (
	// ErrMissingAPIKey is returned before anything else when no credential
	// is configured.
	ErrMissingAPIKey = errors.New("Gemini API Key not found in config! Please add it to [GeminiAssistant] section in the bpassist config file.")

	// ErrNoActiveDocument is returned when the host has no document open.
	ErrNoActiveDocument = errors.New("No Blueprint editor is currently active. Please open a Blueprint.")
)

// Observer is notified of annotations written back to the host.
type Observer interface {
	AnnotationWritten()
}

// Result describes one completed request.
type Result struct {
	Document   string
	NodeCount  int
	WholeGraph bool
	Prompt     string
	Outcome    llm.Outcome
	Parts      Parts
	Annotation *graph.Annotation
	Elapsed    time.Duration
}

// Assistant wires a host to a generator.
type Assistant struct {
	host            host.Host
	gen             llm.Generator
	apiKey          string
	pre             *flatten.Preprocessor
	store           history.Store
	writeAnnotation bool
	logger          *slog.Logger
	observer        Observer
}

// Option configures an Assistant.
type Option func(*Assistant)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(a *Assistant) { a.logger = l }
}

// WithHistory records every successful request in s.
func WithHistory(s history.Store) Option {
	return func(a *Assistant) { a.store = s }
}

// WithWriteAnnotation toggles writing the summary back to the graph. It is
// on by default.
func WithWriteAnnotation(on bool) Option {
	return func(a *Assistant) { a.writeAnnotation = on }
}

// WithPreprocessor replaces the node flattener.
func WithPreprocessor(p *flatten.Preprocessor) Option {
	return func(a *Assistant) { a.pre = p }
}

// WithObserver reports written annotations.
func WithObserver(o Observer) Option {
	return func(a *Assistant) { a.observer = o }
}

// New creates an Assistant that authenticates with apiKey.
func New(h host.Host, gen llm.Generator, apiKey string, opts ...Option) *Assistant {
	a := &Assistant{
		host:            h,
		gen:             gen,
		apiKey:          apiKey,
		pre:             flatten.New(),
		store:           history.Nop{},
		writeAnnotation: true,
		logger:          logging.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Summarize runs one request for query against the active document. The
// selected nodes are summarized, or the whole graph when nothing is
// selected. A failed generation returns the partial Result together with
// an *llm.Error.
func (a *Assistant) Summarize(ctx context.Context, query string) (*Result, error) {
	if a.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	doc, ok := a.host.ActiveDocument()
	if !ok || doc == nil {
		return nil, ErrNoActiveDocument
	}

	// Without a focused view nothing is selected and nothing can be
	// annotated; the whole document is still summarized.
	view, hasView := a.host.FocusedView(doc)

	var selected []*graph.Node
	if hasView {
		selected = nonNil(view.SelectedNodes())
	}

	res := &Result{Document: doc.Name}
	nodes := selected
	if len(selected) == 0 {
		res.WholeGraph = true
		nodes = doc.Nodes
		if hasView {
			nodes = view.AllNodes()
		}
	}

	nodesText := a.pre.PreprocessNodes(nodes)
	res.NodeCount = len(nonNil(nodes))
	res.Prompt = BuildPrompt(doc.Name, nodesText, query, res.WholeGraph)

	a.logger.Info("summarizing",
		"document", doc.Name, "nodes", res.NodeCount, "whole_graph", res.WholeGraph, "provider", a.gen.Name())

	start := time.Now()
	res.Outcome = a.gen.Generate(ctx, res.Prompt, a.apiKey)
	res.Elapsed = time.Since(start)
	if !res.Outcome.Succeeded {
		return res, res.Outcome.Err()
	}

	res.Parts = ParseResponse(res.Outcome.Text)
	if res.Parts == (Parts{}) {
		a.logger.Warn("reply did not contain DETAILS:/SUMMARY: markers", "document", doc.Name)
	}

	if a.writeAnnotation && hasView {
		if ann, ok := annotate.Place(selected, res.Parts.Summary); ok {
			if err := view.AddAnnotation(ann); err != nil {
				return res, fmt.Errorf("write annotation: %w", err)
			}
			res.Annotation = &ann
			if a.observer != nil {
				a.observer.AnnotationWritten()
			}
		}
	}

	entry := history.Entry{
		Document:   doc.Name,
		Query:      query,
		Provider:   a.gen.Name(),
		NodeCount:  res.NodeCount,
		WholeGraph: res.WholeGraph,
		Details:    res.Parts.Details,
		Summary:    res.Parts.Summary,
	}
	if err := a.store.Append(ctx, entry); err != nil {
		a.logger.Warn("failed to record history", "error", err)
	}

	return res, nil
}

func nonNil(nodes []*graph.Node) []*graph.Node {
	out := make([]*graph.Node, 0, len(nodes))
	for _, n := range nodes {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}
