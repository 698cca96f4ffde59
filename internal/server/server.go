// Package server exposes the flattener and the assistant over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/bpassist/bpassist/internal/assistant"
	"github.com/bpassist/bpassist/internal/flatten"
	"github.com/bpassist/bpassist/internal/graph"
	"github.com/bpassist/bpassist/internal/history"
	"github.com/bpassist/bpassist/internal/host"
	"github.com/bpassist/bpassist/internal/llm"
	"github.com/bpassist/bpassist/internal/logging"
	"github.com/bpassist/bpassist/internal/metrics"
)

const (
	maxBodyBytes      = 8 << 20
	defaultHistory    = 20
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
	requestIDHeader   = "X-Request-ID"
)

// Server handles HTTP requests for flattening and summarizing documents
// posted by clients. The API key is held server-side.
type Server struct {
	gen             llm.Generator
	apiKey          string
	store           history.Store
	metrics         *metrics.Recorder
	logger          *slog.Logger
	writeAnnotation bool
}

// Option configures a Server.
type Option func(*Server)

// WithHistory records summaries in s and serves them on /api/history.
func WithHistory(s history.Store) Option {
	return func(srv *Server) { srv.store = s }
}

// WithMetrics counts activity in r and serves it on /metrics.
func WithMetrics(r *metrics.Recorder) Option {
	return func(srv *Server) { srv.metrics = r }
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(srv *Server) { srv.logger = l }
}

// WithWriteAnnotation sets whether summaries are added to the returned
// document when the request does not say. It is on by default.
func WithWriteAnnotation(on bool) Option {
	return func(srv *Server) { srv.writeAnnotation = on }
}

// New creates a Server.
func New(gen llm.Generator, apiKey string, opts ...Option) *Server {
	s := &Server{
		gen:             gen,
		apiKey:          apiKey,
		store:           history.Nop{},
		logger:          logging.NewNop(),
		writeAnnotation: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ErrorResponse is the JSON error response
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// FlattenRequest is the JSON request for /api/flatten
type FlattenRequest struct {
	Document        *graph.Document `json:"document"`
	WithConnections bool            `json:"with_connections"`
	// SelectedOnly restricts output to the document selection when it is
	// not empty.
	SelectedOnly bool `json:"selected_only"`
}

// FlattenResponse is the JSON response for /api/flatten
type FlattenResponse struct {
	Text  string                      `json:"text"`
	Nodes []flatten.ProcessedNodeData `json:"nodes"`
}

// SummarizeRequest is the JSON request for /api/summarize
type SummarizeRequest struct {
	Document        *graph.Document `json:"document"`
	Query           string          `json:"query"`
	WriteAnnotation *bool           `json:"write_annotation,omitempty"`
}

// SummarizeResponse is the JSON response for /api/summarize
type SummarizeResponse struct {
	Document   string            `json:"document"`
	NodeCount  int               `json:"node_count"`
	WholeGraph bool              `json:"whole_graph"`
	Details    string            `json:"details"`
	Summary    string            `json:"summary"`
	Annotation *graph.Annotation `json:"annotation,omitempty"`
	ElapsedMs  int64             `json:"elapsed_ms"`
	// Updated is the posted document including the new annotation.
	Updated *graph.Document `json:"updated,omitempty"`
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/flatten", s.handleFlatten)
		r.Post("/summarize", s.handleSummarize)
		r.Get("/history", s.handleHistory)
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("http server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"ok":       true,
		"provider": s.gen.Name(),
		"has_key":  s.apiKey != "",
	})
}

func (s *Server) handleFlatten(w http.ResponseWriter, r *http.Request) {
	var req FlattenRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Document == nil {
		s.writeError(w, http.StatusBadRequest, "document is required")
		return
	}
	req.Document.Resolve()

	nodes := req.Document.Nodes
	if req.SelectedOnly {
		if sel := req.Document.Selected(); len(sel) > 0 {
			nodes = sel
		}
	}

	pre := s.preprocessor()
	data := pre.ProcessNodes(nodes)
	text := flatten.FormatOutput(data)
	if req.WithConnections {
		text = flatten.FormatOutputWithConnections(data)
	}
	s.writeJSON(w, http.StatusOK, FlattenResponse{Text: text, Nodes: data})
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	var req SummarizeRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Document != nil {
		req.Document.Resolve()
	}

	write := s.writeAnnotation
	if req.WriteAnnotation != nil {
		write = *req.WriteAnnotation
	}

	opts := []assistant.Option{
		assistant.WithLogger(s.logger.With("request_id", w.Header().Get(requestIDHeader))),
		assistant.WithHistory(s.store),
		assistant.WithWriteAnnotation(write),
		assistant.WithPreprocessor(s.preprocessor()),
	}
	if s.metrics != nil {
		opts = append(opts, assistant.WithObserver(s.metrics))
	}

	// A nil document leaves the host without an active document.
	h := host.NewMemory(req.Document)
	res, err := assistant.New(h, s.gen, s.apiKey, opts...).Summarize(r.Context(), req.Query)
	if err != nil {
		s.writeSummarizeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, SummarizeResponse{
		Document:   res.Document,
		NodeCount:  res.NodeCount,
		WholeGraph: res.WholeGraph,
		Details:    res.Parts.Details,
		Summary:    res.Parts.Summary,
		Annotation: res.Annotation,
		ElapsedMs:  res.Elapsed.Milliseconds(),
		Updated:    req.Document,
	})
}

func (s *Server) writeSummarizeError(w http.ResponseWriter, err error) {
	var llmErr *llm.Error
	switch {
	case errors.Is(err, assistant.ErrMissingAPIKey):
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, assistant.ErrNoActiveDocument):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &llmErr):
		status := http.StatusBadGateway
		if llmErr.Kind == llm.KindInput {
			status = http.StatusBadRequest
		}
		s.writeJSON(w, status, ErrorResponse{Error: llmErr.Message, Kind: llmErr.Kind.String()})
	default:
		s.logger.Error("summarize failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistory
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", v))
			return
		}
		limit = n
	}

	entries, err := s.store.List(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to list history", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list history")
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	s.writeJSON(w, http.StatusOK, entries)
}

func (s *Server) preprocessor() *flatten.Preprocessor {
	if s.metrics == nil {
		return flatten.New()
	}
	return flatten.New(flatten.WithObserver(s.metrics))
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.logger.Warn("invalid request body", "path", r.URL.Path, "error", err)
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}

// writeError writes a JSON error response
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, ErrorResponse{Error: message})
}

// requestID tags every request with an ID, reusing the caller's when set.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", w.Header().Get(requestIDHeader),
		)
	})
}
