// Package llm sends prompts to a text generation endpoint and classifies the
// reply into an Outcome.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bpassist/bpassist/internal/logging"
)

// Provider names accepted by New.
const (
	ProviderGemini = "gemini"
	ProviderEcho   = "echo"
)

// Defaults for the Gemini endpoint.
const (
	DefaultBaseURL     = "https://generativelanguage.googleapis.com"
	DefaultAPIVersion  = "v1beta"
	DefaultModel       = "gemini-3-flash-preview"
	DefaultTimeoutSecs = 60
)

// Generator produces text for a prompt. Implementations report every
// failure through the returned Outcome and never panic on bad input.
type Generator interface {
	// Name returns the provider name (e.g., "gemini").
	Name() string

	// Generate performs one request and classifies the result.
	Generate(ctx context.Context, prompt, apiKey string) Outcome
}

// Observer is notified once per completed Generate call.
type Observer interface {
	RequestCompleted(provider, outcome string, elapsed time.Duration)
}

// ResponseFunc receives the result of GenerateContent.
type ResponseFunc func(text string, succeeded bool, errorMessage string)

// Config holds provider configuration.
type Config struct {
	Provider    string
	BaseURL     string
	APIVersion  string
	Model       string
	TimeoutSecs int
}

// DefaultConfig returns the Gemini defaults.
func DefaultConfig() Config {
	return Config{
		Provider:    ProviderGemini,
		BaseURL:     DefaultBaseURL,
		APIVersion:  DefaultAPIVersion,
		Model:       DefaultModel,
		TimeoutSecs: DefaultTimeoutSecs,
	}
}

type options struct {
	client   *http.Client
	logger   *slog.Logger
	observer Observer
}

// Option configures a Generator created by New or NewGemini.
type Option func(*options)

// WithHTTPClient replaces the HTTP client. Its Timeout wins over
// Config.TimeoutSecs.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.client = c }
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithObserver reports every completed request.
func WithObserver(obs Observer) Option {
	return func(o *options) { o.observer = obs }
}

func buildOptions(opts []Option) options {
	o := options{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// New creates the Generator named by cfg.Provider. Empty means gemini.
func New(cfg Config, opts ...Option) (Generator, error) {
	switch cfg.Provider {
	case "", ProviderGemini:
		return NewGemini(cfg, opts...), nil
	case ProviderEcho, "mock":
		return NewEcho(opts...), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (valid: gemini, echo)", cfg.Provider)
	}
}

// GenerateContent runs g in its own goroutine and calls fn exactly once with
// the outcome. Empty input is rejected before any I/O and fn runs on the
// calling goroutine.
func GenerateContent(ctx context.Context, g Generator, prompt, apiKey string, fn ResponseFunc) {
	if out, ok := checkInput(prompt, apiKey); !ok {
		fn(out.Text, out.Succeeded, out.ErrorMessage)
		return
	}
	go func() {
		out := g.Generate(ctx, prompt, apiKey)
		fn(out.Text, out.Succeeded, out.ErrorMessage)
	}()
}

func checkInput(prompt, apiKey string) (Outcome, bool) {
	if prompt == "" || apiKey == "" {
		return failure(KindInput, 0, MsgEmptyInput), false
	}
	return Outcome{}, true
}
