package llm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/bpassist/bpassist/internal/redact"
)

// Gemini calls the generateContent endpoint. The credential travels as the
// key query parameter, so URLs are redacted before logging.
type Gemini struct {
	cfg      Config
	client   *http.Client
	logger   *slog.Logger
	observer Observer
}

// NewGemini creates a Gemini client. Zero fields in cfg take the defaults.
func NewGemini(cfg Config, opts ...Option) *Gemini {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = def.APIVersion
	}
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.TimeoutSecs <= 0 {
		cfg.TimeoutSecs = def.TimeoutSecs
	}
	cfg.Provider = ProviderGemini

	o := buildOptions(opts)
	client := o.client
	if client == nil {
		client = &http.Client{
			Timeout: time.Duration(cfg.TimeoutSecs) * time.Second,
		}
	}
	return &Gemini{
		cfg:      cfg,
		client:   client,
		logger:   o.logger,
		observer: o.observer,
	}
}

func (g *Gemini) Name() string { return ProviderGemini }

// Model returns the configured model identifier.
func (g *Gemini) Model() string { return g.cfg.Model }

// Endpoint returns the request URL for apiKey.
func (g *Gemini) Endpoint(apiKey string) string {
	return fmt.Sprintf("%s/%s/models/%s:generateContent?key=%s",
		strings.TrimRight(g.cfg.BaseURL, "/"), g.cfg.APIVersion, g.cfg.Model, url.QueryEscape(apiKey))
}

// GenerateContent is the callback form of Generate; see the package-level
// GenerateContent.
func (g *Gemini) GenerateContent(ctx context.Context, prompt, apiKey string, fn ResponseFunc) {
	GenerateContent(ctx, g, prompt, apiKey, fn)
}

// generateRequest is the envelope for :generateContent.
type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text *string `json:"text,omitempty"`
}

type candidate struct {
	Content *content `json:"content"`
}

type apiError struct {
	Message *string `json:"message"`
}

// Generate performs one POST and classifies the reply. It never retries.
func (g *Gemini) Generate(ctx context.Context, prompt, apiKey string) Outcome {
	start := time.Now()
	out := g.generate(ctx, prompt, apiKey)
	elapsed := time.Since(start)

	if g.observer != nil {
		g.observer.RequestCompleted(g.Name(), out.Kind.String(), elapsed)
	}
	if out.Succeeded {
		g.logger.Debug("generate succeeded", "model", g.cfg.Model, "status", out.StatusCode, "elapsed", elapsed)
	} else {
		g.logger.Warn("generate failed", "model", g.cfg.Model, "kind", out.Kind.String(),
			"status", out.StatusCode, "error", redact.Text(out.ErrorMessage))
	}
	return out
}

func (g *Gemini) generate(ctx context.Context, prompt, apiKey string) Outcome {
	if out, ok := checkInput(prompt, apiKey); !ok {
		return out
	}

	bodyBytes, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: &prompt}}}},
	})
	if err != nil {
		g.logger.Error("marshal request", "error", err)
		return failure(KindTransport, 0, MsgNoConnection)
	}

	endpoint := g.Endpoint(apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		g.logger.Error("create request", "url", redact.URL(endpoint), "error", redact.Text(err.Error()))
		return failure(KindTransport, 0, MsgNoConnection)
	}
	req.Header.Set("Content-Type", "application/json")

	g.logger.Debug("sending generate request", "url", redact.URL(endpoint), "bytes", len(bodyBytes))

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Debug("http request failed", "error", redact.Text(err.Error()))
		return failure(KindTransport, 0, MsgNoConnection)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		g.logger.Debug("read response body", "error", err)
		return failure(KindTransport, resp.StatusCode, MsgNoConnection)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return failure(KindHTTPStatus, resp.StatusCode,
			fmt.Sprintf("HTTP Request Failed: Response code %d - %s", resp.StatusCode, respBody))
	}

	return classify(resp.StatusCode, respBody)
}

// classify interprets a 2xx body. A "candidates" array takes precedence
// over "error"; a candidates field of any other JSON type is ignored.
func classify(status int, body []byte) Outcome {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return failure(KindParse, status, "Failed to parse JSON response: "+string(body))
	}

	if raw, ok := fields["candidates"]; ok && isArray(raw) {
		var candidates []candidate
		if err := json.Unmarshal(raw, &candidates); err != nil || len(candidates) == 0 {
			return failure(KindUnclassified, status, MsgUnknown)
		}
		first := candidates[0].Content
		if first == nil || len(first.Parts) == 0 || first.Parts[0].Text == nil {
			return failure(KindUnclassified, status, MsgUnknown)
		}
		return success(*first.Parts[0].Text, status)
	}

	if raw, ok := fields["error"]; ok {
		var apiErr apiError
		if err := json.Unmarshal(raw, &apiErr); err == nil && apiErr.Message != nil {
			return failure(KindRemoteAPI, status, "Gemini API Error: "+*apiErr.Message)
		}
	}

	return failure(KindUnclassified, status, MsgUnknown)
}

func isArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '['
}
