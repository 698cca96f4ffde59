package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// echoExcerptRunes caps how much of the first prompt line is echoed back.
const echoExcerptRunes = 80

// Echo is an offline provider for testing when no API access is available.
// It answers in the DETAILS/SUMMARY layout with a digest of the prompt.
type Echo struct {
	observer Observer
}

// NewEcho creates a new echo provider.
func NewEcho(opts ...Option) *Echo {
	o := buildOptions(opts)
	return &Echo{observer: o.observer}
}

func (e *Echo) Name() string { return ProviderEcho }

func (e *Echo) Generate(ctx context.Context, prompt, apiKey string) Outcome {
	start := time.Now()
	out := e.generate(ctx, prompt, apiKey)
	if e.observer != nil {
		e.observer.RequestCompleted(e.Name(), out.Kind.String(), time.Since(start))
	}
	return out
}

func (e *Echo) generate(ctx context.Context, prompt, apiKey string) Outcome {
	if out, ok := checkInput(prompt, apiKey); !ok {
		return out
	}
	if err := ctx.Err(); err != nil {
		return failure(KindTransport, 0, MsgNoConnection)
	}

	lines := strings.Count(prompt, "\n") + 1
	first, _, _ := strings.Cut(prompt, "\n")
	first = truncateRunes(first, echoExcerptRunes)
	text := fmt.Sprintf("DETAILS: Echo received %d line(s) starting with %q.\nSUMMARY: This is a mock response. Set provider to gemini for real summaries.",
		lines, first)
	return success(text, 200)
}

// truncateRunes keeps the first n runes of s, marking a cut with "...".
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
