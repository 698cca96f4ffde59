package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/bpassist/bpassist/internal/assistant"
	"github.com/bpassist/bpassist/internal/graph"
	"github.com/bpassist/bpassist/internal/history"
	"github.com/bpassist/bpassist/internal/host"
	"github.com/bpassist/bpassist/internal/llm"
	"github.com/bpassist/bpassist/internal/metrics"
	"github.com/bpassist/bpassist/internal/ui"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize <graph-file>... [-q query]",
	Short: "Ask Gemini to explain the selected nodes of a graph",
	Long: `Summarize the selection stored in the first readable graph file, or the
whole graph when nothing is selected. The summary is written back to the
file as a comment box unless --no-annotate is given or
GeminiAssistant.WriteAnnotation is false.

Examples:
  bpassist summarize BP_Door.json -q "why does the door not close?"
  bpassist summarize BP_Door.yaml --no-annotate --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSummarize,
}

var (
	summarizeQuery      string
	summarizeNoAnnotate bool
	summarizeJSON       bool
	summarizeShowPrompt bool
)

func init() {
	summarizeCmd.Flags().StringVarP(&summarizeQuery, "query", "q", "", "Question to ask about the nodes")
	summarizeCmd.Flags().BoolVar(&summarizeNoAnnotate, "no-annotate", false, "Do not write the summary back to the graph file")
	summarizeCmd.Flags().BoolVar(&summarizeJSON, "json", false, "Output the result as JSON")
	summarizeCmd.Flags().BoolVar(&summarizeShowPrompt, "show-prompt", false, "Print the prompt before sending it")
	rootCmd.AddCommand(summarizeCmd)
}

// summarizeOutput is the --json shape.
type summarizeOutput struct {
	Document   string            `json:"document"`
	NodeCount  int               `json:"node_count"`
	WholeGraph bool              `json:"whole_graph"`
	Details    string            `json:"details"`
	Summary    string            `json:"summary"`
	Annotation *graph.Annotation `json:"annotation,omitempty"`
	Elapsed    string            `json:"elapsed"`
}

func runSummarize(cmd *cobra.Command, args []string) error {
	cfg, logger := app.cfg, app.logger

	gen, err := llm.New(cfg.LLM(), llm.WithLogger(logger))
	if err != nil {
		return err
	}

	store, err := history.Open(cfg.HistoryOptions())
	if err != nil {
		return err
	}
	defer store.Close()

	a := assistant.New(
		host.NewFileHost(args, host.WithLogger(logger)),
		gen,
		apiKey(cfg),
		assistant.WithLogger(logger),
		assistant.WithHistory(store),
		assistant.WithWriteAnnotation(cfg.Gemini.WriteAnnotationEnabled() && !summarizeNoAnnotate),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	res, err := runWithSpinner(ctx, gen.Name(), func(ctx context.Context) (*assistant.Result, error) {
		return a.Summarize(ctx, summarizeQuery)
	})
	if res != nil && summarizeShowPrompt {
		fmt.Fprintln(cmd.ErrOrStderr(), ui.RenderDim(res.Prompt))
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if summarizeJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(summarizeOutput{
			Document:   res.Document,
			NodeCount:  res.NodeCount,
			WholeGraph: res.WholeGraph,
			Details:    res.Parts.Details,
			Summary:    res.Parts.Summary,
			Annotation: res.Annotation,
			Elapsed:    metrics.FormatDuration(res.Elapsed),
		})
	}

	fmt.Fprint(out, ui.RenderResult(*res, ui.TerminalWidth(ui.DefaultWidth)))
	if res.Parts == (assistant.Parts{}) {
		fmt.Fprintln(out, ui.RenderWarning("The reply did not use the DETAILS:/SUMMARY: layout. Raw reply:"))
		fmt.Fprintln(out, strings.TrimSpace(res.Outcome.Text))
	}
	return nil
}

func runWithSpinner(ctx context.Context, provider string, fn func(context.Context) (*assistant.Result, error)) (*assistant.Result, error) {
	if !ui.IsTTY() {
		return fn(ctx)
	}
	spinner := ui.NewSpinner(fmt.Sprintf("Asking %s...", provider))
	spinner.Start()
	defer spinner.Stop()
	return fn(ctx)
}
