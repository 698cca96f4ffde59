package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bpassist/bpassist/internal/history"
	"github.com/bpassist/bpassist/internal/llm"
	"github.com/bpassist/bpassist/internal/metrics"
	"github.com/bpassist/bpassist/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the flatten and summarize HTTP API",
	Long: `Serve the HTTP API:

  GET  /healthz         liveness and provider
  POST /api/flatten     {"document": {...}, "with_connections": true}
  POST /api/summarize   {"document": {...}, "query": "..."}
  GET  /api/history     ?limit=N
  GET  /metrics         Prometheus metrics

The API key from the config is used for every request.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveAddr string

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, 127.0.0.1:8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger := app.cfg, app.logger

	addr := serveAddr
	if addr == "" {
		addr = cfg.Server.Addr
	}

	rec := metrics.New()
	gen, err := llm.New(cfg.LLM(), llm.WithLogger(logger), llm.WithObserver(rec))
	if err != nil {
		return err
	}

	store, err := history.Open(cfg.HistoryOptions())
	if err != nil {
		return err
	}
	defer store.Close()

	key := apiKey(cfg)
	if key == "" {
		logger.Warn("no API key configured; /api/summarize will fail until one is set")
	}

	srv := server.New(gen, key,
		server.WithHistory(store),
		server.WithMetrics(rec),
		server.WithLogger(logger),
		server.WithWriteAnnotation(cfg.Gemini.WriteAnnotationEnabled()),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.ListenAndServe(ctx, addr)
}
