package commands

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/bpassist/bpassist/internal/config"
	"github.com/bpassist/bpassist/internal/llm"
	"github.com/bpassist/bpassist/internal/logging"
	"github.com/bpassist/bpassist/internal/ui"
)

var (
	// Version is set at build time
	Version = "dev"
	// Commit is set at build time
	Commit = "none"
)

// echoKey stands in for a credential when the offline echo provider is
// selected, since every request checks for a key first.
const echoKey = "echo-offline"

var rootCmd = &cobra.Command{
	Use:   "bpassist",
	Short: "bpassist - Blueprint graph summaries from Gemini",
	Long: `bpassist flattens Unreal Blueprint graphs into compact text, asks Gemini
to explain them and writes the summary back onto the graph as a comment.

Graphs are read from JSON or YAML files. The API key lives in the
[GeminiAssistant] section of ~/.bpassist/config.json or in GEMINI_API_KEY.

Use "bpassist [command] --help" for more information about a command.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// Global flags
var (
	flagVerbose   bool
	flagConfig    string
	flagNoColor   bool
	flagLogFormat string
)

// app holds what setup resolved for the running command.
var app struct {
	paths  *config.Paths
	cfg    *config.Config
	logger *slog.Logger
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default: ~/.bpassist/config.json)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "Log format: text or json (default from config)")

	rootCmd.AddCommand(versionCmd)
}

// setup loads .env, the config and the logger before every command.
func setup(cmd *cobra.Command, args []string) error {
	ui.SetNoColor(flagNoColor)

	if err := config.LoadDotEnv(); err != nil {
		return err
	}

	paths, err := config.GetPaths("")
	if err != nil {
		return err
	}
	if flagConfig != "" {
		paths.ConfigFile = flagConfig
	}

	cfg, err := config.Load(paths)
	if err != nil {
		return err
	}
	if flagVerbose {
		cfg.Verbose = true
		cfg.Log.Level = "debug"
	}
	if flagLogFormat != "" {
		cfg.Log.Format = flagLogFormat
	}

	app.paths = paths
	app.cfg = cfg
	app.logger = logging.New(logging.ParseLevel(cfg.Log.Level), logging.Format(cfg.Log.Format))
	app.logger.Debug("config loaded", "file", paths.ConfigFile, "provider", cfg.Gemini.Provider, "model", cfg.Gemini.Model)
	return nil
}

// apiKey returns the configured key, substituting a placeholder for the
// echo provider.
func apiKey(cfg *config.Config) string {
	offline := cfg.Gemini.Provider == llm.ProviderEcho || cfg.Gemini.Provider == "mock"
	if cfg.Gemini.APIKey == "" && offline {
		return echoKey
	}
	return cfg.Gemini.APIKey
}

// versionCmd shows version info
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "bpassist\n")
		fmt.Fprintf(out, "  Version:  %s\n", Version)
		fmt.Fprintf(out, "  Commit:   %s\n", Commit)
		fmt.Fprintf(out, "  Go:       %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
		fmt.Fprintf(out, "  Model:    %s\n", app.cfg.Gemini.Model)
	},
}
