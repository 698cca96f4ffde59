package commands

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/bpassist/bpassist/internal/config"
	"github.com/bpassist/bpassist/internal/redact"
	"github.com/bpassist/bpassist/internal/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change the configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration with secrets masked",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, ui.RenderDim("# "+app.paths.ConfigFile))
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(app.cfg.Redacted())
	},
}

var configSetKeyCmd = &cobra.Command{
	Use:   "set-key [api-key]",
	Short: "Store the Gemini API key",
	Long: `Store the Gemini API key in the [GeminiAssistant] section of the config
file. Without an argument the key is read from the terminal without echo,
or from the first line of stdin when it is not a terminal.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigSetKey,
}

var configSetCmd = &cobra.Command{
	Use:   "set <Section.Key> <value>",
	Short: "Set a config value, e.g. GeminiAssistant.Model",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return updateConfigFile(func(c *config.Config) error {
			return c.Set(args[0], args[1])
		})
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetKeyCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigSetKey(cmd *cobra.Command, args []string) error {
	var key string
	if len(args) == 1 {
		key = args[0]
	} else {
		var err error
		key, err = readKey(cmd)
		if err != nil {
			return err
		}
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("API key must not be empty")
	}

	if err := updateConfigFile(func(c *config.Config) error {
		c.Gemini.APIKey = key
		return nil
	}); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), ui.RenderSuccess("Saved API key "+redact.Secret(key)+" to "+app.paths.ConfigFile))
	return nil
}

func readKey(cmd *cobra.Command) (string, error) {
	if in, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(in.Fd())) {
		fd := int(in.Fd())
		fmt.Fprint(cmd.ErrOrStderr(), "Gemini API key: ")
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("failed to read key: %w", err)
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read key: %w", err)
	}
	return line, nil
}

// updateConfigFile edits only what is stored on disk so defaults and
// environment overrides are not persisted.
func updateConfigFile(edit func(*config.Config) error) error {
	path := app.paths.ConfigFile
	cfg, err := config.LoadFile(path)
	if err != nil {
		return err
	}
	if err := edit(cfg); err != nil {
		return err
	}
	if err := cfg.SaveTo(path); err != nil {
		return err
	}
	app.logger.Debug("config saved", "file", path)
	return nil
}
