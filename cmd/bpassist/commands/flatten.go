package commands

import (
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/bpassist/bpassist/internal/flatten"
	"github.com/bpassist/bpassist/internal/graph"
	"github.com/bpassist/bpassist/internal/ui"
)

var flattenCmd = &cobra.Command{
	Use:   "flatten <graph-file>",
	Short: "Print the flattened text of a graph",
	Long: `Print the one-line-per-node text that is sent to the model.

Example:
  bpassist flatten BP_Door.json --selected --with-connections`,
	Args: cobra.ExactArgs(1),
	RunE: runFlatten,
}

var (
	flattenWithConnections bool
	flattenSelected        bool
	flattenJSON            bool
)

func init() {
	flattenCmd.Flags().BoolVar(&flattenWithConnections, "with-connections", false, "Append outbound connections to every line")
	flattenCmd.Flags().BoolVar(&flattenSelected, "selected", false, "Only flatten the selection stored in the file")
	flattenCmd.Flags().BoolVar(&flattenJSON, "json", false, "Output the per-node data as JSON")
	rootCmd.AddCommand(flattenCmd)
}

func runFlatten(cmd *cobra.Command, args []string) error {
	doc, err := graph.Load(args[0])
	if err != nil {
		return err
	}

	nodes := doc.Nodes
	if flattenSelected {
		nodes = doc.Selected()
	}

	data := flatten.New().ProcessNodes(nodes)
	out := cmd.OutOrStdout()

	if flattenJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	}

	text := flatten.FormatOutput(data)
	if flattenWithConnections {
		text = flatten.FormatOutputWithConnections(data)
	}
	if !ui.IsTTY() {
		if text != "" {
			fmt.Fprintln(out, text)
		}
		return nil
	}
	fmt.Fprint(out, ui.RenderFlattened(text))
	return nil
}
