package main

import (
	"fmt"
	"os"

	"github.com/bpassist/bpassist/cmd/bpassist/commands"
	"github.com/bpassist/bpassist/internal/ui"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.RenderError(err))
		os.Exit(1)
	}
}
