// Command styleforge is the intelligence core's CLI front door: a small
// cobra tree wiring config, logging, storage and the pipeline packages
// into the three operator-facing verbs: ingest, generate, feedback.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "styleforge",
		Short: "Style Intelligence Core command-line front door",
	}

	root.PersistentFlags().StringVar(&configPath, "config", "config.toml", "path to the TOML config file")

	root.AddCommand(newIngestCommand())
	root.AddCommand(newGenerateCommand())
	root.AddCommand(newFeedbackCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
