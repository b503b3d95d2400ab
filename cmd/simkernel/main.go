// Command simkernel validates, runs and draws process-lifecycle models.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "simkernel",
		Short: "Discrete-event process lifecycle kernel",
		Long: `simkernel elaborates a model of method and thread processes, runs it
through delta cycles and reports the resulting process graph.

Models are YAML or JSON files listing events, resets and processes.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: error, warn, info, debug, trace")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format: text or json")

	rootCmd.AddCommand(
		newVersionCmd(),
		newValidateCmd(),
		newRunCmd(),
		newDotCmd(),
		newTraceCmd(),
	)
	return rootCmd
}
