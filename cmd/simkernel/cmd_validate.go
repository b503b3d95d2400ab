package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/comalice/simkernel/internal/primitives"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate MODEL",
		Short: "Validate a model file",
		Long: `Validate a model file without running it.

This command checks for:
  - Duplicate or malformed event, reset and process names
  - Unknown process kinds
  - Sensitivity, clock and reset references to undeclared names
  - Clocked threads without a clock, or with a sensitivity list`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := loadModel(args[0])
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			result := map[string]any{
				"id":        cfg.ID,
				"version":   primitives.ComputeVersion(&cfg),
				"events":    len(cfg.Events),
				"resets":    len(cfg.Resets),
				"processes": len(cfg.Processes),
			}
			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(result)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "model %q is valid (version %s): %d events, %d resets, %d processes\n",
				cfg.ID, result["version"], len(cfg.Events), len(cfg.Resets), len(cfg.Processes))
			return nil
		},
	}
}
