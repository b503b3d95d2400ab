package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/comalice/simkernel/internal/production"
)

func newDotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dot MODEL",
		Short: "Print the sensitivity graph of an elaborated model",
		Long: `Elaborate a model and print its sensitivity graph as Graphviz DOT.

Static sensitivity is drawn solid, pending dynamic waits dashed and reset
membership dotted. With --deltas N the model runs N delta cycles first, so
the graph shows the waits the processes are suspended on.

Examples:
  simkernel dot model.yaml | dot -Tsvg > model.svg
  simkernel dot model.yaml --deltas 1
  simkernel dot model.yaml --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			deltas, _ := cmd.Flags().GetUint64("deltas")

			cfg, err := loadModel(args[0])
			if err != nil {
				return err
			}
			s, err := newSession(cmd.Context(), cfg, sessionConfig{logger: newLogger(cmd)})
			if err != nil {
				return err
			}
			defer s.Close()

			if deltas > 0 {
				if err := s.Run(cmd.Context(), deltas); err != nil {
					return err
				}
			}

			v := &production.DefaultVisualizer{}
			snap := s.Sim.Snapshot()
			if jsonOut {
				data, err := v.ExportJSON(snap)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), v.ExportDOT(snap))
			return nil
		},
	}
	cmd.Flags().Uint64("deltas", 0, "Delta cycles to run before drawing")
	return cmd
}
