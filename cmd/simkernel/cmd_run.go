package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/comalice/simkernel/internal/core"
	"github.com/comalice/simkernel/internal/primitives"
	"github.com/comalice/simkernel/internal/production"
)

type runSummary struct {
	Model       string `json:"model"`
	Version     string `json:"version"`
	Deltas      uint64 `json:"deltas"`
	Activations uint64 `json:"activations"`
	Live        int    `json:"live"`
	Zombies     int    `json:"zombies"`
	Snapshot    string `json:"snapshot,omitempty"`
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run MODEL",
		Short: "Elaborate a model and run it through delta cycles",
		Long: `Elaborate a model and run it until no process is runnable and no
notification is pending, or until --max-deltas cycles have run.

Examples:
  simkernel run model.yaml
  simkernel run model.yaml --max-deltas 100 --snapshot-dir out --format yaml
  simkernel run model.yaml --trace out/trace.db --reports out`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			maxDeltas, _ := cmd.Flags().GetUint64("max-deltas")
			snapDir, _ := cmd.Flags().GetString("snapshot-dir")
			format, _ := cmd.Flags().GetString("format")
			traceDB, _ := cmd.Flags().GetString("trace")
			reportsDir, _ := cmd.Flags().GetString("reports")

			cfg, err := loadModel(args[0])
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), shutdownSignals()...)
			defer stop()

			s, err := newSession(ctx, cfg, sessionConfig{
				logger:     newLogger(cmd),
				traceDB:    traceDB,
				reportsDir: reportsDir,
			})
			if err != nil {
				return err
			}
			defer s.Close()

			runErr := s.Run(ctx, maxDeltas)
			snap := s.Sim.Snapshot()

			summary := runSummary{
				Model:       cfg.ID,
				Version:     snap.ModelVersion,
				Deltas:      snap.Delta,
				Activations: s.Kernel.Activations(),
			}
			for _, p := range snap.Processes {
				if p.State == primitives.StateNormal {
					summary.Live++
				} else {
					summary.Zombies++
				}
			}

			if snapDir != "" {
				path, err := saveSnapshot(ctx, format, snapDir, snap)
				if err != nil {
					return err
				}
				summary.Snapshot = path
			}

			if jsonOut {
				if err := json.NewEncoder(cmd.OutOrStdout()).Encode(summary); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "model %q: %d deltas, %d activations, %d live, %d zombie\n",
					summary.Model, summary.Deltas, summary.Activations, summary.Live, summary.Zombies)
				if summary.Snapshot != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "snapshot written to %s\n", summary.Snapshot)
				}
			}
			return runErr
		},
	}

	cmd.Flags().Uint64("max-deltas", 1000, "Maximum number of delta cycles (0 = unlimited)")
	cmd.Flags().String("snapshot-dir", "", "Directory to write the final snapshot to")
	cmd.Flags().String("format", "json", "Snapshot format: json or yaml")
	cmd.Flags().String("trace", "", "SQLite database to record lifecycle transitions in")
	cmd.Flags().String("reports", "", "Directory to append reports.jsonl to")
	return cmd
}

func saveSnapshot(ctx context.Context, format, dir string, snap core.SimSnapshot) (string, error) {
	p, err := production.NewPersister(format, dir)
	if err != nil {
		return "", err
	}
	if err := p.Save(ctx, snap); err != nil {
		return "", fmt.Errorf("failed to save snapshot: %w", err)
	}
	ext := ".json"
	if _, ok := p.(*production.YAMLPersister); ok {
		ext = ".yaml"
	}
	return filepath.Join(dir, snap.SimID+ext), nil
}
