package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/comalice/simkernel/internal/production"
)

func newTraceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trace DB",
		Short: "Show lifecycle transitions recorded by run --trace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			process, _ := cmd.Flags().GetString("process")

			store, err := production.NewSQLiteTraceStore(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer store.Close()

			recs, err := store.Records(cmd.Context(), process)
			if err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(recs)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "DELTA\tID\tPROCESS\tKIND\tTRANSITION")
			for _, r := range recs {
				fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\n", r.Delta, r.ProcessID, r.Process, r.Kind, r.Transition)
			}
			return w.Flush()
		},
	}
	cmd.Flags().String("process", "", "Only show records for this process")
	return cmd
}
