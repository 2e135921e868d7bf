package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/bpsim/record"
)

var runsCmd = &cobra.Command{
	Use:   "runs <results.sqlite3>",
	Short: "List the runs stored in a result database.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runs, err := record.LoadRuns(args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintf(out, "%-20s  %-20s  %-24s  %12s  %10s\n",
			"Run", "Trace", "Predictor", "Branches", "Mispred %")
		for _, r := range runs {
			_, _ = fmt.Fprintf(out, "%-20s  %-20s  %-24s  %12d  %10.3f\n",
				r.ID, r.Trace, r.Predictor, r.Branches, r.MispredictionRate)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)
}
