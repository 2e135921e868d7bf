package main

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/sarchlab/bpsim/harness"
	"github.com/sarchlab/bpsim/record"
	"github.com/sarchlab/bpsim/trace"
)

// defaultSpecs are compared when no --bp flag is given.
var defaultSpecs = []string{"static", "gshare:13", "tournament:9:10:10", "custom"}

var compareFlags struct {
	specs    []string
	csv      bool
	json     bool
	parallel int
	record   string
}

var compareCmd = &cobra.Command{
	Use:   "compare [trace]",
	Short: "Compare several predictors over the same trace.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "-"
		if len(args) > 0 {
			path = args[0]
		}

		specs := compareFlags.specs
		if len(specs) == 0 {
			specs = defaultSpecs
		}

		config := harness.DefaultConfig()
		config.Output = cmd.OutOrStdout()
		config.Logger = slog.Default()
		if compareFlags.parallel > 0 {
			config.Parallelism = compareFlags.parallel
		}

		h := harness.NewHarness(config)
		if err := h.AddSpecs(specs...); err != nil {
			return err
		}

		recorder, err := openRecorder(cmd, compareFlags.record)
		if err != nil {
			return err
		}

		start := time.Now()
		branches, err := trace.Load(path)
		if err != nil {
			return err
		}
		slog.Debug("trace loaded", "branches", len(branches), "elapsed", time.Since(start))

		results, err := h.RunAll(cmd.Context(), branches)
		if err != nil {
			return err
		}

		switch {
		case compareFlags.json:
			if err := h.PrintJSON(path, results); err != nil {
				return err
			}
		case compareFlags.csv:
			h.PrintCSV(results)
		default:
			h.PrintResults(results)
		}

		if recorder != nil {
			for _, r := range results {
				recorder.RecordRun(record.Run{
					Trace:             path,
					Predictor:         r.Predictor,
					Strategy:          r.Strategy,
					GlobalHistoryBits: r.Config.GlobalHistoryBits,
					LocalHistoryBits:  r.Config.LocalHistoryBits,
					PCIndexBits:       r.Config.PCIndexBits,
					SizeBits:          r.SizeBits,
					Branches:          r.Branches,
					Mispredictions:    r.Mispredictions,
					MispredictionRate: r.MispredictionRate,
					WallTimeNS:        r.WallTime.Nanoseconds(),
				})
			}

			return recorder.Flush()
		}

		return nil
	},
}

func init() {
	flags := compareCmd.Flags()
	flags.StringArrayVar(&compareFlags.specs, "bp", nil,
		"Predictor spec to compare (repeatable)")
	flags.BoolVar(&compareFlags.csv, "csv", false, "Output results in CSV format")
	flags.BoolVar(&compareFlags.json, "json", false, "Output results in JSON format")
	flags.IntVar(&compareFlags.parallel, "parallel", 0,
		"Number of predictors simulated at once (default: number of CPUs)")
	flags.StringVar(&compareFlags.record, "record", "",
		"Record results in this SQLite database, appending to an existing one")

	rootCmd.AddCommand(compareCmd)
}
