package main

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/sarchlab/bpsim/predictor"
	"github.com/sarchlab/bpsim/record"
	"github.com/sarchlab/bpsim/sim"
	"github.com/sarchlab/bpsim/trace"
)

var runFlags struct {
	predictor predictorFlags
	top       int
	progress  uint64
	record    string
}

var runCmd = &cobra.Command{
	Use:   "run [trace]",
	Short: "Run one predictor over a trace.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := runFlags.predictor.resolve(cmd)
		if err != nil {
			return err
		}

		recorder, err := openRecorder(cmd, runFlags.record)
		if err != nil {
			return err
		}

		path := "-"
		if len(args) > 0 {
			path = args[0]
		}

		return runTrace(cmd, config, path, recorder)
	},
}

func init() {
	runFlags.predictor.register(runCmd)
	runCmd.Flags().IntVar(&runFlags.top, "top", 0,
		"Print the N branches with the most mispredictions")
	runCmd.Flags().Uint64Var(&runFlags.progress, "progress", 1_000_000,
		"Log progress every N branches in verbose mode (0 disables)")
	runCmd.Flags().StringVar(&runFlags.record, "record", "",
		"Record results in this SQLite database, appending to an existing one")

	rootCmd.AddCommand(runCmd)
}

func runTrace(
	cmd *cobra.Command,
	config predictor.Config,
	path string,
	recorder *record.Recorder,
) error {
	p, err := predictor.New(config)
	if err != nil {
		return err
	}

	slog.Debug("predictor configured",
		"predictor", p.Describe(),
		"size_bits", p.SizeBits())

	rc, err := trace.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	runner := sim.NewRunner(p)
	profile := sim.NewProfileHook()
	runner.AcceptHook(profile)
	if verbose && runFlags.progress > 0 {
		runner.AcceptHook(sim.NewProgressHook(slog.Default(), runFlags.progress))
	}

	start := time.Now()
	stats, err := runner.Run(cmd.Context(), trace.NewReader(rc))
	if err != nil {
		return err
	}
	wallTime := time.Since(start)

	out := cmd.OutOrStdout()
	printSummary(out, p, stats, profile)
	if runFlags.top > 0 {
		printTop(out, profile.Top(runFlags.top))
	}

	if recorder != nil {
		id := recorder.RecordRun(record.Run{
			Trace:             path,
			Predictor:         config.String(),
			Strategy:          config.Strategy.String(),
			GlobalHistoryBits: config.GlobalHistoryBits,
			LocalHistoryBits:  config.LocalHistoryBits,
			PCIndexBits:       config.PCIndexBits,
			SizeBits:          p.SizeBits(),
			Branches:          stats.Branches,
			Mispredictions:    stats.Mispredictions,
			MispredictionRate: stats.MispredictionRate(),
			WallTimeNS:        wallTime.Nanoseconds(),
		})
		recorder.RecordBranches(id, profile.Profiles())
		if err := recorder.Flush(); err != nil {
			return err
		}
		slog.Debug("run recorded", "run_id", id)
	}

	return nil
}

func printSummary(out io.Writer, p *predictor.Predictor, stats sim.Stats, profile *sim.ProfileHook) {
	_, _ = fmt.Fprintf(out, "Predictor:          %s\n", p.Describe())
	_, _ = fmt.Fprintf(out, "Static branches: %10d\n", profile.StaticBranches())
	_, _ = fmt.Fprintf(out, "Branches:        %10d\n", stats.Branches)
	_, _ = fmt.Fprintf(out, "Incorrect:       %10d\n", stats.Mispredictions)
	_, _ = fmt.Fprintf(out, "Misprediction Rate: %10.3f\n", stats.MispredictionRate())
}

func printTop(out io.Writer, top []sim.BranchProfile) {
	_, _ = fmt.Fprintln(out, "")
	_, _ = fmt.Fprintf(out, "%-12s %12s %12s %10s\n", "PC", "Executions", "Incorrect", "Mispred %")
	for _, b := range top {
		_, _ = fmt.Fprintf(out, "0x%08x   %12d %12d %10.3f\n",
			b.PC, b.Executions, b.Mispredictions, b.MispredictionRate())
	}
}
