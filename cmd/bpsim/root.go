package main

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Environment variables that provide flag defaults. They may also be set in
// a .env file in the working directory.
const (
	envPredictor = "BPSIM_BP"
	envRecord    = "BPSIM_RECORD"
	envVerbose   = "BPSIM_VERBOSE"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "bpsim",
	Short: "Trace-driven branch predictor simulator.",
	Long: `bpsim predicts the direction of every conditional branch in a ` +
		`trace with a static, gshare, tournament or perceptron predictor ` +
		`and reports how often the prediction was wrong.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		_ = godotenv.Load()

		if !cmd.Flags().Changed("verbose") {
			if v, err := strconv.ParseBool(os.Getenv(envVerbose)); err == nil {
				verbose = v
			}
		}

		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr,
			&slog.HandlerOptions{Level: level})))

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Verbose output")
}

// envDefault returns the environment value for key when the flag was not set
// on the command line.
func envDefault(cmd *cobra.Command, flag, key, value string) string {
	if cmd.Flags().Changed(flag) {
		return value
	}

	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}

	return value
}
