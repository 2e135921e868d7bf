package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/bpsim/predictor"
)

var infoFlags predictorFlags

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the effective configuration and storage of a predictor.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		config, err := infoFlags.resolve(cmd)
		if err != nil {
			return err
		}

		p, err := predictor.New(config)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		bits := p.SizeBits()
		_, _ = fmt.Fprintf(out, "Predictor: %s\n", p.Describe())
		_, _ = fmt.Fprintf(out, "Storage:   %d bits (%.2f Kbit)\n", bits, float64(bits)/1024)

		return nil
	},
}

func init() {
	infoFlags.register(infoCmd)
	rootCmd.AddCommand(infoCmd)
}
