package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/bpsim/predictor"
)

// predictorFlags are the flags that select one predictor configuration.
type predictorFlags struct {
	spec       string
	configPath string
	strategy   string
	ghistory   int
	lhistory   int
	pcIndex    int
}

func (f *predictorFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.spec, "bp", "",
		"Predictor spec: static, gshare:<G>, tournament:<G>:<L>:<P> or custom[:<G>]")
	flags.StringVar(&f.configPath, "config", "",
		"Path to predictor configuration JSON file")
	flags.StringVar(&f.strategy, "strategy", "",
		"Strategy: static, gshare, tournament or custom")
	flags.IntVar(&f.ghistory, "ghistory", 0, "Global history bits")
	flags.IntVar(&f.lhistory, "lhistory", 0, "Local history bits")
	flags.IntVar(&f.pcIndex, "pcindex", 0, "PC index bits")
}

// resolve layers the configuration sources: defaults, then the JSON file,
// then the spec string (flag or environment), then individual flags.
func (f *predictorFlags) resolve(cmd *cobra.Command) (predictor.Config, error) {
	config := predictor.DefaultConfig()

	if f.configPath != "" {
		loaded, err := predictor.LoadConfig(f.configPath)
		if err != nil {
			return predictor.Config{}, err
		}
		config = loaded
	}

	if spec := envDefault(cmd, "bp", envPredictor, f.spec); spec != "" {
		parsed, err := predictor.ParseSpec(spec)
		if err != nil {
			return predictor.Config{}, err
		}
		config = parsed
	}

	flags := cmd.Flags()
	if flags.Changed("strategy") {
		strategy, err := predictor.ParseStrategy(f.strategy)
		if err != nil {
			return predictor.Config{}, err
		}
		if strategy == predictor.StrategyCustom &&
			config.Strategy != predictor.StrategyCustom &&
			!flags.Changed("ghistory") {
			config.GlobalHistoryBits = predictor.DefaultPerceptronHistoryBits
		}
		config.Strategy = strategy
	}
	if flags.Changed("ghistory") {
		config.GlobalHistoryBits = f.ghistory
	}
	if flags.Changed("lhistory") {
		config.LocalHistoryBits = f.lhistory
	}
	if flags.Changed("pcindex") {
		config.PCIndexBits = f.pcIndex
	}

	if err := config.Validate(); err != nil {
		return predictor.Config{}, fmt.Errorf("predictor %s: %w", config, err)
	}

	return config, nil
}
