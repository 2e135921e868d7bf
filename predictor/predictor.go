// Package predictor implements conditional branch direction predictors for
// trace-driven simulation: a static always-taken baseline, gshare, a
// tournament predictor and a perceptron predictor.
//
// A Predictor is not safe for concurrent use. Give each simulated trace its
// own instance and call Predict and Train in program order.
package predictor

import "fmt"

// engine is the per-strategy table state. Exactly one engine backs a
// Predictor.
type engine interface {
	predict(pc, history uint32) bool
	train(pc uint32, taken bool, history uint32)
	reset()
	sizeBits() int
}

type static struct{}

func (static) predict(uint32, uint32) bool { return true }
func (static) train(uint32, bool, uint32) {}
func (static) reset() {}
func (static) sizeBits() int { return 0 }

// Predictor predicts the direction of conditional branches and learns from
// their resolved outcomes.
type Predictor struct {
	config  Config
	history History
	engine  engine
}

// New validates the configuration and allocates the predictor tables.
func New(config Config) (*Predictor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	p := &Predictor{config: config}

	switch config.Strategy {
	case StrategyStatic:
		p.engine = static{}
	case StrategyGshare:
		p.engine = newGshare(uint(config.GlobalHistoryBits))
	case StrategyTournament:
		p.engine = newTournament(
			uint(config.GlobalHistoryBits),
			uint(config.LocalHistoryBits),
			uint(config.PCIndexBits),
		)
	case StrategyCustom:
		p.engine = newPerceptron(uint(config.GlobalHistoryBits))
	default:
		return nil, fmt.Errorf("%w: unknown strategy %d",
			ErrInvalidConfig, int(config.Strategy))
	}

	if config.GlobalHistoryBits > 0 {
		p.history = NewHistory(uint(config.GlobalHistoryBits))
	}

	return p, nil
}

// Predict returns true if the branch at pc is predicted taken. It does not
// change any state.
func (p *Predictor) Predict(pc uint32) bool {
	return p.engine.predict(pc, p.history.Value())
}

// Train updates the active strategy with the resolved outcome of the branch
// at pc and then shifts the outcome into the global history.
func (p *Predictor) Train(pc uint32, taken bool) {
	p.engine.train(pc, taken, p.history.Value())
	p.history.Shift(taken)
}

// Reset restores every table and the global history to the initial state.
func (p *Predictor) Reset() {
	p.engine.reset()
	p.history.Reset()
}

// Config returns the configuration the predictor was built with.
func (p *Predictor) Config() Config {
	return p.config
}

// Strategy returns the active strategy.
func (p *Predictor) Strategy() Strategy {
	return p.config.Strategy
}

// History returns the current global history value.
func (p *Predictor) History() uint32 {
	return p.history.Value()
}

// SizeBits returns the storage the predictor state would need in hardware,
// including the global history register.
func (p *Predictor) SizeBits() int {
	if p.config.Strategy == StrategyStatic {
		return 0
	}

	return p.engine.sizeBits() + int(p.history.Bits())
}

// Describe returns the effective configuration, including the fixed
// perceptron parameters when that strategy is active.
func (p *Predictor) Describe() string {
	desc := fmt.Sprintf("%s (%s)", p.config.Strategy, p.config)
	if p.config.Strategy == StrategyCustom {
		desc += fmt.Sprintf(" rows=%d threshold=%d weights=int8",
			1<<PerceptronRowBits, PerceptronThreshold)
	}
	return desc
}
