// Package sim drives a branch predictor over a trace of resolved branches
// and collects accuracy statistics. Observers attach to the Runner as Akita
// hooks.
package sim

import (
	"context"
	"errors"
	"io"

	akitasim "github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/bpsim/trace"
)

// Predictor is the interface the Runner drives. *predictor.Predictor
// implements it.
type Predictor interface {
	Predict(pc uint32) bool
	Train(pc uint32, taken bool)
}

// Source yields branches until it returns io.EOF. *trace.Reader implements
// it.
type Source interface {
	Next() (trace.Branch, error)
}

// HookPosBranchResolved is triggered after a branch has been predicted and
// before the predictor is trained. The hook item is the trace.Branch and the
// detail is a Resolution.
var HookPosBranchResolved = &akitasim.HookPos{Name: "BranchResolved"}

// Resolution pairs a branch with the prediction made for it.
type Resolution struct {
	Branch    trace.Branch
	Predicted bool
}

// Correct reports whether the prediction matched the outcome.
func (r Resolution) Correct() bool {
	return r.Predicted == r.Branch.Taken
}

// Stats holds statistics for one simulation run.
type Stats struct {
	// Branches is the number of conditional branches simulated.
	Branches uint64
	// Correct is the number of correct predictions.
	Correct uint64
	// Mispredictions is the number of incorrect predictions.
	Mispredictions uint64
}

// Accuracy returns the prediction accuracy as a percentage.
func (s Stats) Accuracy() float64 {
	if s.Branches == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Branches) * 100
}

// MispredictionRate returns the misprediction rate as a percentage.
func (s Stats) MispredictionRate() float64 {
	if s.Branches == 0 {
		return 0
	}
	return float64(s.Mispredictions) / float64(s.Branches) * 100
}

// cancelCheckInterval is how many branches Run simulates between context
// checks.
const cancelCheckInterval = 4096

// Runner feeds branches to a predictor one at a time, in trace order.
type Runner struct {
	*akitasim.HookableBase

	predictor Predictor
	stats     Stats
}

// NewRunner creates a Runner for the given predictor.
func NewRunner(p Predictor) *Runner {
	return &Runner{
		HookableBase: akitasim.NewHookableBase(),
		predictor:    p,
	}
}

// Step predicts one branch, reports it to the hooks and trains the predictor
// with the real outcome. It returns the prediction.
func (r *Runner) Step(b trace.Branch) bool {
	predicted := r.predictor.Predict(b.PC)

	r.stats.Branches++
	if predicted == b.Taken {
		r.stats.Correct++
	} else {
		r.stats.Mispredictions++
	}

	if len(r.Hooks()) > 0 {
		r.InvokeHook(akitasim.HookCtx{
			Domain: r,
			Pos:    HookPosBranchResolved,
			Item:   b,
			Detail: Resolution{Branch: b, Predicted: predicted},
		})
	}

	r.predictor.Train(b.PC, b.Taken)

	return predicted
}

// Run steps through every branch of src. It stops early if ctx is cancelled
// or src fails, returning the statistics gathered so far.
func (r *Runner) Run(ctx context.Context, src Source) (Stats, error) {
	for n := 0; ; n++ {
		if n%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return r.stats, err
			}
		}

		b, err := src.Next()
		if errors.Is(err, io.EOF) {
			return r.stats, nil
		}
		if err != nil {
			return r.stats, err
		}

		r.Step(b)
	}
}

// Stats returns the statistics gathered so far.
func (r *Runner) Stats() Stats {
	return r.stats
}

// SliceSource replays an in-memory trace.
type SliceSource struct {
	branches []trace.Branch
	next     int
}

// NewSliceSource creates a Source over branches. The slice is not copied and
// must not be modified while the source is in use.
func NewSliceSource(branches []trace.Branch) *SliceSource {
	return &SliceSource{branches: branches}
}

// Next implements Source.
func (s *SliceSource) Next() (trace.Branch, error) {
	if s.next >= len(s.branches) {
		return trace.Branch{}, io.EOF
	}

	b := s.branches[s.next]
	s.next++

	return b, nil
}
