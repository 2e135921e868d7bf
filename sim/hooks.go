package sim

import (
	"cmp"
	"log/slog"
	"slices"

	akitasim "github.com/sarchlab/akita/v4/sim"
)

// BranchProfile summarizes how one static branch behaved during a run.
type BranchProfile struct {
	PC             uint32
	Executions     uint64
	Taken          uint64
	Mispredictions uint64
}

// MispredictionRate returns the misprediction rate of the branch as a
// percentage.
func (p BranchProfile) MispredictionRate() float64 {
	if p.Executions == 0 {
		return 0
	}
	return float64(p.Mispredictions) / float64(p.Executions) * 100
}

// ProfileHook collects per-address statistics.
type ProfileHook struct {
	profiles map[uint32]*BranchProfile
}

// NewProfileHook creates an empty ProfileHook.
func NewProfileHook() *ProfileHook {
	return &ProfileHook{profiles: make(map[uint32]*BranchProfile)}
}

// Func implements akita's sim.Hook.
func (h *ProfileHook) Func(ctx akitasim.HookCtx) {
	if ctx.Pos != HookPosBranchResolved {
		return
	}

	res, ok := ctx.Detail.(Resolution)
	if !ok {
		return
	}

	p, found := h.profiles[res.Branch.PC]
	if !found {
		p = &BranchProfile{PC: res.Branch.PC}
		h.profiles[res.Branch.PC] = p
	}

	p.Executions++
	if res.Branch.Taken {
		p.Taken++
	}
	if !res.Correct() {
		p.Mispredictions++
	}
}

// StaticBranches returns the number of distinct branch addresses seen.
func (h *ProfileHook) StaticBranches() int {
	return len(h.profiles)
}

// Profiles returns every profile ordered by address.
func (h *ProfileHook) Profiles() []BranchProfile {
	out := make([]BranchProfile, 0, len(h.profiles))
	for _, p := range h.profiles {
		out = append(out, *p)
	}

	slices.SortFunc(out, func(a, b BranchProfile) int {
		return cmp.Compare(a.PC, b.PC)
	})

	return out
}

// Top returns up to n branches with the most mispredictions. Ties are broken
// by address. A non-positive n yields an empty result.
func (h *ProfileHook) Top(n int) []BranchProfile {
	if n <= 0 {
		return []BranchProfile{}
	}

	out := h.Profiles()

	slices.SortStableFunc(out, func(a, b BranchProfile) int {
		return cmp.Compare(b.Mispredictions, a.Mispredictions)
	})

	if n < len(out) {
		out = out[:n]
	}

	return out
}

// ProgressHook logs a progress line every Interval branches.
type ProgressHook struct {
	Interval uint64
	Logger   *slog.Logger

	branches       uint64
	mispredictions uint64
}

// NewProgressHook creates a ProgressHook that logs to logger every interval
// branches.
func NewProgressHook(logger *slog.Logger, interval uint64) *ProgressHook {
	return &ProgressHook{Interval: interval, Logger: logger}
}

// Func implements akita's sim.Hook.
func (h *ProgressHook) Func(ctx akitasim.HookCtx) {
	if ctx.Pos != HookPosBranchResolved || h.Interval == 0 {
		return
	}

	res, ok := ctx.Detail.(Resolution)
	if !ok {
		return
	}

	h.branches++
	if !res.Correct() {
		h.mispredictions++
	}

	if h.branches%h.Interval == 0 {
		h.Logger.Debug("simulation progress",
			"branches", h.branches,
			"mispredictions", h.mispredictions)
	}
}
