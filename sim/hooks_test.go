package sim_test

import (
	"bytes"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	akitasim "github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/bpsim/sim"
	"github.com/sarchlab/bpsim/trace"
)

func resolved(pc uint32, taken, predicted bool) akitasim.HookCtx {
	b := trace.Branch{PC: pc, Taken: taken}
	return akitasim.HookCtx{
		Pos:    sim.HookPosBranchResolved,
		Item:   b,
		Detail: sim.Resolution{Branch: b, Predicted: predicted},
	}
}

var _ = Describe("ProfileHook", func() {
	var hook *sim.ProfileHook

	BeforeEach(func() {
		hook = sim.NewProfileHook()
	})

	It("should count executions and mispredictions per address", func() {
		hook.Func(resolved(0x20, true, true))
		hook.Func(resolved(0x20, false, true))
		hook.Func(resolved(0x10, true, false))

		Expect(hook.StaticBranches()).To(Equal(2))
		Expect(hook.Profiles()).To(Equal([]sim.BranchProfile{
			{PC: 0x10, Executions: 1, Taken: 1, Mispredictions: 1},
			{PC: 0x20, Executions: 2, Taken: 1, Mispredictions: 1},
		}))
	})

	It("should rank the worst branches first", func() {
		for i := 0; i < 3; i++ {
			hook.Func(resolved(0x30, true, false))
		}
		hook.Func(resolved(0x40, true, false))
		hook.Func(resolved(0x50, true, true))
		hook.Func(resolved(0x08, true, false))

		top := hook.Top(2)
		Expect(top).To(HaveLen(2))
		Expect(top[0].PC).To(Equal(uint32(0x30)))
		Expect(top[1].PC).To(Equal(uint32(0x08)))
		Expect(hook.Top(10)).To(HaveLen(4))
	})

	It("should return nothing for a non-positive count", func() {
		hook.Func(resolved(0x30, true, false))

		Expect(hook.Top(0)).To(BeEmpty())
		Expect(hook.Top(-1)).To(BeEmpty())
	})

	It("should ignore other hook positions", func() {
		ctx := resolved(0x10, true, true)
		ctx.Pos = akitasim.HookPosBeforeEvent
		hook.Func(ctx)

		Expect(hook.StaticBranches()).To(BeZero())
	})

	It("should report per-branch misprediction rates", func() {
		p := sim.BranchProfile{Executions: 4, Mispredictions: 1}
		Expect(p.MispredictionRate()).To(BeNumerically("~", 25.0, 0.01))
		Expect(sim.BranchProfile{}.MispredictionRate()).To(BeZero())
	})
})

var _ = Describe("ProgressHook", func() {
	It("should log every interval branches", func() {
		buf := &bytes.Buffer{}
		logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
		hook := sim.NewProgressHook(logger, 2)

		hook.Func(resolved(0x4, true, false))
		Expect(buf.String()).To(BeEmpty())

		hook.Func(resolved(0x4, true, true))
		Expect(buf.String()).To(ContainSubstring("branches=2"))
		Expect(buf.String()).To(ContainSubstring("mispredictions=1"))
	})
})
