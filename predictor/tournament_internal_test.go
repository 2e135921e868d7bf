package predictor

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("tournament", func() {
	var t *tournament

	BeforeEach(func() {
		t = newTournament(2, 2, 2)
	})

	It("should start weakly preferring global", func() {
		for _, c := range t.chooser {
			Expect(c).To(Equal(WeaklyGlobal))
		}
		Expect(t.localHistories).To(HaveLen(4))
		Expect(t.localPHT).To(HaveLen(4))
		Expect(t.globalPHT).To(HaveLen(4))
	})

	It("should follow the chooser between the two opinions", func() {
		history := uint32(1)
		t.globalPHT[history] = StronglyTaken
		t.localPHT[0] = StronglyNotTaken

		Expect(t.predict(0x8, history)).To(BeTrue())

		t.chooser[history] = WeaklyLocal
		Expect(t.predict(0x8, history)).To(BeFalse())
	})

	It("should settle on global when only global is right", func() {
		history := uint32(2)
		t.chooser[history] = StronglyLocal

		for i := 0; i < 6; i++ {
			t.globalPHT[history] = StronglyTaken
			t.localPHT.Fill(StronglyNotTaken)
			t.train(0x1, true, history)
			Expect(t.chooser[history]).To(Equal(minCounter(StronglyLocal+Counter(i+1), StronglyGlobal)))
		}

		Expect(t.chooser[history]).To(Equal(StronglyGlobal))
		Expect(t.predict(0x1, history)).To(BeTrue())
	})

	It("should move toward local when only local is right", func() {
		history := uint32(0)
		t.globalPHT[history] = StronglyNotTaken
		t.localPHT.Fill(StronglyTaken)

		t.train(0x3, true, history)

		Expect(t.chooser[history]).To(Equal(WeaklyLocal))
	})

	It("should leave the chooser alone when both agree in correctness", func() {
		history := uint32(3)

		t.globalPHT[history] = StronglyTaken
		t.localPHT.Fill(StronglyTaken)
		t.train(0x2, true, history)
		Expect(t.chooser[history]).To(Equal(WeaklyGlobal))

		t.globalPHT[history] = StronglyTaken
		t.localPHT.Fill(StronglyTaken)
		t.train(0x2, false, history)
		Expect(t.chooser[history]).To(Equal(WeaklyGlobal))
	})

	It("should train the local counter it predicted with and then shift local history", func() {
		pc := uint32(0x6)
		slot := t.localSlot(pc)
		Expect(slot).To(Equal(uint32(2)))

		t.train(pc, true, 0)
		Expect(t.localPHT[0]).To(Equal(WeaklyTaken))
		Expect(t.localHistories[slot]).To(Equal(uint32(0b01)))
		Expect(t.globalPHT[0]).To(Equal(WeaklyTaken))

		t.train(pc, true, 0)
		Expect(t.localPHT[1]).To(Equal(WeaklyTaken))
		Expect(t.localHistories[slot]).To(Equal(uint32(0b11)))

		t.train(pc, false, 0)
		Expect(t.localPHT[3]).To(Equal(StronglyNotTaken))
		Expect(t.localHistories[slot]).To(Equal(uint32(0b10)))
	})

	It("should restore initial levels on reset", func() {
		t.train(0x1, true, 1)
		t.chooser[0] = StronglyLocal
		t.reset()

		Expect(t.localHistories).To(Equal([]uint32{0, 0, 0, 0}))
		Expect(t.chooser.At(0)).To(Equal(WeaklyGlobal))
		Expect(t.globalPHT.At(1)).To(Equal(WeaklyNotTaken))
	})
})

func minCounter(a, b Counter) Counter {
	if a < b {
		return a
	}
	return b
}
