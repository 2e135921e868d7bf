package predictor

// Chooser levels. A chooser counter at or above WeaklyGlobal prefers the
// global predictor.
const (
	StronglyLocal Counter = iota
	WeaklyLocal
	WeaklyGlobal
	StronglyGlobal
)

// tournament arbitrates between a global-history predictor and a per-address
// local-history predictor with a chooser table indexed by global history.
type tournament struct {
	// Global side, indexed by the raw global history.
	globalPHT PatternTable
	chooser   PatternTable

	// Local side. localHistories holds one L-bit register per pc index;
	// its value selects a counter in localPHT.
	localHistories []uint32
	localPHT       PatternTable
	localBits      uint
}

func newTournament(globalBits, localBits, pcIndexBits uint) *tournament {
	return &tournament{
		globalPHT:      NewPatternTable(globalBits, WeaklyNotTaken),
		chooser:        NewPatternTable(globalBits, WeaklyGlobal),
		localHistories: make([]uint32, 1<<pcIndexBits),
		localPHT:       NewPatternTable(localBits, WeaklyNotTaken),
		localBits:      localBits,
	}
}

func (t *tournament) localSlot(pc uint32) uint32 {
	return pc & uint32(len(t.localHistories)-1)
}

// opinions returns the local and global counter indices and votes for pc.
func (t *tournament) opinions(pc, history uint32) (localIdx uint32, local, global bool) {
	localIdx = t.localHistories[t.localSlot(pc)]
	local = t.localPHT.Taken(localIdx)
	global = t.globalPHT.Taken(history)
	return localIdx, local, global
}

func (t *tournament) predict(pc, history uint32) bool {
	_, local, global := t.opinions(pc, history)

	if t.chooser.At(history) >= WeaklyGlobal {
		return global
	}

	return local
}

func (t *tournament) train(pc uint32, taken bool, history uint32) {
	localIdx, local, global := t.opinions(pc, history)
	localCorrect := local == taken
	globalCorrect := global == taken

	t.localPHT.Update(localIdx, taken)

	slot := t.localSlot(pc)
	t.localHistories[slot] = shiftIn(t.localHistories[slot], taken, t.localBits)

	t.globalPHT.Update(history, taken)

	// The chooser only learns when exactly one side was right.
	if globalCorrect != localCorrect {
		t.chooser.Update(history, globalCorrect)
	}
}

func (t *tournament) reset() {
	t.globalPHT.Fill(WeaklyNotTaken)
	t.chooser.Fill(WeaklyGlobal)
	t.localPHT.Fill(WeaklyNotTaken)
	for i := range t.localHistories {
		t.localHistories[i] = 0
	}
}

func (t *tournament) sizeBits() int {
	return 2*len(t.globalPHT) +
		2*len(t.chooser) +
		2*len(t.localPHT) +
		int(t.localBits)*len(t.localHistories)
}
