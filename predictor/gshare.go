package predictor

// gshare indexes one pattern table with the branch address XORed with the
// global history.
type gshare struct {
	pht PatternTable
}

func newGshare(historyBits uint) *gshare {
	return &gshare{
		pht: NewPatternTable(historyBits, WeaklyNotTaken),
	}
}

func (g *gshare) index(pc, history uint32) uint32 {
	return (pc ^ history) & g.pht.mask()
}

func (g *gshare) predict(pc, history uint32) bool {
	return g.pht.Taken(g.index(pc, history))
}

// train uses the history the prediction was made with; the caller shifts the
// outcome in afterwards.
func (g *gshare) train(pc uint32, taken bool, history uint32) {
	g.pht.Update(g.index(pc, history), taken)
}

func (g *gshare) reset() {
	g.pht.Fill(WeaklyNotTaken)
}

func (g *gshare) sizeBits() int {
	return 2 * len(g.pht)
}
