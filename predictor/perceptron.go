package predictor

import "math"

// Perceptron parameters. They are part of the effective configuration but
// are not user settable.
const (
	// PerceptronRowBits is the number of hashed address bits selecting a
	// weight row, giving 512 rows.
	PerceptronRowBits = 9

	// PerceptronThreshold is the output a row must exceed to predict taken.
	// It is roughly 1.93*15+14 for the default 15-bit history. Higher values
	// need more training before a branch is predicted taken.
	PerceptronThreshold = 42

	// Weight storage bounds. Updates saturate here.
	perceptronWeightMax = math.MaxInt8
	perceptronWeightMin = math.MinInt8
)

// perceptron keeps one weight vector per hashed address. Each row holds one
// weight per global history bit followed by a bias weight.
type perceptron struct {
	weights     []int8
	historyBits uint
	rowMask     uint32
}

func newPerceptron(historyBits uint) *perceptron {
	rows := 1 << PerceptronRowBits
	return &perceptron{
		weights:     make([]int8, rows*int(historyBits+1)),
		historyBits: historyBits,
		rowMask:     uint32(rows - 1),
	}
}

func (p *perceptron) row(pc, history uint32) []int8 {
	width := int(p.historyBits + 1)
	start := int((pc^history)&p.rowMask) * width
	return p.weights[start : start+width]
}

// output computes bias + sum of w[i]*bit_i(history).
func (p *perceptron) output(row []int8, history uint32) int {
	sigma := int(row[p.historyBits])
	for i := uint(0); i < p.historyBits; i++ {
		if (history>>i)&1 == 1 {
			sigma += int(row[i])
		}
	}
	return sigma
}

func (p *perceptron) predict(pc, history uint32) bool {
	return p.output(p.row(pc, history), history) > PerceptronThreshold
}

// train nudges the row only when it mispredicted.
func (p *perceptron) train(pc uint32, taken bool, history uint32) {
	row := p.row(pc, history)
	if (p.output(row, history) > PerceptronThreshold) == taken {
		return
	}

	var outcomeBit uint32
	if taken {
		outcomeBit = 1
	}

	for i := uint(0); i < p.historyBits; i++ {
		row[i] = nudge(row[i], (history>>i)&1 == outcomeBit)
	}
	row[p.historyBits] = nudge(row[p.historyBits], taken)
}

func nudge(w int8, up bool) int8 {
	if up {
		if w < perceptronWeightMax {
			return w + 1
		}
		return w
	}

	if w > perceptronWeightMin {
		return w - 1
	}
	return w
}

func (p *perceptron) reset() {
	for i := range p.weights {
		p.weights[i] = 0
	}
}

func (p *perceptron) sizeBits() int {
	return 8 * len(p.weights)
}
