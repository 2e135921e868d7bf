package predictor

// History is a shift register of the most recent branch outcomes. Bit 0 holds
// the most recent outcome.
type History struct {
	value uint32
	bits  uint
}

// NewHistory creates an empty history register of the given width.
// Widths of 32 or more use the full register and wrap naturally.
func NewHistory(bits uint) History {
	return History{bits: bits}
}

// Value returns the raw register contents.
func (h History) Value() uint32 {
	return h.value
}

// Bits returns the register width.
func (h History) Bits() uint {
	return h.bits
}

// Bit returns bit i of the register as 0 or 1.
func (h History) Bit(i uint) uint32 {
	return (h.value >> i) & 1
}

// Shift shifts the outcome into bit 0, dropping bits beyond the width.
func (h *History) Shift(taken bool) {
	h.value = shiftIn(h.value, taken, h.bits)
}

// Reset clears the register.
func (h *History) Reset() {
	h.value = 0
}

func shiftIn(value uint32, taken bool, bits uint) uint32 {
	value <<= 1
	if taken {
		value |= 1
	}

	if bits < 32 {
		value &= lowMask(bits)
	}

	return value
}

func lowMask(bits uint) uint32 {
	if bits >= 32 {
		return ^uint32(0)
	}

	return (uint32(1) << bits) - 1
}
