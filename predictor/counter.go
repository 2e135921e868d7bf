package predictor

// Counter is a 2-bit saturating counter.
// States: 0=Strongly Not Taken, 1=Weakly Not Taken, 2=Weakly Taken,
// 3=Strongly Taken.
type Counter uint8

// Counter levels.
const (
	StronglyNotTaken Counter = iota
	WeaklyNotTaken
	WeaklyTaken
	StronglyTaken
)

// Increment raises the counter by one level, saturating at StronglyTaken.
func (c *Counter) Increment() {
	if *c < StronglyTaken {
		*c++
	}
}

// Decrement lowers the counter by one level, saturating at StronglyNotTaken.
func (c *Counter) Decrement() {
	if *c > StronglyNotTaken {
		*c--
	}
}

// Update moves the counter toward the given outcome.
func (c *Counter) Update(taken bool) {
	if taken {
		c.Increment()
	} else {
		c.Decrement()
	}
}

// Taken reports whether the counter votes taken.
func (c Counter) Taken() bool {
	return c > WeaklyNotTaken
}

// String returns the short level name, such as "WT".
func (c Counter) String() string {
	switch c {
	case StronglyNotTaken:
		return "SN"
	case WeaklyNotTaken:
		return "WN"
	case WeaklyTaken:
		return "WT"
	case StronglyTaken:
		return "ST"
	default:
		return "invalid"
	}
}

// PatternTable is a pattern history table of saturating counters. Its length
// is always a power of two, so indices are reduced with a mask.
type PatternTable []Counter

// NewPatternTable allocates a table of 2^bits counters, all set to init.
func NewPatternTable(bits uint, init Counter) PatternTable {
	t := make(PatternTable, 1<<bits)
	t.Fill(init)
	return t
}

// Fill sets every counter in the table to the given level.
func (t PatternTable) Fill(level Counter) {
	for i := range t {
		t[i] = level
	}
}

func (t PatternTable) mask() uint32 {
	return uint32(len(t) - 1)
}

// At returns the counter at idx mod len(t).
func (t PatternTable) At(idx uint32) Counter {
	return t[idx&t.mask()]
}

// Taken reports the vote of the counter at idx mod len(t).
func (t PatternTable) Taken(idx uint32) bool {
	return t.At(idx).Taken()
}

// Update trains the counter at idx mod len(t) toward the outcome.
func (t PatternTable) Update(idx uint32, taken bool) {
	t[idx&t.mask()].Update(taken)
}
