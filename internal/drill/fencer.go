package drill

// Fencer hands out monotonically increasing request sequence numbers.
// Only the most recently issued number is current.
type Fencer struct {
	seq uint64
}

// Next issues a new sequence number, superseding every earlier one.
func (f *Fencer) Next() uint64 {
	f.seq++
	return f.seq
}

// Current returns the latest issued number, zero if none.
func (f *Fencer) Current() uint64 {
	return f.seq
}

// IsCurrent reports whether seq is the latest issued number.
func (f *Fencer) IsCurrent(seq uint64) bool {
	return seq != 0 && seq == f.seq
}
