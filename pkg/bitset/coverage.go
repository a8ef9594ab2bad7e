// Package bitset implements the source-coverage bitset used by the decoder
// to track which source positions a hypothesis has already translated.
package bitset

import "math/bits"

const wordBits = 64

// Coverage is a fixed-length bitset over source positions 0..length-1.
// Bit i is set iff source position i has been translated.
type Coverage struct {
	words  []uint64
	length int
}

// New returns an all-clear coverage vector for a sentence of the given length.
func New(length int) Coverage {
	n := (length + wordBits - 1) / wordBits
	if n == 0 {
		n = 1
	}
	return Coverage{words: make([]uint64, n), length: length}
}

// Len returns the number of source positions this coverage vector tracks.
func (c Coverage) Len() int {
	return c.length
}

// Clone returns an independent copy.
func (c Coverage) Clone() Coverage {
	words := make([]uint64, len(c.words))
	copy(words, c.words)
	return Coverage{words: words, length: c.length}
}

// IsSet reports whether source position i is already covered.
func (c Coverage) IsSet(i int) bool {
	return c.words[i/wordBits]&(uint64(1)<<(uint(i)%wordBits)) != 0
}

// WithSpanSet returns a clone with [s, e] (inclusive) marked covered.
func (c Coverage) WithSpanSet(s, e int) Coverage {
	clone := c.Clone()
	for i := s; i <= e; i++ {
		clone.words[i/wordBits] |= uint64(1) << (uint(i) % wordBits)
	}
	return clone
}

// SpanClear reports whether every position in [s, e] (inclusive) is clear.
func (c Coverage) SpanClear(s, e int) bool {
	for i := s; i <= e; i++ {
		if c.IsSet(i) {
			return false
		}
	}
	return true
}

// PopCount returns the cardinality of the coverage vector (number of
// translated source positions), i.e. the stack level it belongs on.
func (c Coverage) PopCount() int {
	n := 0
	for _, w := range c.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// IsFull reports whether every source position is covered.
func (c Coverage) IsFull() bool {
	return c.PopCount() == c.length
}

// Hash folds the coverage vector into a single uint64 for use as part of a
// recombination key (spec §4.6); collisions are acceptable there since the
// key also carries lastEnd and LM history, and recombination falls back to
// an equality check against the stored coverage before trusting a hash hit.
func (c Coverage) Hash() uint64 {
	h := uint64(1469598103934665603) // FNV-1a offset basis
	for _, w := range c.words {
		h ^= w
		h *= 1099511628211
	}
	return h
}

// Equal reports whether two coverage vectors mark exactly the same positions.
func (c Coverage) Equal(o Coverage) bool {
	if len(c.words) != len(o.words) {
		return false
	}
	for i := range c.words {
		if c.words[i] != o.words[i] {
			return false
		}
	}
	return true
}

// Less implements the tie-break order of spec §4.7: smaller coverage
// bitstring, interpreted as an integer, sorts first. Words are compared
// from the most-significant (highest-index) word down.
func (c Coverage) Less(o Coverage) bool {
	for i := len(c.words) - 1; i >= 0; i-- {
		if c.words[i] != o.words[i] {
			return c.words[i] < o.words[i]
		}
	}
	return false
}

// Span is a contiguous, inclusive range of source positions.
type Span struct {
	Start, End int
}

// MaximalUncoveredSpans returns the maximal contiguous runs of uncovered
// source positions, used by the future-cost estimator (spec §4.5) to sum
// h[s][e] over what remains to be translated.
func (c Coverage) MaximalUncoveredSpans() []Span {
	var spans []Span
	s := -1
	for i := 0; i < c.length; i++ {
		if !c.IsSet(i) {
			if s == -1 {
				s = i
			}
		} else if s != -1 {
			spans = append(spans, Span{Start: s, End: i - 1})
			s = -1
		}
	}
	if s != -1 {
		spans = append(spans, Span{Start: s, End: c.length - 1})
	}
	return spans
}
