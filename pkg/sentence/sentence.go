// Package sentence builds the per-sentence data map of spec §4.5: a
// triangular table of applicable TM entries per source span, and the
// future-cost table used to make stack-decoder pruning admissible.
package sentence

import (
	"github.com/bpbd-project/decoder-core/pkg/bitset"
	"github.com/bpbd-project/decoder-core/pkg/lm"
	"github.com/bpbd-project/decoder-core/pkg/score"
	"github.com/bpbd-project/decoder-core/pkg/tm"
	"github.com/bpbd-project/decoder-core/pkg/wordidx"
)

// negInf stands in for "no derivation known yet" while building the
// future-cost table; any real score (bounded by score.Zero/score.Unknown)
// is greater than it, so max-accumulation works without special-casing.
const negInf score.Score = -1e30

// Map is the precomputed per-sentence table: applicable TM entries and
// future cost for every contiguous source span.
type Map struct {
	length int
	cells  [][][]tm.Entry  // cells[s][e-s], only filled for e-s+1 <= maxSrcPhraseLen
	h      [][]score.Score // h[s][e-s], defined for every 0<=s<=e<length
}

// NewMap materialises the sentence data map for tokens (spec §4.5): for
// every span within maxSrcPhraseLen, the TM entries applicable to it; and
// for every span, the future-cost estimate h[s][e] via the CKY-style
// recursion of §4.5.
func NewMap(tokens []wordidx.WordID, tmStore *tm.Store, lmTrie *lm.Trie, maxSrcPhraseLen int) *Map {
	L := len(tokens)
	m := &Map{length: L}
	if L == 0 {
		return m
	}

	m.cells = make([][][]tm.Entry, L)
	m.h = make([][]score.Score, L)
	for s := 0; s < L; s++ {
		m.cells[s] = make([][]tm.Entry, L-s)
		m.h[s] = make([]score.Score, L-s)
		for i := range m.h[s] {
			m.h[s][i] = negInf
		}
	}

	for length := 1; length <= L; length++ {
		for s := 0; s+length-1 < L; s++ {
			e := s + length - 1
			if length <= maxSrcPhraseLen {
				uid := wordidx.CombinePhrase(tokens[s : e+1])
				entries := tmStore.EntriesFor(uid)
				m.cells[s][e-s] = entries
				best := negInf
				for _, entry := range entries {
					v := entry.Total + lmEstimate(entry.TargetWords, lmTrie)
					if v > best {
						best = v
					}
				}
				m.h[s][e-s] = best
			}
			for split := s; split < e; split++ {
				v := m.h[s][split-s] + m.h[split+1][e-split-1]
				if v > m.h[s][e-s] {
					m.h[s][e-s] = v
				}
			}
		}
	}
	return m
}

// Cell returns the TM entries applicable to source span [s, e] (inclusive),
// or nil if that span exceeds maxSrcPhraseLen and was never materialised.
func (m *Map) Cell(s, e int) []tm.Entry {
	if s < 0 || e >= m.length || e < s || m.cells[s] == nil || e-s >= len(m.cells[s]) {
		return nil
	}
	return m.cells[s][e-s]
}

// FutureCost returns h[s][e], the best achievable (TM + LM-estimate) cost
// of covering source span [s, e] in isolation (spec §4.5).
func (m *Map) FutureCost(s, e int) score.Score {
	if s < 0 || e >= m.length || e < s {
		return negInf
	}
	return m.h[s][e-s]
}

// CoverageFutureCost sums h[s][e] over the maximal uncovered contiguous
// spans of cov — the future-cost contribution of a hypothesis's coverage
// vector (spec §4.5).
func (m *Map) CoverageFutureCost(cov bitset.Coverage) score.Score {
	var total score.Score
	for _, span := range cov.MaximalUncoveredSpans() {
		total += m.FutureCost(span.Start, span.End)
	}
	return total
}

// Length returns the source sentence length this map was built for.
func (m *Map) Length() int {
	return m.length
}

// lmEstimate scores a target word sequence treated in isolation: its
// initial words serve only as context for later words within the same
// phrase, never carrying in any surrounding sentence context (spec §4.5).
func lmEstimate(words []wordidx.WordID, lmTrie *lm.Trie) score.Score {
	var total score.Score
	var history []wordidx.WordID
	for _, w := range words {
		total += lmTrie.Prob(history, w)
		history = lmTrie.AppendHistory(history, w)
	}
	return total
}
