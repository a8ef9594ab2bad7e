// Package hypothesis implements the immutable partial-translation node of
// spec §3 and its recombination key (§4.6). Hypotheses live in a per-decode
// Arena (spec §9's recommended design): parent links are arena indices
// rather than pointers, so the whole decode's hypothesis forest is freed in
// one step when the arena is dropped, and there is no reference-cycle or
// per-node deallocation cost to manage.
package hypothesis

import (
	"github.com/bpbd-project/decoder-core/pkg/bitset"
	"github.com/bpbd-project/decoder-core/pkg/score"
	"github.com/bpbd-project/decoder-core/pkg/wordidx"
)

// Ref is an index into an Arena. NoParent marks the root hypothesis, which
// has no predecessor.
type Ref int32

// NoParent is the parent Ref of the initial, empty-coverage hypothesis.
const NoParent Ref = -1

// RecombKey hashes the equivalence triple of spec §4.6 (coverage vector,
// last-covered source end, LM history). Two hypotheses with the same key
// are candidates for recombination; Equivalent still checks full equality
// before one is actually discarded, since distinct triples may collide.
type RecombKey uint64

// State is one immutable node in the search graph: a partial translation.
type State struct {
	Parent      Ref
	TargetWords []wordidx.WordID // the target phrase emitted on this edge, for traceback
	Coverage    bitset.Coverage
	LastSpan    bitset.Span
	LMHistory   []wordidx.WordID // suffix of length <= N-1 (spec §3 invariant)
	G           score.Score      // partial score: sum of all feature contributions so far
	H           score.Score      // future-cost estimate for uncovered positions
	Key         RecombKey
}

// Priority is g + h, the value stack levels order hypotheses by (spec §3).
func (s State) Priority() score.Score {
	return s.G + s.H
}

// Key computes the recombination key for a (coverage, lastEnd, lmHistory)
// triple (spec §4.6).
func Key(cov bitset.Coverage, lastEnd int, lmHistory []wordidx.WordID) RecombKey {
	h := cov.Hash()
	h ^= uint64(lastEnd)*0x9e3779b97f4a7c15 + (h << 6) + (h >> 2)
	for _, w := range lmHistory {
		h ^= uint64(w)
		h *= 1099511628211
	}
	return RecombKey(h)
}

// Equivalent reports whether a and b agree on the spec §4.6 triple exactly
// (not just on their recombination key hash).
//
// Intentional strengthening: spec §4.6 keys equivalence on lastSpan.End
// only (Key, above, hashes just lastEnd), but Equivalent also requires
// lastSpan.Start to match. Recombining hypotheses whose previous span
// started at different positions would be unsound here, since a future
// rm.Classify call scores orientation against the full previous span, not
// just its end.
func Equivalent(a, b State) bool {
	if a.LastSpan != b.LastSpan {
		return false
	}
	if !a.Coverage.Equal(b.Coverage) {
		return false
	}
	if len(a.LMHistory) != len(b.LMHistory) {
		return false
	}
	for i := range a.LMHistory {
		if a.LMHistory[i] != b.LMHistory[i] {
			return false
		}
	}
	return true
}

// Arena owns every hypothesis created during one decode. It is never
// shared across decodes and is dropped in one step at decode end (spec §5,
// §9).
type Arena struct {
	states []State
}

// NewArena returns an empty arena, optionally pre-sized for capacityHint
// hypotheses to reduce reallocation during a large beam search.
func NewArena(capacityHint int) *Arena {
	return &Arena{states: make([]State, 0, capacityHint)}
}

// New allocates a new immutable hypothesis and returns its Ref.
func (a *Arena) New(s State) Ref {
	a.states = append(a.states, s)
	return Ref(len(a.states) - 1)
}

// Get returns a copy of the hypothesis at ref. Hypotheses are immutable
// once created, so returning by value is always safe and avoids any
// aliasing concern across arena growth/reallocation.
func (a *Arena) Get(ref Ref) State {
	return a.states[ref]
}

// Len returns the number of hypotheses allocated so far.
func (a *Arena) Len() int {
	return len(a.states)
}
