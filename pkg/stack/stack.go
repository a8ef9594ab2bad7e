// Package stack implements a single stack level of spec §4.7: the set of
// hypotheses sharing one coverage cardinality, with O(1) recombination via
// a key-indexed map and histogram/threshold pruning applied once expansion
// of the level is complete.
package stack

import (
	"sort"

	"github.com/bpbd-project/decoder-core/pkg/hypothesis"
	"github.com/bpbd-project/decoder-core/pkg/score"
	"github.com/bpbd-project/decoder-core/pkg/wordidx"
)

// ExpandFunc is invoked once per surviving hypothesis during Expand; it is
// the decoder's expand_one (spec §4.8), kept out of this package so stack
// has no dependency on model stores or decode parameters.
type ExpandFunc func(ref hypothesis.Ref) error

// Level owns the hypotheses whose coverage cardinality equals this level's
// index (spec §2, component 7).
type Level struct {
	arena *hypothesis.Arena
	byKey map[hypothesis.RecombKey][]hypothesis.Ref
}

// New returns an empty stack level backed by arena.
func New(arena *hypothesis.Arena) *Level {
	return &Level{
		arena: arena,
		byKey: make(map[hypothesis.RecombKey][]hypothesis.Ref),
	}
}

// Add recombines ref with any equivalent incumbent (keeping the one with
// higher g), or inserts it as a new hypothesis on this level (spec §4.6,
// §4.7). isStop is polled before doing any work (spec §5).
func (l *Level) Add(ref hypothesis.Ref, isStop func() bool) {
	if isStop != nil && isStop() {
		return
	}
	st := l.arena.Get(ref)
	bucket := l.byKey[st.Key]
	for i, r := range bucket {
		ex := l.arena.Get(r)
		if hypothesis.Equivalent(st, ex) {
			if st.G > ex.G {
				bucket[i] = ref
				l.byKey[st.Key] = bucket
			}
			return
		}
	}
	l.byKey[st.Key] = append(bucket, ref)
}

// survivors flattens every bucket into one slice of refs.
func (l *Level) survivors() []hypothesis.Ref {
	var refs []hypothesis.Ref
	for _, bucket := range l.byKey {
		refs = append(refs, bucket...)
	}
	return refs
}

// sorted returns survivors ordered by descending priority, ties broken by
// the smaller coverage bitstring (interpreted as an integer) winning, per
// spec §4.7's determinism rule. survivors() iterates a map, so the
// comparator must be a total order over every remaining field of the
// equivalence triple (spec §4.6: coverage, lastSpan.End, LM history) —
// otherwise two distinct, non-recombined hypotheses that happen to tie on
// priority and coverage would compare equal, and SliceStable would fall
// back to preserving their randomized map-iteration order, making Best()
// non-deterministic across runs.
func (l *Level) sorted() []hypothesis.Ref {
	refs := l.survivors()
	sort.SliceStable(refs, func(i, j int) bool {
		a, b := l.arena.Get(refs[i]), l.arena.Get(refs[j])
		if a.Priority() != b.Priority() {
			return a.Priority() > b.Priority()
		}
		if !a.Coverage.Equal(b.Coverage) {
			return a.Coverage.Less(b.Coverage)
		}
		if a.LastSpan.End != b.LastSpan.End {
			return a.LastSpan.End < b.LastSpan.End
		}
		return lessHistory(a.LMHistory, b.LMHistory)
	})
	return refs
}

// lessHistory orders LM histories lexicographically by word ID, shorter
// histories sorting first when one is a prefix of the other. Combined with
// coverage and lastSpan.End, this makes sorted()'s comparator a true total
// order over the spec §4.6 equivalence triple, so no two distinct,
// non-recombined hypotheses can compare equal.
func lessHistory(a, b []wordidx.WordID) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

// Prune applies threshold pruning (discard anything below
// best_priority - thresholdGap) followed by histogram pruning (keep only
// the top capacity), in that order, exactly once, after all additions for
// the level are complete (spec §4.7). capacity <= 0 means unlimited.
func (l *Level) Prune(thresholdGap score.Score, capacity int) {
	refs := l.sorted()
	if len(refs) == 0 {
		return
	}
	best := l.arena.Get(refs[0]).Priority()
	threshold := best - thresholdGap
	kept := refs[:0:0]
	for _, r := range refs {
		if l.arena.Get(r).Priority() >= threshold {
			kept = append(kept, r)
		}
	}
	if capacity > 0 && len(kept) > capacity {
		kept = kept[:capacity]
	}
	l.rebuild(kept)
}

// rebuild replaces the level's contents with exactly the given survivors,
// preserving each one's key bucket.
func (l *Level) rebuild(keep []hypothesis.Ref) {
	fresh := make(map[hypothesis.RecombKey][]hypothesis.Ref, len(keep))
	for _, r := range keep {
		st := l.arena.Get(r)
		fresh[st.Key] = append(fresh[st.Key], r)
	}
	l.byKey = fresh
}

// Expand iterates surviving hypotheses, in priority order, calling fn for
// each one (spec §4.7's expand()). isStop is polled at the top of the loop
// (spec §5).
func (l *Level) Expand(isStop func() bool, fn ExpandFunc) error {
	for _, r := range l.sorted() {
		if isStop != nil && isStop() {
			return nil
		}
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}

// Best returns the highest-priority survivor, used on the terminal level
// to pick the 1-best derivation (spec §4.7's get_best()).
func (l *Level) Best() (hypothesis.Ref, bool) {
	refs := l.sorted()
	if len(refs) == 0 {
		return 0, false
	}
	return refs[0], true
}

// Size returns the number of surviving hypotheses currently on this level.
func (l *Level) Size() int {
	return len(l.survivors())
}
