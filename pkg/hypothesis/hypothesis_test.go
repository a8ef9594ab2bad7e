package hypothesis

import (
	"testing"

	"github.com/bpbd-project/decoder-core/pkg/bitset"
	"github.com/bpbd-project/decoder-core/pkg/wordidx"
)

func TestPriorityIsGPlusH(t *testing.T) {
	s := State{G: -2.5, H: -1.5}
	if s.Priority() != -4 {
		t.Errorf("Priority() = %v, want -4", s.Priority())
	}
}

func TestEquivalentRequiresSameTriple(t *testing.T) {
	cov := bitset.New(4).WithSpanSet(0, 1)
	hist := []wordidx.WordID{5, 6}
	a := State{Coverage: cov, LastSpan: bitset.Span{Start: 0, End: 1}, LMHistory: hist}
	b := State{Coverage: cov.Clone(), LastSpan: bitset.Span{Start: 0, End: 1}, LMHistory: []wordidx.WordID{5, 6}}
	if !Equivalent(a, b) {
		t.Errorf("states with identical coverage/lastSpan/history should be equivalent")
	}

	c := b
	c.LMHistory = []wordidx.WordID{5, 7}
	if Equivalent(a, c) {
		t.Errorf("differing LM history should break equivalence")
	}

	d := b
	d.LastSpan = bitset.Span{Start: 1, End: 1}
	if Equivalent(a, d) {
		t.Errorf("differing last span should break equivalence")
	}
}

func TestKeyDeterministic(t *testing.T) {
	cov := bitset.New(4).WithSpanSet(0, 0)
	hist := []wordidx.WordID{1, 2}
	k1 := Key(cov, 0, hist)
	k2 := Key(cov.Clone(), 0, []wordidx.WordID{1, 2})
	if k1 != k2 {
		t.Errorf("Key should be deterministic for equal inputs")
	}
}

func TestArenaNewAndGet(t *testing.T) {
	arena := NewArena(4)
	r1 := arena.New(State{G: 1})
	r2 := arena.New(State{G: 2})
	if r1 == r2 {
		t.Fatalf("distinct New() calls should return distinct refs")
	}
	if arena.Get(r1).G != 1 || arena.Get(r2).G != 2 {
		t.Errorf("Get should return the state that was stored at each ref")
	}
	if arena.Len() != 2 {
		t.Errorf("Len() = %d, want 2", arena.Len())
	}
}

func TestNoParentIsNotAValidRef(t *testing.T) {
	if NoParent >= 0 {
		t.Errorf("NoParent must be negative to be distinguishable from any real arena index")
	}
}
