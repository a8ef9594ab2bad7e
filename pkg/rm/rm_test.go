package rm

import (
	"testing"

	"github.com/bpbd-project/decoder-core/pkg/bitset"
	"github.com/bpbd-project/decoder-core/pkg/score"
	"github.com/bpbd-project/decoder-core/pkg/wordidx"
)

func TestClassifyMonotone(t *testing.T) {
	prev := bitset.Span{Start: 0, End: 2}
	next := bitset.Span{Start: 3, End: 4}
	if got := Classify(prev, next); got != Monotone {
		t.Errorf("Classify(%v, %v) = %v, want Monotone", prev, next, got)
	}
}

func TestClassifySwap(t *testing.T) {
	prev := bitset.Span{Start: 3, End: 4}
	next := bitset.Span{Start: 0, End: 2}
	if got := Classify(prev, next); got != Swap {
		t.Errorf("Classify(%v, %v) = %v, want Swap", prev, next, got)
	}
}

func TestClassifyDiscontinuous(t *testing.T) {
	prev := bitset.Span{Start: 0, End: 1}
	next := bitset.Span{Start: 4, End: 5}
	if got := Classify(prev, next); got != Discontinuous {
		t.Errorf("Classify(%v, %v) = %v, want Discontinuous", prev, next, got)
	}
}

func TestOrientationsFallsBackToUnknownDefault(t *testing.T) {
	def := [numFeatures]score.Score{1, 2, 3, 4, 5, 6}
	store := NewStore(def)
	got := store.Orientations(111, 222)
	if got != def {
		t.Errorf("unmodelled pair should resolve to the configured default, got %v", got)
	}
}

func TestSumFeaturesUsesTrainedEntry(t *testing.T) {
	store := NewStore([numFeatures]score.Score{})
	b := store.Build()
	feats := [numFeatures]score.Score{10, 20, 30, 40, 50, 60}
	b.AddEntry(wordidx.PhraseID(1), wordidx.PhraseID(2), feats)

	got := store.SumFeatures(1, 2, Monotone, Swap)
	want := feats[featMonotoneFromPrev] + feats[featSwapFromNext]
	if got != want {
		t.Errorf("SumFeatures(Monotone,Swap) = %v, want %v", got, want)
	}
}
