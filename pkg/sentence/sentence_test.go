package sentence

import (
	"testing"

	"github.com/bpbd-project/decoder-core/pkg/bitset"
	"github.com/bpbd-project/decoder-core/pkg/lm"
	"github.com/bpbd-project/decoder-core/pkg/tm"
	"github.com/bpbd-project/decoder-core/pkg/wordidx"
)

func buildToyMap(t *testing.T, maxSrcLen int) (*Map, []wordidx.WordID) {
	t.Helper()
	idx := wordidx.New()
	w1 := idx.AddIfAbsent("el")
	w2 := idx.AddIfAbsent("gato")
	tokens := []wordidx.WordID{w1, w2}

	tmStore := tm.NewStore(tm.Config{TransLim: 5, MinTransProb: -1000, UnknownTotal: -100, UnknownPEF: -100})
	b := tmStore.Build()
	b.AddEntries(wordidx.CombinePhrase([]wordidx.WordID{w1}), []tm.Entry{
		{TargetUID: 10, TargetWords: []wordidx.WordID{idx.AddIfAbsent("the")}, Total: -1},
	})
	b.AddEntries(wordidx.CombinePhrase([]wordidx.WordID{w2}), []tm.Entry{
		{TargetUID: 11, TargetWords: []wordidx.WordID{idx.AddIfAbsent("cat")}, Total: -1},
	})
	b.AddEntries(wordidx.CombinePhrase(tokens), []tm.Entry{
		{TargetUID: 12, TargetWords: []wordidx.WordID{idx.AddIfAbsent("the"), idx.AddIfAbsent("cat")}, Total: -1.5},
	})

	lmBuilder := lm.NewBuilder(2)
	lmTrie := lmBuilder.Finalize()

	m := NewMap(tokens, tmStore, lmTrie, maxSrcLen)
	return m, tokens
}

func TestFutureCostBaseCase(t *testing.T) {
	m, _ := buildToyMap(t, 7)
	if m.FutureCost(0, 0) == 0 {
		t.Errorf("FutureCost(0,0) should reflect the single-word entry's cost, got 0")
	}
}

func TestCoverageFutureCostSumsUncoveredSpans(t *testing.T) {
	m, tokens := buildToyMap(t, 7)
	empty := bitset.New(len(tokens))
	full := empty.WithSpanSet(0, len(tokens)-1)

	if m.CoverageFutureCost(full) != 0 {
		t.Errorf("a fully covered sentence has no future cost left, got %v", m.CoverageFutureCost(full))
	}
	if m.CoverageFutureCost(empty) == 0 {
		t.Errorf("an uncovered sentence should have nonzero future cost")
	}
}

func TestFutureCostAdmissibleAgainstWholeSpan(t *testing.T) {
	// The best whole-span derivation combines single-word cells too, so the
	// two-word span's cost must be >= combining the two single-word spans
	// would give it a chance to be (the recursion takes the max, i.e. the
	// least negative, of the two options), establishing admissibility.
	m, _ := buildToyMap(t, 7)
	whole := m.FutureCost(0, 1)
	combined := m.FutureCost(0, 0) + m.FutureCost(1, 1)
	if whole < combined {
		t.Errorf("FutureCost(0,1) = %v should be >= the split-based combination %v", whole, combined)
	}
}

func TestCellNilBeyondMaxSourcePhraseLength(t *testing.T) {
	m, _ := buildToyMap(t, 1) // cap source phrases to length 1
	if cell := m.Cell(0, 1); cell != nil {
		t.Errorf("Cell(0,1) should be nil when maxSrcPhraseLen excludes length-2 spans, got %+v", cell)
	}
	if cell := m.Cell(0, 0); cell == nil {
		t.Errorf("Cell(0,0) should be populated")
	}
}

func TestEmptySentence(t *testing.T) {
	idx := wordidx.New()
	_ = idx
	tmStore := tm.NewStore(tm.Config{TransLim: 1, MinTransProb: -100, UnknownTotal: -100, UnknownPEF: -100})
	lmTrie := lm.NewBuilder(2).Finalize()
	m := NewMap(nil, tmStore, lmTrie, 7)
	if m.Length() != 0 {
		t.Errorf("empty token list should produce a zero-length map")
	}
	if got := m.CoverageFutureCost(bitset.New(0)); got != 0 {
		t.Errorf("empty coverage over an empty sentence should have zero future cost, got %v", got)
	}
}
