// Package decoder implements the multi-stack beam search driver of spec §4:
// the component that ties the word index, language model, translation
// model, reordering model and sentence future-cost table together into the
// single exposed operation, Decode.
package decoder

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/bpbd-project/decoder-core/internal/logger"
	"github.com/bpbd-project/decoder-core/pkg/bitset"
	"github.com/bpbd-project/decoder-core/pkg/config"
	"github.com/bpbd-project/decoder-core/pkg/hypothesis"
	"github.com/bpbd-project/decoder-core/pkg/lm"
	"github.com/bpbd-project/decoder-core/pkg/rm"
	"github.com/bpbd-project/decoder-core/pkg/sentence"
	"github.com/bpbd-project/decoder-core/pkg/stack"
	"github.com/bpbd-project/decoder-core/pkg/tm"
	"github.com/bpbd-project/decoder-core/pkg/wordidx"
)

// maxArenaHypotheses is a circuit breaker on arena growth: the practical
// proxy this package uses for spec §7's resource-exhaustion class, since a
// real out-of-memory condition in Go cannot be recovered from.
const maxArenaHypotheses = 20_000_000

// StopFlag is a cooperative cancellation signal, polled (never blocked on)
// at the top of expand, add and the inner per-candidate loop (spec §5).
// The zero value is a valid, unset flag.
type StopFlag struct {
	stopped atomic.Bool
}

// NewStopFlag returns an unset StopFlag.
func NewStopFlag() *StopFlag {
	return &StopFlag{}
}

// Set signals cancellation. Safe to call from any goroutine, any number of
// times.
func (f *StopFlag) Set() {
	f.stopped.Store(true)
}

// IsSet reports whether cancellation has been signalled.
func (f *StopFlag) IsSet() bool {
	return f.stopped.Load()
}

// Decoder holds the immutable, shared model stores needed to decode
// sentences (spec §5: "stateless with respect to model data... safe for
// concurrent use by multiple callers").
type Decoder struct {
	words   *wordidx.Index
	lmTrie  *lm.Trie
	tmStore *tm.Store
	rmStore *rm.Store
	params  config.Params
	log     *log.Logger
}

// New returns a Decoder over the given model stores and parameters. The
// stores are assumed loaded and are never mutated by Decode.
func New(words *wordidx.Index, lmTrie *lm.Trie, tmStore *tm.Store, rmStore *rm.Store, params config.Params) *Decoder {
	return &Decoder{
		words:   words,
		lmTrie:  lmTrie,
		tmStore: tmStore,
		rmStore: rmStore,
		params:  params,
		log:     logger.Default("decoder"),
	}
}

// WithParams returns a copy of d using newParams in place of its current
// parameters, sharing the same model stores. Used by the server to hot-swap
// configuration without reloading any model (spec §6).
func (d *Decoder) WithParams(newParams config.Params) *Decoder {
	cp := *d
	cp.params = newParams
	return &cp
}

// Decode runs the multi-stack search over tokens (spec §6's sole exposed
// operation). stop may be nil, in which case an internal flag is used that
// nothing else can observe or set; ctx cancellation is mirrored onto
// whichever flag is in effect. The returned string is empty iff stop was
// signalled before a terminal hypothesis was produced, or the source was
// empty (spec scenario S1) — both are reported with a nil error, since
// neither is a failure of the decoder itself.
func (d *Decoder) Decode(ctx context.Context, tokens []string, stop *StopFlag) (string, error) {
	if d.params.Decoder.IsGenLattice {
		return "", ErrLatticeUnsupported
	}
	if stop == nil {
		stop = NewStopFlag()
	}
	if ctx != nil {
		if ctx.Err() != nil {
			stop.Set()
		}
		done := make(chan struct{})
		defer close(done)
		go func() {
			select {
			case <-ctx.Done():
				stop.Set()
			case <-done:
			}
		}()
	}
	if stop.IsSet() {
		return "", nil
	}

	wordIDs := make([]wordidx.WordID, len(tokens))
	for i, t := range tokens {
		wordIDs[i] = d.words.Get(t)
	}
	L := len(wordIDs)

	sentMap := sentence.NewMap(wordIDs, d.tmStore, d.lmTrie, d.params.Decoder.MaxSourcePhraseLength)
	arena := hypothesis.NewArena(256)

	numLevels := L + 2
	levels := make([]*stack.Level, numLevels)
	for i := range levels {
		levels[i] = stack.New(arena)
	}

	startID := d.words.Get("<s>")
	rootCov := bitset.New(L)
	rootHistory := []wordidx.WordID{startID}
	rootRef := arena.New(hypothesis.State{
		Parent:    hypothesis.NoParent,
		Coverage:  rootCov,
		LastSpan:  bitset.Span{Start: -1, End: -1},
		LMHistory: rootHistory,
		G:         0,
		H:         sentMap.CoverageFutureCost(rootCov),
		Key:       hypothesis.Key(rootCov, -1, rootHistory),
	})
	levels[0].Add(rootRef, stop.IsSet)

	thresholdGap := d.params.Decoder.PruningThreshold
	capacity := d.params.Decoder.StackCapacity

	for i := 0; i <= L; i++ {
		if stop.IsSet() {
			return "", nil
		}
		levels[i].Prune(thresholdGap, capacity)
		if stop.IsSet() {
			return "", nil
		}
		if err := levels[i].Expand(stop.IsSet, func(ref hypothesis.Ref) error {
			return d.expandOne(ref, arena, wordIDs, sentMap, levels, stop)
		}); err != nil {
			return "", err
		}
		if arena.Len() > maxArenaHypotheses {
			return "", &ResourceError{Msg: fmt.Sprintf("hypothesis arena exceeded %d entries", maxArenaHypotheses)}
		}
	}

	if stop.IsSet() {
		return "", nil
	}
	if err := d.closeSentenceEnd(arena, levels[L], levels[L+1], stop); err != nil {
		return "", err
	}
	levels[L+1].Prune(thresholdGap, capacity)

	best, ok := levels[L+1].Best()
	if !ok {
		if stop.IsSet() {
			return "", nil
		}
		return "", &InvariantError{Msg: "no surviving hypothesis on the terminal level"}
	}
	return d.traceback(arena, best), nil
}

// closeSentenceEnd implements the sentence-end closure of spec §4.8: every
// survivor of the final coverage level produces exactly one successor by
// scoring the language model's sentence-end symbol against its history, with
// no further TM/RM contribution.
func (d *Decoder) closeSentenceEnd(arena *hypothesis.Arena, from, to *stack.Level, stop *StopFlag) error {
	eosID := d.words.Get("</s>")
	return from.Expand(stop.IsSet, func(ref hypothesis.Ref) error {
		h := arena.Get(ref)
		if !h.Coverage.IsFull() {
			return &InvariantError{Msg: "sentence-end closure reached with incomplete coverage"}
		}
		newHistory := d.lmTrie.AppendHistory(h.LMHistory, eosID)
		gPrime := h.G + d.lmTrie.Prob(h.LMHistory, eosID)
		newRef := arena.New(hypothesis.State{
			Parent:    ref,
			Coverage:  h.Coverage,
			LastSpan:  h.LastSpan,
			LMHistory: newHistory,
			G:         gPrime,
			H:         0,
			Key:       hypothesis.Key(h.Coverage, h.LastSpan.End, newHistory),
		})
		to.Add(newRef, stop.IsSet)
		return nil
	})
}

// traceback walks the winning hypothesis's parent chain back to the root,
// collecting emitted target words, then renders them in emission order
// (spec §6). Boundary hypotheses (root, sentence-end closure) emit no
// words, so an all-boundary chain (the empty-source case) renders as "".
func (d *Decoder) traceback(arena *hypothesis.Arena, ref hypothesis.Ref) string {
	var words []wordidx.WordID
	for ref != hypothesis.NoParent {
		h := arena.Get(ref)
		for i := len(h.TargetWords) - 1; i >= 0; i-- {
			words = append(words, h.TargetWords[i])
		}
		ref = h.Parent
	}
	// words was built newest-emission-first; reverse into emission order.
	for i, j := 0, len(words)-1; i < j; i, j = i+1, j-1 {
		words[i], words[j] = words[j], words[i]
	}
	out := make([]string, 0, len(words))
	for _, w := range words {
		if text, ok := d.words.Text(w); ok {
			out = append(out, text)
		} else {
			out = append(out, "<unk>")
		}
	}
	return joinWords(out)
}

func joinWords(words []string) string {
	if len(words) == 0 {
		return ""
	}
	total := len(words) - 1
	for _, w := range words {
		total += len(w)
	}
	buf := make([]byte, 0, total)
	for i, w := range words {
		if i > 0 {
			buf = append(buf, ' ')
		}
		buf = append(buf, w...)
	}
	return string(buf)
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
