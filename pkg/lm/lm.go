// Package lm implements the M-gram language model trie of spec §4.2: a
// layered lookup of n-gram probabilities and back-off weights, queried
// incrementally by the decoder at every hypothesis expansion.
//
// Storage is modelled directly on the teacher's (bastiangx-wordserve)
// pattern of keeping a numeric payload behind a patricia.Trie lookup
// (pkg/suggest's word -> frequency trie), generalised here from a single
// "word -> frequency" level to N layered levels of "context transition ->
// {prob, backoff}", each keyed by the byte encoding of (contextID, wordID).
package lm

import (
	"encoding/binary"

	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"

	"github.com/bpbd-project/decoder-core/pkg/score"
	"github.com/bpbd-project/decoder-core/pkg/wordidx"
)

// rootContext is the implicit empty-history context shared by all unigrams.
const rootContext uint64 = 0

// entry is the payload stored behind a trie key at one level.
type entry struct {
	prob    score.Score
	backoff score.Score // meaningless at the top level (order == N)
	ctx     uint64      // context ID this m-gram is assigned, for order < N
}

// Trie is an N-level back-off language model.
type Trie struct {
	order  int // N, the maximum m-gram order modelled
	levels []*patricia.Trie
	log    *log.Logger
}

func encodeKey(ctx uint64, w wordidx.WordID) patricia.Prefix {
	buf := make([]byte, 16)
	binary.BigEndian.PutUint64(buf[0:8], ctx)
	binary.BigEndian.PutUint64(buf[8:16], uint64(w))
	return patricia.Prefix(buf)
}

func (t *Trie) lookup(level int, ctx uint64, w wordidx.WordID) (entry, bool) {
	item := t.levels[level].Get(encodeKey(ctx, w))
	if item == nil {
		return entry{}, false
	}
	e, ok := item.(entry)
	if !ok {
		t.log.Errorf("unexpected LM trie item type %T at level %d", item, level)
		return entry{}, false
	}
	return e, true
}

// ContextID composes the context ID reached at level (1-based m-gram order
// "level") by extending parentContext with wordID, or reports that this
// extension was never observed during training.
func (t *Trie) ContextID(parentContext uint64, wordID wordidx.WordID, level int) (uint64, bool) {
	if level < 1 || level > t.order {
		return 0, false
	}
	e, ok := t.lookup(level-1, parentContext, wordID)
	if !ok {
		return 0, false
	}
	return e.ctx, true
}

// Order returns N, the maximum m-gram order this model stores.
func (t *Trie) Order() int {
	return t.order
}

// contextIDForSuffix replays hist (oldest-to-newest) from the root context,
// returning how far it could walk the trie before hitting an unseen
// extension.
func (t *Trie) contextIDForSuffix(hist []wordidx.WordID) (ctx uint64, built int) {
	ctx = rootContext
	for i, w := range hist {
		next, ok := t.ContextID(ctx, w, i+1)
		if !ok {
			return ctx, i
		}
		ctx = next
	}
	return ctx, len(hist)
}

// Prob implements the back-off query contract of spec §4.2:
// P(w_m | w_1...w_{m-1}). history is oldest-to-newest and is truncated to
// the trailing N-1 words if longer.
func (t *Trie) Prob(history []wordidx.WordID, w wordidx.WordID) score.Score {
	if len(history) > t.order-1 {
		history = history[len(history)-(t.order-1):]
	}
	return t.probRec(history, w)
}

func (t *Trie) probRec(hist []wordidx.WordID, w wordidx.WordID) score.Score {
	order := len(hist) + 1

	ctx, built := t.contextIDForSuffix(hist)
	if built == len(hist) {
		if e, ok := t.lookup(order-1, ctx, w); ok {
			return e.prob
		}
	}

	if len(hist) == 0 {
		// Base case: unigram. An absent word falls back to the model's
		// configured <unk> unigram entry (spec §4.2, unknown-word policy).
		if e, ok := t.lookup(0, rootContext, w); ok {
			return e.prob
		}
		if e, ok := t.lookup(0, rootContext, wordidx.Unknown); ok {
			return e.prob
		}
		return score.Unknown
	}

	// Back off: add the back-off weight of the (m-1)-gram prefix (hist
	// itself), if it exists and carries one, then recurse on one word
	// less of context.
	prefixCtx, prefixBuilt := t.contextIDForSuffix(hist[:len(hist)-1])
	var backoff score.Score
	if prefixBuilt == len(hist)-1 {
		if e, ok := t.lookup(len(hist)-1, prefixCtx, hist[len(hist)-1]); ok {
			backoff = e.backoff
		}
	}
	return backoff + t.probRec(hist[1:], w)
}

// AppendHistory returns the LM history resulting from emitting wordID after
// history, truncated to the trailing N-1 words (spec §3 invariant: LM
// history length never exceeds N-1).
func (t *Trie) AppendHistory(history []wordidx.WordID, wordID wordidx.WordID) []wordidx.WordID {
	next := make([]wordidx.WordID, 0, t.order-1)
	next = append(next, history...)
	next = append(next, wordID)
	if len(next) > t.order-1 {
		next = next[len(next)-(t.order-1):]
	}
	return next
}
