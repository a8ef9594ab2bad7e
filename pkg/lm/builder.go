package lm

import (
	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"

	"github.com/bpbd-project/decoder-core/internal/logger"
	"github.com/bpbd-project/decoder-core/pkg/score"
	"github.com/bpbd-project/decoder-core/pkg/wordidx"
)

// Builder incrementally constructs a Trie. Entries must be added in
// increasing order (all unigrams before any bigrams, and so on) so that a
// higher-order entry's parent context has already been assigned an ID.
//
// File-format parsing (ARPA or otherwise) is deliberately not this
// package's concern (spec §1: file-format parsers are an external
// collaborator) — see internal/modelio for the loader that feeds a
// Builder.
type Builder struct {
	order   int
	levels  []*patricia.Trie
	nextCtx uint64
	log     *log.Logger
}

// NewBuilder starts construction of a Trie of the given maximum order N.
func NewBuilder(order int) *Builder {
	levels := make([]*patricia.Trie, order)
	for i := range levels {
		levels[i] = patricia.NewTrie()
	}
	return &Builder{
		order:   order,
		levels:  levels,
		nextCtx: 1, // 0 is reserved for the root (empty) context
		log:     logger.Default("lm"),
	}
}

// AddEntry records the m-gram reached by extending parentContext with
// wordID, at the given 1-based order. For order < N a fresh context ID is
// allocated and returned so the caller can use it as the parent context for
// the next-higher order; for order == N, backoff is ignored and 0 is
// returned (there is no higher order to extend into).
func (b *Builder) AddEntry(order int, parentContext uint64, wordID wordidx.WordID, prob, backoff score.Score) uint64 {
	if order < 1 || order > b.order {
		b.log.Errorf("AddEntry: order %d out of range [1,%d]", order, b.order)
		return 0
	}
	e := entry{prob: prob}
	var assigned uint64
	if order < b.order {
		assigned = b.nextCtx
		b.nextCtx++
		e.backoff = backoff
		e.ctx = assigned
	}
	b.levels[order-1].Insert(encodeKey(parentContext, wordID), e)
	return assigned
}

// Finalize returns the constructed, read-only Trie.
func (b *Builder) Finalize() *Trie {
	return &Trie{
		order:  b.order,
		levels: b.levels,
		log:    b.log,
	}
}
