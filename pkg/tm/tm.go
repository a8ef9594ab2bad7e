// Package tm implements the phrase translation model store of spec §4.3:
// for each source phrase, a bounded, score-sorted list of target phrase
// entries with pre-summed log-linear feature weights.
package tm

import (
	"sort"
	"sync"

	"github.com/bpbd-project/decoder-core/pkg/score"
	"github.com/bpbd-project/decoder-core/pkg/wordidx"
)

// MaxFeatures is the maximum number of TM feature weights retained per
// entry. The source model format asserts at least 3 and pins feature index
// 2 as p(e|f) (spec §9 open question — mirrored, not re-derived).
const MaxFeatures = 4

// PEFFeatureIndex is the conventional index of the p(e|f) feature.
const PEFFeatureIndex = 2

// Entry is one target-phrase translation option for a source phrase.
type Entry struct {
	TargetUID   wordidx.PhraseID
	TargetWords []wordidx.WordID
	Features    [MaxFeatures]score.Score
	Total       score.Score // sum of Features, precomputed at load time
}

// PEF returns the p(e|f) feature, retained separately for
// reordering-independent diagnostics (spec §4.3).
func (e Entry) PEF() score.Score {
	return e.Features[PEFFeatureIndex]
}

// Store holds, for every known source phrase, its translation entries.
type Store struct {
	mu        sync.RWMutex
	entries   map[wordidx.PhraseID][]Entry
	unkEntry  Entry
	transLim  int
	minProb   score.Score
}

// Config carries the TM-related decoder parameters needed at query time
// (spec §6: tm_trans_lim, tm_min_trans_prob, and the UNK->UNK defaults).
type Config struct {
	TransLim      int
	MinTransProb  score.Score
	UnknownTotal  score.Score
	UnknownPEF    score.Score
}

// NewStore returns an empty store configured with the given query-time
// limits and UNK->UNK fallback entry.
func NewStore(cfg Config) *Store {
	unk := Entry{
		TargetUID:   wordidx.PhraseUnknown,
		TargetWords: []wordidx.WordID{wordidx.Unknown},
		Total:       cfg.UnknownTotal,
	}
	unk.Features[PEFFeatureIndex] = cfg.UnknownPEF
	return &Store{
		entries:  make(map[wordidx.PhraseID][]Entry),
		unkEntry: unk,
		transLim: cfg.TransLim,
		minProb:  cfg.MinTransProb,
	}
}

// EntriesFor returns the (at most TransLim) target entries for srcUID,
// sorted by descending Total, falling back to the singleton UNK->UNK entry
// when srcUID is unmodelled (spec §4.3).
func (s *Store) EntriesFor(srcUID wordidx.PhraseID) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries, ok := s.entries[srcUID]
	if !ok || len(entries) == 0 {
		return []Entry{s.unkEntry}
	}
	if len(entries) > s.transLim {
		return entries[:s.transLim]
	}
	return entries
}

// Build returns a Builder for populating this store from a model loader.
func (s *Store) Build() *Builder {
	return &Builder{store: s}
}

// Builder incrementally populates a Store; AddEntries sorts and applies the
// configured minimum-probability floor and TM_TRANS_LIM once per source
// phrase, matching the "bounded list... sorted by descending total"
// contract of spec §4.3.
type Builder struct {
	store *Store
}

// AddEntries registers the full translation list for one source phrase.
// Entries falling below the store's configured minimum probability floor
// are dropped before sorting and truncation.
func (b *Builder) AddEntries(srcUID wordidx.PhraseID, entries []Entry) {
	filtered := entries[:0:0]
	for _, e := range entries {
		if e.Total >= b.store.minProb {
			filtered = append(filtered, e)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Total > filtered[j].Total
	})
	if len(filtered) > b.store.transLim {
		filtered = filtered[:b.store.transLim]
	}
	b.store.mu.Lock()
	defer b.store.mu.Unlock()
	b.store.entries[srcUID] = filtered
}
