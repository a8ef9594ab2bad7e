// Package wordidx implements the word/phrase indexing layer of the decoder
// (spec §4.1): an injective map from token strings to stable numeric IDs,
// and order-sensitive composition of word IDs into phrase and pair IDs.
//
// The index is built incrementally while model files are loaded and is then
// treated as read-only and shared across decode workers; every lookup still
// takes the read side of the index's RWMutex. The map+mutex pairing mirrors the hot-cache pattern the teacher uses for its
// word frequency trie (bastiangx-wordserve's pkg/suggest HotCache), here
// generalised from "word -> frequency" to "word -> stable ID".
package wordidx

import "sync"

// WordID is a 64-bit word identifier. Zero and one are reserved.
type WordID uint64

// PhraseID is a 64-bit identifier derived from an ordered list of word IDs.
type PhraseID uint64

// PairID identifies a (source phrase, target phrase) translation pair.
type PairID uint64

const (
	// Undefined marks an ID that was never assigned.
	Undefined WordID = 0
	// Unknown is the reserved ID for the model's <unk> token.
	Unknown WordID = 1
	// FirstValid is the first ID handed out to a real word.
	FirstValid WordID = 2
)

const (
	// PhraseUndefined mirrors WordID's Undefined sentinel for phrases.
	PhraseUndefined PhraseID = 0
	// PhraseUnknown mirrors WordID's Unknown sentinel for phrases.
	PhraseUnknown PhraseID = 1
)

// Index assigns dense, first-seen-order IDs to surface word forms.
type Index struct {
	mu      sync.RWMutex
	toID    map[string]WordID
	toText  []string // toText[id-FirstValid] = text, reverse lookup for traceback
	nextID  WordID
}

// New returns an empty index, ready to accept words.
func New() *Index {
	return &Index{
		toID:   make(map[string]WordID, 1024),
		toText: make([]string, 0, 1024),
		nextID: FirstValid,
	}
}

// AddIfAbsent returns the stable ID for text, minting a new one in
// first-seen order if this is the first time text has been seen.
func (idx *Index) AddIfAbsent(text string) WordID {
	idx.mu.RLock()
	if id, ok := idx.toID[text]; ok {
		idx.mu.RUnlock()
		return id
	}
	idx.mu.RUnlock()

	idx.mu.Lock()
	defer idx.mu.Unlock()
	// Re-check: another goroutine may have inserted while we waited for the lock.
	if id, ok := idx.toID[text]; ok {
		return id
	}
	id := idx.nextID
	idx.nextID++
	idx.toID[text] = id
	idx.toText = append(idx.toText, text)
	return id
}

// Get returns the ID assigned to text, or Unknown if it was never seen.
func (idx *Index) Get(text string) WordID {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if id, ok := idx.toID[text]; ok {
		return id
	}
	return Unknown
}

// Text reverses a word ID back to its surface form, needed to render the
// winning derivation's target text (spec §6, decode's return value).
func (idx *Index) Text(id WordID) (string, bool) {
	if id < FirstValid {
		return "", false
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	pos := int(id - FirstValid)
	if pos < 0 || pos >= len(idx.toText) {
		return "", false
	}
	return idx.toText[pos], true
}

// Size returns the number of distinct words indexed so far.
func (idx *Index) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.toText)
}

// CombinePhrase derives a stable phrase UID from an ordered list of word
// IDs. The mixing is order-sensitive (rotate-then-multiply per position) so
// that e.g. [A,B] and [B,A] never collide, matching spec §4.1's requirement
// that phrase UIDs have no accidental symmetry.
func CombinePhrase(wordIDs []WordID) PhraseID {
	if len(wordIDs) == 0 {
		return PhraseUndefined
	}
	if len(wordIDs) == 1 && wordIDs[0] == Unknown {
		return PhraseUnknown
	}
	// FNV-1a style mixing, with a per-position rotation so that position
	// within the phrase participates in the hash, not just the multiset of
	// word IDs.
	const offset64 = 1469598103934665603
	const prime64 = 1099511628211
	h := uint64(offset64)
	for i, w := range wordIDs {
		rot := uint(i%63) + 1
		mixed := (uint64(w) << rot) | (uint64(w) >> (64 - rot))
		h ^= mixed
		h *= prime64
	}
	return PhraseID(h)
}

// CombineTranslationPair derives a stable, order-dependent identifier for a
// (source phrase, target phrase) pair, used as the RM store's lookup key.
func CombineTranslationPair(srcUID, tgtUID PhraseID) PairID {
	const prime64 = 1099511628211
	h := uint64(srcUID)
	h *= prime64
	h ^= uint64(tgtUID)
	h *= prime64
	return PairID(h)
}
