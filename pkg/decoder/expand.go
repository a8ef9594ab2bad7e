package decoder

import (
	"fmt"

	"github.com/bpbd-project/decoder-core/pkg/bitset"
	"github.com/bpbd-project/decoder-core/pkg/hypothesis"
	"github.com/bpbd-project/decoder-core/pkg/rm"
	"github.com/bpbd-project/decoder-core/pkg/sentence"
	"github.com/bpbd-project/decoder-core/pkg/score"
	"github.com/bpbd-project/decoder-core/pkg/stack"
	"github.com/bpbd-project/decoder-core/pkg/wordidx"
)

// expandOne implements the per-candidate loop of spec §4.8: for every
// uncovered source span within the configured length and distortion bounds,
// for every translation option on that span, compute the successor
// hypothesis's g' and h' and submit it to the stack level matching its new
// coverage cardinality.
func (d *Decoder) expandOne(ref hypothesis.Ref, arena *hypothesis.Arena, src []wordidx.WordID, sentMap *sentence.Map, levels []*stack.Level, stop *StopFlag) error {
	h := arena.Get(ref)
	L := len(src)
	maxSrcLen := d.params.Decoder.MaxSourcePhraseLength
	maxTgtLen := d.params.Decoder.MaxTargetPhraseLength
	distLimit := d.params.RM.DistortionLimit

	isRoot := h.LastSpan.Start < 0

	for s := 0; s < L; s++ {
		for e := s; e < L && e-s+1 <= maxSrcLen; e++ {
			if stop != nil && stop.IsSet() {
				return nil
			}
			if !h.Coverage.SpanClear(s, e) {
				continue
			}
			jump := s - (h.LastSpan.End + 1)
			if absInt(jump) > distLimit {
				continue
			}

			entries := sentMap.Cell(s, e)
			if len(entries) == 0 {
				continue
			}
			srcUID := wordidx.CombinePhrase(src[s : e+1])
			newSpan := bitset.Span{Start: s, End: e}

			var fromPrev, fromNext rm.Orientation
			if isRoot {
				fromPrev, fromNext = rm.Monotone, rm.Monotone
			} else {
				fromPrev = rm.Classify(h.LastSpan, newSpan)
				fromNext = rm.Classify(newSpan, h.LastSpan)
			}

			for _, entry := range entries {
				if len(entry.TargetWords) > maxTgtLen {
					continue
				}

				history := make([]wordidx.WordID, len(h.LMHistory))
				copy(history, h.LMHistory)
				var lmContrib score.Score
				for _, w := range entry.TargetWords {
					lmContrib += d.lmTrie.Prob(history, w)
					history = d.lmTrie.AppendHistory(history, w)
				}

				rmContrib := d.rmStore.SumFeatures(srcUID, entry.TargetUID, fromPrev, fromNext)
				distPenalty := score.Score(d.params.RM.LinDistPenalty) * score.Score(absInt(jump))
				wordPenalty := d.params.TM.WordPenalty * float32(len(entry.TargetWords))
				phrasePenalty := d.params.TM.PhrasePenalty

				gPrime := h.G + entry.Total + lmContrib + rmContrib + distPenalty + wordPenalty + phrasePenalty

				newCov := h.Coverage.WithSpanSet(s, e)
				newRef := arena.New(hypothesis.State{
					Parent:      ref,
					TargetWords: entry.TargetWords,
					Coverage:    newCov,
					LastSpan:    newSpan,
					LMHistory:   history,
					G:           gPrime,
					H:           sentMap.CoverageFutureCost(newCov),
					Key:         hypothesis.Key(newCov, e, history),
				})

				targetLevel := newCov.PopCount()
				if targetLevel < 0 || targetLevel >= len(levels) {
					return &InvariantError{Msg: fmt.Sprintf("successor coverage cardinality %d out of range [0,%d]", targetLevel, len(levels)-1)}
				}
				levels[targetLevel].Add(newRef, stop.IsSet)
			}
		}
	}
	return nil
}
