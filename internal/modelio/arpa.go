// Package modelio holds the narrow, external-collaborator file readers the
// decoder core depends on but does not implement itself (spec §1:
// "file-format parsers for TM/RM/LM files" are out of scope for the core).
// Each reader's job ends the moment it has fed a model package's Builder;
// it never touches decode-time behaviour.
package modelio

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/bpbd-project/decoder-core/pkg/lm"
	"github.com/bpbd-project/decoder-core/pkg/score"
	"github.com/bpbd-project/decoder-core/pkg/wordidx"
)

// ReadARPA parses a (reduced) ARPA-format language model — the format
// used by SRILM/KenLM and, in spirit, by kho-fslm's arpa.go reader — and
// returns a fully built lm.Trie. Words are interned into idx as they are
// encountered.
//
// Accepted line shapes, one \N-grams: section per order 1..N:
//
//	prob\tword1 [word2 ...]\t[backoff]
//
// backoff is present on every order except the last (N).
func ReadARPA(r io.Reader, idx *wordidx.Index, order int) (*lm.Trie, error) {
	b := lm.NewBuilder(order)
	contextOf := make(map[string]uint64)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	section := 0 // 0 = preamble, 1..order = inside \k-grams:
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line == `\data\` || line == `\end\` {
			continue
		}
		if strings.HasPrefix(line, `\`) && strings.HasSuffix(line, `-grams:`) {
			n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(line, `\`), "-grams:"))
			if err != nil || n < 1 || n > order {
				return nil, fmt.Errorf("modelio: bad ARPA section header %q", line)
			}
			section = n
			continue
		}
		if strings.HasPrefix(line, `ngram `) || section == 0 {
			continue // n-gram count preamble line, irrelevant to construction
		}

		fields := strings.Fields(line)
		minFields := section + 1 // prob + section words
		if len(fields) < minFields {
			return nil, fmt.Errorf("modelio: malformed %d-gram line %q", section, line)
		}
		prob, err := strconv.ParseFloat(fields[0], 32)
		if err != nil {
			return nil, fmt.Errorf("modelio: bad probability in %q: %w", line, err)
		}
		words := fields[1 : 1+section]
		var backoff float64
		if section < order && len(fields) > minFields {
			backoff, err = strconv.ParseFloat(fields[minFields], 32)
			if err != nil {
				return nil, fmt.Errorf("modelio: bad back-off in %q: %w", line, err)
			}
		}

		ids := make([]wordidx.WordID, len(words))
		for i, w := range words {
			if w == "<unk>" {
				ids[i] = wordidx.Unknown
			} else {
				ids[i] = idx.AddIfAbsent(w)
			}
		}

		var parentCtx uint64
		if section > 1 {
			key := prefixKey(ids[:len(ids)-1])
			ctx, ok := contextOf[key]
			if !ok {
				return nil, fmt.Errorf("modelio: %d-gram %q seen before its prefix", section, line)
			}
			parentCtx = ctx
		}
		assigned := b.AddEntry(section, parentCtx, ids[len(ids)-1], score.Score(prob), score.Score(backoff))
		if section < order {
			contextOf[prefixKey(ids)] = assigned
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	log.Debugf("modelio: loaded ARPA model of order %d", order)
	return b.Finalize(), nil
}

func prefixKey(ids []wordidx.WordID) string {
	var sb strings.Builder
	for _, id := range ids {
		sb.WriteString(strconv.FormatUint(uint64(id), 36))
		sb.WriteByte('/')
	}
	return sb.String()
}
