// Package cli provides an interactive line-based front end for the decoder,
// used for debugging and manual testing outside the IPC server.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/bpbd-project/decoder-core/pkg/decoder"
)

// InputHandler reads whitespace-tokenized source sentences from stdin, runs
// them through a Decoder, and prints the 1-best translation.
type InputHandler struct {
	dec          *decoder.Decoder
	requestCount int
}

// NewInputHandler wraps dec for interactive line-at-a-time decoding.
func NewInputHandler(dec *decoder.Decoder) *InputHandler {
	return &InputHandler{dec: dec}
}

// Start begins the input loop. It continuously prompts for a line, tokenizes
// it on whitespace, and prints the decoded translation. The loop terminates
// when stdin is closed.
func (h *InputHandler) Start() error {
	log.Print("bpbd-decoder CLI [BETA]")
	reader := bufio.NewReader(os.Stdin)
	log.Print("type a sentence and press Enter to translate it (Ctrl+C to exit):")

	for {
		log.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		h.handleInput(line)
	}
}

// handleInput tokenizes one line and runs it through the decoder.
func (h *InputHandler) handleInput(line string) {
	h.requestCount++
	tokens := strings.Fields(line)

	start := time.Now()
	log.Debug("decoding request", "tokens", len(tokens))

	translation, err := h.dec.Decode(context.Background(), tokens, nil)
	elapsed := time.Since(start)

	if err != nil {
		log.Errorf("decode failed after %v: %v", elapsed, err)
		return
	}

	log.Debugf("took [ %v ] for %d source tokens", elapsed, len(tokens))
	clText := fmt.Sprintf("\033[38;5;75m%s\033[0m", translation)
	log.Printf("-> %s", clText)
}
