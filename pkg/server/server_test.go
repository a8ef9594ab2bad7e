package server

import (
	"bytes"
	"io"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/bpbd-project/decoder-core/pkg/config"
	"github.com/bpbd-project/decoder-core/pkg/decoder"
	"github.com/bpbd-project/decoder-core/pkg/lm"
	"github.com/bpbd-project/decoder-core/pkg/rm"
	"github.com/bpbd-project/decoder-core/pkg/score"
	"github.com/bpbd-project/decoder-core/pkg/tm"
	"github.com/bpbd-project/decoder-core/pkg/wordidx"
)

func testDecoder(t *testing.T) *decoder.Decoder {
	t.Helper()
	idx := wordidx.New()
	idx.AddIfAbsent("<s>")
	idx.AddIfAbsent("</s>")
	hola := idx.AddIfAbsent("hola")
	hello := idx.AddIfAbsent("hello")

	tmStore := tm.NewStore(tm.Config{TransLim: 3, MinTransProb: -1000, UnknownTotal: -100, UnknownPEF: -100})
	tmStore.Build().AddEntries(wordidx.CombinePhrase([]wordidx.WordID{hola}), []tm.Entry{
		{TargetUID: wordidx.CombinePhrase([]wordidx.WordID{hello}), TargetWords: []wordidx.WordID{hello}, Total: -1},
	})
	rmStore := rm.NewStore([6]score.Score{})
	lmTrie := lm.NewBuilder(2).Finalize()

	p := *config.DefaultConfig()
	p.Decoder.PruningThreshold = 1000
	p.Decoder.StackCapacity = 0
	return decoder.New(idx, lmTrie, tmStore, rmStore, p)
}

func encodeRequest(t *testing.T, req DecodeRequest) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := msgpack.NewEncoder(&buf).Encode(&req); err != nil {
		t.Fatalf("failed to encode request: %v", err)
	}
	return buf.Bytes()
}

func TestProcessRequestWritesDecodeResponse(t *testing.T) {
	dec := testDecoder(t)
	cfg := config.DefaultConfig()
	in := bytes.NewReader(encodeRequest(t, DecodeRequest{ID: "r1", Tokens: []string{"hola"}}))
	var out bytes.Buffer

	s := newServer(dec, cfg, "", in, &out)
	if err := s.processRequest(); err != nil {
		t.Fatalf("processRequest failed: %v", err)
	}

	var resp DecodeResponse
	if err := msgpack.NewDecoder(&out).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != "r1" {
		t.Errorf("response ID = %q, want \"r1\"", resp.ID)
	}
	if resp.Text != "hello" {
		t.Errorf("response Text = %q, want \"hello\"", resp.Text)
	}
}

func TestProcessRequestReturnsEOFOnEmptyStream(t *testing.T) {
	dec := testDecoder(t)
	cfg := config.DefaultConfig()
	s := newServer(dec, cfg, "", bytes.NewReader(nil), &bytes.Buffer{})

	err := s.processRequest()
	if err != io.EOF {
		t.Errorf("processRequest on an empty stream = %v, want io.EOF", err)
	}
}

func TestStartReturnsNilOnClientDisconnect(t *testing.T) {
	dec := testDecoder(t)
	cfg := config.DefaultConfig()
	s := newServer(dec, cfg, "", bytes.NewReader(nil), &bytes.Buffer{})

	if err := s.Start(); err != nil {
		t.Errorf("Start() on immediate EOF = %v, want nil", err)
	}
}

func TestSendErrorEncodesDecodeError(t *testing.T) {
	dec := testDecoder(t)
	cfg := config.DefaultConfig()
	var out bytes.Buffer
	s := newServer(dec, cfg, "", bytes.NewReader(nil), &out)

	if err := s.sendError("bad-req", "boom", 500); err != nil {
		t.Fatalf("sendError failed: %v", err)
	}

	var decErr DecodeError
	if err := msgpack.NewDecoder(&out).Decode(&decErr); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if decErr.ID != "bad-req" || decErr.Error != "boom" || decErr.Code != 500 {
		t.Errorf("sendError wrote %+v, want ID=bad-req Error=boom Code=500", decErr)
	}
}
