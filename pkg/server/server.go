package server

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/bpbd-project/decoder-core/pkg/config"
	"github.com/bpbd-project/decoder-core/pkg/decoder"
	"github.com/bpbd-project/decoder-core/pkg/pool"
)

// Server handles decode requests over MessagePack-encoded stdin/stdout.
type Server struct {
	configPath string
	out        io.Writer

	mu  sync.RWMutex
	dec *decoder.Decoder
	cfg *config.Params

	pool *pool.Pool

	msgDecoder   *msgpack.Decoder
	writeMutex   sync.Mutex
	requestCount int64
}

// NewServer wraps dec for IPC over stdin/stdout, reloading cfg from
// configPath periodically (spec §6: runtime parameters are reloadable
// without restarting the process or reloading models).
func NewServer(dec *decoder.Decoder, cfg *config.Params, configPath string) *Server {
	return newServer(dec, cfg, configPath, os.Stdin, os.Stdout)
}

// newServer is the io.Reader/io.Writer-parameterized constructor behind
// NewServer, split out so tests can drive the protocol without real stdio.
func newServer(dec *decoder.Decoder, cfg *config.Params, configPath string, in io.Reader, out io.Writer) *Server {
	return &Server{
		configPath: configPath,
		out:        out,
		dec:        dec,
		cfg:        cfg,
		pool:       pool.New(dec, cfg.Pool.MaxWorkers),
		msgDecoder: msgpack.NewDecoder(in),
	}
}

// reloadConfig reloads configuration from configPath and rebuilds the
// decoder and pool against the loaded parameters, whether or not they
// differ from the current ones.
func (s *Server) reloadConfig() {
	if s.configPath == "" {
		return
	}
	newCfg, err := config.LoadConfig(s.configPath)
	if err != nil {
		log.Warnf("failed to reload config, keeping current: %v", err)
		return
	}

	s.mu.Lock()
	s.cfg = newCfg
	s.dec = s.dec.WithParams(*newCfg)
	s.pool = pool.New(s.dec, newCfg.Pool.MaxWorkers)
	s.mu.Unlock()

	log.Debugf("config reloaded from: %s", s.configPath)
}

func (s *Server) currentDecoder() *decoder.Decoder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dec
}

// Start begins listening for decode requests on stdin. It returns nil when
// the client disconnects (EOF). Any other request error is logged and the
// loop goes on to the next request, so Start never returns a non-nil error.
func (s *Server) Start() error {
	log.Debug("starting MessagePack decode server")
	for {
		if err := s.processRequest(); err != nil {
			if err == io.EOF {
				log.Debug("client disconnected")
				return nil
			}
			log.Errorf("request error: %v", err)
			continue
		}
	}
}

// processRequest handles a single decode request.
func (s *Server) processRequest() error {
	reqNum := atomic.AddInt64(&s.requestCount, 1)
	if reqNum%100 == 0 {
		s.reloadConfig()
	}

	var req DecodeRequest
	if err := s.msgDecoder.Decode(&req); err != nil {
		return err
	}
	log.Debugf("received decode request id=%s tokens=%d", req.ID, len(req.Tokens))

	start := time.Now()
	text, err := s.currentDecoder().Decode(context.Background(), req.Tokens, nil)
	elapsed := time.Since(start)

	if err != nil {
		return s.sendError(req.ID, err.Error(), 500)
	}
	return s.sendResponse(&DecodeResponse{
		ID:        req.ID,
		Text:      text,
		TimeTaken: elapsed.Microseconds(),
	})
}

// sendResponse encodes and writes a MessagePack response atomically.
func (s *Server) sendResponse(response any) error {
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()

	var buf bytes.Buffer
	if err := msgpack.NewEncoder(&buf).Encode(response); err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}
	if _, err := s.out.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}
	return nil
}

func (s *Server) sendError(id, message string, code int) error {
	return s.sendResponse(&DecodeError{ID: id, Error: message, Code: code})
}
