// Package pool implements the concurrent decode worker model of spec §5:
// "multiple sentences decode in parallel on separate worker threads", bounded
// by a configured worker count, with each in-flight decode individually
// cancellable.
package pool

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/bpbd-project/decoder-core/pkg/decoder"
)

// Result is the outcome of one decode job.
type Result struct {
	ID   uuid.UUID
	Text string
	Err  error
}

// Handle refers to one in-flight or completed decode job.
type Handle struct {
	ID   uuid.UUID
	stop *decoder.StopFlag
	done chan Result
}

// Cancel signals cooperative cancellation for this job (spec §5, §7). It is
// safe to call Cancel after the job has already finished.
func (h *Handle) Cancel() {
	h.stop.Set()
}

// Wait blocks until the job completes and returns its Result.
func (h *Handle) Wait() Result {
	return <-h.done
}

// Pool bounds the number of sentences decoded at once over a shared Decoder.
// The Decoder itself holds no per-decode state (spec §5), so the pool's only
// job is admission control and per-job lifecycle tracking.
type Pool struct {
	dec *decoder.Decoder
	sem *semaphore.Weighted

	mu      sync.Mutex
	running map[uuid.UUID]*Handle
}

// New returns a Pool that runs at most maxWorkers decodes concurrently over
// dec. maxWorkers <= 0 is treated as 1.
func New(dec *decoder.Decoder, maxWorkers int) *Pool {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	return &Pool{
		dec:     dec,
		sem:     semaphore.NewWeighted(int64(maxWorkers)),
		running: make(map[uuid.UUID]*Handle),
	}
}

// Dispatch submits tokens for decoding. It blocks until a worker slot is
// free (returning ctx's error if ctx is cancelled first), then starts the
// decode on its own goroutine and returns a Handle for tracking or
// cancelling it.
func (p *Pool) Dispatch(ctx context.Context, tokens []string) (*Handle, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}

	h := &Handle{
		ID:   uuid.New(),
		stop: decoder.NewStopFlag(),
		done: make(chan Result, 1),
	}

	p.mu.Lock()
	p.running[h.ID] = h
	p.mu.Unlock()

	go func() {
		defer p.sem.Release(1)
		defer func() {
			p.mu.Lock()
			delete(p.running, h.ID)
			p.mu.Unlock()
		}()
		text, err := p.dec.Decode(ctx, tokens, h.stop)
		h.done <- Result{ID: h.ID, Text: text, Err: err}
	}()

	return h, nil
}

// Cancel signals cancellation for a running job by ID. It is a no-op if no
// job with that ID is currently running.
func (p *Pool) Cancel(id uuid.UUID) {
	p.mu.Lock()
	h, ok := p.running[id]
	p.mu.Unlock()
	if ok {
		h.Cancel()
	}
}

// Running returns the number of jobs currently admitted and in flight.
func (p *Pool) Running() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.running)
}
