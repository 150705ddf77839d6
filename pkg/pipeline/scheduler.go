package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Fepozopo/dithr/pkg/logging"
)

// Scheduler debounces reprocess requests.
//
// Policy is supersede: a new request cancels any pending timer and arms a new
// one. Runs never overlap. A run that is already in flight when a newer request
// arrives is allowed to finish, but its result is dropped; only the newest
// request's result reaches the callback.
type Scheduler struct {
	p        *Pipeline
	delay    time.Duration
	onResult func(*Result, error)
	log      *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	gen     uint64
	pending *Request
	timer   *time.Timer
	stopped bool
	wg      sync.WaitGroup

	run sync.Mutex
}

// NewScheduler returns a scheduler that runs p after delay of quiet time and
// hands each surviving result to onResult.
func NewScheduler(p *Pipeline, delay time.Duration, onResult func(*Result, error)) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		p:        p,
		delay:    delay,
		onResult: onResult,
		log:      logging.WithComponent(logging.ComponentPipeline),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Request replaces any pending request with req and restarts the quiet timer.
func (s *Scheduler) Request(req Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.gen++
	g := s.gen
	s.pending = &req
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.delay, func() { s.fire(g) })
}

// Flush runs the pending request now, on the calling goroutine.
func (s *Scheduler) Flush() {
	s.mu.Lock()
	if s.pending == nil || s.stopped {
		s.mu.Unlock()
		return
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	g := s.gen
	s.mu.Unlock()
	s.fire(g)
}

// Stop drops the pending request, cancels the in-flight capture and waits for it to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.gen++
	s.pending = nil
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) current(g uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen == g
}

func (s *Scheduler) fire(g uint64) {
	s.mu.Lock()
	if g != s.gen || s.pending == nil {
		s.mu.Unlock()
		return
	}
	req := *s.pending
	s.pending = nil
	s.timer = nil
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	s.run.Lock()
	defer s.run.Unlock()
	if !s.current(g) {
		// superseded while waiting for the previous run
		return
	}
	res, err := s.p.Reprocess(s.ctx, req)
	if !s.current(g) {
		s.log.Debug("discarding superseded result", "generation", g)
		return
	}
	if s.onResult != nil {
		s.onResult(res, err)
	}
}
