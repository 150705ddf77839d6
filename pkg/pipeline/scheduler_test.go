package pipeline

import (
	"context"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/Fepozopo/dithr/pkg/stdimg"
)

type collected struct {
	mu      sync.Mutex
	results []*Result
	errs    []error
	ch      chan struct{}
}

func newCollected() *collected { return &collected{ch: make(chan struct{}, 16)} }

func (c *collected) add(r *Result, err error) {
	c.mu.Lock()
	c.results = append(c.results, r)
	c.errs = append(c.errs, err)
	c.mu.Unlock()
	c.ch <- struct{}{}
}

func (c *collected) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.results)
}

func TestSchedulerCoalescesBurst(t *testing.T) {
	src := &fakeSource{w: 2, h: 2, fill: gray(128)}
	p := newTestPipeline(src)
	got := newCollected()
	s := NewScheduler(p, time.Hour, got.add)
	defer s.Stop()

	for scale := 5; scale <= 25; scale += 5 {
		params := DefaultParams()
		params.Scale = scale
		s.Request(Request{Params: params})
	}
	s.Flush()

	if src.calls() != 1 || src.scales[0] != 25 {
		t.Fatalf("burst should collapse into one run at the last scale, got %v", src.scales)
	}
	if got.count() != 1 || got.results[0].Params.Scale != 25 {
		t.Fatalf("expected exactly one result for scale 25, got %d", got.count())
	}
	s.Flush()
	if got.count() != 1 {
		t.Fatalf("Flush with nothing pending must not run")
	}
}

func TestSchedulerFiresAfterDelay(t *testing.T) {
	src := &fakeSource{w: 2, h: 2, fill: gray(0)}
	p := newTestPipeline(src)
	got := newCollected()
	s := NewScheduler(p, 5*time.Millisecond, got.add)
	defer s.Stop()

	s.Request(Request{Params: DefaultParams()})
	select {
	case <-got.ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timer never fired")
	}
	if got.errs[0] != nil {
		t.Fatalf("unexpected error %v", got.errs[0])
	}
}

// blockingSource blocks its first capture until release is closed.
type blockingSource struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingSource) Capture(ctx context.Context, scale int) (*image.NRGBA, error) {
	first := false
	b.once.Do(func() { first = true })
	if first {
		close(b.started)
		<-b.release
	}
	return stdimg.FillNRGBA(2, 2, gray(200)), nil
}

func TestSchedulerSupersedesInFlightRun(t *testing.T) {
	src := &blockingSource{started: make(chan struct{}), release: make(chan struct{})}
	p := newTestPipeline(src)
	got := newCollected()
	s := NewScheduler(p, time.Hour, got.add)
	defer s.Stop()

	first := DefaultParams()
	s.Request(Request{Params: first})
	done := make(chan struct{})
	go func() {
		s.Flush()
		close(done)
	}()
	<-src.started

	second := DefaultParams()
	second.Levels = stdimg.Levels{Black: 0, Mid: 1, White: 200}
	s.Request(Request{Params: second, ReuseCache: true})
	close(src.release)
	<-done
	if got.count() != 0 {
		t.Fatalf("superseded run must not deliver a result")
	}

	s.Flush()
	if got.count() != 1 {
		t.Fatalf("expected one result, got %d", got.count())
	}
	res := got.results[0]
	if res.Params.Levels != second.Levels || !res.FromCache {
		t.Fatalf("expected newest params served from cache, got %+v", res)
	}
}

func TestSchedulerStopDropsPending(t *testing.T) {
	src := &fakeSource{w: 2, h: 2}
	p := newTestPipeline(src)
	got := newCollected()
	s := NewScheduler(p, time.Hour, got.add)
	s.Request(Request{Params: DefaultParams()})
	s.Stop()
	s.Flush()
	s.Request(Request{Params: DefaultParams()})
	s.Flush()
	if src.calls() != 0 || got.count() != 0 {
		t.Fatalf("stopped scheduler must not run, calls=%d results=%d", src.calls(), got.count())
	}
}
