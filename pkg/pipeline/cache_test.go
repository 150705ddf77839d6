package pipeline

import (
	"image"
	"testing"
)

func TestCacheStateMachine(t *testing.T) {
	var c Cache
	if c.State() != NoCache || c.Scale() != 0 {
		t.Fatalf("zero cache should be NoCache, got %v/%d", c.State(), c.Scale())
	}
	if _, ok := c.Lookup(10); ok {
		t.Fatalf("lookup on empty cache must miss")
	}

	buf := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	buf.Pix[0] = 42
	c.Store(buf, 10)
	if c.State() != Cached || c.Scale() != 10 {
		t.Fatalf("after Store want Cached/10, got %v/%d", c.State(), c.Scale())
	}

	// the cache keeps its own copy
	buf.Pix[0] = 7
	got, ok := c.Lookup(10)
	if !ok || got.Pix[0] != 42 {
		t.Fatalf("Lookup = %v, %v; want cached copy with 42", got, ok)
	}
	got.Pix[0] = 99
	again, _ := c.Lookup(10)
	if again.Pix[0] != 42 {
		t.Fatalf("Lookup must hand out copies")
	}

	if _, ok := c.Lookup(20); ok {
		t.Fatalf("lookup at a different scale must miss")
	}

	c.Store(image.NewNRGBA(image.Rect(0, 0, 4, 4)), 20)
	if c.Scale() != 20 {
		t.Fatalf("Cached -> Cached should replace the scale, got %d", c.Scale())
	}

	c.Store(nil, 30)
	if c.Scale() != 20 {
		t.Fatalf("nil Store must be ignored")
	}

	c.Invalidate()
	if c.State() != NoCache {
		t.Fatalf("Invalidate should return to NoCache")
	}
	if _, ok := c.Lookup(20); ok {
		t.Fatalf("lookup after Invalidate must miss")
	}
	if NoCache.String() != "no-cache" || Cached.String() != "cached" {
		t.Fatalf("unexpected state names %q %q", NoCache, Cached)
	}
}
