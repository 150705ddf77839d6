package pipeline

import (
	"image"
	"sync"

	"github.com/Fepozopo/dithr/pkg/stdimg"
)

// CacheState is the state of the single-slot raw capture cache.
type CacheState int

const (
	NoCache CacheState = iota
	Cached
)

func (s CacheState) String() string {
	if s == Cached {
		return "cached"
	}
	return "no-cache"
}

// Cache holds at most one raw capture and the scale it was taken at.
//
// The cache owns its buffer: Store keeps a private copy and Lookup hands out
// copies, so no pipeline stage can scribble over the cached pixels.
type Cache struct {
	mu    sync.Mutex
	state CacheState
	buf   *image.NRGBA
	scale int
}

// State returns the current state.
func (c *Cache) State() CacheState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Scale returns the cached scale, or 0 in NoCache.
func (c *Cache) Scale() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Cached {
		return 0
	}
	return c.scale
}

// Lookup returns a copy of the cached buffer if one exists for scale.
func (c *Cache) Lookup(scale int) (*image.NRGBA, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Cached || c.scale != scale {
		return nil, false
	}
	return stdimg.CloneNRGBA(c.buf), true
}

// Store replaces whatever is cached with buf at scale. Cached -> Cached and
// NoCache -> Cached are both a single atomic swap.
func (c *Cache) Store(buf *image.NRGBA, scale int) {
	if buf == nil {
		return
	}
	cp := stdimg.CloneNRGBA(buf)
	c.mu.Lock()
	c.buf = cp
	c.scale = scale
	c.state = Cached
	c.mu.Unlock()
}

// Invalidate drops the cached buffer and returns to NoCache.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.buf = nil
	c.scale = 0
	c.state = NoCache
	c.mu.Unlock()
}
