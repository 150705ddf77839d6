// Package pipeline runs capture -> levels -> dither and decides when a cached
// capture may stand in for a fresh one.
package pipeline

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Fepozopo/dithr/pkg/logging"
	"github.com/Fepozopo/dithr/pkg/preview"
	"github.com/Fepozopo/dithr/pkg/source"
	"github.com/Fepozopo/dithr/pkg/stdimg"
)

// Params are the knobs of a single run.
type Params struct {
	Scale     int
	Levels    stdimg.Levels
	Palette   stdimg.Palette
	Algorithm string
}

// DefaultParams returns scale 10%, identity levels, black/white and Floyd-Steinberg.
func DefaultParams() Params {
	return Params{
		Scale:     preview.DefaultScale,
		Levels:    stdimg.DefaultLevels(),
		Palette:   stdimg.DefaultPalette(),
		Algorithm: stdimg.DefaultAlgorithm,
	}
}

// Change is a bit set of the parameters that differ between two Params.
type Change uint8

const (
	ChangeScale Change = 1 << iota
	ChangeLevels
	ChangePalette
	ChangeAlgorithm
)

// Has reports whether all bits of o are set in c.
func (c Change) Has(o Change) bool { return c&o == o }

// Diff returns which fields of p differ from old.
func (p Params) Diff(old Params) Change {
	var c Change
	if p.Scale != old.Scale {
		c |= ChangeScale
	}
	if p.Levels != old.Levels {
		c |= ChangeLevels
	}
	if !samePalette(p.Palette, old.Palette) {
		c |= ChangePalette
	}
	if p.Algorithm != old.Algorithm {
		c |= ChangeAlgorithm
	}
	return c
}

func samePalette(a, b stdimg.Palette) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].R != b[i].R || a[i].G != b[i].G || a[i].B != b[i].B {
			return false
		}
	}
	return true
}

// Request asks for a run. ReuseCache allows a cached capture at the same scale
// to replace a fresh capture.
type Request struct {
	Params     Params
	ReuseCache bool
}

// Result is a finished run.
type Result struct {
	RunID     string
	Buffer    *image.NRGBA
	Size      preview.Size
	Params    Params
	FromCache bool
	Duration  time.Duration
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger overrides the component logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.log = l }
}

// Pipeline owns the capture cache and the current parameters.
type Pipeline struct {
	src   source.Capturer
	cache Cache
	log   *slog.Logger

	mu     sync.Mutex
	params Params
}

// New returns a pipeline in the NoCache state with DefaultParams.
func New(src source.Capturer, opts ...Option) *Pipeline {
	p := &Pipeline{
		src:    src,
		params: DefaultParams(),
		log:    logging.WithComponent(logging.ComponentPipeline),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Params returns the current parameters.
func (p *Pipeline) Params() Params {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.params
}

// CacheState exposes the cache state for status display.
func (p *Pipeline) CacheState() (CacheState, int) {
	return p.cache.State(), p.cache.Scale()
}

// SetParams makes next the current parameters. A scale change invalidates the
// cache; levels, palette and algorithm changes leave it alone.
func (p *Pipeline) SetParams(next Params) Change {
	p.mu.Lock()
	ch := next.Diff(p.params)
	p.params = next
	p.mu.Unlock()
	if ch.Has(ChangeScale) {
		p.cache.Invalidate()
		p.log.Debug("cache invalidated", "scale", next.Scale)
	}
	return ch
}

// InvalidateCache forces the next run to capture, e.g. after a new document is opened.
func (p *Pipeline) InvalidateCache() {
	p.cache.Invalidate()
}

// Reprocess makes req.Params current and produces a dithered buffer.
//
// The cached capture is used only when it exists, was taken at the requested
// scale and req.ReuseCache is set. Otherwise the source is captured; the cache
// is replaced on success and left untouched on failure. Capture errors are
// returned wrapped but otherwise unchanged, without retries.
func (p *Pipeline) Reprocess(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	runID := uuid.NewString()
	params := req.Params
	log := p.log.With("run_id", runID)

	if len(params.Palette) == 0 {
		return nil, stdimg.ErrInvalidPalette
	}
	if _, err := stdimg.LookupAlgorithm(params.Algorithm); err != nil {
		return nil, err
	}
	p.SetParams(params)

	var raw *image.NRGBA
	fromCache := false
	if req.ReuseCache {
		raw, fromCache = p.cache.Lookup(params.Scale)
	}
	if !fromCache {
		captured, err := p.src.Capture(ctx, params.Scale)
		if err != nil {
			log.Warn("capture failed", "scale", params.Scale, "error", err)
			return nil, fmt.Errorf("reprocess: %w", err)
		}
		p.cache.Store(captured, params.Scale)
		raw = captured
	}

	out, err := Process(raw, params)
	if err != nil {
		return nil, err
	}
	b := out.Bounds()
	res := &Result{
		RunID:     runID,
		Buffer:    out,
		Size:      preview.Size{Width: b.Dx(), Height: b.Dy()},
		Params:    params,
		FromCache: fromCache,
		Duration:  time.Since(start),
	}
	log.Debug("run finished", "scale", params.Scale, "width", res.Size.Width, "height", res.Size.Height,
		"from_cache", fromCache, "duration", res.Duration)
	return res, nil
}

// Process applies levels then the selected algorithm. It takes ownership of
// raw: the levels stage rewrites it in place and the ditherer returns a new buffer.
func Process(raw *image.NRGBA, params Params) (*image.NRGBA, error) {
	if raw == nil {
		return nil, fmt.Errorf("process: nil buffer")
	}
	algo, err := stdimg.LookupAlgorithm(params.Algorithm)
	if err != nil {
		return nil, err
	}
	stdimg.ApplyLevelsInPlace(raw, params.Levels)
	return algo.Dither(raw, params.Palette)
}
