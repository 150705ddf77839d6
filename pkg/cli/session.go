package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Fepozopo/dithr/pkg/config"
	"github.com/Fepozopo/dithr/pkg/logging"
	"github.com/Fepozopo/dithr/pkg/pipeline"
	"github.com/Fepozopo/dithr/pkg/preview"
	"github.com/Fepozopo/dithr/pkg/source"
	"github.com/Fepozopo/dithr/pkg/stdimg"
)

// Renderer displays a finished result at the given zoom.
type Renderer func(res *pipeline.Result, zoomPercent int) error

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithOutput redirects user-facing messages.
func WithOutput(w io.Writer) SessionOption {
	return func(s *Session) { s.out = w }
}

// WithRenderer replaces the terminal preview.
func WithRenderer(r Renderer) SessionOption {
	return func(s *Session) { s.render = r }
}

// Session ties a host, the pipeline and its scheduler to the user's settings.
// Parameter changes are debounced; results are rendered as they arrive.
type Session struct {
	host   Host
	pipe   *pipeline.Pipeline
	sched  *pipeline.Scheduler
	out    io.Writer
	render Renderer
	log    *slog.Logger

	mu       sync.Mutex
	settings config.Settings
	params   pipeline.Params
	docName  string
	last     *pipeline.Result
	lastErr  error
}

// NewSession validates settings and wires host into a fresh pipeline.
func NewSession(host Host, settings config.Settings, opts ...SessionOption) (*Session, error) {
	params, err := settings.Params()
	if err != nil {
		return nil, err
	}
	s := &Session{
		host:     host,
		out:      os.Stdout,
		render:   RenderTerminal,
		log:      logging.WithComponent(logging.ComponentCLI),
		settings: settings,
		params:   params,
	}
	for _, o := range opts {
		o(s)
	}
	s.pipe = pipeline.New(host)
	s.pipe.SetParams(params)
	s.sched = pipeline.NewScheduler(s.pipe, settings.Debounce, s.handleResult)
	return s, nil
}

// Close stops the scheduler and releases the host.
func (s *Session) Close() {
	s.sched.Stop()
	s.host.Close()
}

func (s *Session) handleResult(res *pipeline.Result, err error) {
	s.mu.Lock()
	zoom := s.settings.Zoom
	if err != nil {
		s.lastErr = err
		s.mu.Unlock()
		switch {
		case errors.Is(err, source.ErrNoActiveDocument):
			fmt.Fprintln(s.out, "No document open. Press 'o' to open an image.")
		default:
			fmt.Fprintf(s.out, "reprocess failed: %v\n", err)
		}
		return
	}
	s.last = res
	s.lastErr = nil
	s.mu.Unlock()
	s.show(res, zoom)
}

func (s *Session) show(res *pipeline.Result, zoom int) {
	if s.render == nil || res == nil {
		return
	}
	if err := s.render(res, zoom); err != nil {
		s.log.Debug("preview unavailable", "error", err)
	}
	fmt.Fprintln(s.out, describeResult(res, zoom))
}

func describeResult(res *pipeline.Result, zoom int) string {
	cs := preview.CanvasSize(res.Size, zoom)
	src := "fresh capture"
	if res.FromCache {
		src = "cached capture"
	}
	return fmt.Sprintf("%dx%d at %d%% -> %dx%d preview (%s, %s, %s)",
		res.Size.Width, res.Size.Height, res.Params.Scale, cs.Width, cs.Height,
		preview.FeedbackFor(zoom), src, res.Duration.Round(time.Microsecond))
}

func (s *Session) schedule(reuse bool) {
	s.mu.Lock()
	params := s.params
	s.mu.Unlock()
	s.sched.Request(pipeline.Request{Params: params, ReuseCache: reuse})
}

// Flush runs any pending reprocess immediately.
func (s *Session) Flush() { s.sched.Flush() }

// Params returns the current pipeline parameters.
func (s *Session) Params() pipeline.Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

// Settings returns the current settings including zoom.
func (s *Session) Settings() config.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings.WithParams(s.params)
}

// Last returns the most recent result and the error of the most recent run.
func (s *Session) Last() (*pipeline.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.lastErr
}

// Open makes path the active document and schedules a fresh capture.
func (s *Session) Open(path string) error {
	if err := s.host.Open(path); err != nil {
		return err
	}
	s.pipe.InvalidateCache()
	s.mu.Lock()
	s.docName = path
	s.last = nil
	s.mu.Unlock()
	fmt.Fprintf(s.out, "Opened %s\n", path)
	s.schedule(false)
	return nil
}

// SetLevels applies new levels. A black point at or above the white point is
// accepted and acts as a threshold; the caller is told so.
func (s *Session) SetLevels(lv stdimg.Levels) error {
	if err := lv.Validate(); err != nil {
		if !errors.Is(err, stdimg.ErrDegenerateLevels) {
			return err
		}
		fmt.Fprintf(s.out, "warning: %v; levels act as a threshold at %d\n", err, lv.Black)
	}
	s.mu.Lock()
	s.params.Levels = lv
	s.mu.Unlock()
	s.schedule(true)
	return nil
}

// SetPalette replaces the palette.
func (s *Session) SetPalette(p stdimg.Palette) error {
	if len(p) == 0 {
		return stdimg.ErrInvalidPalette
	}
	s.mu.Lock()
	s.params.Palette = p
	s.mu.Unlock()
	s.schedule(true)
	return nil
}

// SetScale clamps and applies a new processing scale.
// A changed scale drops the cached capture right away.
func (s *Session) SetScale(percent int) {
	s.mu.Lock()
	s.params.Scale = preview.ClampScale(percent)
	params := s.params
	s.mu.Unlock()
	s.pipe.SetParams(params)
	s.schedule(true)
}

// SetZoom changes the preview zoom and redraws the last result without reprocessing.
func (s *Session) SetZoom(percent int) {
	s.mu.Lock()
	s.settings.Zoom = preview.ClampZoom(percent)
	zoom := s.settings.Zoom
	last := s.last
	s.mu.Unlock()
	if last != nil {
		s.show(last, zoom)
	}
}

// SetAlgorithm selects a registered algorithm.
func (s *Session) SetAlgorithm(name string) error {
	algo, err := stdimg.LookupAlgorithm(name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.params.Algorithm = algo.Name()
	s.mu.Unlock()
	s.schedule(true)
	return nil
}

// Reprocess runs now. With force the cached capture is ignored.
func (s *Session) Reprocess(force bool) {
	s.schedule(!force)
	s.sched.Flush()
}

// Save writes the last result at processing resolution.
func (s *Session) Save(path string) error {
	s.mu.Lock()
	last := s.last
	s.mu.Unlock()
	if last == nil {
		return errors.New("nothing to save yet")
	}
	if err := SaveImage(path, last.Buffer); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Saved to %s\n", path)
	return nil
}

// WritePreset saves the current settings as YAML.
func (s *Session) WritePreset(path string) error {
	if err := config.SavePreset(path, s.Settings()); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Preset written to %s\n", path)
	return nil
}

// LoadPreset replaces the current settings with the preset at path.
func (s *Session) LoadPreset(path string) error {
	st, err := config.LoadPreset(path)
	if err != nil {
		return err
	}
	params, err := st.Params()
	if err != nil {
		return err
	}
	s.mu.Lock()
	st.LogLevel = s.settings.LogLevel
	s.settings = st
	s.params = params
	s.mu.Unlock()
	fmt.Fprintf(s.out, "Preset loaded from %s\n", path)
	s.schedule(true)
	return nil
}

// CurrentArgs returns the current values of a command's arguments, used as
// prompt defaults.
func (s *Session) CurrentArgs(name string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.params
	switch name {
	case "levels":
		return []string{
			strconv.Itoa(int(p.Levels.Black)),
			strconv.FormatFloat(p.Levels.Mid, 'f', -1, 64),
			strconv.Itoa(int(p.Levels.White)),
		}
	case "palette":
		return []string{strings.Join(p.Palette.Hex(), ",")}
	case "scale":
		return []string{strconv.Itoa(p.Scale)}
	case "zoom":
		return []string{strconv.Itoa(s.settings.Zoom)}
	case "algorithm":
		return []string{p.Algorithm}
	}
	return nil
}

// Status is a one-line summary of the session state.
func (s *Session) Status() string {
	s.mu.Lock()
	p := s.params
	zoom := s.settings.Zoom
	doc := s.docName
	s.mu.Unlock()
	state, _ := s.pipe.CacheState()
	if doc == "" {
		doc = "(none)"
	}
	return fmt.Sprintf("document %s | scale %d%% | zoom %d%% | levels %d/%g/%d | palette %s | %s | %s",
		doc, p.Scale, zoom, p.Levels.Black, p.Levels.Mid, p.Levels.White,
		strings.Join(p.Palette.Hex(), ","), p.Algorithm, state)
}

// Execute runs a parameterised command with normalised arguments.
func (s *Session) Execute(name string, args []string) error {
	arg := func(i int) string {
		if i < len(args) {
			return args[i]
		}
		return ""
	}
	switch name {
	case "open":
		return s.Open(arg(0))
	case "levels":
		lv := s.Params().Levels
		var err error
		if lv.Black, err = parseLevelPoint("black", arg(0), lv.Black); err != nil {
			return err
		}
		if a := strings.TrimSpace(arg(1)); a != "" {
			if lv.Mid, err = strconv.ParseFloat(a, 64); err != nil {
				return fmt.Errorf("levels mid: %w", err)
			}
		}
		if lv.White, err = parseLevelPoint("white", arg(2), lv.White); err != nil {
			return err
		}
		return s.SetLevels(lv)
	case "palette":
		p, err := stdimg.ParsePalette(strings.Split(arg(0), ","))
		if err != nil {
			return err
		}
		return s.SetPalette(p)
	case "scale":
		v, err := strconv.Atoi(arg(0))
		if err != nil {
			return fmt.Errorf("scale: %w", err)
		}
		s.SetScale(v)
		return nil
	case "zoom":
		v, err := strconv.Atoi(arg(0))
		if err != nil {
			return fmt.Errorf("zoom: %w", err)
		}
		s.SetZoom(v)
		return nil
	case "algorithm":
		return s.SetAlgorithm(arg(0))
	case "reprocess":
		s.Reprocess(false)
		return nil
	case "recapture":
		s.Reprocess(true)
		return nil
	case "write-preset":
		return s.WritePreset(arg(0))
	case "load-preset":
		return s.LoadPreset(arg(0))
	case "save":
		return s.Save(arg(0))
	}
	return fmt.Errorf("unknown command: %s", name)
}

// parseLevelPoint parses a black or white point. Blank keeps cur.
func parseLevelPoint(name, arg string, cur uint8) (uint8, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return cur, nil
	}
	v, err := strconv.Atoi(arg)
	if err != nil {
		return cur, fmt.Errorf("levels %s: %w", name, err)
	}
	if v < 0 || v > 255 {
		return cur, fmt.Errorf("levels %s=%d not in [0,255]: %w", name, v, stdimg.ErrOutOfRange)
	}
	return uint8(v), nil
}
