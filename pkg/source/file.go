package source

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/Fepozopo/dithr/pkg/logging"
	"github.com/Fepozopo/dithr/pkg/preview"
	"github.com/Fepozopo/dithr/pkg/stdimg"
)

// lanczosWindow is the resampling window used when capturing below 100%.
const lanczosWindow = 3.0

// FileSource is a host whose active document is an image file on disk.
type FileSource struct {
	mu     sync.RWMutex
	doc    *Document
	pixels *image.NRGBA // upright, origin-based copy of doc.Image
	log    *slog.Logger
}

// NewFileSource returns a host with no document open.
func NewFileSource() *FileSource {
	return &FileSource{log: logging.WithComponent(logging.ComponentSource)}
}

// Open decodes the file at path and makes it the active document. On any error
// the previously active document stays open.
func (s *FileSource) Open(path string) (*Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &CaptureError{Op: "open", Err: err}
	}
	img, format, err := image.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, &CaptureError{Op: "decode", Err: err}
	}
	orientation := 1
	if format == "jpeg" {
		if o, oerr := jpegOrientation(b); oerr == nil {
			orientation = o
		}
	}
	doc := &Document{Name: filepath.Base(path), Image: img}
	if err := s.setDocument(doc, orientation); err != nil {
		return nil, err
	}
	s.log.Info("document opened", "path", path, "format", format,
		"width", img.Bounds().Dx(), "height", img.Bounds().Dy(), "orientation", orientation)
	return doc, nil
}

// OpenImage makes an in-memory image the active document.
func (s *FileSource) OpenImage(name string, img image.Image) (*Document, error) {
	doc := &Document{Name: name, Image: img}
	if err := s.setDocument(doc, 1); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *FileSource) setDocument(doc *Document, orientation int) error {
	if err := validationError(ValidateDocumentMode(doc)); err != nil {
		return err
	}
	pixels := stdimg.AutoOrient(doc.Image, orientation)
	s.mu.Lock()
	s.doc = doc
	s.pixels = pixels
	s.mu.Unlock()
	return nil
}

// Document returns the active document or nil.
func (s *FileSource) Document() *Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc
}

// Size reports the upright size of the active document.
func (s *FileSource) Size() (preview.Size, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.pixels == nil {
		return preview.Size{}, false
	}
	b := s.pixels.Bounds()
	return preview.Size{Width: b.Dx(), Height: b.Dy()}, true
}

// Close drops the active document.
func (s *FileSource) Close() {
	s.mu.Lock()
	s.doc = nil
	s.pixels = nil
	s.mu.Unlock()
}

// Capture returns the active document resampled to scalePercent of its size.
// The result is always a fresh buffer.
func (s *FileSource) Capture(ctx context.Context, scalePercent int) (*image.NRGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, &CaptureError{Op: "capture", Err: err}
	}
	s.mu.RLock()
	pixels := s.pixels
	s.mu.RUnlock()
	if pixels == nil {
		return nil, ErrNoActiveDocument
	}
	b := pixels.Bounds()
	size := preview.ProcessedSize(preview.Size{Width: b.Dx(), Height: b.Dy()}, scalePercent)
	if size.Width == 0 || size.Height == 0 {
		return nil, &CaptureError{Op: "capture", Err: fmt.Errorf("scale %d%% yields an empty image", scalePercent)}
	}
	out := stdimg.ResampleLanczos(pixels, size.Width, size.Height, lanczosWindow)
	if err := ctx.Err(); err != nil {
		return nil, &CaptureError{Op: "capture", Err: err}
	}
	s.log.Debug("captured", "scale", scalePercent, "width", size.Width, "height", size.Height)
	return out, nil
}
