//go:build imagick

package source

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync"

	"gopkg.in/gographics/imagick.v3/imagick"

	"github.com/Fepozopo/dithr/pkg/logging"
	"github.com/Fepozopo/dithr/pkg/preview"
)

var imagickOnce sync.Once

// ImagickSource is a host backed by an ImageMagick MagickWand. It accepts any
// format ImageMagick can read but only 8-bit sRGB documents.
type ImagickSource struct {
	mu   sync.Mutex
	wand *imagick.MagickWand
	name string
	log  *slog.Logger
}

// NewImagickSource initializes the MagickWand environment once per process.
func NewImagickSource() *ImagickSource {
	imagickOnce.Do(imagick.Initialize)
	return &ImagickSource{log: logging.WithComponent(logging.ComponentSource)}
}

// Open reads path into a new wand and validates its mode.
func (s *ImagickSource) Open(path string) error {
	mw := imagick.NewMagickWand()
	if err := mw.ReadImage(path); err != nil {
		mw.Destroy()
		return &CaptureError{Op: "open", Err: err}
	}
	if err := mw.AutoOrientImage(); err != nil {
		mw.Destroy()
		return &CaptureError{Op: "orient", Err: err}
	}
	if d := mw.GetImageDepth(); d != 8 {
		mw.Destroy()
		return fmt.Errorf("%w: %d-bit documents are not supported", ErrUnsupportedColorMode, d)
	}
	if cs := mw.GetImageColorspace(); cs != imagick.COLORSPACE_SRGB && cs != imagick.COLORSPACE_RGB {
		mw.Destroy()
		return fmt.Errorf("%w: colorspace %d is not RGB", ErrUnsupportedColorMode, cs)
	}
	s.mu.Lock()
	if s.wand != nil {
		s.wand.Destroy()
	}
	s.wand = mw
	s.name = path
	s.mu.Unlock()
	s.log.Info("document opened", "path", path, "backend", "imagick")
	return nil
}

// Close releases the active wand.
func (s *ImagickSource) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.wand != nil {
		s.wand.Destroy()
		s.wand = nil
	}
}

// Capture resizes a clone of the document and exports RGBA bytes.
func (s *ImagickSource) Capture(ctx context.Context, scalePercent int) (*image.NRGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, &CaptureError{Op: "capture", Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.wand == nil {
		return nil, ErrNoActiveDocument
	}
	mw := s.wand.Clone()
	defer mw.Destroy()

	src := preview.Size{Width: int(mw.GetImageWidth()), Height: int(mw.GetImageHeight())}
	size := preview.ProcessedSize(src, scalePercent)
	if size.Width == 0 || size.Height == 0 {
		return nil, &CaptureError{Op: "capture", Err: fmt.Errorf("scale %d%% yields an empty image", scalePercent)}
	}
	if size != src {
		if err := mw.ResizeImage(uint(size.Width), uint(size.Height), imagick.FILTER_LANCZOS); err != nil {
			return nil, &CaptureError{Op: "resize", Err: err}
		}
	}
	// RGBA export pads an opaque alpha channel when the document has none
	px, err := mw.ExportImagePixels(0, 0, uint(size.Width), uint(size.Height), "RGBA", imagick.PIXEL_CHAR)
	if err != nil {
		return nil, &CaptureError{Op: "export", Err: err}
	}
	raw, ok := px.([]byte)
	if !ok || len(raw) != size.Width*size.Height*4 {
		return nil, &CaptureError{Op: "export", Err: fmt.Errorf("unexpected pixel payload %T", px)}
	}
	out := image.NewNRGBA(image.Rect(0, 0, size.Width, size.Height))
	copy(out.Pix, raw)
	return out, nil
}
