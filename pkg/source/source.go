// Package source is the boundary to the host document that supplies pixels.
//
// A host hands the pipeline an 8-bit RGBA buffer captured at a processing
// scale. Hosts that only hold RGB data pad an opaque alpha channel before
// returning, so every buffer leaving this package is RGBA.
package source

import (
	"context"
	"errors"
	"fmt"
	"image"
)

var (
	// ErrNoActiveDocument is returned when a capture is requested with nothing open.
	ErrNoActiveDocument = errors.New("no active document")
	// ErrUnsupportedColorMode is returned for documents that are not 8-bit RGB.
	ErrUnsupportedColorMode = errors.New("unsupported color mode")
	// ErrCaptureFailure matches any *CaptureError via errors.Is.
	ErrCaptureFailure = errors.New("capture failed")
)

// CaptureError wraps a host failure that happened while reading pixels.
type CaptureError struct {
	Op  string
	Err error
}

func (e *CaptureError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("capture %s failed", e.Op)
	}
	return fmt.Sprintf("capture %s failed: %v", e.Op, e.Err)
}

func (e *CaptureError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrCaptureFailure) match any CaptureError.
func (e *CaptureError) Is(target error) bool { return target == ErrCaptureFailure }

// Capturer supplies the active document's pixels resampled to scalePercent.
// Capture is the only blocking step of a pipeline run and should honour ctx.
type Capturer interface {
	Capture(ctx context.Context, scalePercent int) (*image.NRGBA, error)
}

// CaptureFunc adapts a function to the Capturer interface.
type CaptureFunc func(ctx context.Context, scalePercent int) (*image.NRGBA, error)

func (f CaptureFunc) Capture(ctx context.Context, scalePercent int) (*image.NRGBA, error) {
	return f(ctx, scalePercent)
}
