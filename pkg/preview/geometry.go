// Package preview reconciles processing scale and display zoom and renders
// processed buffers onto a magnified canvas.
package preview

import (
	"image/color"
	"math"
)

// Percent domains for the two independent knobs.
const (
	MinScale     = 5
	MaxScale     = 50
	DefaultScale = 10

	MinZoom     = 50
	MaxZoom     = 200
	DefaultZoom = 100
)

// Size is a width/height pair in pixels.
type Size struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// Feedback classifies the display zoom relative to 1:1.
type Feedback int

const (
	PixelPerfect Feedback = iota
	Downscaled
	Upscaled
)

func (f Feedback) String() string {
	switch f {
	case PixelPerfect:
		return "pixel-perfect"
	case Downscaled:
		return "downscaled"
	case Upscaled:
		return "upscaled"
	default:
		return "unknown"
	}
}

// Color is the indicator color used by the rendering layer.
func (f Feedback) Color() color.NRGBA {
	switch f {
	case PixelPerfect:
		return color.NRGBA{R: 0x2e, G: 0xcc, B: 0x71, A: 0xff}
	case Downscaled:
		return color.NRGBA{R: 0xf3, G: 0x9c, B: 0x12, A: 0xff}
	default:
		return color.NRGBA{R: 0x34, G: 0x98, B: 0xdb, A: 0xff}
	}
}

// FeedbackFor returns PixelPerfect at exactly 100%, Downscaled below and Upscaled above.
func FeedbackFor(zoomPercent int) Feedback {
	switch {
	case zoomPercent == 100:
		return PixelPerfect
	case zoomPercent < 100:
		return Downscaled
	default:
		return Upscaled
	}
}

// scaleDim rounds dim*percent/100. Negative results are clamped to 0; a small
// dimension may round to 0 and callers needing pixels must check for it.
func scaleDim(dim, percent int) int {
	v := int(math.Round(float64(dim) * float64(percent) / 100.0))
	if v < 0 {
		return 0
	}
	return v
}

// ProcessedSize is the capture resolution for a source at the given processing scale.
func ProcessedSize(src Size, scalePercent int) Size {
	return Size{Width: scaleDim(src.Width, scalePercent), Height: scaleDim(src.Height, scalePercent)}
}

// CanvasSize is the on-screen size of a processed buffer at the given zoom.
func CanvasSize(processed Size, zoomPercent int) Size {
	return Size{Width: scaleDim(processed.Width, zoomPercent), Height: scaleDim(processed.Height, zoomPercent)}
}

// ClampScale forces a processing scale into [MinScale, MaxScale].
func ClampScale(v int) int {
	return clamp(v, MinScale, MaxScale)
}

// ClampZoom forces a display zoom into [MinZoom, MaxZoom].
func ClampZoom(v int) int {
	return clamp(v, MinZoom, MaxZoom)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
