package stdimg

import (
	"image"
	"image/color"

	xdraw "golang.org/x/image/draw"
)

// NewBuffer allocates an origin-based w x h NRGBA buffer.
func NewBuffer(w, h int) *image.NRGBA {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return image.NewNRGBA(image.Rect(0, 0, w, h))
}

// ToNRGBA converts any image.Image to an origin-based *image.NRGBA (non-premultiplied RGBA).
// The result never shares storage with src. Sources without alpha come out opaque.
func ToNRGBA(src image.Image) *image.NRGBA {
	if src == nil {
		return nil
	}
	b := src.Bounds()
	out := NewBuffer(b.Dx(), b.Dy())
	if n, ok := src.(*image.NRGBA); ok {
		// row copy handles sub-images whose stride exceeds 4*width
		rowLen := b.Dx() * 4
		for y := 0; y < b.Dy(); y++ {
			si := n.PixOffset(b.Min.X, b.Min.Y+y)
			copy(out.Pix[y*out.Stride:y*out.Stride+rowLen], n.Pix[si:si+rowLen])
		}
		return out
	}
	xdraw.Draw(out, out.Bounds(), src, b.Min, xdraw.Src)
	return out
}

// CloneNRGBA returns a copy of the provided image.NRGBA
func CloneNRGBA(src *image.NRGBA) *image.NRGBA {
	if src == nil {
		return nil
	}
	out := image.NewNRGBA(src.Rect)
	copy(out.Pix, src.Pix)
	return out
}

// clampInt clamps v to [lo,hi]
func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// clampFloatToUint8 ensures v in [0,255]
func clampFloatToUint8(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

// samplePixelClamped returns the color.NRGBA at integer coords clamped to image.
func samplePixelClamped(img *image.NRGBA, x, y int) color.NRGBA {
	b := img.Bounds()
	x = clampInt(x, b.Min.X, b.Max.X-1)
	y = clampInt(y, b.Min.Y, b.Max.Y-1)
	i := img.PixOffset(x, y)
	return color.NRGBA{img.Pix[i+0], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3]}
}

// FillNRGBA returns a w x h buffer filled with c.
func FillNRGBA(w, h int, c color.NRGBA) *image.NRGBA {
	img := NewBuffer(w, h)
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
	return img
}
