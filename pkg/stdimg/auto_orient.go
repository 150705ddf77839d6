package stdimg

import (
	"image"
)

// AutoOrient applies an EXIF orientation (1..8) and returns an upright copy.
// Orientation 1 or an unknown value yields a plain copy.
func AutoOrient(img image.Image, orientation int) *image.NRGBA {
	src := ToNRGBA(img)
	if src == nil || orientation <= 1 || orientation > 8 {
		return src
	}
	w := src.Rect.Dx()
	h := src.Rect.Dy()
	outW, outH := w, h
	if orientation >= 5 {
		// 5..8 swap axes
		outW, outH = h, w
	}
	out := NewBuffer(outW, outH)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx, dy := orientPoint(orientation, x, y, w, h)
			si := src.PixOffset(x, y)
			di := out.PixOffset(dx, dy)
			copy(out.Pix[di:di+4], src.Pix[si:si+4])
		}
	}
	return out
}

// orientPoint maps source (x,y) in a w x h image to its upright position.
func orientPoint(orientation, x, y, w, h int) (int, int) {
	switch orientation {
	case 2: // mirror horizontal
		return w - 1 - x, y
	case 3: // rotate 180
		return w - 1 - x, h - 1 - y
	case 4: // mirror vertical
		return x, h - 1 - y
	case 5: // transpose
		return y, x
	case 6: // rotate 90 CW
		return h - 1 - y, x
	case 7: // transverse
		return h - 1 - y, w - 1 - x
	case 8: // rotate 90 CCW
		return y, w - 1 - x
	default:
		return x, y
	}
}
