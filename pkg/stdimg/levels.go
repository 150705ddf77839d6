package stdimg

import (
	"fmt"
	"image"
	"math"
)

const (
	MinMid = 0.1
	MaxMid = 10.0
)

// Levels holds a black point, a midtone gamma and a white point.
// Mid acts as an inverse gamma exponent: the normalized value is raised to 1/Mid.
type Levels struct {
	Black uint8   `yaml:"black"`
	Mid   float64 `yaml:"mid"`
	White uint8   `yaml:"white"`
}

// DefaultLevels returns the identity mapping {0, 1.0, 255}.
func DefaultLevels() Levels {
	return Levels{Black: 0, Mid: 1.0, White: 255}
}

// Validate reports whether lv produces a meaningful tone curve.
// A degenerate range is still accepted by ApplyLevels (it becomes a hard threshold).
func (lv Levels) Validate() error {
	if lv.Black >= lv.White {
		return fmt.Errorf("%w: black=%d white=%d", ErrDegenerateLevels, lv.Black, lv.White)
	}
	if math.IsNaN(lv.Mid) || lv.Mid < MinMid || lv.Mid > MaxMid {
		return fmt.Errorf("%w: mid=%v not in [%v,%v]", ErrOutOfRange, lv.Mid, MinMid, MaxMid)
	}
	return nil
}

// IsIdentity reports whether applying lv leaves every value unchanged.
func (lv Levels) IsIdentity() bool {
	return lv.Black == 0 && lv.White == 255 && lv.Mid == 1.0
}

// ApplyLevels maps a single channel value through the levels curve.
// v <= black maps to 0 and is checked first; v >= white maps to 255. With
// black >= white every value falls into one of the two branches, so the
// degenerate case is a threshold at black rather than a division by zero.
func ApplyLevels(v, black uint8, mid float64, white uint8) uint8 {
	if v <= black {
		return 0
	}
	if v >= white {
		return 255
	}
	if mid <= 0 || math.IsNaN(mid) || math.IsInf(mid, 0) {
		mid = 1.0
	}
	n := float64(v-black) / float64(white-black)
	out := math.Round(math.Pow(n, 1.0/mid) * 255.0)
	return uint8(clampFloatToUint8(out))
}

// lut precomputes the curve for all 256 inputs.
func (lv Levels) lut() [256]uint8 {
	var t [256]uint8
	for i := 0; i < 256; i++ {
		t[i] = ApplyLevels(uint8(i), lv.Black, lv.Mid, lv.White)
	}
	return t
}

// ApplyLevelsInPlace rewrites the R, G and B channels of buf through lv.
// Alpha is left untouched. Callers that still need the original must clone first.
func ApplyLevelsInPlace(buf *image.NRGBA, lv Levels) {
	if buf == nil || lv.IsIdentity() {
		return
	}
	t := lv.lut()
	b := buf.Bounds()
	w := b.Dx()
	h := b.Dy()
	for y := 0; y < h; y++ {
		i := buf.PixOffset(b.Min.X, b.Min.Y+y)
		for x := 0; x < w; x++ {
			buf.Pix[i+0] = t[buf.Pix[i+0]]
			buf.Pix[i+1] = t[buf.Pix[i+1]]
			buf.Pix[i+2] = t[buf.Pix[i+2]]
			i += 4
		}
	}
}

// Level returns a levels-adjusted copy of src.
func Level(src *image.NRGBA, lv Levels) *image.NRGBA {
	if src == nil {
		return nil
	}
	out := CloneNRGBA(src)
	ApplyLevelsInPlace(out, lv)
	return out
}
