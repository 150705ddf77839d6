package stdimg

import (
	"image"
	"math"
)

// sinc helper
func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	x = math.Pi * x
	return math.Sin(x) / x
}

// lanczosKernel returns lanczos weight for distance x with parameter a.
func lanczosKernel(x, a float64) float64 {
	x = math.Abs(x)
	if x < 1e-12 {
		return 1
	}
	if x >= a {
		return 0
	}
	return sinc(x) * sinc(x/a)
}

// contribution lists the source taps and normalized weights for one output coordinate.
type contribution struct {
	start   int
	weights []float64
}

// lanczosContributions precomputes taps along one axis. When shrinking, the
// kernel is stretched by the scale factor so every source pixel contributes.
func lanczosContributions(srcN, dstN int, a float64) []contribution {
	scale := float64(srcN) / float64(dstN)
	support := a
	stretch := 1.0
	if scale > 1 {
		support = a * scale
		stretch = scale
	}
	out := make([]contribution, dstN)
	for d := 0; d < dstN; d++ {
		center := (float64(d)+0.5)*scale - 0.5
		lo := int(math.Floor(center - support + 1))
		hi := int(math.Ceil(center + support - 1))
		ws := make([]float64, 0, hi-lo+1)
		sum := 0.0
		for s := lo; s <= hi; s++ {
			w := lanczosKernel((float64(s)-center)/stretch, a)
			ws = append(ws, w)
			sum += w
		}
		if sum == 0 {
			sum = 1
		}
		for i := range ws {
			ws[i] /= sum
		}
		out[d] = contribution{start: lo, weights: ws}
	}
	return out
}

// ResampleLanczos resamples src to dstW x dstH using a separable Lanczos filter
// with window a (commonly 3). Edge taps are clamped to the image.
func ResampleLanczos(src *image.NRGBA, dstW, dstH int, a float64) *image.NRGBA {
	if src == nil {
		return nil
	}
	dst := NewBuffer(dstW, dstH)
	if dstW <= 0 || dstH <= 0 {
		return dst
	}
	srcB := src.Bounds()
	srcW := srcB.Dx()
	srcH := srcB.Dy()
	if srcW == 0 || srcH == 0 {
		return dst
	}
	if srcW == dstW && srcH == dstH {
		return ToNRGBA(src)
	}

	// horizontal pass into a float buffer of dstW x srcH
	xc := lanczosContributions(srcW, dstW, a)
	tmp := make([]float64, dstW*srcH*4)
	for y := 0; y < srcH; y++ {
		for x := 0; x < dstW; x++ {
			var acc [4]float64
			c := xc[x]
			for k, w := range c.weights {
				p := samplePixelClamped(src, srcB.Min.X+c.start+k, srcB.Min.Y+y)
				acc[0] += float64(p.R) * w
				acc[1] += float64(p.G) * w
				acc[2] += float64(p.B) * w
				acc[3] += float64(p.A) * w
			}
			copy(tmp[(y*dstW+x)*4:], acc[:])
		}
	}

	// vertical pass
	yc := lanczosContributions(srcH, dstH, a)
	for y := 0; y < dstH; y++ {
		c := yc[y]
		for x := 0; x < dstW; x++ {
			var acc [4]float64
			for k, w := range c.weights {
				sy := clampInt(c.start+k, 0, srcH-1)
				t := tmp[(sy*dstW+x)*4:]
				acc[0] += t[0] * w
				acc[1] += t[1] * w
				acc[2] += t[2] * w
				acc[3] += t[3] * w
			}
			i := dst.PixOffset(x, y)
			for ch := 0; ch < 4; ch++ {
				dst.Pix[i+ch] = uint8(clampFloatToUint8(math.Round(acc[ch])))
			}
		}
	}
	return dst
}
