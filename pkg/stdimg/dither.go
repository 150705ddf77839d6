package stdimg

import (
	"fmt"
	"image"
	"math"
	"sort"
)

// Algorithm quantizes a buffer to a palette. Implementations return a new
// buffer and never modify src.
type Algorithm interface {
	Name() string
	Dither(src *image.NRGBA, p Palette) (*image.NRGBA, error)
}

// DefaultAlgorithm is used when no algorithm has been selected.
const DefaultAlgorithm = "floyd-steinberg"

var algorithms = map[string]Algorithm{
	DefaultAlgorithm: FloydSteinberg{},
}

// LookupAlgorithm returns a registered algorithm by name. An empty name
// selects DefaultAlgorithm.
func LookupAlgorithm(name string) (Algorithm, error) {
	if name == "" {
		name = DefaultAlgorithm
	}
	a, ok := algorithms[name]
	if !ok {
		return nil, fmt.Errorf("unknown dithering algorithm: %s", name)
	}
	return a, nil
}

// Algorithms returns the sorted names of all registered algorithms.
func Algorithms() []string {
	names := make([]string, 0, len(algorithms))
	for k := range algorithms {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// diffusion is one neighbour of the Floyd-Steinberg kernel (weights over 16).
type diffusion struct {
	dx, dy, weight int
}

var floydSteinbergKernel = [4]diffusion{
	{dx: 1, dy: 0, weight: 7},
	{dx: -1, dy: 1, weight: 3},
	{dx: 0, dy: 1, weight: 5},
	{dx: 1, dy: 1, weight: 1},
}

// FloydSteinberg is raster-scan error diffusion with the 7/3/5/1 kernel.
type FloydSteinberg struct{}

func (FloydSteinberg) Name() string { return DefaultAlgorithm }

func (FloydSteinberg) Dither(src *image.NRGBA, p Palette) (*image.NRGBA, error) {
	out, _, err := DitherWithStats(src, p)
	return out, err
}

// Dither applies Floyd-Steinberg error diffusion to a copy of src.
func Dither(src *image.NRGBA, p Palette) (*image.NRGBA, error) {
	out, _, err := DitherWithStats(src, p)
	return out, err
}

// DitherStats accumulates signed per-channel error over a dither pass.
//
// Quantization is the total error produced at each pixel. Diffused is what was
// actually pushed into in-bounds neighbours before clamping. ClampLoss is what
// the [0,255] clamp discarded from those writes.
type DitherStats struct {
	Quantization [3]int64
	Diffused     [3]int64
	ClampLoss    [3]int64
}

// DitherWithStats is Dither plus error accounting.
//
// Pixels are visited top-to-bottom, left-to-right. Each pixel is read from the
// working buffer (so it includes error already received), replaced by its
// nearest palette color, and the per-channel difference is spread to the
// right, bottom-left, bottom and bottom-right neighbours. Each neighbour gets
// cur+err*w/16 computed exactly, rounded half to even and clamped to a byte.
// Out-of-bounds neighbours simply drop their share.
func DitherWithStats(src *image.NRGBA, p Palette) (*image.NRGBA, DitherStats, error) {
	var st DitherStats
	if len(p) == 0 {
		return nil, st, ErrInvalidPalette
	}
	if src == nil {
		return nil, st, fmt.Errorf("source image is nil")
	}
	// work on an origin-based copy so (y*w+x)*4 indexing holds
	out := ToNRGBA(src)
	w := out.Rect.Dx()
	h := out.Rect.Dy()
	pix := out.Pix
	stride := out.Stride

	for y := 0; y < h; y++ {
		row := y * stride
		for x := 0; x < w; x++ {
			i := row + x*4
			r := int(pix[i+0])
			g := int(pix[i+1])
			b := int(pix[i+2])

			q := p[p.Index(r, g, b)]
			pix[i+0] = q.R
			pix[i+1] = q.G
			pix[i+2] = q.B

			e := [3]int{r - int(q.R), g - int(q.G), b - int(q.B)}
			for c := 0; c < 3; c++ {
				st.Quantization[c] += int64(e[c])
			}
			if e[0] == 0 && e[1] == 0 && e[2] == 0 {
				continue
			}
			for _, k := range floydSteinbergKernel {
				nx := x + k.dx
				ny := y + k.dy
				if nx < 0 || nx >= w || ny >= h {
					continue
				}
				j := ny*stride + nx*4
				for c := 0; c < 3; c++ {
					cur := int(pix[j+c])
					v := int(math.RoundToEven(float64(cur*16+e[c]*k.weight) / 16))
					d := v - cur
					cv := clampInt(v, 0, 255)
					st.Diffused[c] += int64(d)
					st.ClampLoss[c] += int64(v - cv)
					pix[j+c] = uint8(cv)
				}
			}
		}
	}
	return out, st, nil
}
