package stdimg

import (
	"image"
	"image/color"
	"testing"
)

func TestResampleLanczosSolidStaysSolid(t *testing.T) {
	src := makeSolid(200, 100, color.NRGBA{R: 40, G: 80, B: 120, A: 255})
	out := ResampleLanczos(src, 20, 10, 3.0)
	if out.Bounds() != image.Rect(0, 0, 20, 10) {
		t.Fatalf("unexpected bounds %v", out.Bounds())
	}
	for i := 0; i < len(out.Pix); i += 4 {
		if out.Pix[i] != 40 || out.Pix[i+1] != 80 || out.Pix[i+2] != 120 || out.Pix[i+3] != 255 {
			t.Fatalf("pixel %d = %v; want solid color", i/4, out.Pix[i:i+4])
		}
	}
}

func TestResampleLanczosSameSizeIsCopy(t *testing.T) {
	src := randomNRGBA(7, 5, 3)
	out := ResampleLanczos(src, 7, 5, 3.0)
	for i := range src.Pix {
		if out.Pix[i] != src.Pix[i] {
			t.Fatalf("same-size resample changed byte %d", i)
		}
	}
	out.Pix[0] ^= 0xff
	if out.Pix[0] == src.Pix[0] {
		t.Fatalf("same-size resample must not alias its input")
	}
}

func TestResampleLanczosZeroTarget(t *testing.T) {
	src := makeSolid(4, 4, color.NRGBA{A: 255})
	out := ResampleLanczos(src, 0, 3, 3.0)
	if out == nil || !out.Bounds().Empty() {
		t.Fatalf("expected empty image for zero width, got %v", out)
	}
}

func TestResampleLanczosAveragesOnShrink(t *testing.T) {
	// alternating black/white columns shrink to mid gray instead of aliasing
	src := image.NewNRGBA(image.Rect(0, 0, 64, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 64; x++ {
			v := uint8(0)
			if x%2 == 1 {
				v = 255
			}
			src.SetNRGBA(x, y, color.NRGBA{v, v, v, 255})
		}
	}
	out := ResampleLanczos(src, 8, 1, 3.0)
	for x := 1; x < 7; x++ {
		v := out.Pix[out.PixOffset(x, 0)]
		if v < 100 || v > 155 {
			t.Fatalf("column %d = %d; expected close to mid gray", x, v)
		}
	}
}

func TestToNRGBAPadsAlpha(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for i := range src.Pix {
		src.Pix[i] = 255
	}
	src.Pix[0] = 10
	out := ToNRGBA(src)
	if out.Pix[0] != 10 || out.Pix[3] != 255 {
		t.Fatalf("unexpected conversion %v", out.Pix[:4])
	}
	gray := image.NewGray(image.Rect(0, 0, 1, 1))
	gray.Pix[0] = 77
	g := ToNRGBA(gray)
	if g.Pix[0] != 77 || g.Pix[1] != 77 || g.Pix[2] != 77 || g.Pix[3] != 255 {
		t.Fatalf("gray conversion = %v; want opaque 77", g.Pix)
	}
}

func TestAutoOrient(t *testing.T) {
	// 2x1 image: red then blue
	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	src.SetNRGBA(0, 0, color.NRGBA{255, 0, 0, 255})
	src.SetNRGBA(1, 0, color.NRGBA{0, 0, 255, 255})

	cases := []struct {
		orientation int
		w, h        int
		redAt       image.Point
	}{
		{1, 2, 1, image.Pt(0, 0)},
		{2, 2, 1, image.Pt(1, 0)},
		{3, 2, 1, image.Pt(1, 0)},
		{4, 2, 1, image.Pt(0, 0)},
		{5, 1, 2, image.Pt(0, 0)},
		{6, 1, 2, image.Pt(0, 0)},
		{7, 1, 2, image.Pt(0, 1)},
		{8, 1, 2, image.Pt(0, 1)},
	}
	for _, c := range cases {
		out := AutoOrient(src, c.orientation)
		if out.Bounds().Dx() != c.w || out.Bounds().Dy() != c.h {
			t.Fatalf("orientation %d: size %v; want %dx%d", c.orientation, out.Bounds(), c.w, c.h)
		}
		if got := out.NRGBAAt(c.redAt.X, c.redAt.Y); got.R != 255 {
			t.Fatalf("orientation %d: expected red at %v, got %v", c.orientation, c.redAt, got)
		}
	}
}
