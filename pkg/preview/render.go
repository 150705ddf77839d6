package preview

import (
	"image"
	"image/color"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	borderWidth = 2
	labelHeight = 16
)

var labelBackground = color.NRGBA{R: 0x1e, G: 0x1e, B: 0x1e, A: 0xff}

// Magnify returns buf drawn onto a canvas of CanvasSize(buf, zoom) with
// nearest-neighbour sampling, so every processed pixel stays a hard-edged block.
func Magnify(buf *image.NRGBA, zoomPercent int) *image.NRGBA {
	if buf == nil {
		return nil
	}
	b := buf.Bounds()
	cs := CanvasSize(Size{Width: b.Dx(), Height: b.Dy()}, zoomPercent)
	dst := image.NewNRGBA(image.Rect(0, 0, cs.Width, cs.Height))
	if cs.Width == 0 || cs.Height == 0 || b.Empty() {
		return dst
	}
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), buf, b, xdraw.Src, nil)
	return dst
}

// Frame surrounds canvas with a border in the feedback color and, when label
// is non-empty, adds a caption strip underneath.
func Frame(canvas *image.NRGBA, fb Feedback, label string) *image.NRGBA {
	if canvas == nil {
		return nil
	}
	cb := canvas.Bounds()
	extra := 0
	if label != "" {
		extra = labelHeight
	}
	out := image.NewNRGBA(image.Rect(0, 0, cb.Dx()+2*borderWidth, cb.Dy()+2*borderWidth+extra))
	border := fb.Color()
	xdraw.Draw(out, out.Bounds(), image.NewUniform(border), image.Point{}, xdraw.Src)
	inner := image.Rect(borderWidth, borderWidth, borderWidth+cb.Dx(), borderWidth+cb.Dy())
	xdraw.Draw(out, inner, canvas, cb.Min, xdraw.Src)

	if label != "" {
		strip := image.Rect(0, inner.Max.Y+borderWidth, out.Bounds().Dx(), out.Bounds().Dy())
		xdraw.Draw(out, strip, image.NewUniform(labelBackground), image.Point{}, xdraw.Src)
		d := &font.Drawer{
			Dst:  out,
			Src:  image.NewUniform(border),
			Face: basicfont.Face7x13,
			Dot:  fixed.Point26_6{X: fixed.I(borderWidth + 2), Y: fixed.I(strip.Max.Y - 4)},
		}
		d.DrawString(label)
	}
	return out
}
