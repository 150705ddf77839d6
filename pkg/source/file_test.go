package source

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func solidRGBA(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func writePNG(t *testing.T, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return path
}

// makeExifPayload builds a minimal APP1 payload holding only an Orientation tag.
func makeExifPayload(orientation uint16) []byte {
	buf := &bytes.Buffer{}
	buf.Write([]byte("Exif\x00\x00"))
	buf.Write([]byte{'I', 'I'})
	_ = binary.Write(buf, binary.LittleEndian, uint16(0x2A))
	_ = binary.Write(buf, binary.LittleEndian, uint32(8))
	_ = binary.Write(buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(buf, binary.LittleEndian, uint16(tagOrientation))
	_ = binary.Write(buf, binary.LittleEndian, uint16(3))
	_ = binary.Write(buf, binary.LittleEndian, uint32(1))
	_ = binary.Write(buf, binary.LittleEndian, orientation)
	_ = binary.Write(buf, binary.LittleEndian, uint16(0))
	_ = binary.Write(buf, binary.LittleEndian, uint32(0))
	return buf.Bytes()
}

func writeOrientedJPEG(t *testing.T, w, h int, orientation uint16) string {
	t.Helper()
	var enc bytes.Buffer
	if err := jpeg.Encode(&enc, solidRGBA(w, h, color.RGBA{200, 100, 50, 255}), nil); err != nil {
		t.Fatalf("jpeg encode: %v", err)
	}
	payload := makeExifPayload(orientation)
	var out bytes.Buffer
	out.Write(enc.Bytes()[:2]) // SOI
	out.Write([]byte{0xFF, 0xE1})
	_ = binary.Write(&out, binary.BigEndian, uint16(len(payload)+2))
	out.Write(payload)
	out.Write(enc.Bytes()[2:])
	path := filepath.Join(t.TempDir(), "doc.jpg")
	if err := os.WriteFile(path, out.Bytes(), 0o644); err != nil {
		t.Fatalf("write jpeg: %v", err)
	}
	return path
}

func TestFileSourceCaptureScales(t *testing.T) {
	path := writePNG(t, solidRGBA(200, 100, color.RGBA{10, 20, 30, 255}))
	s := NewFileSource()
	if _, err := s.Open(path); err != nil {
		t.Fatalf("Open: %v", err)
	}
	buf, err := s.Capture(context.Background(), 10)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if buf.Bounds() != image.Rect(0, 0, 20, 10) {
		t.Fatalf("unexpected capture bounds %v", buf.Bounds())
	}
	if len(buf.Pix) != 20*10*4 {
		t.Fatalf("buffer length %d; want %d", len(buf.Pix), 20*10*4)
	}
	if buf.Pix[0] != 10 || buf.Pix[1] != 20 || buf.Pix[2] != 30 || buf.Pix[3] != 255 {
		t.Fatalf("unexpected pixel %v", buf.Pix[:4])
	}
	again, _ := s.Capture(context.Background(), 10)
	again.Pix[0] = 99
	if buf.Pix[0] == 99 {
		t.Fatalf("captures must not share storage")
	}
}

func TestFileSourceCaptureRoundsToEmpty(t *testing.T) {
	path := writePNG(t, solidRGBA(7, 3, color.RGBA{10, 20, 30, 255}))
	s := NewFileSource()
	if _, err := s.Open(path); err != nil {
		t.Fatalf("Open: %v", err)
	}
	// 7x3 at 5% rounds to 0x0
	if _, err := s.Capture(context.Background(), 5); !errors.Is(err, ErrCaptureFailure) {
		t.Fatalf("expected capture failure for empty size, got %v", err)
	}
}

func TestFileSourceNoDocument(t *testing.T) {
	s := NewFileSource()
	if _, err := s.Capture(context.Background(), 10); !errors.Is(err, ErrNoActiveDocument) {
		t.Fatalf("expected ErrNoActiveDocument, got %v", err)
	}
	if _, ok := s.Size(); ok {
		t.Fatalf("Size should report no document")
	}
}

func TestFileSourceCanceledContext(t *testing.T) {
	s := NewFileSource()
	if _, err := s.OpenImage("mem", solidRGBA(4, 4, color.RGBA{A: 255})); err != nil {
		t.Fatalf("OpenImage: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Capture(ctx, 10)
	if !errors.Is(err, ErrCaptureFailure) || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected capture failure wrapping context.Canceled, got %v", err)
	}
	var ce *CaptureError
	if !errors.As(err, &ce) || ce.Op != "capture" {
		t.Fatalf("expected *CaptureError, got %T", err)
	}
}

func TestFileSourceRejectsUnsupportedModeAndKeepsPrevious(t *testing.T) {
	s := NewFileSource()
	if _, err := s.OpenImage("rgb", solidRGBA(8, 8, color.RGBA{A: 255})); err != nil {
		t.Fatalf("OpenImage: %v", err)
	}
	_, err := s.OpenImage("gray", image.NewGray(image.Rect(0, 0, 8, 8)))
	if !errors.Is(err, ErrUnsupportedColorMode) {
		t.Fatalf("expected ErrUnsupportedColorMode, got %v", err)
	}
	if d := s.Document(); d == nil || d.Name != "rgb" {
		t.Fatalf("previous document should stay active, got %+v", d)
	}
}

func TestFileSourceOpenMissingFile(t *testing.T) {
	s := NewFileSource()
	_, err := s.Open(filepath.Join(t.TempDir(), "missing.png"))
	if !errors.Is(err, ErrCaptureFailure) || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected wrapped not-exist capture failure, got %v", err)
	}
}

func TestFileSourceAppliesEXIFOrientation(t *testing.T) {
	path := writeOrientedJPEG(t, 40, 20, 6)
	s := NewFileSource()
	if _, err := s.Open(path); err != nil {
		t.Fatalf("Open: %v", err)
	}
	size, ok := s.Size()
	if !ok || size.Width != 20 || size.Height != 40 {
		t.Fatalf("expected rotated 20x40, got %v", size)
	}
	buf, err := s.Capture(context.Background(), 50)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if buf.Bounds().Dx() != 10 || buf.Bounds().Dy() != 20 {
		t.Fatalf("unexpected capture size %v", buf.Bounds())
	}
}

func TestJPEGOrientationParse(t *testing.T) {
	path := writeOrientedJPEG(t, 8, 8, 3)
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	o, err := jpegOrientation(b)
	if err != nil || o != 3 {
		t.Fatalf("jpegOrientation = %d, %v; want 3", o, err)
	}
	if _, err := jpegOrientation([]byte("not a jpeg")); err == nil {
		t.Fatalf("expected error for non-jpeg data")
	}
}

func TestValidateDocumentMode(t *testing.T) {
	r := image.Rect(0, 0, 2, 2)
	cases := []struct {
		img   image.Image
		valid bool
	}{
		{image.NewNRGBA(r), true},
		{image.NewRGBA(r), true},
		{image.NewYCbCr(r, image.YCbCrSubsampleRatio420), true},
		{image.NewNRGBA64(r), false},
		{image.NewGray(r), false},
		{image.NewCMYK(r), false},
		{image.NewPaletted(r, nil), false},
		{image.NewNRGBA(image.Rect(0, 0, 0, 0)), false},
	}
	for _, c := range cases {
		v := ValidateDocumentMode(&Document{Name: "d", Image: c.img})
		if v.Valid != c.valid {
			t.Fatalf("ValidateDocumentMode(%T) = %+v; want valid=%v", c.img, v, c.valid)
		}
		if !v.Valid && v.Message == "" {
			t.Fatalf("invalid result for %T must carry a message", c.img)
		}
	}
	if v := ValidateDocumentMode(nil); v.Valid {
		t.Fatalf("nil document must be invalid")
	}
}
