package cli

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"os/exec"
	"strings"

	"github.com/Fepozopo/dithr/pkg/logging"
	"github.com/Fepozopo/dithr/pkg/pipeline"
	"github.com/Fepozopo/dithr/pkg/preview"
)

// Terminal preview for the kitty graphics protocol, the iTerm2-style OSC 1337
// inline protocol, sixel (via img2sixel) and chafa block rendering.
//
// PREVIEW_BACKEND=kitty|inline|sixel|chafa picks a backend first; detection
// order is used as the fallback. PREVIEW_DEBUG is honoured by raising the log
// level at startup.

func debugf(format string, args ...interface{}) {
	logging.DebugWithComponent(logging.ComponentPreview, fmt.Sprintf(format, args...))
}

func isKitty() bool {
	if os.Getenv("KITTY_WINDOW_ID") != "" || os.Getenv("KONSOLE_VERSION") != "" {
		return true
	}
	term := strings.ToLower(os.Getenv("TERM"))
	return strings.Contains(term, "kitty") || strings.Contains(term, "ghost")
}

func isInlineImageCapable() bool {
	switch os.Getenv("TERM_PROGRAM") {
	case "iTerm.app", "WezTerm", "Warp", "Hyper", "vscode", "VSCode", "Tabby", "Bobcat":
		return true
	}
	if os.Getenv("ITERM_SESSION_ID") != "" {
		return true
	}
	term := strings.ToLower(os.Getenv("TERM"))
	for _, hint := range []string{"wez", "warp", "tabby", "vscode"} {
		if strings.Contains(term, hint) {
			return true
		}
	}
	return false
}

// isSixelCapable is a heuristic; SIXEL_PREVIEW=1 forces it.
func isSixelCapable() bool {
	if os.Getenv("SIXEL_PREVIEW") == "1" || os.Getenv("WT_SESSION") != "" {
		return true
	}
	term := strings.ToLower(os.Getenv("TERM"))
	return strings.Contains(term, "foot") || strings.Contains(term, "st") || strings.Contains(term, "linux")
}

func hasChafa() bool {
	if os.Getenv("CHAFAPREVIEW") == "1" {
		return true
	}
	_, err := exec.LookPath("chafa")
	return err == nil
}

// PreviewSupported reports whether any preview backend is likely to work.
func PreviewSupported() bool {
	return isKitty() || isInlineImageCapable() || isSixelCapable() || hasChafa()
}

// postImageNewlines picks how many lines to advance after an image so the
// prompt lands just below it.
func postImageNewlines(rows int) int {
	switch {
	case rows <= 2:
		return 1
	case rows <= 6:
		return 2
	case rows <= 20:
		return 3
	default:
		return 4
	}
}

func advance(rows int) {
	for i := 0; i < postImageNewlines(rows); i++ {
		fmt.Println()
	}
}

// RenderTerminal magnifies a result to zoomPercent, frames it with the zoom
// feedback color and sends it to the terminal.
func RenderTerminal(res *pipeline.Result, zoomPercent int) error {
	if res == nil || res.Buffer == nil {
		return fmt.Errorf("nothing to preview")
	}
	fb := preview.FeedbackFor(zoomPercent)
	canvas := preview.Magnify(res.Buffer, zoomPercent)
	framed := preview.Frame(canvas, fb, fmt.Sprintf("%d%% %s", zoomPercent, fb))
	return PreviewImage(framed, "png")
}

// PreviewImage encodes img as PNG (or JPEG when format is "jpeg") and previews
// it. kitty always receives PNG.
func PreviewImage(img image.Image, format string) error {
	if img == nil {
		return fmt.Errorf("nil image")
	}
	f := strings.ToLower(format)
	backend := strings.ToLower(os.Getenv("PREVIEW_BACKEND"))
	if backend == "kitty" || (backend == "" && isKitty()) {
		f = "png"
	}
	var buf bytes.Buffer
	if f == "jpeg" || f == "jpg" {
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 92}); err != nil {
			return fmt.Errorf("jpeg encode failed: %w", err)
		}
		f = "jpeg"
	} else {
		if err := png.Encode(&buf, img); err != nil {
			return fmt.Errorf("png encode failed: %w", err)
		}
		f = "png"
	}
	return previewBytes(buf.Bytes(), f, computePreviewSize(img))
}

// PreviewSize is a target placement in terminal cells.
type PreviewSize struct {
	Cols        int
	Rows        int
	PixelWidth  int
	PixelHeight int
}

// computePreviewSize fits the image into at most 80x40 cells of 8x16 pixels,
// never scaling up.
func computePreviewSize(img image.Image) PreviewSize {
	const (
		charW   = 8
		charH   = 16
		minCols = 6
		minRows = 3
		maxCols = 80
		maxRows = 40
	)
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	if w <= 0 || h <= 0 {
		return PreviewSize{Cols: minCols, Rows: minRows, PixelWidth: minCols * charW, PixelHeight: minRows * charH}
	}
	scale := math.Min(1.0, math.Min(float64(maxCols*charW)/float64(w), float64(maxRows*charH)/float64(h)))
	cols := int(math.Round(float64(w) * scale / charW))
	rows := int(math.Round(float64(h) * scale / charH))
	cols = min(max(cols, minCols), maxCols)
	rows = min(max(rows, minRows), maxRows)
	return PreviewSize{Cols: cols, Rows: rows, PixelWidth: cols * charW, PixelHeight: rows * charH}
}

type previewBackend struct {
	name   string
	detect func() bool
	send   func(data []byte, format string, size PreviewSize) error
}

var previewBackends = []previewBackend{
	{"inline", isInlineImageCapable, sendInlineImage},
	{"kitty", isKitty, sendKittyImage},
	{"sixel", isSixelCapable, sendSixelImage},
	{"chafa", hasChafa, sendChafaImage},
}

func backendNamed(name string) (previewBackend, bool) {
	switch name {
	case "iterm", "wezterm":
		name = "inline"
	}
	for _, b := range previewBackends {
		if b.name == name {
			return b, true
		}
	}
	return previewBackend{}, false
}

// previewBytes tries the PREVIEW_BACKEND override, then every detected backend in order.
func previewBytes(blob []byte, format string, size PreviewSize) error {
	if len(blob) == 0 {
		return fmt.Errorf("empty image blob")
	}
	if v := strings.ToLower(os.Getenv("PREVIEW_BACKEND")); v != "" {
		if b, ok := backendNamed(v); ok {
			err := b.send(blob, format, size)
			if err == nil {
				return nil
			}
			debugf("override %s failed: %v", v, err)
		} else {
			debugf("unknown PREVIEW_BACKEND value: %s", v)
		}
	}
	var firstErr error
	for _, b := range previewBackends {
		if !b.detect() {
			continue
		}
		debugf("attempting %s backend", b.name)
		err := b.send(blob, format, size)
		if err == nil {
			return nil
		}
		debugf("%s backend failed: %v", b.name, err)
		if firstErr == nil {
			firstErr = fmt.Errorf("%s preview failed: %w", b.name, err)
		}
	}
	if firstErr != nil {
		return firstErr
	}
	return fmt.Errorf("no preview protocol matched")
}

// sendKittyImage transmits PNG data with the kitty graphics protocol in base64
// chunks of at most 4096 bytes. The first chunk carries the placement.
func sendKittyImage(data []byte, format string, size PreviewSize) error {
	if len(data) == 0 {
		return fmt.Errorf("no data")
	}
	enc := base64.StdEncoding.EncodeToString(data)
	const chunkSize = 4096
	for pos := 0; pos < len(enc); pos += chunkSize {
		end := min(pos+chunkSize, len(enc))
		more := "0"
		if end < len(enc) {
			more = "1"
		}
		var seq string
		if pos == 0 {
			seq = fmt.Sprintf("\x1b_Ga=T,f=100,t=d,q=2,c=%d,r=%d,m=%s;%s\x1b\\", size.Cols, size.Rows, more, enc[pos:end])
		} else {
			seq = "\x1b_Gm=" + more + ";" + enc[pos:end] + "\x1b\\"
		}
		if _, err := os.Stdout.WriteString(seq); err != nil {
			return err
		}
	}
	advance(size.Rows)
	return nil
}

func inlineSequence(data []byte, format string, size PreviewSize) string {
	name := "preview.png"
	if strings.HasPrefix(format, "j") {
		name = "preview.jpg"
	}
	meta := fmt.Sprintf("size=%d;", len(data))
	if size.PixelWidth > 0 && size.PixelHeight > 0 {
		meta += fmt.Sprintf("width=%dpx;height=%dpx;", size.PixelWidth, size.PixelHeight)
	}
	return "\x1b]1337;File=name=" + name + ";inline=1;" + meta + ":" + base64.StdEncoding.EncodeToString(data) + "\a"
}

// sendInlineImage emits the OSC 1337 inline file sequence.
func sendInlineImage(data []byte, format string, size PreviewSize) error {
	if len(data) == 0 {
		return fmt.Errorf("no data")
	}
	_, err := os.Stdout.WriteString(inlineSequence(data, format, size))
	advance(0)
	return err
}

// sendSixelImage pipes the image through img2sixel, falling back to chafa.
func sendSixelImage(data []byte, format string, size PreviewSize) error {
	if len(data) == 0 {
		return fmt.Errorf("no data")
	}
	cmd := exec.Command("img2sixel", "-")
	cmd.Stdin = bytes.NewReader(data)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	err := cmd.Run()
	if err == nil {
		advance(0)
		return nil
	}
	debugf("img2sixel failed: %v", err)
	return sendChafaImage(data, format, size)
}

// sendChafaImage renders block characters with chafa. NO_CHAFA=1 disables it;
// CHAFA_FILL and CHAFA_SYMBOLS override the defaults.
func sendChafaImage(data []byte, format string, size PreviewSize) error {
	if len(data) == 0 {
		return fmt.Errorf("no data")
	}
	if os.Getenv("NO_CHAFA") == "1" {
		return fmt.Errorf("chafa usage disabled via NO_CHAFA=1")
	}
	if _, err := exec.LookPath("chafa"); err != nil {
		return fmt.Errorf("chafa not found in PATH: %w", err)
	}
	fill := "block"
	if v := os.Getenv("CHAFA_FILL"); v != "" {
		fill = v
	}
	symbols := "block"
	if v := os.Getenv("CHAFA_SYMBOLS"); v != "" {
		symbols = v
	}
	cmd := exec.Command("chafa", "--fill="+fill, "--symbols="+symbols, "-s", fmt.Sprintf("%dx%d", size.Cols, size.Rows), "-")
	cmd.Stdin = bytes.NewReader(data)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("chafa failed: %w", err)
	}
	advance(size.Rows)
	return nil
}
