package cli

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// stdin is shared by the REPL loop and every prompt so buffered input is never lost
// between readers.
var stdin = bufio.NewReader(os.Stdin)

// readLine reads one line from r, trimmed. A final line without a newline is returned
// together with io.EOF only when it is empty.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// PromptLine displays a prompt and reads a full line of input from the user.
func PromptLine(prompt string) (string, error) {
	fmt.Print(prompt)
	return readLine(stdin)
}

// PromptLineOrFzf reads a full line and treats a lone "/" as a request to pick a
// file with fzf. If fzf is unavailable or cancelled the prompt is shown again.
func PromptLineOrFzf(prompt string) (string, error) {
	input, err := PromptLine(prompt)
	if err != nil {
		return "", err
	}
	if input == "/" {
		sel, selErr := SelectFileWithFzf(".")
		if selErr == nil && sel != "" {
			fmt.Printf(" [fzf] %s\n", sel)
			return sel, nil
		}
		return PromptLine(prompt)
	}
	return input, nil
}

// distinctPalette builds a GIF palette from the distinct colors of a dithered buffer.
// It returns nil when the image has more than 256 colors.
func distinctPalette(img *image.NRGBA) color.Palette {
	seen := map[color.NRGBA]bool{}
	var p color.Palette
	for i := 0; i+3 < len(img.Pix); i += 4 {
		c := color.NRGBA{R: img.Pix[i], G: img.Pix[i+1], B: img.Pix[i+2], A: img.Pix[i+3]}
		if seen[c] {
			continue
		}
		if len(p) == 256 {
			return nil
		}
		seen[c] = true
		p = append(p, c)
	}
	return p
}

// SaveImage saves img using the format implied by the file extension.
// Supports .png, .jpg/.jpeg, .gif, .bmp and .tif/.tiff; anything else is written as PNG.
// GIF output keeps the exact dithered colors when there are at most 256 of them.
func SaveImage(path string, img *image.NRGBA) error {
	if img == nil {
		return fmt.Errorf("nil image")
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: 92})
	case ".gif":
		opts := &gif.Options{NumColors: 256}
		if p := distinctPalette(img); p != nil {
			pal := image.NewPaletted(img.Bounds(), p)
			for y := img.Bounds().Min.Y; y < img.Bounds().Max.Y; y++ {
				for x := img.Bounds().Min.X; x < img.Bounds().Max.X; x++ {
					pal.Set(x, y, img.NRGBAAt(x, y))
				}
			}
			err = gif.Encode(f, pal, nil)
			break
		}
		err = gif.Encode(f, img, opts)
	case ".bmp":
		err = bmp.Encode(f, img)
	case ".tif", ".tiff":
		err = tiff.Encode(f, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		err = png.Encode(f, img)
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
