package stdimg

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Palette is an ordered list of output colors. Alpha of each entry is ignored.
type Palette []color.RGBA

// DefaultPalette returns {black, white}.
func DefaultPalette() Palette {
	return Palette{
		{R: 0, G: 0, B: 0, A: 255},
		{R: 255, G: 255, B: 255, A: 255},
	}
}

// ParseHexRGB parses "#RRGGBB" (the '#' is optional, hex digits are case-insensitive).
func ParseHexRGB(s string) (color.RGBA, error) {
	s = strings.TrimSpace(s)
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid color %q: want #RRGGBB", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

// ParsePalette parses a list of hex triplets. An empty list is ErrInvalidPalette.
func ParsePalette(hexes []string) (Palette, error) {
	p := make(Palette, 0, len(hexes))
	for _, h := range hexes {
		if strings.TrimSpace(h) == "" {
			continue
		}
		c, err := ParseHexRGB(h)
		if err != nil {
			return nil, err
		}
		p = append(p, c)
	}
	if len(p) == 0 {
		return nil, ErrInvalidPalette
	}
	return p, nil
}

// Hex formats the palette as "#rrggbb" strings.
func (p Palette) Hex() []string {
	out := make([]string, len(p))
	for i, c := range p {
		out[i] = fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return out
}

// Index returns the position of the entry nearest to (r,g,b) by unweighted
// Euclidean distance; the first entry reaching the minimum wins. It returns -1
// for an empty palette.
func (p Palette) Index(r, g, b int) int {
	best := -1
	bestDist := 0
	for i, c := range p {
		dr := r - int(c.R)
		dg := g - int(c.G)
		db := b - int(c.B)
		d := dr*dr + dg*dg + db*db
		if best < 0 || d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}

// ClosestColor returns the palette entry nearest to (r,g,b).
func ClosestColor(r, g, b int, p Palette) (color.RGBA, error) {
	i := p.Index(r, g, b)
	if i < 0 {
		return color.RGBA{}, ErrInvalidPalette
	}
	return p[i], nil
}
