// Package palette holds the RGB color type shared by the scene and renderers.
package palette

import (
	"fmt"
	"math"

	colors "gopkg.in/go-playground/colors.v1"
)

// Color channels are in [0, 1].
type Color struct {
	R, G, B float64
}

var (
	Black = Color{0, 0, 0}
	White = Color{1, 1, 1}
)

// Parse reads a "#rrggbb" or "#rgb" string.
func Parse(hex string) (Color, error) {
	h, err := colors.ParseHEX(hex)
	if err != nil {
		return Color{}, fmt.Errorf("palette: %q: %w", hex, err)
	}
	rgb := h.ToRGB()
	return Color{
		R: float64(rgb.R) / 255,
		G: float64(rgb.G) / 255,
		B: float64(rgb.B) / 255,
	}, nil
}

// Lerp moves from a toward b by alpha.
func Lerp(a, b Color, alpha float64) Color {
	return Color{
		R: a.R + (b.R-a.R)*alpha,
		G: a.G + (b.G-a.G)*alpha,
		B: a.B + (b.B-a.B)*alpha,
	}
}

func (c Color) Hex() string {
	rgb, err := colors.RGB(channel(c.R), channel(c.G), channel(c.B))
	if err != nil {
		return "#000000"
	}
	return rgb.ToHEX().String()
}

func channel(v float64) uint8 {
	return uint8(math.Round(math.Min(math.Max(v, 0), 1) * 255))
}

// Gradient returns the top and bottom stops of the pipe look: the base color
// lightened toward white and darkened toward black.
func Gradient(base Color) (top, bottom Color) {
	return Lerp(White, base, 0.75), Lerp(Black, base, 0.75)
}
