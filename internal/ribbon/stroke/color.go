package stroke

import (
	"fmt"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Color is a straight (non-premultiplied) RGBA color with channels in [0, 1].
type Color struct {
	R, G, B, A float64
}

// White is the default brush color.
var White = Color{R: 1, G: 1, B: 1, A: 1}

// ParseColor parses "#rrggbb" or "#rrggbbaa".
func ParseColor(s string) (Color, error) {
	if len(s) == 9 && s[0] == '#' {
		c, err := colorful.Hex(s[:7])
		if err != nil {
			return Color{}, fmt.Errorf("invalid color %q: %w", s, err)
		}
		var a uint8
		if _, err := fmt.Sscanf(s[7:], "%02x", &a); err != nil {
			return Color{}, fmt.Errorf("invalid alpha in color %q: %w", s, err)
		}
		return Color{R: c.R, G: c.G, B: c.B, A: float64(a) / 255}, nil
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return Color{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return Color{R: c.R, G: c.G, B: c.B, A: 1}, nil
}

// Hex formats the color as "#rrggbb", or "#rrggbbaa" when not opaque.
func (c Color) Hex() string {
	rgb := colorful.Color{R: c.R, G: c.G, B: c.B}.Clamped().Hex()
	if c.A >= 1 {
		return rgb
	}
	a := c.A
	if a < 0 {
		a = 0
	}
	return fmt.Sprintf("%s%02x", rgb, uint8(a*255+0.5))
}
