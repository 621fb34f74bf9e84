// Package color implements the engine's two colour encodings: an
// 8-bit sRGB-by-convention Rgba and an HDR variant carrying an
// intensity scalar for directional lights.
package color

import (
	"fmt"
	"math"
)

// Rgba is a 4-byte colour, channels in [0, 255], sRGB-encoded by
// convention (format chooses linear vs sRGB interpretation on the GPU
// side; this type never applies gamma itself).
type Rgba struct {
	R, G, B, A uint8
}

// White is fully-opaque white, the fallback colour for a material's
// albedo and for a scene light colour that fails to parse.
var White = Rgba{255, 255, 255, 255}

// Black is fully-opaque black.
var Black = Rgba{0, 0, 0, 255}

// HdrRgba is an Rgba plus an intensity multiplier, used for
// directional light colour where values can exceed 1.0 after
// conversion to linear.
type HdrRgba struct {
	Rgba      Rgba
	Intensity float32
}

// Linear converts the sRGB-encoded channel bytes to linear float
// components in [0, 1], scaled by Intensity.
func (c HdrRgba) Linear() [3]float32 {
	toLinear := func(u uint8) float32 {
		s := float32(u) / 255.0
		if s <= 0.04045 {
			return s / 12.92
		}
		return pow((s+0.055)/1.055, 2.4)
	}
	scale := c.Intensity
	if scale == 0 {
		scale = 1
	}
	return [3]float32{
		toLinear(c.Rgba.R) * scale,
		toLinear(c.Rgba.G) * scale,
		toLinear(c.Rgba.B) * scale,
	}
}

func pow(x float32, y float32) float32 {
	return float32(math.Pow(float64(x), float64(y)))
}

// Hex formats the colour as "#RRGGBBAA", the persisted scene-JSON
// encoding (§6).
func (c Rgba) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X%02X", c.R, c.G, c.B, c.A)
}

// ParseHex parses a "#RRGGBBAA" string into an Rgba.
func ParseHex(s string) (Rgba, error) {
	var c Rgba
	if len(s) != 9 || s[0] != '#' {
		return c, fmt.Errorf("color: invalid hex colour %q", s)
	}
	var r, g, b, a uint8
	if _, err := fmt.Sscanf(s[1:], "%02x%02x%02x%02x", &r, &g, &b, &a); err != nil {
		return c, fmt.Errorf("color: invalid hex colour %q: %w", s, err)
	}
	return Rgba{r, g, b, a}, nil
}
