package mosaic

import "image/color"

// Pixel wraps an RGBA value for blend arithmetic. Both operations work on
// the color channels only and never wrap: Scale truncates into [0, 255]
// and SaturatingAdd caps at 255. The receiver's alpha rides along
// untouched, so a blended tile pixel keeps its own transparency.
type Pixel color.RGBA

// Scale multiplies each color channel by f, clamped to [0, 255].
func (p Pixel) Scale(f float64) Pixel {
	return Pixel{
		R: clamp8(float64(p.R) * f),
		G: clamp8(float64(p.G) * f),
		B: clamp8(float64(p.B) * f),
		A: p.A,
	}
}

// SaturatingAdd adds q's color channels to p's, saturating at 255.
func (p Pixel) SaturatingAdd(q Pixel) Pixel {
	return Pixel{
		R: satAdd(p.R, q.R),
		G: satAdd(p.G, q.G),
		B: satAdd(p.B, q.B),
		A: p.A,
	}
}

// Blend tints a tile pixel toward the cell's dominant color:
// tile*(1-alpha) + dominant*alpha per channel. alpha 0 returns the tile
// pixel unchanged, alpha 1 a flat dominant-color swatch.
func Blend(tile, dominant color.RGBA, alpha float64) color.RGBA {
	p := Pixel(tile).Scale(1 - alpha).SaturatingAdd(Pixel(dominant).Scale(alpha))
	return color.RGBA(p)
}

func clamp8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

func satAdd(a, b uint8) uint8 {
	s := uint16(a) + uint16(b)
	if s > 255 {
		return 255
	}
	return uint8(s)
}
