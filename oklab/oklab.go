// based on:
// https://bottosson.github.io/posts/oklab/
// https://bottosson.github.io/posts/colorwrong/#what-can-we-do%3F

package oklab

import (
	"image/color"
	"math"
)

// Lab is a color in the Oklab perceptually uniform space. Euclidean
// distance between two Lab values approximates perceived color difference.
// Alpha is dropped at conversion; tile source pixels are treated as opaque.
type Lab struct {
	L float64 // perceived lightness
	A float64 // how green/red the color is
	B float64 // how blue/yellow the color is
}

// FromColor converts any color to Oklab through linear RGB.
func FromColor(c color.Color) Lab {
	r, g, b, _ := c.RGBA()
	return fromLinearRGB(
		toLinear(float64(r)/65535),
		toLinear(float64(g)/65535),
		toLinear(float64(b)/65535),
	)
}

// FromRGBA converts an 8-bit sRGB pixel to Oklab.
func FromRGBA(c color.RGBA) Lab {
	return fromLinearRGB(
		toLinear(float64(c.R)/255),
		toLinear(float64(c.G)/255),
		toLinear(float64(c.B)/255),
	)
}

func fromLinearRGB(r, g, b float64) Lab {
	l := math.Cbrt(0.4122214708*r + 0.5363325363*g + 0.0514459929*b)
	m := math.Cbrt(0.2119034982*r + 0.6806995451*g + 0.1073969566*b)
	s := math.Cbrt(0.0883024619*r + 0.2817188376*g + 0.6299787005*b)

	return Lab{
		L: 0.2104542553*l + 0.7936177850*m - 0.0040720468*s,
		A: 1.9779984951*l - 2.4285922050*m + 0.4505937099*s,
		B: 0.0259040371*l + 0.7827717662*m - 0.8086757660*s,
	}
}

// ToRGBA converts back to 8-bit sRGB with full opacity. Each channel is
// clamped to [0, 255]; round-tripping an sRGB color through Lab is exact
// up to one unit per channel of quantization.
func (lc Lab) ToRGBA() color.RGBA {
	l := lc.L + 0.3963377774*lc.A + 0.2158037573*lc.B
	l = l * l * l
	m := lc.L - 0.1055613458*lc.A - 0.0638541728*lc.B
	m = m * m * m
	s := lc.L - 0.0894841775*lc.A - 1.2914855480*lc.B
	s = s * s * s

	r := +4.0767416621*l - 3.3077115913*m + 0.2309699292*s
	g := -1.2684380046*l + 2.6097574011*m - 0.3413193965*s
	b := -0.0041960863*l - 0.7034186147*m + 1.7076147010*s

	return color.RGBA{
		R: quantize(fromLinear(r)),
		G: quantize(fromLinear(g)),
		B: quantize(fromLinear(b)),
		A: 0xFF,
	}
}

// DistSq is the squared perceptual distance between two Lab colors.
func (lc Lab) DistSq(o Lab) float64 {
	dL := lc.L - o.L
	dA := lc.A - o.A
	dB := lc.B - o.B
	return dL*dL + dA*dA + dB*dB
}

func quantize(v float64) uint8 {
	v = math.Round(v * 255)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

func toLinear(x float64) float64 {
	if x >= 0.04045 {
		return math.Pow((x+0.055)/1.055, 2.4)
	}
	return x / 12.92
}

const pow float64 = 1.0 / 2.4

func fromLinear(x float64) float64 {
	if x >= 0.0031308 {
		return math.Pow(x, pow)*1.055 - 0.055
	}
	return x * 12.92
}
