package oklab

import (
	"image/color"
	"math"
	"testing"
)

func absDiff(a, b uint8) int {
	d := int(a) - int(b)
	if d < 0 {
		return -d
	}
	return d
}

// Converting sRGB to Oklab and back must land within one quantization
// step per channel.
func TestRoundTrip(t *testing.T) {
	values := []uint8{0, 1, 17, 63, 64, 127, 128, 200, 254, 255}
	for _, r := range values {
		for _, g := range values {
			for _, b := range values {
				in := color.RGBA{R: r, G: g, B: b, A: 0xFF}
				out := FromRGBA(in).ToRGBA()
				if absDiff(in.R, out.R) > 1 || absDiff(in.G, out.G) > 1 || absDiff(in.B, out.B) > 1 {
					t.Fatalf("round trip %v -> %v drifts more than one unit", in, out)
				}
				if out.A != 0xFF {
					t.Fatalf("round trip %v lost opacity: %v", in, out)
				}
			}
		}
	}
}

func TestKnownValues(t *testing.T) {
	white := FromRGBA(color.RGBA{R: 255, G: 255, B: 255, A: 255})
	if math.Abs(white.L-1) > 0.001 || math.Abs(white.A) > 0.001 || math.Abs(white.B) > 0.001 {
		t.Fatalf("white = %+v, want L=1 a=0 b=0", white)
	}

	black := FromRGBA(color.RGBA{A: 255})
	if math.Abs(black.L) > 0.001 || math.Abs(black.A) > 0.001 || math.Abs(black.B) > 0.001 {
		t.Fatalf("black = %+v, want all zero", black)
	}

	// Gray has no chroma.
	gray := FromRGBA(color.RGBA{R: 128, G: 128, B: 128, A: 255})
	if math.Abs(gray.A) > 0.001 || math.Abs(gray.B) > 0.001 {
		t.Fatalf("gray = %+v, want a=0 b=0", gray)
	}
}

// Out-of-gamut Lab values clamp to the device range instead of wrapping.
func TestToRGBAClamps(t *testing.T) {
	over := Lab{L: 1.5}.ToRGBA()
	if over.R != 255 || over.G != 255 || over.B != 255 {
		t.Fatalf("over-bright Lab = %v, want all channels 255", over)
	}
	under := Lab{L: -0.5}.ToRGBA()
	if under.R != 0 || under.G != 0 || under.B != 0 {
		t.Fatalf("under-dark Lab = %v, want all channels 0", under)
	}
}

func TestDistSq(t *testing.T) {
	a := FromRGBA(color.RGBA{R: 200, G: 30, B: 30, A: 255})
	b := FromRGBA(color.RGBA{R: 30, G: 30, B: 200, A: 255})
	if a.DistSq(a) != 0 {
		t.Fatalf("DistSq(a, a) = %g, want 0", a.DistSq(a))
	}
	if got, want := a.DistSq(b), b.DistSq(a); got != want {
		t.Fatalf("DistSq not symmetric: %g vs %g", got, want)
	}
	if a.DistSq(b) <= 0 {
		t.Fatalf("distinct colors have distance %g", a.DistSq(b))
	}
}

// FromColor and FromRGBA must agree for opaque 8-bit input.
func TestFromColorMatchesFromRGBA(t *testing.T) {
	c := color.RGBA{R: 13, G: 200, B: 88, A: 255}
	viaColor := FromColor(c)
	viaRGBA := FromRGBA(c)
	if math.Abs(viaColor.L-viaRGBA.L) > 1e-6 ||
		math.Abs(viaColor.A-viaRGBA.A) > 1e-6 ||
		math.Abs(viaColor.B-viaRGBA.B) > 1e-6 {
		t.Fatalf("FromColor = %+v, FromRGBA = %+v", viaColor, viaRGBA)
	}
}
