// Package palette holds the color ramp used to shade the fluid by speed.
package palette

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// DefaultStops is the ramp used when no configuration overrides it.
var DefaultStops = []string{"#5227FF", "#FF9FFC", "#B19EEF"}

var white = colorful.Color{R: 1, G: 1, B: 1}

// Ramp is an ordered list of colors sampled as a 1D linear texture.
// It always holds at least two entries.
type Ramp struct {
	stops []colorful.Color
}

// Parse builds a ramp from hex color strings ("#RGB" or "#RRGGBB").
// Entries that fail to parse are skipped and reported in the returned error,
// but the ramp is always usable: a single color is repeated and an empty
// list becomes white-white.
func Parse(hex []string) (Ramp, error) {
	var errs []error
	stops := make([]colorful.Color, 0, len(hex))
	for _, h := range hex {
		c, err := colorful.Hex(h)
		if err != nil {
			errs = append(errs, fmt.Errorf("color %q: %w", h, err))
			continue
		}
		stops = append(stops, c)
	}
	return FromColors(stops), errors.Join(errs...)
}

// MustParse is like Parse but panics on invalid entries.
func MustParse(hex ...string) Ramp {
	r, err := Parse(hex)
	if err != nil {
		panic(fmt.Sprintf("palette: %v", err))
	}
	return r
}

// FromColors builds a ramp from already parsed colors.
func FromColors(stops []colorful.Color) Ramp {
	switch len(stops) {
	case 0:
		return Ramp{stops: []colorful.Color{white, white}}
	case 1:
		return Ramp{stops: []colorful.Color{stops[0], stops[0]}}
	}
	out := make([]colorful.Color, len(stops))
	copy(out, stops)
	return Ramp{stops: out}
}

// Len returns the number of texels in the ramp.
func (r Ramp) Len() int {
	if len(r.stops) == 0 {
		return 2
	}
	return len(r.stops)
}

// Stop returns the i-th color.
func (r Ramp) Stop(i int) colorful.Color {
	if len(r.stops) == 0 {
		return white
	}
	return r.stops[i]
}

// Sample returns the ramp color at t in [0,1] using linear filtering with
// texel-center addressing and clamp-to-edge, matching a GPU lookup into an
// Nx1 texture.
func (r Ramp) Sample(t float64) colorful.Color {
	n := r.Len()
	x := t*float64(n) - 0.5
	if x <= 0 {
		return r.Stop(0)
	}
	if x >= float64(n-1) {
		return r.Stop(n - 1)
	}
	i0 := int(math.Floor(x))
	f := x - float64(i0)
	a, b := r.Stop(i0), r.Stop(i0+1)
	return colorful.Color{
		R: a.R + (b.R-a.R)*f,
		G: a.G + (b.G-a.G)*f,
		B: a.B + (b.B-a.B)*f,
	}
}

// Pixels returns the ramp as opaque 8-bit texels for texture upload.
func (r Ramp) Pixels() []color.RGBA {
	out := make([]color.RGBA, r.Len())
	for i := range out {
		c := r.Stop(i)
		out[i] = color.RGBA{R: to8(c.R), G: to8(c.G), B: to8(c.B), A: 255}
	}
	return out
}

// Background is the color shown where the fluid is at rest.
type Background struct {
	Color colorful.Color
	Alpha float64
}

// Transparent is a fully transparent black background.
var Transparent = Background{}

// ParseBackground parses a hex color plus alpha. An empty string yields
// transparent black.
func ParseBackground(hex string, alpha float64) (Background, error) {
	if hex == "" {
		return Background{Alpha: clamp01(alpha)}, nil
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return Background{Alpha: clamp01(alpha)}, fmt.Errorf("background %q: %w", hex, err)
	}
	return Background{Color: c, Alpha: clamp01(alpha)}, nil
}

// Vec4 returns the background as normalized RGBA components.
func (b Background) Vec4() [4]float32 {
	return [4]float32{float32(b.Color.R), float32(b.Color.G), float32(b.Color.B), float32(b.Alpha)}
}

func to8(v float64) uint8 {
	return uint8(math.Round(clamp01(v) * 255))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
