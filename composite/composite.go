// Package composite shades a velocity field into an image on the CPU.
package composite

import (
	"image"
	"image/color"
	"math"
	"runtime"
	"sync"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/pthm-cable/ether/fluid"
	"github.com/pthm-cable/ether/palette"
)

// lutSize is the number of precomputed speed levels.
const lutSize = 256

// Compositor maps velocity magnitude through a color ramp blended over a
// background. Output is always at the destination image's resolution; the
// field is bilinearly resampled.
type Compositor struct {
	ramp    palette.Ramp
	bg      palette.Background
	lut     [lutSize]color.NRGBA
	workers int
}

// New creates a compositor. workers <= 0 uses NumCPU.
func New(ramp palette.Ramp, bg palette.Background, workers int) *Compositor {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	c := &Compositor{workers: workers}
	c.SetPalette(ramp, bg)
	return c
}

// SetPalette swaps the ramp and background.
func (c *Compositor) SetPalette(ramp palette.Ramp, bg palette.Background) {
	c.ramp = ramp
	c.bg = bg
	for i := range c.lut {
		c.lut[i] = c.Shade(float64(i) / (lutSize - 1))
	}
}

// Shade returns the output color for a velocity magnitude. Magnitudes are
// clamped to [0,1]: 0 yields the background, 1 the last ramp color at full
// opacity.
func (c *Compositor) Shade(speed float64) color.NRGBA {
	l := math.Min(math.Max(speed, 0), 1)
	ramp := c.ramp.Sample(l)
	bg := c.bg.Color
	rgb := colorful.Color{
		R: bg.R + (ramp.R-bg.R)*l,
		G: bg.G + (ramp.G-bg.G)*l,
		B: bg.B + (ramp.B-bg.B)*l,
	}
	a := c.bg.Alpha + (1-c.bg.Alpha)*l
	return color.NRGBA{R: to8(rgb.R), G: to8(rgb.G), B: to8(rgb.B), A: to8(a)}
}

func (c *Compositor) lookup(speed float64) color.NRGBA {
	if speed <= 0 {
		return c.lut[0]
	}
	if speed >= 1 {
		return c.lut[lutSize-1]
	}
	return c.lut[int(math.Round(speed*(lutSize-1)))]
}

// Render shades f into dst. Image row 0 is the top of the domain.
func (c *Compositor) Render(f *fluid.Field, dst *image.NRGBA) {
	b := dst.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return
	}

	rows := func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			v := 1 - (float64(y)+0.5)/float64(h)
			off := dst.PixOffset(b.Min.X, b.Min.Y+y)
			for x := 0; x < w; x++ {
				vx, vy := f.Sample((float64(x)+0.5)/float64(w), v)
				px := c.lookup(math.Hypot(vx, vy))
				dst.Pix[off+0] = px.R
				dst.Pix[off+1] = px.G
				dst.Pix[off+2] = px.B
				dst.Pix[off+3] = px.A
				off += 4
			}
		}
	}

	if c.workers == 1 || h < c.workers {
		rows(0, h)
		return
	}
	var wg sync.WaitGroup
	rowsPerWorker := h / c.workers
	for i := 0; i < c.workers; i++ {
		startY := i * rowsPerWorker
		endY := (i + 1) * rowsPerWorker
		if i == c.workers-1 {
			endY = h
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			rows(startY, endY)
		}()
	}
	wg.Wait()
}

func to8(v float64) uint8 {
	return uint8(math.Round(math.Min(math.Max(v, 0), 1) * 255))
}
