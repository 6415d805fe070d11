package fluid

import (
	"fmt"
	"log/slog"
)

// Grid owns every field buffer of the simulation. Stages only ever see the
// handles it hands out.
type Grid struct {
	dev    Device
	logger *slog.Logger

	dims       Dims
	generation int

	Velocity   Arena  // front holds the projected velocity of the last frame
	Viscous    Arena  // diffusion estimate, warm-started across frames
	Pressure   Arena  // pressure estimate, warm-started across frames
	Divergence Buffer // scalar
}

// NewGrid allocates a grid sized for the given viewport.
func NewGrid(dev Device, viewW, viewH int, fraction float64, logger *slog.Logger) (*Grid, error) {
	if logger == nil {
		logger = slog.Default()
	}
	g := &Grid{dev: dev, logger: logger.With("component", "grid")}
	if _, err := g.Resize(viewW, viewH, fraction); err != nil {
		return nil, err
	}
	return g, nil
}

// Dims returns the current grid dimensions.
func (g *Grid) Dims() Dims { return g.dims }

// Generation increments on every reallocation.
func (g *Grid) Generation() int { return g.generation }

// Buffers lists every live field buffer.
func (g *Grid) Buffers() []Buffer {
	return []Buffer{
		g.Velocity.Get(SlotA), g.Velocity.Get(SlotB),
		g.Viscous.Get(SlotA), g.Viscous.Get(SlotB),
		g.Pressure.Get(SlotA), g.Pressure.Get(SlotB),
		g.Divergence,
	}
}

// Resize recomputes the grid dimensions and, when they change, reallocates
// every buffer. Field contents are discarded. On failure the previous
// buffers stay in place.
func (g *Grid) Resize(viewW, viewH int, fraction float64) (bool, error) {
	dims := ComputeDims(viewW, viewH, fraction)
	if g.generation > 0 && dims.Width == g.dims.Width && dims.Height == g.dims.Height {
		return false, nil
	}

	bufs, err := g.allocAll(dims)
	if err != nil {
		return false, fmt.Errorf("allocating %dx%d grid: %w", dims.Width, dims.Height, err)
	}

	g.release()
	g.Velocity = NewArena(bufs[0], bufs[1])
	g.Viscous = NewArena(bufs[2], bufs[3])
	g.Pressure = NewArena(bufs[4], bufs[5])
	g.Divergence = bufs[6]
	prev := g.dims
	g.dims = dims
	g.generation++
	g.logger.Debug("grid resized",
		"from", fmt.Sprintf("%dx%d", prev.Width, prev.Height),
		"to", fmt.Sprintf("%dx%d", dims.Width, dims.Height))
	return true, nil
}

// gridLayout is the component count of each buffer, in Buffers() order.
var gridLayout = [...]int{2, 2, 2, 2, 1, 1, 1}

// allocAll allocates a complete buffer set, releasing any partial set on
// failure.
func (g *Grid) allocAll(dims Dims) ([]Buffer, error) {
	bufs := make([]Buffer, 0, len(gridLayout))
	for _, c := range gridLayout {
		b, err := g.dev.Alloc(dims.Width, dims.Height, c)
		if err != nil {
			for _, done := range bufs {
				g.dev.Release(done)
			}
			return nil, err
		}
		bufs = append(bufs, b)
	}
	return bufs, nil
}

func (g *Grid) release() {
	g.Velocity.release(g.dev)
	g.Viscous.release(g.dev)
	g.Pressure.release(g.dev)
	if g.Divergence != nil {
		g.dev.Release(g.Divergence)
		g.Divergence = nil
	}
}

// Release frees every buffer. The grid must not be stepped afterwards.
func (g *Grid) Release() {
	g.release()
}
