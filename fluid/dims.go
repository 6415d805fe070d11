package fluid

import "math"

// Dims describes the simulation grid.
type Dims struct {
	Width, Height int
	// CellScale is the size of one texel in UV units (1/Width, 1/Height).
	CellScale [2]float64
}

// ComputeDims derives grid dimensions from a viewport size and a resolution
// fraction. Each axis is max(1, round(fraction*viewport)).
func ComputeDims(viewW, viewH int, fraction float64) Dims {
	w := gridAxis(viewW, fraction)
	h := gridAxis(viewH, fraction)
	return Dims{
		Width:     w,
		Height:    h,
		CellScale: [2]float64{1 / float64(w), 1 / float64(h)},
	}
}

func gridAxis(view int, fraction float64) int {
	n := math.Round(fraction * float64(view))
	if math.IsNaN(n) || n < 1 {
		return 1
	}
	return int(n)
}

// BoundarySpace is the inset applied to every face pass: zero for open
// edges, one texel when walls bounce.
func (d Dims) BoundarySpace(b Boundary) [2]float64 {
	if b == BoundaryBounce {
		return d.CellScale
	}
	return [2]float64{}
}

// Ratio corrects advection for non-square grids.
func (d Dims) Ratio() [2]float64 {
	m := float64(max(d.Width, d.Height))
	return [2]float64{m / float64(d.Width), m / float64(d.Height)}
}

// Texels returns Width*Height.
func (d Dims) Texels() int {
	return d.Width * d.Height
}

// ForceCenter clamps the pointer position so the force footprint, whose
// half-extent is cursorSize*cellScale in clip space, stays two texels away
// from the domain edge.
func ForceCenter(coord [2]float64, cursorSize float64, cell [2]float64) [2]float64 {
	var out [2]float64
	for i := 0; i < 2; i++ {
		margin := cursorSize*cell[i] + 2*cell[i]
		out[i] = math.Min(math.Max(coord[i], -1+margin), 1-margin)
	}
	return out
}
