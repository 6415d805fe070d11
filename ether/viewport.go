package ether

import "math"

// maxPixelRatio caps HiDPI scaling of the render surface.
const maxPixelRatio = 2

// Viewport is the surface's rectangle in host (CSS-like) pixels plus the
// host's device pixel ratio.
type Viewport struct {
	Left, Top     float64
	Width, Height float64
	PixelRatio    float64
}

// Normalize maps a host-space point to [-1,1] with +Y up. Points outside
// the rectangle map outside that range.
func (v Viewport) Normalize(x, y float64) [2]float64 {
	if v.Width <= 0 || v.Height <= 0 {
		return [2]float64{}
	}
	nx := (x - v.Left) / v.Width
	ny := (y - v.Top) / v.Height
	return [2]float64{nx*2 - 1, -(ny*2 - 1)}
}

// Ratio returns the effective pixel ratio, in (0, 2].
func (v Viewport) Ratio() float64 {
	if v.PixelRatio <= 0 || math.IsNaN(v.PixelRatio) {
		return 1
	}
	return math.Min(v.PixelRatio, maxPixelRatio)
}

// DevicePixels returns the render size in device pixels, at least 1x1.
func (v Viewport) DevicePixels() (int, int) {
	r := v.Ratio()
	w := max(1, int(math.Round(v.Width*r)))
	h := max(1, int(math.Round(v.Height*r)))
	return w, h
}
