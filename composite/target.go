package composite

import (
	"image"

	"github.com/pthm-cable/ether/fluid"
	"github.com/pthm-cable/ether/palette"
)

// ImageTarget is an ether render target backed by an in-memory image. The
// image is reallocated when the presented size changes.
type ImageTarget struct {
	comp     *Compositor
	img      *image.NRGBA
	presents uint64
	released bool
}

// NewImageTarget creates a target shading with the default ramp until the
// engine installs its palette.
func NewImageTarget(workers int) *ImageTarget {
	return &ImageTarget{
		comp: New(palette.MustParse(palette.DefaultStops...), palette.Transparent, workers),
	}
}

// SetPalette implements ether.Target.
func (t *ImageTarget) SetPalette(ramp palette.Ramp, bg palette.Background) {
	t.comp.SetPalette(ramp, bg)
}

// Present implements ether.Target.
func (t *ImageTarget) Present(f *fluid.Field, width, height int) error {
	if width < 1 || height < 1 {
		return nil
	}
	if t.img == nil || t.img.Rect.Dx() != width || t.img.Rect.Dy() != height {
		t.img = image.NewNRGBA(image.Rect(0, 0, width, height))
	}
	t.comp.Render(f, t.img)
	t.presents++
	return nil
}

// Release implements ether.Target.
func (t *ImageTarget) Release() error {
	t.img = nil
	t.released = true
	return nil
}

// Image returns the last presented frame, or nil before the first Present.
// The image is reused by the next Present.
func (t *ImageTarget) Image() *image.NRGBA { return t.img }

// Presents returns how many frames have been presented.
func (t *ImageTarget) Presents() uint64 { return t.presents }

// Released reports whether Release has been called.
func (t *ImageTarget) Released() bool { return t.released }

// Compositor returns the shading stage, for hosts that shade single colors.
func (t *ImageTarget) Compositor() *Compositor { return t.comp }
