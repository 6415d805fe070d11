package host

import (
	"sync"

	"github.com/pthm-cable/ether/ether"
)

// Surface is an ether.Surface whose size is polled from the front end.
type Surface struct {
	// Size returns the surface size in host pixels.
	Size func() (w, h float64)
	// Ratio returns the device pixel ratio. Nil means 1, or the fixed
	// override when one is set.
	Ratio func() float64
	// Override, when positive, replaces whatever Ratio reports.
	Override float64
	// OnDetach runs once, on the first Detach.
	OnDetach func() error

	detach sync.Once
}

// FixedSurface returns a surface of constant size.
func FixedSurface(w, h, ratio float64) *Surface {
	return &Surface{
		Size:     func() (float64, float64) { return w, h },
		Override: ratio,
	}
}

// Viewport implements ether.Surface.
func (s *Surface) Viewport() ether.Viewport {
	var vp ether.Viewport
	if s.Size != nil {
		vp.Width, vp.Height = s.Size()
	}
	switch {
	case s.Override > 0:
		vp.PixelRatio = s.Override
	case s.Ratio != nil:
		vp.PixelRatio = s.Ratio()
	}
	return vp
}

// Detach implements ether.Surface.
func (s *Surface) Detach() error {
	var err error
	s.detach.Do(func() {
		if s.OnDetach != nil {
			err = s.OnDetach()
		}
	})
	return err
}
