package ether

import (
	"github.com/pthm-cable/ether/fluid"
	"github.com/pthm-cable/ether/palette"
)

// Surface is the rectangular region the engine is mounted in.
type Surface interface {
	Viewport() Viewport
	// Detach removes the render surface from its host.
	Detach() error
}

// Target turns a solved velocity field into the visible frame.
type Target interface {
	SetPalette(ramp palette.Ramp, bg palette.Background)
	// Present draws one frame at width x height device pixels.
	Present(f *fluid.Field, width, height int) error
	Release() error
}

// Listener receives host input. Positions are in the same host pixel space
// as Viewport.
type Listener interface {
	PointerMove(x, y float64)
	PointerLeave()
	TouchStart(x, y float64, touches int)
	TouchMove(x, y float64, touches int)
	TouchEnd()
	Resize()
	Intersection(intersecting bool)
	Visibility(visible bool)
}

// EventSource delivers host events to a listener until the returned
// function is called.
type EventSource interface {
	Subscribe(l Listener) (unsubscribe func())
}

// Profiler receives frame and phase timings.
type Profiler interface {
	fluid.PhaseTimer
	StartTick()
	EndTick()
}
