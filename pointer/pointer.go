// Package pointer tracks the cursor that drives the fluid: real pointer and
// touch input, an autonomous idle driver, and the takeover blend between the
// two.
package pointer

import (
	"fmt"
	"time"
)

// Mode is the pointer's control state.
type Mode int

const (
	// Idle: no input yet, or the idle driver was stopped.
	Idle Mode = iota
	// User: the coordinate follows real input.
	User
	// Auto: the idle driver owns the coordinate.
	Auto
	// Takeover: the coordinate is blending from the driver's last position
	// to the user's.
	Takeover
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case User:
		return "user"
	case Auto:
		return "auto"
	case Takeover:
		return "takeover"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// movingWindow is how long Moving stays true after a real move.
const movingWindow = 100 * time.Millisecond

// Config holds the pointer tunables.
type Config struct {
	AutoIntensity    float64       // delta multiplier while the driver is in control
	TakeoverDuration time.Duration // blend time from driver to user
}

// Pointer is the normalized cursor, in [-1,1] with +Y up.
type Pointer struct {
	cfg Config

	Coord [2]float64
	Prev  [2]float64
	Delta [2]float64
	Hover bool

	mode          Mode
	takeoverFrom  [2]float64
	takeoverTo    [2]float64
	takeoverStart time.Time
	takeoverT     float64

	lastInteraction time.Time
	lastMove        time.Time
}

// New creates a pointer. now counts as the last interaction, so the idle
// driver waits a full resume delay before its first run.
func New(cfg Config, now time.Time) *Pointer {
	return &Pointer{cfg: cfg, lastInteraction: now}
}

// SetConfig replaces the tunables; an active takeover keeps its start time.
func (p *Pointer) SetConfig(cfg Config) { p.cfg = cfg }

func (p *Pointer) Mode() Mode { return p.mode }

// LastInteraction returns the time of the latest real move or touch.
func (p *Pointer) LastInteraction() time.Time { return p.lastInteraction }

// Moving reports whether a real move happened within the last 100ms.
func (p *Pointer) Moving(now time.Time) bool {
	return !p.lastMove.IsZero() && now.Sub(p.lastMove) < movingWindow
}

// Takeover returns the blend endpoints and the last interpolation parameter.
func (p *Pointer) Takeover() (from, to [2]float64, t float64) {
	return p.takeoverFrom, p.takeoverTo, p.takeoverT
}

// Move records a pointer move at a normalized coordinate. While the idle
// driver is in control the move starts a takeover instead of jumping; a
// move during a takeover retargets it.
func (p *Pointer) Move(now time.Time, coord [2]float64) {
	p.lastInteraction = now
	p.lastMove = now
	p.Hover = inside(coord)

	switch p.mode {
	case Auto:
		p.takeoverFrom = p.Coord
		p.takeoverTo = coord
		p.takeoverStart = now
		p.takeoverT = 0
		p.mode = Takeover
	case Takeover:
		p.takeoverTo = coord
	default:
		p.Coord = coord
		p.mode = User
	}
}

// Leave marks the pointer as outside the surface.
func (p *Pointer) Leave() {
	p.Hover = false
}

// Touch applies a single-touch start or move. Multi-touch gestures are
// ignored and reported as false. Touches jump directly, even mid-takeover.
func (p *Pointer) Touch(now time.Time, coord [2]float64, touches int) bool {
	if touches != 1 {
		return false
	}
	p.lastInteraction = now
	p.lastMove = now
	p.Coord = coord
	p.mode = User
	return true
}

// SetAuto is the idle driver's write path. It is ignored during a takeover.
func (p *Pointer) SetAuto(coord [2]float64) {
	if p.mode == Takeover {
		return
	}
	p.Coord = coord
	p.mode = Auto
}

// StopAuto hands control back from the driver, keeping the coordinate.
func (p *Pointer) StopAuto() {
	if p.mode == Auto {
		p.mode = Idle
	}
}

// Tick advances any takeover and computes the frame delta.
func (p *Pointer) Tick(now time.Time) {
	if p.mode == Takeover {
		t := 1.0
		if d := p.cfg.TakeoverDuration; d > 0 {
			t = now.Sub(p.takeoverStart).Seconds() / d.Seconds()
		}
		t = max(t, p.takeoverT, 0)
		p.takeoverT = t
		if t >= 1 {
			p.Coord = p.takeoverTo
			p.Prev = p.Coord
			p.mode = User
		} else {
			k := t * t * (3 - 2*t)
			p.Coord = [2]float64{
				p.takeoverFrom[0] + (p.takeoverTo[0]-p.takeoverFrom[0])*k,
				p.takeoverFrom[1] + (p.takeoverTo[1]-p.takeoverFrom[1])*k,
			}
		}
	}

	p.Delta = [2]float64{p.Coord[0] - p.Prev[0], p.Coord[1] - p.Prev[1]}
	p.Prev = p.Coord
	if p.Prev == [2]float64{} {
		p.Delta = [2]float64{}
	}
	if p.mode == Auto {
		p.Delta[0] *= p.cfg.AutoIntensity
		p.Delta[1] *= p.cfg.AutoIntensity
	}
}

func inside(c [2]float64) bool {
	return c[0] >= -1 && c[0] <= 1 && c[1] >= -1 && c[1] <= 1
}
