package pointer

import (
	"math"
	"math/rand"
	"time"
)

const (
	// margin keeps driver targets inside [-1+margin, 1-margin].
	margin = 0.2
	// targetEpsilon is the distance at which a target counts as reached.
	targetEpsilon = 0.01
	// maxFrameGap and fallbackDT stop a long stall from teleporting the
	// cursor.
	maxFrameGap = 0.2
	fallbackDT  = 0.016
)

// DriverConfig holds the idle driver tunables.
type DriverConfig struct {
	Enabled      bool
	Speed        float64       // normalized units per second
	ResumeDelay  time.Duration // inactivity before the driver takes over
	RampDuration time.Duration // ease-in after activation
}

// Driver synthesizes a wandering cursor path while the user is away.
type Driver struct {
	cfg DriverConfig
	rng *rand.Rand

	active    bool
	current   [2]float64
	target    [2]float64
	lastTime  time.Time
	activated time.Time
}

// NewDriver creates a dormant driver with its first target picked.
func NewDriver(cfg DriverConfig, rng *rand.Rand) *Driver {
	d := &Driver{cfg: cfg, rng: rng}
	d.pickTarget()
	return d
}

func (d *Driver) SetConfig(cfg DriverConfig) { d.cfg = cfg }

func (d *Driver) Active() bool { return d.active }

func (d *Driver) Target() [2]float64 { return d.target }

func (d *Driver) pickTarget() {
	d.target = [2]float64{
		(d.rng.Float64()*2 - 1) * (1 - margin),
		(d.rng.Float64()*2 - 1) * (1 - margin),
	}
}

// Stop deactivates the driver and returns control of p.
func (d *Driver) Stop(p *Pointer) {
	d.active = false
	p.StopAuto()
}

// Interrupt is called on real input; it stops an active driver.
func (d *Driver) Interrupt(p *Pointer) {
	if d.active {
		d.Stop(p)
	}
}

// Tick steers p toward the current target when the user has been idle for
// the resume delay and is not hovering.
func (d *Driver) Tick(now time.Time, p *Pointer) {
	if !d.cfg.Enabled {
		d.Interrupt(p)
		return
	}
	if now.Sub(p.LastInteraction()) < d.cfg.ResumeDelay || p.Hover {
		d.Interrupt(p)
		return
	}
	if !d.active {
		d.active = true
		d.current = p.Coord
		d.lastTime = now
		d.activated = now
	}

	dt := now.Sub(d.lastTime).Seconds()
	d.lastTime = now
	if dt > maxFrameGap {
		dt = fallbackDT
	}

	dx, dy := d.target[0]-d.current[0], d.target[1]-d.current[1]
	dist := math.Hypot(dx, dy)
	if dist < targetEpsilon {
		d.pickTarget()
		return
	}

	ramp := 1.0
	if d.cfg.RampDuration > 0 {
		t := math.Min(1, now.Sub(d.activated).Seconds()/d.cfg.RampDuration.Seconds())
		ramp = t * t * (3 - 2*t)
	}
	move := math.Min(d.cfg.Speed*dt*ramp, dist)
	d.current[0] += dx / dist * move
	d.current[1] += dy / dist * move
	p.SetAuto(d.current)
}
