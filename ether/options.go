package ether

import (
	"slices"
	"time"

	"github.com/pthm-cable/ether/fluid"
	"github.com/pthm-cable/ether/palette"
	"github.com/pthm-cable/ether/pointer"
)

// Options is the full set of tunables. Any field may change between
// frames through Engine.UpdateOptions.
type Options struct {
	fluid.Options

	Colors     []string           // ramp stops, hex
	Background palette.Background // shown where the fluid is at rest

	AutoDemo         bool          // run the idle driver
	AutoSpeed        float64       // idle driver speed, normalized units per second
	AutoIntensity    float64       // delta multiplier while the driver is in control
	TakeoverDuration time.Duration // blend from driver to user
	AutoResumeDelay  time.Duration // inactivity before the driver starts
	AutoRampDuration time.Duration // driver ease-in
}

// DefaultOptions returns the stock look.
func DefaultOptions() Options {
	return Options{
		Options:          fluid.DefaultOptions(),
		Colors:           slices.Clone(palette.DefaultStops),
		Background:       palette.Transparent,
		AutoDemo:         true,
		AutoSpeed:        0.5,
		AutoIntensity:    2.2,
		TakeoverDuration: 250 * time.Millisecond,
		AutoResumeDelay:  3000 * time.Millisecond,
		AutoRampDuration: 600 * time.Millisecond,
	}
}

func (o Options) pointerConfig() pointer.Config {
	return pointer.Config{
		AutoIntensity:    o.AutoIntensity,
		TakeoverDuration: o.TakeoverDuration,
	}
}

func (o Options) driverConfig() pointer.DriverConfig {
	return pointer.DriverConfig{
		Enabled:      o.AutoDemo,
		Speed:        o.AutoSpeed,
		ResumeDelay:  o.AutoResumeDelay,
		RampDuration: o.AutoRampDuration,
	}
}

// normalized replaces degenerate values with usable ones and reports which
// fields it touched.
func (o Options) normalized() (Options, []string) {
	var fixed []string
	def := fluid.DefaultOptions()
	if !(o.DT > 0) {
		o.DT = def.DT
		fixed = append(fixed, "dt")
	}
	if !(o.Resolution > 0) {
		o.Resolution = def.Resolution
		fixed = append(fixed, "resolution")
	} else if o.Resolution > 1 {
		o.Resolution = 1
		fixed = append(fixed, "resolution")
	}
	if o.ViscousIterations < 0 {
		o.ViscousIterations = 0
		fixed = append(fixed, "iterations_viscous")
	}
	if o.PoissonIterations < 0 {
		o.PoissonIterations = 0
		fixed = append(fixed, "iterations_poisson")
	}
	if o.CursorSize < 0 {
		o.CursorSize = 0
		fixed = append(fixed, "cursor_size")
	}
	return o, fixed
}
