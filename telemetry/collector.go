package telemetry

import (
	"github.com/pthm-cable/ether/fluid"
	"github.com/pthm-cable/ether/pointer"
)

// Collector accumulates per-frame flow measurements and produces a
// WindowStats every window.
type Collector struct {
	windowFrames uint64
	dt           float64

	windowStart uint64
	speeds      []float64
	residuals   []float64
	modeFrames  map[pointer.Mode]int
	takeovers   int
	lastMode    pointer.Mode
}

// NewCollector creates a collector with windows of windowSec simulated
// seconds at dt seconds per frame.
func NewCollector(windowSec, dt float64) *Collector {
	frames := uint64(1)
	if dt > 0 && windowSec > dt {
		frames = uint64(windowSec / dt)
	}
	return &Collector{
		windowFrames: frames,
		dt:           dt,
		modeFrames:   make(map[pointer.Mode]int),
	}
}

// WindowFrames returns the number of frames per window.
func (c *Collector) WindowFrames() uint64 { return c.windowFrames }

// Record adds one frame. The field is measured for peak speed and
// residual divergence.
func (c *Collector) Record(f *fluid.Field, mode pointer.Mode) {
	c.speeds = append(c.speeds, fluid.MaxSpeed(f))
	c.residuals = append(c.residuals, fluid.Residual(f))
	c.modeFrames[mode]++
	if mode == pointer.Takeover && c.lastMode != pointer.Takeover {
		c.takeovers++
	}
	c.lastMode = mode
}

// ShouldFlush reports whether the window ending at frame is complete.
func (c *Collector) ShouldFlush(frame uint64) bool {
	return frame-c.windowStart >= c.windowFrames
}

// Flush summarizes the window and starts a new one.
func (c *Collector) Flush(frame uint64, dims fluid.Dims) WindowStats {
	speed := Summarize(c.speeds)
	residual := Summarize(c.residuals)
	n := len(c.speeds)
	pct := func(m pointer.Mode) float64 {
		if n == 0 {
			return 0
		}
		return float64(c.modeFrames[m]) / float64(n) * 100
	}

	stats := WindowStats{
		WindowStart:  c.windowStart,
		WindowEnd:    frame,
		SimTimeSec:   float64(frame) * c.dt,
		Frames:       n,
		GridWidth:    dims.Width,
		GridHeight:   dims.Height,
		SpeedMean:    speed.Mean,
		SpeedP50:     speed.P50,
		SpeedP90:     speed.P90,
		SpeedMax:     speed.Max,
		ResidualMean: residual.Mean,
		ResidualMax:  residual.Max,
		UserPct:      pct(pointer.User),
		AutoPct:      pct(pointer.Auto),
		TakeoverPct:  pct(pointer.Takeover),
		Takeovers:    c.takeovers,
	}

	c.windowStart = frame
	c.speeds = c.speeds[:0]
	c.residuals = c.residuals[:0]
	clear(c.modeFrames)
	c.takeovers = 0
	return stats
}
