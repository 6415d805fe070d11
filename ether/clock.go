package ether

import "time"

// Clock tracks frame timing. The first tick after construction or Reset has
// zero delta.
type Clock struct {
	last    time.Time
	started bool

	Elapsed time.Duration
	Delta   time.Duration
}

// Tick records a frame at now and returns the delta since the last one.
func (c *Clock) Tick(now time.Time) time.Duration {
	if !c.started {
		c.started = true
		c.Delta = 0
	} else {
		c.Delta = max(now.Sub(c.last), 0)
	}
	c.last = now
	c.Elapsed += c.Delta
	return c.Delta
}

// Reset forgets the last tick so a resumed loop does not see the pause as
// one long frame.
func (c *Clock) Reset() {
	c.started = false
}
