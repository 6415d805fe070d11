package ether

import (
	"testing"
	"time"
)

func TestClockFirstTickIsZero(t *testing.T) {
	var c Clock
	t0 := time.Unix(10, 0)
	if d := c.Tick(t0); d != 0 {
		t.Errorf("first delta = %v, want 0", d)
	}
	if d := c.Tick(t0.Add(20 * time.Millisecond)); d != 20*time.Millisecond {
		t.Errorf("second delta = %v, want 20ms", d)
	}
	if c.Elapsed != 20*time.Millisecond {
		t.Errorf("elapsed = %v, want 20ms", c.Elapsed)
	}
}

func TestClockResetSkipsPause(t *testing.T) {
	var c Clock
	t0 := time.Unix(10, 0)
	c.Tick(t0)
	c.Reset()
	if d := c.Tick(t0.Add(time.Hour)); d != 0 {
		t.Errorf("delta after reset = %v, want 0", d)
	}
}

func TestClockBackwardsTimeClamped(t *testing.T) {
	var c Clock
	t0 := time.Unix(10, 0)
	c.Tick(t0)
	if d := c.Tick(t0.Add(-time.Second)); d != 0 {
		t.Errorf("negative delta = %v, want 0", d)
	}
}
