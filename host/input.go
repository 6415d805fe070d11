package host

import "github.com/pthm-cable/ether/ether"

// InputFrame is one frame of polled window state, in host pixels.
type InputFrame struct {
	MouseX, MouseY float64
	OnScreen       bool
	ButtonDown     bool
	Touches        int
	TouchX, TouchY float64
	Resized        bool
	Minimized      bool
	Hidden         bool
	Blocked        bool // cursor is over an interactive panel
}

// InputTracker turns polled window state into listener events. Only edges
// are sent: a resting cursor or an unchanged window produces nothing.
type InputTracker struct {
	lastX, lastY float64
	inside       bool
	touching     bool
	minimized    bool
	hidden       bool
}

// Apply compares in against the previous frame and emits the differences.
func (t *InputTracker) Apply(in InputFrame, l ether.Listener) {
	if in.Resized {
		l.Resize()
	}
	if in.Minimized != t.minimized {
		t.minimized = in.Minimized
		l.Visibility(!in.Minimized)
	}
	if in.Hidden != t.hidden {
		t.hidden = in.Hidden
		l.Intersection(!in.Hidden)
	}

	// Desktop backends report a held left button as one touch point at the
	// cursor; that is already delivered as a mouse move.
	realTouch := in.Touches > 0 && !in.ButtonDown
	switch {
	case realTouch && !t.touching:
		t.touching = true
		l.TouchStart(in.TouchX, in.TouchY, in.Touches)
		return
	case realTouch:
		l.TouchMove(in.TouchX, in.TouchY, in.Touches)
		return
	case t.touching:
		t.touching = false
		l.TouchEnd()
	}

	if !in.OnScreen || in.Blocked {
		if t.inside {
			t.inside = false
			l.PointerLeave()
		}
		return
	}
	// Entering only records the position; a resting cursor is not input.
	if !t.inside {
		t.inside = true
		t.lastX, t.lastY = in.MouseX, in.MouseY
		return
	}
	if in.MouseX != t.lastX || in.MouseY != t.lastY {
		t.lastX, t.lastY = in.MouseX, in.MouseY
		l.PointerMove(in.MouseX, in.MouseY)
	}
}
