package rlhost

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/ether/host"
)

// pollInput samples raylib's window and pointer state for this frame.
func pollInput(blocked func(rl.Vector2) bool) host.InputFrame {
	mouse := rl.GetMousePosition()
	in := host.InputFrame{
		MouseX:     float64(mouse.X),
		MouseY:     float64(mouse.Y),
		OnScreen:   rl.IsCursorOnScreen(),
		ButtonDown: rl.IsMouseButtonDown(rl.MouseButtonLeft),
		Touches:    int(rl.GetTouchPointCount()),
		Resized:    rl.IsWindowResized(),
		Minimized:  rl.IsWindowMinimized(),
		Hidden:     rl.IsWindowHidden(),
		Blocked:    blocked(mouse),
	}
	if in.Touches > 0 {
		t := rl.GetTouchPosition(0)
		in.TouchX, in.TouchY = float64(t.X), float64(t.Y)
	}
	return in
}
