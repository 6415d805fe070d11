package renderer

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/ether/fluid"
)

// StreakRenderer draws the velocity field as short additive line segments
// on a regular lattice. It is a debug overlay.
type StreakRenderer struct {
	Spacing float32 // pixels between samples
	Length  float32 // pixels per unit velocity
	Color   rl.Color
}

// NewStreakRenderer creates a streak overlay with stock styling.
func NewStreakRenderer() *StreakRenderer {
	return &StreakRenderer{
		Spacing: 24,
		Length:  60,
		Color:   rl.Color{R: 50, G: 100, B: 130, A: 255},
	}
}

// Draw renders streaks over a width x height pixel region at the origin.
func (s *StreakRenderer) Draw(f *fluid.Field, width, height int32) {
	if f.Width == 0 || s.Spacing <= 0 {
		return
	}
	rl.BeginBlendMode(rl.BlendAdditive)

	for py := s.Spacing / 2; py < float32(height); py += s.Spacing {
		for px := s.Spacing / 2; px < float32(width); px += s.Spacing {
			// Field v runs bottom to top.
			u := float64(px) / float64(width)
			v := 1 - float64(py)/float64(height)
			vx, vy := f.Sample(u, v)

			speed := math.Hypot(vx, vy)
			alpha := math.Min(speed, 1) * 200
			if alpha < 2 {
				continue
			}
			c := s.Color
			c.A = uint8(alpha)

			end := rl.Vector2{
				X: px + float32(vx)*s.Length,
				Y: py - float32(vy)*s.Length,
			}
			rl.DrawLineEx(rl.Vector2{X: px, Y: py}, end, 1.5, c)
			rl.DrawCircleV(end, 1.5, c)
		}
	}

	rl.EndBlendMode()
}
