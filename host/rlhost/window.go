package rlhost

import (
	"log/slog"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/ether/ether"
	"github.com/pthm-cable/ether/fluid"
	"github.com/pthm-cable/ether/host"
	"github.com/pthm-cable/ether/pointer"
	"github.com/pthm-cable/ether/renderer"
	"github.com/pthm-cable/ether/ui"
)

// window owns the overlays drawn over the fluid.
type window struct {
	sess     *host.Session
	logger   *slog.Logger
	savePath string
	defaults ether.Options

	overlays *ui.OverlayRegistry
	hud      *ui.HUD
	perf     *ui.PerfPanel
	tuning   *ui.TuningPanel
	help     *ui.HelpPanel
	streaks  *renderer.StreakRenderer

	input host.InputTracker
}

func newWindow(sess *host.Session, savePath string, logger *slog.Logger) *window {
	w := &window{
		sess:     sess,
		logger:   logger,
		savePath: savePath,
		defaults: sess.Engine().Options(),
		overlays: ui.NewOverlayRegistry(),
		hud:      ui.NewHUD(),
		perf:     ui.NewPerfPanel(10, 130, 260),
		tuning:   ui.NewTuningPanel(0, 10, 360),
		help:     ui.NewHelpPanel(0, 10, 300),
		streaks:  renderer.NewStreakRenderer(),
	}
	w.layout()
	return w
}

// layout anchors the right-hand panels to the current screen width.
func (w *window) layout() {
	sw := int32(rl.GetScreenWidth())
	w.tuning.SetPosition(sw-370, 10)
	w.help.SetPosition(sw-310, 10)
}

// overPanel reports whether p is over a panel that takes mouse input.
func (w *window) overPanel(p rl.Vector2) bool {
	if !w.tuning.IsVisible() {
		return false
	}
	sw := float32(rl.GetScreenWidth())
	return p.X >= sw-370 && p.Y <= float32(10+w.tuning.Height())
}

func (w *window) handleInput() {
	if rl.IsWindowResized() {
		w.layout()
	}
	w.input.Apply(pollInput(w.overPanel), w.sess.Events())

	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}
	if rl.IsKeyPressed(rl.KeySpace) {
		w.togglePause()
	}
	for _, desc := range w.overlays.All() {
		if desc.Key != 0 && rl.IsKeyPressed(desc.Key) {
			w.overlays.Toggle(desc.ID)
		}
	}
	w.tuning.SetVisible(w.overlays.IsEnabled(ui.OverlayTuning))
	w.help.SetVisible(w.overlays.IsEnabled(ui.OverlayHelp))
}

func (w *window) togglePause() {
	e := w.sess.Engine()
	if e.Running() {
		e.Pause()
		return
	}
	e.Start()
}

func (w *window) draw() {
	e := w.sess.Engine()
	field := e.Field()
	sw, sh := int32(rl.GetScreenWidth()), int32(rl.GetScreenHeight())

	for _, id := range w.overlays.EnabledOverlays() {
		switch id {
		case ui.OverlayStreaks:
			w.streaks.Draw(field, sw, sh)
		case ui.OverlayPointer:
			w.drawPointer(e, sw, sh)
		}
	}

	if w.overlays.IsEnabled(ui.OverlayHUD) {
		d := e.Grid().Dims()
		w.hud.Draw(ui.HUDData{
			Title:    "ether",
			FPS:      rl.GetFPS(),
			Frames:   e.Frames(),
			GridW:    d.Width,
			GridH:    d.Height,
			Device:   e.Device().Name(),
			Mode:     e.Pointer().Mode(),
			MaxSpeed: fluid.MaxSpeed(field),
			Running:  e.Running(),
			Swatches: swatches(e),
			ScreenH:  sh,
			Controls: w.overlays.Hint(),
		})
	}
	if w.overlays.IsEnabled(ui.OverlayPerf) {
		w.perf.Draw(w.sess.Perf().Stats())
	}

	opts, changed, action := w.tuning.Draw(e.Options())
	if changed {
		if err := e.UpdateOptions(func(o *ether.Options) { *o = opts }); err != nil {
			w.logger.Error("applying tuned options", "error", err)
		}
	}
	switch action {
	case ui.ActionReset:
		if err := e.UpdateOptions(func(o *ether.Options) { *o = w.defaults }); err != nil {
			w.logger.Error("resetting options", "error", err)
		}
	case ui.ActionSave:
		if err := w.sess.SaveConfig(w.savePath); err != nil {
			w.logger.Error("saving config", "error", err)
		}
	}

	w.help.Draw(w.overlays)
}

// drawPointer marks the cursor, the idle driver's target and any takeover
// in flight.
func (w *window) drawPointer(e *ether.Engine, sw, sh int32) {
	p := e.Pointer()
	pos := toScreen(p.Coord, sw, sh)
	c := modeColor(p.Mode())
	rl.DrawCircleLinesV(pos, 12, c)
	if p.Moving(time.Now()) {
		rl.DrawCircleV(pos, 4, c)
	}

	if d := e.Driver(); d.Active() {
		t := toScreen(d.Target(), sw, sh)
		rl.DrawCircleLinesV(t, 6, rl.Orange)
		rl.DrawLineV(pos, t, rl.Fade(rl.Orange, 0.4))
	}
	if p.Mode() == pointer.Takeover {
		from, to, _ := p.Takeover()
		rl.DrawLineV(toScreen(from, sw, sh), toScreen(to, sw, sh), rl.Fade(rl.SkyBlue, 0.6))
	}
}

// toScreen maps a normalized [-1,1] coordinate, +Y up, to screen pixels.
func toScreen(c [2]float64, sw, sh int32) rl.Vector2 {
	return rl.Vector2{
		X: float32((c[0] + 1) / 2 * float64(sw)),
		Y: float32((1 - c[1]) / 2 * float64(sh)),
	}
}

func modeColor(m pointer.Mode) rl.Color {
	switch m {
	case pointer.User:
		return rl.White
	case pointer.Auto:
		return rl.Orange
	case pointer.Takeover:
		return rl.SkyBlue
	default:
		return rl.Gray
	}
}

func swatches(e *ether.Engine) []rl.Color {
	px := e.Palette().Pixels()
	out := make([]rl.Color, len(px))
	for i, c := range px {
		out[i] = rl.Color{R: c.R, G: c.G, B: c.B, A: c.A}
	}
	return out
}
