// Package rlhost runs the engine in a raylib window: the GPU compositor
// draws the fluid and the ui package's panels sit on top.
package rlhost

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/ether/config"
	"github.com/pthm-cable/ether/ether"
	"github.com/pthm-cable/ether/host"
	"github.com/pthm-cable/ether/renderer"
	"github.com/pthm-cable/ether/ui"
)

// Options configures a window run.
type Options struct {
	Config    *config.Config
	OutputDir string
	Seed      int64
	LogStats  bool
	Logger    *slog.Logger

	Tuning    bool   // open the tuning panel at start
	MaxFrames uint64 // stop after N steps (0 = until the window closes)
	SavePath  string // tuning panel Save target; defaults next to the output
}

// Run opens the window and blocks until it is closed.
func Run(opts Options) error {
	cfg := opts.Config
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), cfg.Screen.Title)
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	target, err := renderer.NewFluidRenderer()
	if err != nil {
		return err
	}
	ratio := ether.Viewport{PixelRatio: cfg.Screen.PixelRatio}.Ratio()
	target.Scale = float32(ratio)

	surface := &host.Surface{
		Size: func() (float64, float64) {
			return float64(rl.GetScreenWidth()), float64(rl.GetScreenHeight())
		},
		Override: ratio,
	}
	sess, err := host.New(host.Options{
		Config:    cfg,
		Surface:   surface,
		Target:    target,
		OutputDir: opts.OutputDir,
		Seed:      opts.Seed,
		LogStats:  opts.LogStats,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("starting session: %w", err)
	}
	defer func() {
		if err := sess.Close(); err != nil {
			logger.Warn("closing session", "error", err)
		}
	}()

	savePath := opts.SavePath
	if savePath == "" {
		savePath = "ether.yaml"
		if dir := sess.Output().Dir(); dir != "" {
			savePath = filepath.Join(dir, "tuned.yaml")
		}
	}

	w := newWindow(sess, savePath, logger)
	if opts.Tuning {
		w.overlays.SetEnabled(ui.OverlayTuning, true)
	}
	sess.Start()
	logger.Info("window opened",
		"width", rl.GetScreenWidth(),
		"height", rl.GetScreenHeight(),
		"pixel_ratio", ratio)

	for !rl.WindowShouldClose() {
		w.handleInput()

		rl.BeginDrawing()
		rl.ClearBackground(rl.Black)
		if !sess.Frame(time.Now()) {
			target.Redraw()
		}
		w.draw()
		rl.EndDrawing()

		if opts.MaxFrames > 0 && sess.Engine().Frames() >= opts.MaxFrames {
			logger.Info("max frames reached", "frames", sess.Engine().Frames())
			break
		}
	}
	return nil
}
