// Package ebitenhost runs the engine in an ebiten window. Frames are shaded
// on the CPU by the composite package and uploaded with WritePixels.
package ebitenhost

import (
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"

	"github.com/pthm-cable/ether/composite"
	"github.com/pthm-cable/ether/config"
	"github.com/pthm-cable/ether/ether"
	"github.com/pthm-cable/ether/fluid"
	"github.com/pthm-cable/ether/host"
)

// Options configures an ebiten run.
type Options struct {
	Config    *config.Config
	OutputDir string
	Seed      int64
	LogStats  bool
	Logger    *slog.Logger
	MaxFrames uint64 // stop after N steps (0 = until the window closes)
}

type game struct {
	sess      *host.Session
	target    *composite.ImageTarget
	input     host.InputTracker
	maxFrames uint64

	// Layout size in window pixels.
	width, height int
	resized       bool

	frame    *ebiten.Image
	pixels   []byte
	touchIDs []ebiten.TouchID
	showHUD  bool
}

// Run opens the window and blocks until it is closed.
func Run(opts Options) error {
	cfg := opts.Config
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	g := &game{
		width:     cfg.Screen.Width,
		height:    cfg.Screen.Height,
		maxFrames: opts.MaxFrames,
		showHUD:   true,
		target:    composite.NewImageTarget(cfg.Device.Workers),
	}
	// The CPU compositor runs at layout resolution; HiDPI scaling is left
	// to ebiten's final blit.
	surface := &host.Surface{
		Size:     func() (float64, float64) { return float64(g.width), float64(g.height) },
		Override: 1,
	}
	sess, err := host.New(host.Options{
		Config:    cfg,
		Surface:   surface,
		Target:    g.target,
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
	g.sess = sess

	ebiten.SetWindowSize(cfg.Screen.Width, cfg.Screen.Height)
	ebiten.SetWindowTitle(cfg.Screen.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(cfg.Screen.TargetFPS)

	sess.Start()
	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	return nil
}

func (g *game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		g.showHUD = !g.showHUD
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		e := g.sess.Engine()
		if e.Running() {
			e.Pause()
		} else {
			e.Start()
		}
	}

	g.input.Apply(g.poll(), g.sess.Events())
	g.resized = false

	g.sess.Frame(time.Now())
	if g.maxFrames > 0 && g.sess.Engine().Frames() >= g.maxFrames {
		return ebiten.Termination
	}
	return nil
}

func (g *game) poll() host.InputFrame {
	x, y := ebiten.CursorPosition()
	in := host.InputFrame{
		MouseX:     float64(x),
		MouseY:     float64(y),
		OnScreen:   ebiten.IsFocused() && x >= 0 && y >= 0 && x < g.width && y < g.height,
		ButtonDown: ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft),
		Resized:    g.resized,
		Minimized:  ebiten.IsWindowMinimized(),
	}
	g.touchIDs = ebiten.AppendTouchIDs(g.touchIDs[:0])
	in.Touches = len(g.touchIDs)
	if in.Touches > 0 {
		tx, ty := ebiten.TouchPosition(g.touchIDs[0])
		in.TouchX, in.TouchY = float64(tx), float64(ty)
	}
	return in
}

func (g *game) Draw(screen *ebiten.Image) {
	img := g.target.Image()
	if img == nil {
		return
	}
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if g.frame == nil || g.frame.Bounds().Dx() != w || g.frame.Bounds().Dy() != h {
		if g.frame != nil {
			g.frame.Deallocate()
		}
		g.frame = ebiten.NewImage(w, h)
	}
	g.pixels = composite.Premultiply(img, g.pixels)
	g.frame.WritePixels(g.pixels)

	sb := screen.Bounds()
	op := &ebiten.DrawImageOptions{Filter: ebiten.FilterLinear}
	op.GeoM.Scale(float64(sb.Dx())/float64(w), float64(sb.Dy())/float64(h))
	screen.DrawImage(g.frame, op)

	if g.showHUD {
		text.Draw(screen, hudText(g.sess.Engine(), ebiten.ActualFPS()), basicfont.Face7x13, 8, 18, color.White)
	}
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth != g.width || outsideHeight != g.height {
		g.width, g.height = outsideWidth, outsideHeight
		g.resized = true
	}
	return outsideWidth, outsideHeight
}

// hudText is the overlay shown in the top-left corner.
func hudText(e *ether.Engine, fps float64) string {
	d := e.Grid().Dims()
	status := "running"
	if !e.Running() {
		status = "paused"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "ether  %.0f fps  %s\n", fps, status)
	fmt.Fprintf(&b, "grid %dx%d on %s  frame %d\n", d.Width, d.Height, e.Device().Name(), e.Frames())
	fmt.Fprintf(&b, "pointer %s  peak %.2f\n", e.Pointer().Mode(), fluid.MaxSpeed(e.Field()))
	b.WriteString("[H] hud  [Space] pause  [Esc] quit")
	return b.String()
}
