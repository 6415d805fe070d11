// Package ether runs an interactive stable-fluids background: it owns the
// simulation grid, pointer and idle driver, schedules one frame step per
// display refresh, and tears everything down on Dispose.
package ether

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"slices"
	"time"

	"github.com/pthm-cable/ether/fluid"
	"github.com/pthm-cable/ether/palette"
	"github.com/pthm-cable/ether/pointer"
	"github.com/pthm-cable/ether/telemetry"
)

// State is the engine lifecycle state.
type State int

const (
	Constructed State = iota
	Running
	Paused
	Disposed
)

func (s State) String() string {
	switch s {
	case Constructed:
		return "constructed"
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Disposed:
		return "disposed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Config is everything New needs.
type Config struct {
	Surface   Surface
	Target    Target
	Scheduler Scheduler
	Options   Options

	// Device runs the solver. When nil the engine opens, and later closes,
	// its own CPU device.
	Device  fluid.Device
	Sources []EventSource

	Logger   *slog.Logger
	Rand     *rand.Rand       // idle driver targets; seeded from the clock when nil
	Now      func() time.Time // event timestamps; time.Now when nil
	Profiler Profiler         // optional
}

// Engine is one mounted simulation.
type Engine struct {
	surface   Surface
	target    Target
	scheduler Scheduler
	device    fluid.Device
	ownDevice bool
	logger    *slog.Logger
	now       func() time.Time
	profiler  Profiler

	opts Options
	ramp palette.Ramp

	clock   Clock
	pointer *pointer.Pointer
	driver  *pointer.Driver
	grid    *fluid.Grid
	solver  *fluid.Solver
	field   fluid.Field

	state        State
	pending      FrameID
	hasPending   bool
	visible      bool
	intersecting bool
	unsubscribe  []func()

	frames  uint64
	lastErr error
}

// New builds an engine and allocates its grid. It does not start rendering.
func New(cfg Config) (*Engine, error) {
	if cfg.Surface == nil {
		return nil, fmt.Errorf("%w: no mount surface", ErrSurfaceUnavailable)
	}
	if cfg.Target == nil {
		return nil, fmt.Errorf("%w: no render target", ErrSurfaceUnavailable)
	}
	if cfg.Scheduler == nil {
		return nil, errors.New("ether: scheduler required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "engine")
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(now().UnixNano()))
	}

	e := &Engine{
		surface:      cfg.Surface,
		target:       cfg.Target,
		scheduler:    cfg.Scheduler,
		device:       cfg.Device,
		logger:       logger,
		now:          now,
		profiler:     cfg.Profiler,
		visible:      true,
		intersecting: true,
	}
	if e.device == nil {
		e.device = fluid.NewCPUDevice(0)
		e.ownDevice = true
	}

	opts, fixed := cfg.Options.normalized()
	if len(fixed) > 0 {
		logger.Warn("normalized degenerate options", "fields", fixed)
	}
	e.opts = opts
	e.applyPalette()

	start := now()
	e.pointer = pointer.New(opts.pointerConfig(), start)
	e.driver = pointer.NewDriver(opts.driverConfig(), rng)

	w, h := e.surface.Viewport().DevicePixels()
	grid, err := fluid.NewGrid(e.device, w, h, opts.Resolution, logger)
	if err != nil {
		if e.ownDevice {
			e.device.Close()
		}
		return nil, fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
	}
	e.grid = grid
	var timer fluid.PhaseTimer
	if e.profiler != nil {
		timer = e.profiler
	}
	e.solver = fluid.NewSolver(e.device, grid, timer)

	for _, src := range cfg.Sources {
		e.unsubscribe = append(e.unsubscribe, src.Subscribe(e))
	}

	d := grid.Dims()
	logger.Info("engine created",
		"device", e.device.Name(),
		"viewport", fmt.Sprintf("%dx%d", w, h),
		"grid", fmt.Sprintf("%dx%d", d.Width, d.Height))
	return e, nil
}

func (e *Engine) State() State { return e.state }
func (e *Engine) Options() Options { return e.opts }
func (e *Engine) Pointer() *pointer.Pointer { return e.pointer }
func (e *Engine) Driver() *pointer.Driver { return e.driver }
func (e *Engine) Grid() *fluid.Grid { return e.grid }
func (e *Engine) Field() *fluid.Field { return &e.field }
func (e *Engine) Clock() *Clock { return &e.clock }
func (e *Engine) Frames() uint64 { return e.frames }
func (e *Engine) Err() error { return e.lastErr }
func (e *Engine) Running() bool { return e.state == Running }
func (e *Engine) Solver() *fluid.Solver { return e.solver }
func (e *Engine) Palette() palette.Ramp { return e.ramp }
func (e *Engine) Device() fluid.Device { return e.device }
func (e *Engine) FramePending() bool { return e.hasPending }

// Start begins the frame loop. It is a no-op when already running, after
// Dispose, or while the surface is hidden or scrolled out of view.
func (e *Engine) Start() {
	if e.state == Running || e.state == Disposed {
		return
	}
	if !e.visible || !e.intersecting {
		return
	}
	e.state = Running
	e.clock.Reset()
	e.schedule()
	e.logger.Debug("engine started")
}

// Pause revokes the pending frame. Calling it again has no effect.
func (e *Engine) Pause() {
	if e.state != Running {
		return
	}
	e.cancelPending()
	e.state = Paused
	e.logger.Debug("engine paused")
}

func (e *Engine) schedule() {
	e.pending = e.scheduler.RequestFrame(e.frame)
	e.hasPending = true
}

func (e *Engine) cancelPending() {
	if e.hasPending {
		e.scheduler.Cancel(e.pending)
		e.hasPending = false
	}
}

func (e *Engine) frame(now time.Time) {
	e.hasPending = false
	if e.state != Running {
		return
	}
	if err := e.step(now); err != nil {
		e.lastErr = err
		e.logger.Error("frame failed, pausing", "error", err)
		e.Pause()
		return
	}
	if e.state == Running {
		e.schedule()
	}
}

// step runs one full frame: driver, pointer, clock, solver, composite.
func (e *Engine) step(now time.Time) error {
	if e.profiler != nil {
		e.profiler.StartTick()
		defer e.profiler.EndTick()
	}

	e.driver.Tick(now, e.pointer)
	e.pointer.Tick(now)
	e.clock.Tick(now)

	imp := fluid.Impulse{Coord: e.pointer.Coord, Delta: e.pointer.Delta}
	if err := e.solver.Step(e.opts.Options, imp); err != nil {
		return fmt.Errorf("solver step: %w", err)
	}

	if e.profiler != nil {
		e.profiler.StartPhase(telemetry.PhaseComposite)
	}
	if err := e.solver.ReadVelocity(&e.field); err != nil {
		return err
	}
	w, h := e.surface.Viewport().DevicePixels()
	if err := e.target.Present(&e.field, w, h); err != nil {
		return fmt.Errorf("presenting frame: %w", err)
	}
	e.frames++
	return nil
}

// UpdateOptions mutates the options in place. A resolution change resizes
// the grid before the next frame; everything else applies on the next
// frame.
func (e *Engine) UpdateOptions(fn func(*Options)) error {
	if e.state == Disposed {
		return nil
	}
	next := e.opts
	next.Colors = slices.Clone(e.opts.Colors)
	fn(&next)
	next, fixed := next.normalized()
	if len(fixed) > 0 {
		e.logger.Warn("normalized degenerate options", "fields", fixed)
	}

	prev := e.opts
	e.opts = next
	e.pointer.SetConfig(next.pointerConfig())
	e.driver.SetConfig(next.driverConfig())
	if !slices.Equal(prev.Colors, next.Colors) || prev.Background != next.Background {
		e.applyPalette()
	}
	if prev.Resolution != next.Resolution {
		return e.resize()
	}
	return nil
}

func (e *Engine) applyPalette() {
	ramp, err := palette.Parse(e.opts.Colors)
	if err != nil {
		e.logger.Warn("skipping invalid colors", "error", err)
	}
	e.ramp = ramp
	e.target.SetPalette(ramp, e.opts.Background)
}

func (e *Engine) resize() error {
	w, h := e.surface.Viewport().DevicePixels()
	changed, err := e.grid.Resize(w, h, e.opts.Resolution)
	if err != nil {
		e.lastErr = err
		e.logger.Error("grid resize failed", "error", err)
		return err
	}
	if changed {
		d := e.grid.Dims()
		e.logger.Info("grid resized",
			"viewport", fmt.Sprintf("%dx%d", w, h),
			"grid", fmt.Sprintf("%dx%d", d.Width, d.Height))
	}
	return nil
}

// Dispose pauses, unsubscribes every event source and releases the grid,
// render target, surface and any owned device. Teardown errors are logged
// and swallowed. Calling it again has no effect.
func (e *Engine) Dispose() {
	if e.state == Disposed {
		return
	}
	e.Pause()
	e.cancelPending()
	for _, unsub := range e.unsubscribe {
		unsub()
	}
	e.unsubscribe = nil

	e.grid.Release()
	if err := e.target.Release(); err != nil {
		e.logger.Warn("releasing render target", "error", err)
	}
	if e.ownDevice {
		if err := e.device.Close(); err != nil {
			e.logger.Warn("closing device", "error", err)
		}
	}
	if err := e.surface.Detach(); err != nil {
		e.logger.Warn("detaching surface", "error", err)
	}
	e.state = Disposed
	e.logger.Info("engine disposed", "frames", e.frames)
}

// PointerMove implements Listener.
func (e *Engine) PointerMove(x, y float64) {
	if e.state == Disposed {
		return
	}
	coord := e.surface.Viewport().Normalize(x, y)
	e.pointer.Move(e.now(), coord)
	e.driver.Interrupt(e.pointer)
}

// PointerLeave implements Listener.
func (e *Engine) PointerLeave() {
	if e.state == Disposed {
		return
	}
	e.pointer.Leave()
}

// TouchStart implements Listener. Only single-finger touches are used.
func (e *Engine) TouchStart(x, y float64, touches int) {
	e.touch(x, y, touches)
}

// TouchMove implements Listener.
func (e *Engine) TouchMove(x, y float64, touches int) {
	e.touch(x, y, touches)
}

// TouchEnd implements Listener. Lifting a finger leaves the cursor where it
// was.
func (e *Engine) TouchEnd() {}

func (e *Engine) touch(x, y float64, touches int) {
	if e.state == Disposed {
		return
	}
	coord := e.surface.Viewport().Normalize(x, y)
	if e.pointer.Touch(e.now(), coord, touches) {
		e.driver.Interrupt(e.pointer)
	}
}

// Resize implements Listener. The grid is reallocated immediately.
func (e *Engine) Resize() {
	if e.state == Disposed {
		return
	}
	e.resize()
}

// Intersection implements Listener.
func (e *Engine) Intersection(intersecting bool) {
	e.intersecting = intersecting
	e.gate()
}

// Visibility implements Listener.
func (e *Engine) Visibility(visible bool) {
	e.visible = visible
	e.gate()
}

func (e *Engine) gate() {
	if e.state == Disposed {
		return
	}
	if e.visible && e.intersecting {
		e.Start()
	} else {
		e.Pause()
	}
}
