package ether

import (
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"testing"
	"time"

	"github.com/pthm-cable/ether/fluid"
	"github.com/pthm-cable/ether/palette"
	"github.com/pthm-cable/ether/pointer"
)

type fakeSurface struct {
	vp        Viewport
	detached  int
	detachErr error
}

func (s *fakeSurface) Viewport() Viewport { return s.vp }

func (s *fakeSurface) Detach() error {
	s.detached++
	return s.detachErr
}

type fakeTarget struct {
	palettes   int
	ramp       palette.Ramp
	presented  int
	lastW      int
	lastH      int
	fieldW     int
	fieldH     int
	presentErr error
	released   int
}

func (t *fakeTarget) SetPalette(r palette.Ramp, bg palette.Background) {
	t.palettes++
	t.ramp = r
}

func (t *fakeTarget) Present(f *fluid.Field, w, h int) error {
	if t.presentErr != nil {
		return t.presentErr
	}
	t.presented++
	t.lastW, t.lastH = w, h
	t.fieldW, t.fieldH = f.Width, f.Height
	return nil
}

func (t *fakeTarget) Release() error {
	t.released++
	return nil
}

type fakeSource struct {
	listener     Listener
	unsubscribed int
}

func (s *fakeSource) Subscribe(l Listener) func() {
	s.listener = l
	return func() { s.unsubscribed++ }
}

type harness struct {
	engine  *Engine
	surface *fakeSurface
	target  *fakeTarget
	source  *fakeSource
	queue   *FrameQueue
	now     time.Time
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.ViscousIterations = 2
	opts.PoissonIterations = 4
	opts.CursorSize = 4
	return opts
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	h := &harness{
		surface: &fakeSurface{vp: Viewport{Width: 80, Height: 60, PixelRatio: 1}},
		target:  &fakeTarget{},
		source:  &fakeSource{},
		queue:   NewFrameQueue(),
		now:     time.Unix(1000, 0),
	}
	e, err := New(Config{
		Surface:   h.surface,
		Target:    h.target,
		Scheduler: h.queue,
		Options:   opts,
		Device:    fluid.NewCPUDevice(1),
		Sources:   []EventSource{h.source},
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Rand:      rand.New(rand.NewSource(1)),
		Now:       func() time.Time { return h.now },
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h.engine = e
	t.Cleanup(e.Dispose)
	return h
}

// advance moves the fake clock and flushes one display refresh.
func (h *harness) advance(d time.Duration) int {
	h.now = h.now.Add(d)
	return h.queue.Flush(h.now)
}

func TestNewRequiresSurface(t *testing.T) {
	_, err := New(Config{Target: &fakeTarget{}, Scheduler: NewFrameQueue()})
	if !errors.Is(err, ErrSurfaceUnavailable) {
		t.Errorf("err = %v, want ErrSurfaceUnavailable", err)
	}
	_, err = New(Config{Surface: &fakeSurface{}, Scheduler: NewFrameQueue()})
	if !errors.Is(err, ErrSurfaceUnavailable) {
		t.Errorf("err = %v, want ErrSurfaceUnavailable", err)
	}
}

func TestNewAllocatesGrid(t *testing.T) {
	h := newHarness(t, testOptions())
	d := h.engine.Grid().Dims()
	if d.Width != 40 || d.Height != 30 {
		t.Errorf("grid = %dx%d, want 40x30", d.Width, d.Height)
	}
	if h.engine.State() != Constructed {
		t.Errorf("state = %v, want constructed", h.engine.State())
	}
	if h.target.palettes != 1 {
		t.Errorf("SetPalette called %d times, want 1", h.target.palettes)
	}
	if h.source.listener == nil {
		t.Error("event source not subscribed")
	}
}

func TestStartRunsFrames(t *testing.T) {
	h := newHarness(t, testOptions())
	h.engine.Start()
	if !h.engine.FramePending() {
		t.Fatal("Start did not request a frame")
	}

	for i := 0; i < 3; i++ {
		if n := h.advance(16 * time.Millisecond); n != 1 {
			t.Fatalf("flush %d ran %d callbacks, want 1", i, n)
		}
	}
	if h.engine.Frames() != 3 || h.target.presented != 3 {
		t.Errorf("frames = %d, presented = %d, want 3", h.engine.Frames(), h.target.presented)
	}
	if h.target.lastW != 80 || h.target.lastH != 60 {
		t.Errorf("present size = %dx%d, want 80x60", h.target.lastW, h.target.lastH)
	}
	if h.target.fieldW != 40 || h.target.fieldH != 30 {
		t.Errorf("field = %dx%d, want 40x30", h.target.fieldW, h.target.fieldH)
	}
	if h.engine.Clock().Elapsed != 32*time.Millisecond {
		t.Errorf("elapsed = %v, want 32ms", h.engine.Clock().Elapsed)
	}
}

func TestStartTwiceSchedulesOnce(t *testing.T) {
	h := newHarness(t, testOptions())
	h.engine.Start()
	h.engine.Start()
	if h.queue.Pending() != 1 {
		t.Errorf("pending = %d, want 1", h.queue.Pending())
	}
}

func TestPauseCancelsPendingFrame(t *testing.T) {
	h := newHarness(t, testOptions())
	h.engine.Start()
	h.engine.Pause()
	h.engine.Pause()

	if h.engine.State() != Paused {
		t.Errorf("state = %v, want paused", h.engine.State())
	}
	if n := h.advance(16 * time.Millisecond); n != 0 {
		t.Errorf("flush after pause ran %d callbacks", n)
	}
	if h.target.presented != 0 {
		t.Error("frame presented after pause")
	}

	h.engine.Start()
	if n := h.advance(16 * time.Millisecond); n != 1 {
		t.Errorf("flush after resume ran %d callbacks, want 1", n)
	}
}

func TestDisposeIsIdempotent(t *testing.T) {
	h := newHarness(t, testOptions())
	h.engine.Start()
	h.engine.Dispose()
	h.engine.Dispose()

	if h.engine.State() != Disposed {
		t.Errorf("state = %v, want disposed", h.engine.State())
	}
	if h.target.released != 1 || h.surface.detached != 1 || h.source.unsubscribed != 1 {
		t.Errorf("released=%d detached=%d unsubscribed=%d, want 1 each",
			h.target.released, h.surface.detached, h.source.unsubscribed)
	}
	if h.queue.Pending() != 0 {
		t.Error("frame still pending after dispose")
	}

	h.engine.Start()
	if h.engine.State() != Disposed {
		t.Error("Start revived a disposed engine")
	}
	// Events after dispose are ignored.
	h.engine.PointerMove(10, 10)
	h.engine.Resize()
	h.engine.Visibility(true)
}

func TestDisposeSwallowsTeardownErrors(t *testing.T) {
	h := newHarness(t, testOptions())
	h.surface.detachErr = errors.New("already gone")
	h.engine.Dispose()
	if h.engine.State() != Disposed {
		t.Errorf("state = %v, want disposed", h.engine.State())
	}
}

func TestVisibilityGatesRendering(t *testing.T) {
	h := newHarness(t, testOptions())
	h.engine.Start()

	h.engine.Visibility(false)
	if h.engine.Running() {
		t.Fatal("still running while hidden")
	}
	if n := h.advance(16 * time.Millisecond); n != 0 {
		t.Errorf("hidden engine ran %d frames", n)
	}

	h.engine.Intersection(false)
	h.engine.Visibility(true)
	if h.engine.Running() {
		t.Fatal("running while scrolled out of view")
	}

	h.engine.Intersection(true)
	if !h.engine.Running() {
		t.Fatal("not running once visible and intersecting")
	}
	if n := h.advance(16 * time.Millisecond); n != 1 {
		t.Errorf("resumed engine ran %d frames, want 1", n)
	}
}

func TestStartWhileHiddenIsNoop(t *testing.T) {
	h := newHarness(t, testOptions())
	h.engine.Visibility(false)
	h.engine.Start()
	if h.engine.Running() || h.queue.Pending() != 0 {
		t.Error("Start ran while hidden")
	}
}

func TestUpdateOptionsResizesGrid(t *testing.T) {
	h := newHarness(t, testOptions())
	gen := h.engine.Grid().Generation()

	err := h.engine.UpdateOptions(func(o *Options) { o.Resolution = 1.0 })
	if err != nil {
		t.Fatal(err)
	}
	d := h.engine.Grid().Dims()
	if d.Width != 80 || d.Height != 60 {
		t.Errorf("grid = %dx%d, want 80x60", d.Width, d.Height)
	}
	if h.engine.Grid().Generation() == gen {
		t.Error("generation not bumped by resize")
	}

	h.engine.Start()
	h.advance(16 * time.Millisecond)
	if h.target.fieldW != 80 || h.target.fieldH != 60 {
		t.Errorf("field after resize = %dx%d, want 80x60", h.target.fieldW, h.target.fieldH)
	}
}

func TestUpdateOptionsNormalizes(t *testing.T) {
	h := newHarness(t, testOptions())
	h.engine.UpdateOptions(func(o *Options) {
		o.DT = 0
		o.PoissonIterations = -3
	})
	opts := h.engine.Options()
	if opts.DT != fluid.DefaultOptions().DT {
		t.Errorf("dt = %v, want default", opts.DT)
	}
	if opts.PoissonIterations != 0 {
		t.Errorf("poisson iterations = %d, want 0", opts.PoissonIterations)
	}
}

func TestInvalidColorsWarnAndSkip(t *testing.T) {
	h := newHarness(t, testOptions())
	err := h.engine.UpdateOptions(func(o *Options) {
		o.Colors = []string{"#ff0000", "not-a-color", "#0000ff"}
	})
	if err != nil {
		t.Fatalf("UpdateOptions: %v", err)
	}
	if h.target.palettes != 2 {
		t.Errorf("SetPalette called %d times, want 2", h.target.palettes)
	}
	if n := h.target.ramp.Len(); n != 2 {
		t.Errorf("ramp len = %d, want 2", n)
	}
}

func TestUnchangedColorsKeepPalette(t *testing.T) {
	h := newHarness(t, testOptions())
	h.engine.UpdateOptions(func(o *Options) { o.MouseForce = 40 })
	if h.target.palettes != 1 {
		t.Errorf("SetPalette called %d times, want 1", h.target.palettes)
	}
}

func TestFrameErrorPauses(t *testing.T) {
	h := newHarness(t, testOptions())
	h.target.presentErr = errors.New("context lost")
	h.engine.Start()
	h.advance(16 * time.Millisecond)

	if h.engine.State() != Paused {
		t.Errorf("state = %v, want paused", h.engine.State())
	}
	if h.engine.Err() == nil {
		t.Error("Err() nil after failed frame")
	}
	if h.queue.Pending() != 0 {
		t.Error("failed frame rescheduled")
	}
}

func TestPointerMoveTakesOverFromDriver(t *testing.T) {
	opts := testOptions()
	opts.AutoResumeDelay = 0
	opts.AutoRampDuration = 0
	h := newHarness(t, opts)
	h.engine.Start()

	h.advance(16 * time.Millisecond)
	h.advance(16 * time.Millisecond)
	if m := h.engine.Pointer().Mode(); m != pointer.Auto {
		t.Fatalf("mode = %v, want auto", m)
	}

	h.source.listener.PointerMove(60, 20)
	if m := h.engine.Pointer().Mode(); m != pointer.Takeover {
		t.Fatalf("mode after move = %v, want takeover", m)
	}
	if h.engine.Driver().Active() {
		t.Error("driver still active after real input")
	}

	h.advance(time.Second)
	p := h.engine.Pointer()
	if p.Mode() != pointer.User {
		t.Errorf("mode after takeover = %v, want user", p.Mode())
	}
	want := h.surface.vp.Normalize(60, 20)
	if p.Coord != want {
		t.Errorf("coord = %v, want %v", p.Coord, want)
	}
}

func TestMultiTouchIgnored(t *testing.T) {
	h := newHarness(t, testOptions())
	h.engine.TouchStart(10, 10, 2)
	if h.engine.Pointer().Mode() != pointer.Idle {
		t.Error("two-finger touch moved the pointer")
	}
	h.engine.TouchMove(10, 10, 1)
	if h.engine.Pointer().Mode() != pointer.User {
		t.Error("single touch ignored")
	}
}

func TestResizeEventReallocates(t *testing.T) {
	h := newHarness(t, testOptions())
	h.surface.vp.Width = 120
	h.source.listener.Resize()
	d := h.engine.Grid().Dims()
	if d.Width != 60 || d.Height != 30 {
		t.Errorf("grid = %dx%d, want 60x30", d.Width, d.Height)
	}
}
