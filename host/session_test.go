package host

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pthm-cable/ether/composite"
	"github.com/pthm-cable/ether/config"
	"github.com/pthm-cable/ether/ether"
	"github.com/pthm-cable/ether/pointer"
)

func TestEventsFanOut(t *testing.T) {
	ev := NewEvents()
	var a, b eventLog
	unsubA := ev.Subscribe(&a)
	ev.Subscribe(&b)

	ev.PointerMove(3, 4)
	if len(a) != 1 || len(b) != 1 {
		t.Fatalf("expected both listeners to see the move, got %v and %v", a, b)
	}

	unsubA()
	unsubA()
	if ev.Len() != 1 {
		t.Fatalf("expected 1 listener after unsubscribe, got %d", ev.Len())
	}
	ev.PointerLeave()
	if len(a) != 1 || len(b) != 2 || b[1] != "leave" {
		t.Errorf("leave should reach only b, got a=%v b=%v", a, b)
	}
}

func TestSurfaceDetachOnce(t *testing.T) {
	calls := 0
	s := FixedSurface(100, 50, 3)
	s.OnDetach = func() error {
		calls++
		return errors.New("gone")
	}

	vp := s.Viewport()
	if vp.Width != 100 || vp.Height != 50 {
		t.Errorf("unexpected viewport %+v", vp)
	}
	if w, h := vp.DevicePixels(); w != 200 || h != 100 {
		t.Errorf("ratio should be capped at 2, got %dx%d", w, h)
	}

	if err := s.Detach(); err == nil {
		t.Error("expected first detach to report the error")
	}
	if err := s.Detach(); err != nil {
		t.Errorf("second detach should be a no-op, got %v", err)
	}
	if calls != 1 {
		t.Errorf("OnDetach ran %d times", calls)
	}
}

func TestSurfaceRatioOverride(t *testing.T) {
	s := &Surface{
		Size:  func() (float64, float64) { return 10, 10 },
		Ratio: func() float64 { return 1.5 },
	}
	if got := s.Viewport().PixelRatio; got != 1.5 {
		t.Errorf("expected host ratio 1.5, got %v", got)
	}
	s.Override = 1
	if got := s.Viewport().PixelRatio; got != 1 {
		t.Errorf("expected override 1, got %v", got)
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Fluid.DT = 0.125
	cfg.Fluid.PoissonIterations = 4
	cfg.Fluid.CursorSize = 4
	cfg.Telemetry.StatsWindow = 0.5
	cfg.Device.Workers = 1
	return cfg
}

func newTestSession(t *testing.T, dir string) (*Session, *composite.ImageTarget) {
	t.Helper()
	target := composite.NewImageTarget(1)
	s, err := New(Options{
		Config:    testConfig(t),
		Surface:   FixedSurface(40, 30, 1),
		Target:    target,
		OutputDir: dir,
		Seed:      7,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatal(err)
	}
	return s, target
}

func TestSessionRequiresConfig(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Fatal("expected an error without config")
	}
}

func TestSessionFrames(t *testing.T) {
	s, target := newTestSession(t, "")
	defer s.Close()

	now := time.Unix(100, 0)
	if s.Frame(now) {
		t.Fatal("no step should run before Start")
	}

	s.Start()
	for i := 0; i < 5; i++ {
		now = now.Add(16 * time.Millisecond)
		if !s.Frame(now) {
			t.Fatalf("frame %d did not step", i)
		}
	}
	if got := s.Engine().Frames(); got != 5 {
		t.Errorf("expected 5 frames, got %d", got)
	}
	if target.Presents() != 5 {
		t.Errorf("expected 5 presents, got %d", target.Presents())
	}
	if img := target.Image(); img == nil || img.Rect.Dx() != 40 || img.Rect.Dy() != 30 {
		t.Errorf("unexpected image %v", img)
	}

	// Window is 0.5s / 0.125s = 4 frames.
	w := s.LastWindow()
	if w.WindowEnd != 4 || w.Frames != 4 {
		t.Errorf("expected a 4-frame window ending at 4, got %+v", w)
	}
	if w.GridWidth != 20 || w.GridHeight != 15 {
		t.Errorf("expected 20x15 grid, got %dx%d", w.GridWidth, w.GridHeight)
	}
}

func TestSessionInputReachesEngine(t *testing.T) {
	s, _ := newTestSession(t, "")
	defer s.Close()

	s.Events().PointerMove(30, 15)
	p := s.Engine().Pointer()
	if p.Mode() != pointer.User {
		t.Errorf("expected user mode after a move, got %v", p.Mode())
	}
	want := ether.Viewport{Width: 40, Height: 30}.Normalize(30, 15)
	if p.Coord != want {
		t.Errorf("expected coord %v, got %v", want, p.Coord)
	}

	s.Start()
	s.Events().Visibility(false)
	if s.Engine().Running() {
		t.Error("hidden surface should pause the engine")
	}
}

func TestSessionOutput(t *testing.T) {
	dir := t.TempDir()
	s, _ := newTestSession(t, dir)

	s.Start()
	now := time.Unix(0, 0)
	for i := 0; i < 8; i++ {
		now = now.Add(16 * time.Millisecond)
		s.Frame(now)
	}

	saved := filepath.Join(dir, "tuned.yaml")
	if err := s.Engine().UpdateOptions(func(o *ether.Options) { o.MouseForce = 42 }); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveConfig(saved); err != nil {
		t.Fatal(err)
	}
	reloaded, err := config.Load(saved)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Fluid.MouseForce != 42 {
		t.Errorf("expected saved mouse force 42, got %v", reloaded.Fluid.MouseForce)
	}

	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second close should be a no-op, got %v", err)
	}

	for _, name := range []string{"config.yaml", "telemetry.csv", "perf.csv", "summary.json"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
	data, err := os.ReadFile(filepath.Join(dir, "telemetry.csv"))
	if err != nil {
		t.Fatal(err)
	}
	// Header plus two 4-frame windows.
	if lines := strings.Count(strings.TrimSpace(string(data)), "\n") + 1; lines != 3 {
		t.Errorf("expected 3 telemetry lines, got %d:\n%s", lines, data)
	}
}
