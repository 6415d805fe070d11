package main

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/ether/config"
	"github.com/pthm-cable/ether/pointer"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(&buf, "text", "warn")
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("hidden")
	logger.Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("unexpected output %q", buf.String())
	}

	if _, err := newLogger(io.Discard, "xml", "info"); err == nil {
		t.Error("expected an error for an unknown format")
	}
	if _, err := newLogger(io.Discard, "json", "loud"); err == nil {
		t.Error("expected an error for an unknown level")
	}
}

func TestDownsample(t *testing.T) {
	short := []float64{1, 2, 3}
	if got := downsample(short, 80); len(got) != 3 {
		t.Errorf("short input should pass through, got %v", got)
	}
	got := downsample([]float64{1, 3, 5, 7, 9, 11}, 3)
	want := []float64{2, 6, 10}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestScriptedPathStaysInside(t *testing.T) {
	for i := 0; i < 200; i++ {
		x, y := scriptedPath(float64(i)*0.05, 300, 200)
		if x < 0.15*300-1e-9 || x > 0.85*300+1e-9 || y < 0.15*200-1e-9 || y > 0.85*200+1e-9 {
			t.Fatalf("t=%v left the middle of the surface: (%v, %v)", float64(i)*0.05, x, y)
		}
	}
}

func TestHeadlessRender(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Fluid.PoissonIterations = 2
	cfg.Device.Workers = 1
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	hl, err := newHeadless(cfg, headlessOpts{width: 32, height: 24, frames: 4}, logger)
	if err != nil {
		t.Fatal(err)
	}
	defer hl.sess.Close()

	for i := 0; i < 4; i++ {
		if !hl.advance() {
			t.Fatalf("frame %d did not step", i)
		}
	}
	if got := hl.sess.Engine().Pointer().Mode(); got != pointer.User {
		t.Errorf("scripted moves should put the pointer in user mode, got %v", got)
	}

	path := filepath.Join(t.TempDir(), "frame.png")
	if err := writePNG(path, hl); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Error("expected a PNG file")
	}
}

func TestHeadlessRejectsEmptySurface(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := newHeadless(cfg, headlessOpts{width: 0, height: 10}, slog.Default()); err == nil {
		t.Fatal("expected an error for a zero-width surface")
	}
}
