package tuihost

import (
	"image"
	"image/color"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pthm-cable/ether/config"
	"github.com/pthm-cable/ether/pointer"
)

func TestOverBlack(t *testing.T) {
	cases := []struct {
		in   color.NRGBA
		want color.RGBA
	}{
		{color.NRGBA{R: 255, G: 10, B: 0, A: 255}, color.RGBA{R: 255, G: 10, A: 255}},
		{color.NRGBA{R: 255, G: 255, B: 255, A: 0}, color.RGBA{A: 255}},
		{color.NRGBA{R: 200, G: 100, B: 50, A: 128}, color.RGBA{R: 100, G: 50, B: 25, A: 255}},
	}
	for _, tc := range cases {
		if got := overBlack(tc.in); got != tc.want {
			t.Errorf("overBlack(%v) = %v, expected %v", tc.in, got, tc.want)
		}
	}
	if got := hex(color.RGBA{R: 0x52, G: 0x27, B: 0xFF}); got != "#5227FF" {
		t.Errorf("unexpected hex %q", got)
	}
}

func TestRenderCellsShape(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 5))
	out := renderCells(img)
	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Fatalf("5 pixel rows should need 3 lines, got %d", len(lines))
	}
	for i, l := range lines {
		if n := strings.Count(l, halfBlock); n != 4 {
			t.Errorf("line %d: expected 4 cells, got %d", i, n)
		}
	}
}

func testModel(t *testing.T) *model {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Fluid.PoissonIterations = 2
	cfg.Device.Workers = 1
	m, err := newModel(Options{
		Config: cfg,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { m.sess.Close() })
	return m
}

func TestModelResizeAndStep(t *testing.T) {
	m := testModel(t)
	m.sess.Start()

	m.Update(tea.WindowSizeMsg{Width: 40, Height: 11})
	_, cmd := m.Update(tickMsg(time.Now()))
	if cmd == nil {
		t.Fatal("expected the next tick to be scheduled")
	}

	// 40 columns by 10 text rows of two pixels each.
	img := m.target.Image()
	if img == nil || img.Rect.Dx() != 40 || img.Rect.Dy() != 20 {
		t.Fatalf("unexpected frame %v", img)
	}
	if d := m.sess.Engine().Grid().Dims(); d.Width != 20 || d.Height != 10 {
		t.Errorf("expected 20x10 grid after resize, got %dx%d", d.Width, d.Height)
	}
	if !strings.Contains(m.View(), "running") {
		t.Error("status line should report running")
	}
}

func TestModelMouseAndKeys(t *testing.T) {
	m := testModel(t)
	m.sess.Start()
	m.Update(tea.WindowSizeMsg{Width: 20, Height: 6})

	m.Update(tea.MouseMsg{X: 2, Y: 1})
	m.Update(tickMsg(time.Now()))
	m.Update(tea.MouseMsg{X: 10, Y: 2})
	m.Update(tickMsg(time.Now()))
	if mode := m.sess.Engine().Pointer().Mode(); mode != pointer.User {
		t.Errorf("expected user mode after mouse motion, got %v", mode)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("p")})
	if m.sess.Engine().Running() {
		t.Error("p should pause")
	}
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected a quit message")
	}
}
