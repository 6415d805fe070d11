package ui

import (
	"strings"
	"testing"

	rl "github.com/gen2brain/raylib-go/raylib"
)

func TestOverlayDefaults(t *testing.T) {
	r := NewOverlayRegistry()
	if !r.IsEnabled(OverlayHUD) {
		t.Error("HUD should start enabled")
	}
	if r.IsEnabled(OverlayTuning) {
		t.Error("tuning should start hidden")
	}
	cats := r.Categories()
	if len(cats) != 2 || cats[0] != "panels" || cats[1] != "debug" {
		t.Errorf("categories = %v", cats)
	}
}

func TestOverlayExclusive(t *testing.T) {
	r := NewOverlayRegistry()
	r.Toggle(OverlayHelp)
	r.Toggle(OverlayTuning)
	if r.IsEnabled(OverlayHelp) {
		t.Error("enabling tuning should hide help")
	}
	if !r.IsEnabled(OverlayTuning) {
		t.Error("tuning not enabled")
	}
}

func TestOverlayKeyPress(t *testing.T) {
	r := NewOverlayRegistry()
	id, on, ok := r.HandleKeyPress(rl.KeyV)
	if !ok || id != OverlayStreaks || !on {
		t.Errorf("HandleKeyPress(V) = %v, %v, %v", id, on, ok)
	}
	if _, _, ok := r.HandleKeyPress(rl.KeyZ); ok {
		t.Error("unbound key toggled an overlay")
	}
	enabled := r.EnabledOverlays()
	if len(enabled) != 2 {
		t.Errorf("enabled = %v, want hud and streaks", enabled)
	}
}

func TestHelpRows(t *testing.T) {
	r := NewOverlayRegistry()
	r.Toggle(OverlayStreaks)
	rows := r.HelpRows()

	var headers []string
	byKey := map[string]HelpRow{}
	for _, row := range rows {
		if row.Key == "" {
			headers = append(headers, row.Label)
			continue
		}
		byKey[row.Key] = row
	}
	if len(headers) != 3 || headers[0] != "Panels" || headers[1] != "Debug" || headers[2] != "Window" {
		t.Errorf("headers = %v", headers)
	}
	if len(byKey) != len(r.All())+len(windowKeys) {
		t.Errorf("expected %d keyed rows, got %d", len(r.All())+len(windowKeys), len(byKey))
	}
	if row := byKey["V"]; !row.On || row.Detail == "" {
		t.Errorf("streaks row = %+v, want enabled with a description", row)
	}
	if byKey["P"].On {
		t.Error("perf row should be off")
	}
	if _, ok := byKey["Space"]; !ok {
		t.Error("window bindings missing")
	}
}

func TestHint(t *testing.T) {
	hint := NewOverlayRegistry().Hint()
	for _, want := range []string{"[H] HUD", "[F1] Help", "[V] Velocity Streaks", "[Space] Pause"} {
		if !strings.Contains(hint, want) {
			t.Errorf("hint %q missing %q", hint, want)
		}
	}
}
