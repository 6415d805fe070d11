package ui

import (
	"fmt"
	"strings"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// OverlayID uniquely identifies an overlay.
type OverlayID string

// Standard overlay IDs.
const (
	OverlayHUD     OverlayID = "hud"
	OverlayPerf    OverlayID = "perf"
	OverlayTuning  OverlayID = "tuning"
	OverlayStreaks OverlayID = "streaks"
	OverlayPointer OverlayID = "pointer"
	OverlayHelp    OverlayID = "help"
)

// OverlayDescriptor defines an overlay that can be toggled.
type OverlayDescriptor struct {
	ID          OverlayID   // Unique identifier
	Name        string      // Display name
	Description string      // What this overlay shows
	Key         int32       // Keyboard key to toggle (0 = no key)
	KeyLabel    string      // Key label for display (e.g., "S", "V")
	Category    string      // Grouping (e.g., "panels", "debug")
	Exclusive   []OverlayID // Other overlays to disable when this is enabled
}

// OverlayRegistry manages overlay state and metadata.
type OverlayRegistry struct {
	descriptors []OverlayDescriptor
	byID        map[OverlayID]OverlayDescriptor
	enabled     map[OverlayID]bool
	order       []OverlayID // Maintains insertion order for display
}

// NewOverlayRegistry creates a registry with default overlays. The HUD
// starts enabled.
func NewOverlayRegistry() *OverlayRegistry {
	reg := &OverlayRegistry{
		byID:    make(map[OverlayID]OverlayDescriptor),
		enabled: make(map[OverlayID]bool),
	}
	reg.registerDefaults()
	reg.SetEnabled(OverlayHUD, true)
	return reg
}

// registerDefaults adds standard overlays.
func (r *OverlayRegistry) registerDefaults() {
	r.Register(OverlayDescriptor{
		ID:          OverlayHUD,
		Name:        "HUD",
		Description: "Frame rate, grid size and pointer mode",
		Key:         rl.KeyH,
		KeyLabel:    "H",
		Category:    "panels",
	})

	r.Register(OverlayDescriptor{
		ID:          OverlayPerf,
		Name:        "Stage Timings",
		Description: "Per-stage share of the frame step",
		Key:         rl.KeyP,
		KeyLabel:    "P",
		Category:    "panels",
	})

	r.Register(OverlayDescriptor{
		ID:          OverlayTuning,
		Name:        "Tuning",
		Description: "Live sliders for every option",
		Key:         rl.KeyT,
		KeyLabel:    "T",
		Category:    "panels",
		Exclusive:   []OverlayID{OverlayHelp},
	})

	r.Register(OverlayDescriptor{
		ID:          OverlayHelp,
		Name:        "Help",
		Description: "List overlays and their keys",
		Key:         rl.KeyF1,
		KeyLabel:    "F1",
		Category:    "panels",
		Exclusive:   []OverlayID{OverlayTuning},
	})

	r.Register(OverlayDescriptor{
		ID:          OverlayStreaks,
		Name:        "Velocity Streaks",
		Description: "Draw the velocity field as line segments",
		Key:         rl.KeyV,
		KeyLabel:    "V",
		Category:    "debug",
	})

	r.Register(OverlayDescriptor{
		ID:          OverlayPointer,
		Name:        "Pointer",
		Description: "Mark the cursor, driver target and takeover path",
		Key:         rl.KeyC,
		KeyLabel:    "C",
		Category:    "debug",
	})
}

// Register adds an overlay to the registry.
func (r *OverlayRegistry) Register(desc OverlayDescriptor) {
	r.descriptors = append(r.descriptors, desc)
	r.byID[desc.ID] = desc
	r.order = append(r.order, desc.ID)
	r.enabled[desc.ID] = false
}

// Toggle switches an overlay on/off and handles exclusivity.
func (r *OverlayRegistry) Toggle(id OverlayID) bool {
	desc, ok := r.byID[id]
	if !ok {
		return false
	}

	newState := !r.enabled[id]
	r.enabled[id] = newState

	// If enabling, disable exclusive overlays
	if newState {
		for _, excl := range desc.Exclusive {
			r.enabled[excl] = false
		}
	}

	return newState
}

// SetEnabled explicitly sets an overlay's state.
func (r *OverlayRegistry) SetEnabled(id OverlayID, enabled bool) {
	desc, ok := r.byID[id]
	if !ok {
		return
	}

	r.enabled[id] = enabled

	// If enabling, disable exclusive overlays
	if enabled {
		for _, excl := range desc.Exclusive {
			r.enabled[excl] = false
		}
	}
}

// IsEnabled returns whether an overlay is active.
func (r *OverlayRegistry) IsEnabled(id OverlayID) bool {
	return r.enabled[id]
}

// Get returns an overlay descriptor by ID.
func (r *OverlayRegistry) Get(id OverlayID) (OverlayDescriptor, bool) {
	desc, ok := r.byID[id]
	return desc, ok
}

// All returns all registered overlays in registration order.
func (r *OverlayRegistry) All() []OverlayDescriptor {
	return r.descriptors
}

// ByCategory returns overlays filtered by category.
func (r *OverlayRegistry) ByCategory(category string) []OverlayDescriptor {
	var result []OverlayDescriptor
	for _, desc := range r.descriptors {
		if desc.Category == category {
			result = append(result, desc)
		}
	}
	return result
}

// Categories returns all unique categories in order.
func (r *OverlayRegistry) Categories() []string {
	seen := make(map[string]bool)
	var cats []string
	for _, desc := range r.descriptors {
		if !seen[desc.Category] {
			seen[desc.Category] = true
			cats = append(cats, desc.Category)
		}
	}
	return cats
}

// HandleKeyPress checks if a key corresponds to an overlay toggle.
// Returns the overlay ID and new state if a toggle occurred.
func (r *OverlayRegistry) HandleKeyPress(key int32) (OverlayID, bool, bool) {
	for _, desc := range r.descriptors {
		if desc.Key == key {
			newState := r.Toggle(desc.ID)
			return desc.ID, newState, true
		}
	}
	return "", false, false
}

// EnabledOverlays returns a list of currently enabled overlay IDs.
func (r *OverlayRegistry) EnabledOverlays() []OverlayID {
	var result []OverlayID
	for _, id := range r.order {
		if r.enabled[id] {
			result = append(result, id)
		}
	}
	return result
}

// windowKeys are the bindings the window handles itself, outside the
// overlay registry.
var windowKeys = []HelpRow{
	{Key: "Space", Label: "Pause", Detail: "Stop or resume stepping"},
	{Key: "F11", Label: "Fullscreen", Detail: "Toggle fullscreen"},
	{Key: "Mouse", Label: "Stir", Detail: "Move over the window to push the fluid"},
}

// HelpRow is one line of the help panel. Rows without a key are section
// titles.
type HelpRow struct {
	Key    string
	Label  string
	Detail string
	On     bool
}

// HelpRows lists every overlay grouped by category, then the window's own
// bindings.
func (r *OverlayRegistry) HelpRows() []HelpRow {
	var rows []HelpRow
	for _, cat := range r.Categories() {
		rows = append(rows, HelpRow{Label: strings.ToUpper(cat[:1]) + cat[1:]})
		for _, d := range r.ByCategory(cat) {
			rows = append(rows, HelpRow{Key: d.KeyLabel, Label: d.Name, Detail: d.Description, On: r.enabled[d.ID]})
		}
	}
	rows = append(rows, HelpRow{Label: "Window"})
	return append(rows, windowKeys...)
}

// Hint is the one-line key summary shown at the foot of the HUD.
func (r *OverlayRegistry) Hint() string {
	var b strings.Builder
	for _, d := range r.descriptors {
		if d.KeyLabel == "" {
			continue
		}
		fmt.Fprintf(&b, "[%s] %s  ", d.KeyLabel, d.Name)
	}
	fmt.Fprintf(&b, "[%s] %s", windowKeys[0].Key, windowKeys[0].Label)
	return b.String()
}
