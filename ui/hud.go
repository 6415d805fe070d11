package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/ether/pointer"
	"github.com/pthm-cable/ether/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title    string
	FPS      int32
	Frames   uint64
	GridW    int
	GridH    int
	Device   string
	Mode     pointer.Mode
	MaxSpeed float64
	Running  bool
	Swatches []rl.Color
	ScreenH  int32
	Controls string
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{renderer: NewRenderer()}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	rl.DrawText(data.Title, 10, 10, 20, rl.White)

	rl.DrawText(
		fmt.Sprintf("Grid: %dx%d | Device: %s | FPS: %d", data.GridW, data.GridH, data.Device, data.FPS),
		10, 35, 16, rl.LightGray,
	)
	rl.DrawText(
		fmt.Sprintf("Frame: %d | Pointer: %s | Peak speed: %.2f", data.Frames, data.Mode, data.MaxSpeed),
		10, 55, 16, rl.LightGray,
	)

	status := "Running"
	if !data.Running {
		status = "PAUSED"
	}
	rl.DrawText(status, 10, 75, 16, rl.Yellow)

	if len(data.Swatches) > 0 {
		h.renderer.DrawSwatches(10, 95, "Palette", data.Swatches)
	}
	if data.Controls != "" && data.ScreenH > 0 {
		rl.DrawText(data.Controls, 10, data.ScreenH-25, 14, rl.Gray)
	}
}

// PerfPanel renders the per-stage timing panel.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y, width int32) *PerfPanel {
	return &PerfPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the stage timing panel.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	r := p.renderer
	t := r.Theme
	height := int32(len(telemetry.Phases)+3)*t.LineHeight + t.Padding*2
	r.DrawPanel(p.x, p.y, p.width, height)

	x := p.x + t.Padding
	y := p.y + t.Padding
	rl.DrawText("Stage Timings", x, y, 16, rl.White)
	y += t.LineHeight + 2

	y = r.DrawLabelValue(x, y, "Step", fmt.Sprintf("%s (max %s)",
		stats.AvgTickDuration.Round(time.Microsecond), stats.MaxTickDuration.Round(time.Microsecond)))
	y = r.DrawLabelValue(x, y, "Steps/s", fmt.Sprintf("%.0f", stats.TicksPerSecond))

	for _, phase := range telemetry.Phases {
		pct := stats.PhasePct[phase]
		y = r.DrawBar(x, y, phase, float32(pct/100), 0.4, p.width-t.Padding*2)
	}
}

// HelpPanel lists the overlays with their keys and state, followed by the
// window bindings.
type HelpPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	visible  bool
}

func NewHelpPanel(x, y, width int32) *HelpPanel {
	return &HelpPanel{renderer: NewRenderer(), x: x, y: y, width: width}
}

func (p *HelpPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

func (p *HelpPanel) SetVisible(visible bool) { p.visible = visible }

// Draw renders rows from the registry. Entries take two lines: name and
// key, then the description.
func (p *HelpPanel) Draw(reg *OverlayRegistry) {
	if !p.visible {
		return
	}
	r := p.renderer
	t := r.Theme
	rows := reg.HelpRows()

	height := t.Padding*2 + t.LineHeight + 4
	for _, row := range rows {
		height += t.LineHeight
		if row.Key != "" {
			height += t.LineHeight - 4
		}
	}
	r.DrawPanel(p.x, p.y, p.width, height)

	x := p.x + t.Padding
	right := p.x + p.width - t.Padding
	y := p.y + t.Padding
	rl.DrawText("Help", x, y, 16, rl.White)
	y += t.LineHeight + 4

	for _, row := range rows {
		if row.Key == "" {
			rl.DrawText(row.Label, x, y, t.HeaderFontSize, t.SectionHeader)
			y += t.LineHeight
			continue
		}
		name := t.LabelColor
		if row.On {
			name = rl.White
			rl.DrawRectangle(x, y+2, 6, 6, rl.Green)
		}
		rl.DrawText(row.Label, x+12, y, t.FontSize, name)
		key := "[" + row.Key + "]"
		rl.DrawText(key, right-rl.MeasureText(key, t.FontSize), y, t.FontSize, rl.Gray)
		y += t.LineHeight
		rl.DrawText(row.Detail, x+12, y-2, t.FontSize-2, rl.DarkGray)
		y += t.LineHeight - 4
	}
}
