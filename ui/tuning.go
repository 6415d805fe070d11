package ui

import (
	"fmt"
	"time"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/ether/ether"
	"github.com/pthm-cable/ether/fluid"
)

// Action is a button pressed on the tuning panel.
type Action int

const (
	ActionNone  Action = iota
	ActionReset        // restore the options the panel was opened with
	ActionSave         // persist the current options
)

func seconds(d time.Duration) float32 { return float32(d.Seconds()) }

func duration(v float32) time.Duration { return time.Duration(float64(v) * float64(time.Second)) }

// DefaultTunables describes every live-tunable engine option.
func DefaultTunables() []TunableDescriptor {
	return []TunableDescriptor{
		{ID: "forcing", Label: "Forcing", Widget: WidgetSection},
		{
			ID: "mouse_force", Label: "Mouse force", Widget: WidgetSlider, Format: "%.1f",
			Range: FieldRange{Min: 0, Max: 100},
			Get:   func(o *ether.Options) float32 { return float32(o.MouseForce) },
			Set:   func(o *ether.Options, v float32) { o.MouseForce = float64(v) },
		},
		{
			ID: "cursor_size", Label: "Cursor size", Widget: WidgetSlider, Format: "%.0f",
			Range: FieldRange{Min: 10, Max: 300},
			Get:   func(o *ether.Options) float32 { return float32(o.CursorSize) },
			Set:   func(o *ether.Options, v float32) { o.CursorSize = float64(v) },
		},

		{ID: "solver", Label: "Solver", Widget: WidgetSection},
		{
			ID: "resolution", Label: "Resolution", Widget: WidgetSlider, Format: "%.2f",
			Range: FieldRange{Min: 0.1, Max: 1},
			Get:   func(o *ether.Options) float32 { return float32(o.Resolution) },
			Set:   func(o *ether.Options, v float32) { o.Resolution = float64(v) },
		},
		{
			ID: "dt", Label: "Timestep", Widget: WidgetSlider, Format: "%.3f",
			Range: FieldRange{Min: 0.002, Max: 0.05},
			Get:   func(o *ether.Options) float32 { return float32(o.DT) },
			Set:   func(o *ether.Options, v float32) { o.DT = float64(v) },
		},
		{
			ID: "iterations_poisson", Label: "Pressure iters", Widget: WidgetInt, Format: "%.0f",
			Range: FieldRange{Min: 0, Max: 64},
			Get:   func(o *ether.Options) float32 { return float32(o.PoissonIterations) },
			Set:   func(o *ether.Options, v float32) { o.PoissonIterations = int(v) },
		},
		{
			ID: "bfecc", Label: "BFECC advection", Widget: WidgetToggle,
			GetBool: func(o *ether.Options) bool { return o.BFECC },
			SetBool: func(o *ether.Options, v bool) { o.BFECC = v },
		},
		{
			ID: "bounce", Label: "Bounce walls", Widget: WidgetToggle,
			GetBool: func(o *ether.Options) bool { return o.Boundary == fluid.BoundaryBounce },
			SetBool: func(o *ether.Options, v bool) {
				o.Boundary = fluid.BoundaryOpen
				if v {
					o.Boundary = fluid.BoundaryBounce
				}
			},
		},
		{
			ID: "is_viscous", Label: "Viscosity", Widget: WidgetToggle,
			GetBool: func(o *ether.Options) bool { return o.Viscous },
			SetBool: func(o *ether.Options, v bool) { o.Viscous = v },
		},
		{
			ID: "viscous", Label: "Viscous coef", Widget: WidgetSlider, Format: "%.1f",
			Range: FieldRange{Min: 0, Max: 100},
			Get:   func(o *ether.Options) float32 { return float32(o.Viscosity) },
			Set:   func(o *ether.Options, v float32) { o.Viscosity = float64(v) },
		},
		{
			ID: "iterations_viscous", Label: "Viscous iters", Widget: WidgetInt, Format: "%.0f",
			Range: FieldRange{Min: 0, Max: 64},
			Get:   func(o *ether.Options) float32 { return float32(o.ViscousIterations) },
			Set:   func(o *ether.Options, v float32) { o.ViscousIterations = int(v) },
		},

		{ID: "idle", Label: "Idle driver", Widget: WidgetSection},
		{
			ID: "auto_demo", Label: "Auto demo", Widget: WidgetToggle,
			GetBool: func(o *ether.Options) bool { return o.AutoDemo },
			SetBool: func(o *ether.Options, v bool) { o.AutoDemo = v },
		},
		{
			ID: "auto_speed", Label: "Speed", Widget: WidgetSlider, Format: "%.2f",
			Range: FieldRange{Min: 0, Max: 2},
			Get:   func(o *ether.Options) float32 { return float32(o.AutoSpeed) },
			Set:   func(o *ether.Options, v float32) { o.AutoSpeed = float64(v) },
		},
		{
			ID: "auto_intensity", Label: "Intensity", Widget: WidgetSlider, Format: "%.2f",
			Range: FieldRange{Min: 0, Max: 5},
			Get:   func(o *ether.Options) float32 { return float32(o.AutoIntensity) },
			Set:   func(o *ether.Options, v float32) { o.AutoIntensity = float64(v) },
		},
		{
			ID: "auto_resume_delay", Label: "Resume delay s", Widget: WidgetSlider, Format: "%.1f",
			Range: FieldRange{Min: 0, Max: 10},
			Get:   func(o *ether.Options) float32 { return seconds(o.AutoResumeDelay) },
			Set:   func(o *ether.Options, v float32) { o.AutoResumeDelay = duration(v) },
		},
		{
			ID: "takeover_duration", Label: "Takeover s", Widget: WidgetSlider, Format: "%.2f",
			Range: FieldRange{Min: 0, Max: 2},
			Get:   func(o *ether.Options) float32 { return seconds(o.TakeoverDuration) },
			Set:   func(o *ether.Options, v float32) { o.TakeoverDuration = duration(v) },
		},
		{
			ID: "auto_ramp_duration", Label: "Ramp s", Widget: WidgetSlider, Format: "%.2f",
			Range: FieldRange{Min: 0, Max: 2},
			Get:   func(o *ether.Options) float32 { return seconds(o.AutoRampDuration) },
			Set:   func(o *ether.Options, v float32) { o.AutoRampDuration = duration(v) },
		},
	}
}

// TuningPanel renders raygui widgets for the tunables.
type TuningPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	visible  bool
	Tunables []TunableDescriptor
}

// NewTuningPanel creates a hidden tuning panel with the default tunables.
func NewTuningPanel(x, y, width int32) *TuningPanel {
	return &TuningPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
		Tunables: DefaultTunables(),
	}
}

// SetPosition updates the panel position.
func (p *TuningPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

func (p *TuningPanel) SetVisible(visible bool) { p.visible = visible }

func (p *TuningPanel) IsVisible() bool { return p.visible }

// Height returns the panel height for the current tunables.
func (p *TuningPanel) Height() int32 {
	t := p.renderer.Theme
	return int32(len(p.Tunables)+3)*(t.LineHeight+4) + t.Padding*2
}

// Draw renders the panel over opts and returns the edited options, whether
// anything changed, and any button pressed.
func (p *TuningPanel) Draw(opts ether.Options) (ether.Options, bool, Action) {
	if !p.visible {
		return opts, false, ActionNone
	}
	r := p.renderer
	t := r.Theme
	r.DrawPanel(p.x, p.y, p.width, p.Height())

	x := float32(p.x + t.Padding)
	y := p.y + t.Padding
	rl.DrawText("Tuning", int32(x), y, 16, rl.White)
	y += t.LineHeight + 4

	sliderX := x + float32(t.LabelWidth)
	sliderW := float32(p.width-t.LabelWidth-t.Padding*2) - 50
	dragging := rl.IsMouseButtonDown(rl.MouseButtonLeft)
	changed := false

	for _, d := range p.Tunables {
		switch d.Widget {
		case WidgetSection:
			y = r.DrawSectionHeader(int32(x), y+4, d.Label)

		case WidgetSlider, WidgetInt:
			cur := d.Get(&opts)
			rl.DrawText(d.Label, int32(x), y+2, t.FontSize, t.LabelColor)
			bounds := rl.Rectangle{X: sliderX, Y: float32(y), Width: sliderW, Height: float32(t.LineHeight - 2)}
			v := gui.SliderBar(bounds, "", "", cur, d.Range.Min, d.Range.Max)
			rl.DrawText(fmt.Sprintf(d.Format, cur), int32(sliderX+sliderW+6), y+2, t.FontSize, t.ValueColor)
			if dragging && v != cur && d.Apply(&opts, v) {
				changed = true
			}
			y += t.LineHeight + 4

		case WidgetToggle:
			cur := d.GetBool(&opts)
			bounds := rl.Rectangle{X: x, Y: float32(y), Width: 14, Height: 14}
			v := gui.CheckBox(bounds, d.Label, cur)
			if d.ApplyBool(&opts, v) {
				changed = true
			}
			y += t.LineHeight + 4
		}
	}

	action := ActionNone
	y += 6
	if gui.Button(rl.Rectangle{X: x, Y: float32(y), Width: 90, Height: 24}, "Reset") {
		action = ActionReset
	}
	if gui.Button(rl.Rectangle{X: x + 100, Y: float32(y), Width: 90, Height: 24}, "Save") {
		action = ActionSave
	}
	return opts, changed, action
}
