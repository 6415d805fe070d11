// Package ui provides a descriptor-driven UI for the fluid window.
// Tunables, readouts and overlays are declared as metadata so panels stay in
// step with ether.Options without hand-written layout per field.
package ui

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/ether/ether"
)

// WidgetType specifies how a tunable is rendered.
type WidgetType int

const (
	WidgetSlider  WidgetType = iota // float slider over Range
	WidgetInt                       // integer slider over Range
	WidgetToggle                    // checkbox
	WidgetSection                   // section header
)

// FieldRange defines the value range for sliders.
type FieldRange struct {
	Min float32
	Max float32
}

// Clamp limits v to the range.
func (r FieldRange) Clamp(v float32) float32 {
	return float32(math.Max(float64(r.Min), math.Min(float64(r.Max), float64(v))))
}

// TunableDescriptor binds one widget to one engine option.
type TunableDescriptor struct {
	ID     string
	Label  string
	Widget WidgetType
	Format string // Printf format for the value readout
	Range  FieldRange

	Get func(*ether.Options) float32 // sliders
	Set func(*ether.Options, float32)

	GetBool func(*ether.Options) bool // toggles
	SetBool func(*ether.Options, bool)
}

// Apply writes v to o through the descriptor, clamped and rounded as the
// widget requires. It reports whether the option changed.
func (d TunableDescriptor) Apply(o *ether.Options, v float32) bool {
	if d.Get == nil || d.Set == nil {
		return false
	}
	v = d.Range.Clamp(v)
	if d.Widget == WidgetInt {
		v = float32(math.Round(float64(v)))
	}
	if v == d.Get(o) {
		return false
	}
	d.Set(o, v)
	return true
}

// ApplyBool is Apply for toggles.
func (d TunableDescriptor) ApplyBool(o *ether.Options, v bool) bool {
	if d.GetBool == nil || d.SetBool == nil || d.GetBool(o) == v {
		return false
	}
	d.SetBool(o, v)
	return true
}

// Theme holds UI styling constants.
type Theme struct {
	PanelBg        rl.Color
	PanelBorder    rl.Color
	SectionHeader  rl.Color
	LabelColor     rl.Color
	ValueColor     rl.Color
	BarBg          rl.Color
	BarFill        rl.Color
	BarFillHot     rl.Color
	Padding        int32
	LineHeight     int32
	LabelWidth     int32
	BarHeight      int32
	FontSize       int32
	HeaderFontSize int32
}

// DefaultTheme returns the default UI theme.
func DefaultTheme() Theme {
	return Theme{
		PanelBg:        rl.Color{R: 20, G: 18, B: 34, A: 230},
		PanelBorder:    rl.Color{R: 82, G: 39, B: 255, A: 255},
		SectionHeader:  rl.Color{R: 255, G: 159, B: 252, A: 255},
		LabelColor:     rl.LightGray,
		ValueColor:     rl.RayWhite,
		BarBg:          rl.Color{R: 40, G: 40, B: 48, A: 255},
		BarFill:        rl.Color{R: 177, G: 158, B: 239, A: 255},
		BarFillHot:     rl.Color{R: 255, G: 120, B: 120, A: 255},
		Padding:        10,
		LineHeight:     18,
		LabelWidth:     120,
		BarHeight:      10,
		FontSize:       12,
		HeaderFontSize: 14,
	}
}
