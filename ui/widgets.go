package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Renderer handles all UI drawing with consistent styling.
type Renderer struct {
	Theme Theme
}

// NewRenderer creates a renderer with the default theme.
func NewRenderer() *Renderer {
	return &Renderer{Theme: DefaultTheme()}
}

// DrawPanel draws a panel background with border.
func (r *Renderer) DrawPanel(x, y, width, height int32) {
	rl.DrawRectangle(x, y, width, height, r.Theme.PanelBg)
	rl.DrawRectangleLines(x, y, width, height, r.Theme.PanelBorder)
}

// DrawSectionHeader draws a section header and returns the new Y position.
func (r *Renderer) DrawSectionHeader(x, y int32, title string) int32 {
	rl.DrawText(title, x, y, r.Theme.HeaderFontSize, r.Theme.SectionHeader)
	return y + r.Theme.LineHeight
}

// DrawLabelValue draws a label and value on the same line.
func (r *Renderer) DrawLabelValue(x, y int32, label, value string) int32 {
	rl.DrawText(label+":", x, y, r.Theme.FontSize, r.Theme.LabelColor)
	rl.DrawText(value, x+r.Theme.LabelWidth, y, r.Theme.FontSize, r.Theme.ValueColor)
	return y + r.Theme.LineHeight
}

// DrawBar draws a labelled [0, 1] bar with a percentage readout. Values
// above hot are drawn in the hot color.
func (r *Renderer) DrawBar(x, y int32, label string, value, hot float32, width int32) int32 {
	value = FieldRange{Min: 0, Max: 1}.Clamp(value)

	barX := x + r.Theme.LabelWidth
	barWidth := width - r.Theme.LabelWidth - 50

	rl.DrawText(label+":", x, y, r.Theme.FontSize, r.Theme.LabelColor)
	rl.DrawRectangle(barX, y+2, barWidth, r.Theme.BarHeight, r.Theme.BarBg)

	fill := r.Theme.BarFill
	if value > hot {
		fill = r.Theme.BarFillHot
	}
	rl.DrawRectangle(barX, y+2, int32(float32(barWidth)*value), r.Theme.BarHeight, fill)
	rl.DrawText(fmt.Sprintf("%4.1f%%", value*100), barX+barWidth+5, y, r.Theme.FontSize, r.Theme.ValueColor)

	return y + r.Theme.LineHeight
}

// DrawSwatches draws a row of color swatches, one per ramp stop.
func (r *Renderer) DrawSwatches(x, y int32, label string, colors []rl.Color) int32 {
	const size = 12
	rl.DrawText(label+":", x, y, r.Theme.FontSize, r.Theme.LabelColor)
	sx := x + r.Theme.LabelWidth
	for _, c := range colors {
		rl.DrawRectangle(sx, y+1, size, size, c)
		rl.DrawRectangleLines(sx, y+1, size, size, r.Theme.PanelBorder)
		sx += size + 4
	}
	return y + r.Theme.LineHeight
}
