package fluid

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Field is a host-side copy of a two-component velocity buffer.
type Field struct {
	Width, Height int
	Data          []float32 // row-major, x/y interleaved, row 0 at the bottom
}

// ReadVelocity downloads the current velocity into f, reallocating f.Data
// when the grid size changed.
func (s *Solver) ReadVelocity(f *Field) error {
	b := s.grid.Velocity.Current()
	n := b.Width() * b.Height() * 2
	if cap(f.Data) < n {
		f.Data = make([]float32, n)
	}
	f.Data = f.Data[:n]
	f.Width, f.Height = b.Width(), b.Height()
	if err := s.dev.Download(b, f.Data); err != nil {
		return fmt.Errorf("reading velocity: %w", err)
	}
	return nil
}

func (f *Field) at(x, y int) (float32, float32) {
	x = clampi(x, 0, f.Width-1)
	y = clampi(y, 0, f.Height-1)
	i := (y*f.Width + x) * 2
	return f.Data[i], f.Data[i+1]
}

// Sample bilinearly filters the field at uv with clamp-to-edge addressing.
func (f *Field) Sample(u, v float64) (float64, float64) {
	if f.Width == 0 || f.Height == 0 {
		return 0, 0
	}
	fx := u*float64(f.Width) - 0.5
	fy := v*float64(f.Height) - 0.5
	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	tx := fx - float64(x0)
	ty := fy - float64(y0)

	ax, ay := f.at(x0, y0)
	bx, by := f.at(x0+1, y0)
	cx, cy := f.at(x0, y0+1)
	dx, dy := f.at(x0+1, y0+1)

	lerp := func(a, b float32, t float64) float64 { return float64(a) + (float64(b)-float64(a))*t }
	topX, topY := lerp(ax, bx, tx), lerp(ay, by, tx)
	botX, botY := lerp(cx, dx, tx), lerp(cy, dy, tx)
	return topX + (botX-topX)*ty, topY + (botY-topY)*ty
}

// Residual returns the RMS central-difference divergence of the field over
// its interior texels. It is a quality measure for the pressure solve.
func Residual(f *Field) float64 {
	if f.Width < 3 || f.Height < 3 {
		return 0
	}
	div := make([]float64, 0, (f.Width-2)*(f.Height-2))
	for y := 1; y < f.Height-1; y++ {
		for x := 1; x < f.Width-1; x++ {
			x0, _ := f.at(x-1, y)
			x1, _ := f.at(x+1, y)
			_, y0 := f.at(x, y-1)
			_, y1 := f.at(x, y+1)
			div = append(div, float64(x1-x0+y1-y0)/2)
		}
	}
	return floats.Norm(div, 2) / math.Sqrt(float64(len(div)))
}

// MaxSpeed returns the largest velocity magnitude in the field.
func MaxSpeed(f *Field) float64 {
	var m2 float64
	for i := 0; i+1 < len(f.Data); i += 2 {
		vx, vy := float64(f.Data[i]), float64(f.Data[i+1])
		if s := vx*vx + vy*vy; s > m2 {
			m2 = s
		}
	}
	return math.Sqrt(m2)
}
