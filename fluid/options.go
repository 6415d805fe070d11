// Package fluid implements a grid-based "stable fluids" velocity solver.
//
// A Grid owns every field buffer on a Device; a Solver runs the fixed stage
// pipeline (advect, force, viscous diffusion, divergence, pressure, project)
// once per frame, issuing one Dispatch per pass. Kernels are declared in a
// Registry with explicit uniform schemas so the same pipeline runs on the
// CPU device or on an OpenCL device.
package fluid

import "fmt"

// Boundary selects how the edges of the domain behave.
type Boundary int

const (
	// BoundaryOpen lets flow leave the domain through clamped edge samples.
	BoundaryOpen Boundary = iota
	// BoundaryBounce insets every face pass by one texel and advects the
	// edge ring separately, sampling at the domain edge.
	BoundaryBounce
)

func (b Boundary) String() string {
	switch b {
	case BoundaryOpen:
		return "open"
	case BoundaryBounce:
		return "bounce"
	default:
		return fmt.Sprintf("Boundary(%d)", int(b))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (b Boundary) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *Boundary) UnmarshalText(text []byte) error {
	switch string(text) {
	case "open", "":
		*b = BoundaryOpen
	case "bounce":
		*b = BoundaryBounce
	default:
		return fmt.Errorf("unknown boundary mode %q (want open or bounce)", text)
	}
	return nil
}

// Options are the solver tunables. They may change between frames; only a
// Resolution change requires the grid to be resized.
type Options struct {
	MouseForce        float64  `yaml:"mouse_force"`        // impulse scale applied to pointer delta
	CursorSize        float64  `yaml:"cursor_size"`        // force footprint in texels
	Viscous           bool     `yaml:"is_viscous"`         // run the viscous diffusion stage
	Viscosity         float64  `yaml:"viscous"`            // diffusion coefficient
	ViscousIterations int      `yaml:"iterations_viscous"` // Jacobi iterations for diffusion
	PoissonIterations int      `yaml:"iterations_poisson"` // Jacobi iterations for pressure
	DT                float64  `yaml:"dt"`                 // fixed solver timestep
	BFECC             bool     `yaml:"bfecc"`              // error-compensated advection
	Resolution        float64  `yaml:"resolution"`         // grid size as a fraction of the viewport
	Boundary          Boundary `yaml:"boundary"`
}

// DefaultOptions returns the stock tuning.
func DefaultOptions() Options {
	return Options{
		MouseForce:        20,
		CursorSize:        100,
		Viscous:           false,
		Viscosity:         30,
		ViscousIterations: 32,
		PoissonIterations: 32,
		DT:                0.014,
		BFECC:             true,
		Resolution:        0.5,
		Boundary:          BoundaryOpen,
	}
}
