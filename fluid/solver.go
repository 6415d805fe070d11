package fluid

import "fmt"

// Phase names reported to a PhaseTimer.
const (
	PhaseAdvect     = "advect"
	PhaseForce      = "force"
	PhaseViscous    = "viscous"
	PhaseDivergence = "divergence"
	PhasePoisson    = "poisson"
	PhaseProject    = "project"
)

// PhaseTimer receives a call at the start of every solver phase.
type PhaseTimer interface {
	StartPhase(phase string)
}

// Impulse is the pointer input for one frame in normalized device
// coordinates.
type Impulse struct {
	Coord [2]float64
	Delta [2]float64
}

// Solver runs the stage pipeline over a Grid.
type Solver struct {
	dev   Device
	grid  *Grid
	timer PhaseTimer

	// divergenceInput records which buffer the divergence stage consumed in
	// the last Step.
	divergenceInput Buffer
}

// NewSolver creates a solver. timer may be nil.
func NewSolver(dev Device, grid *Grid, timer PhaseTimer) *Solver {
	return &Solver{dev: dev, grid: grid, timer: timer}
}

// Grid returns the grid the solver steps.
func (s *Solver) Grid() *Grid { return s.grid }

// DivergenceInput returns the velocity buffer the last Step fed into the
// divergence stage.
func (s *Solver) DivergenceInput() Buffer { return s.divergenceInput }

func (s *Solver) phase(name string) {
	if s.timer != nil {
		s.timer.StartPhase(name)
	}
}

// Step advances the velocity field by one frame. After it returns the
// velocity arena's current buffer holds the projected field.
func (s *Solver) Step(opts Options, imp Impulse) error {
	g := s.grid
	dims := g.Dims()
	px := vec2(dims.CellScale)
	bs := vec2(dims.BoundarySpace(opts.Boundary))
	dt := float32(opts.DT)
	vel := &g.Velocity

	s.phase(PhaseAdvect)
	au := AdvectUniforms{
		DT:            dt,
		BFECC:         boolInt(opts.BFECC),
		Ratio:         vec2(dims.Ratio()),
		Px:            px,
		BoundarySpace: bs,
	}
	if err := s.dev.Dispatch(au, vel.Scratch(), vel.Current()); err != nil {
		return fmt.Errorf("advect: %w", err)
	}
	if opts.Boundary == BoundaryBounce {
		if err := s.dev.Dispatch(BoundaryUniforms(au), vel.Scratch(), vel.Current()); err != nil {
			return fmt.Errorf("boundary: %w", err)
		}
	}
	vel.Swap()

	s.phase(PhaseForce)
	force := Vec2{
		float32(imp.Delta[0] / 2 * opts.MouseForce),
		float32(imp.Delta[1] / 2 * opts.MouseForce),
	}
	center := ForceCenter(imp.Coord, opts.CursorSize, dims.CellScale)
	err := s.dev.Dispatch(ForceUniforms{
		Force:  force,
		Center: vec2(center),
		Scale:  Vec2{float32(opts.CursorSize), float32(opts.CursorSize)},
		Px:     px,
	}, vel.Current(), vel.Current())
	if err != nil {
		return fmt.Errorf("force: %w", err)
	}

	v := vel.Current()
	if opts.Viscous {
		s.phase(PhaseViscous)
		u := ViscousUniforms{V: float32(opts.Viscosity), DT: dt, Px: px, BoundarySpace: bs}
		v, err = s.relax(&g.Viscous, opts.ViscousIterations, v, func(out, cur Buffer) error {
			return s.dev.Dispatch(u, out, vel.Current(), cur)
		})
		if err != nil {
			return fmt.Errorf("viscous: %w", err)
		}
	}

	s.phase(PhaseDivergence)
	s.divergenceInput = v
	err = s.dev.Dispatch(DivergenceUniforms{DT: dt, Px: px, BoundarySpace: bs}, g.Divergence, v)
	if err != nil {
		return fmt.Errorf("divergence: %w", err)
	}

	s.phase(PhasePoisson)
	pu := PoissonUniforms{Px: px, BoundarySpace: bs}
	p, err := s.relax(&g.Pressure, opts.PoissonIterations, g.Pressure.Current(), func(out, cur Buffer) error {
		return s.dev.Dispatch(pu, out, cur, g.Divergence)
	})
	if err != nil {
		return fmt.Errorf("poisson: %w", err)
	}

	s.phase(PhaseProject)
	err = s.dev.Dispatch(ProjectUniforms{DT: dt, Px: px, BoundarySpace: bs}, vel.Scratch(), v, p)
	if err != nil {
		return fmt.Errorf("project: %w", err)
	}
	vel.Swap()
	return nil
}

// relax runs iters Jacobi passes over arena a, each reading the arena's
// current estimate and writing its scratch buffer. With zero iterations it
// returns input unchanged.
func (s *Solver) relax(a *Arena, iters int, input Buffer, pass func(out, cur Buffer) error) (Buffer, error) {
	if iters <= 0 {
		return input, nil
	}
	for i := 0; i < iters; i++ {
		if err := pass(a.Scratch(), a.Current()); err != nil {
			return nil, fmt.Errorf("iteration %d: %w", i, err)
		}
		a.Swap()
	}
	return a.Current(), nil
}

func boolInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
