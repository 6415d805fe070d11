package fluid

import (
	"fmt"
	"reflect"
)

// StageID enumerates the solver kernels.
type StageID int

const (
	StageAdvect StageID = iota
	StageBoundary
	StageForce
	StageViscous
	StageDivergence
	StagePoisson
	StageProject
	numStages
)

var stageNames = [numStages]string{
	StageAdvect:     "advect",
	StageBoundary:   "boundary",
	StageForce:      "force",
	StageViscous:    "viscous",
	StageDivergence: "divergence",
	StagePoisson:    "poisson",
	StageProject:    "project",
}

func (s StageID) String() string {
	if s < 0 || s >= numStages {
		return fmt.Sprintf("StageID(%d)", int(s))
	}
	return stageNames[s]
}

// Vec2 is a two-component uniform.
type Vec2 [2]float32

func vec2(v [2]float64) Vec2 { return Vec2{float32(v[0]), float32(v[1])} }

// Uniforms is implemented by each stage's parameter struct. Fields carry a
// `uniform:"name"` tag and must be float32, int32 or Vec2.
type Uniforms interface {
	Stage() StageID
}

// AdvectUniforms parameterize semi-Lagrangian advection. Ratio scales the
// backtrace so one unit of velocity covers the same distance on both axes
// of a non-square grid.
type AdvectUniforms struct {
	DT            float32 `uniform:"dt"`
	BFECC         int32   `uniform:"isBFECC"`
	Ratio         Vec2    `uniform:"ratio"`
	Px            Vec2    `uniform:"px"`
	BoundarySpace Vec2    `uniform:"boundarySpace"`
}

// BoundaryUniforms parameterize the bounce pass. It advects the texels the
// face pass left out, sampling at the domain edge, with the same numerics
// and uniforms as AdvectUniforms.
type BoundaryUniforms AdvectUniforms

// ForceUniforms parameterize the additive radial impulse.
type ForceUniforms struct {
	Force  Vec2 `uniform:"force"`
	Center Vec2 `uniform:"center"`
	Scale  Vec2 `uniform:"scale"`
	Px     Vec2 `uniform:"px"`
}

// ViscousUniforms parameterize one Jacobi diffusion iteration.
type ViscousUniforms struct {
	V             float32 `uniform:"v"`
	DT            float32 `uniform:"dt"`
	Px            Vec2    `uniform:"px"`
	BoundarySpace Vec2    `uniform:"boundarySpace"`
}

type DivergenceUniforms struct {
	DT            float32 `uniform:"dt"`
	Px            Vec2    `uniform:"px"`
	BoundarySpace Vec2    `uniform:"boundarySpace"`
}

type PoissonUniforms struct {
	Px            Vec2 `uniform:"px"`
	BoundarySpace Vec2 `uniform:"boundarySpace"`
}

type ProjectUniforms struct {
	DT            float32 `uniform:"dt"`
	Px            Vec2    `uniform:"px"`
	BoundarySpace Vec2    `uniform:"boundarySpace"`
}

func (AdvectUniforms) Stage() StageID     { return StageAdvect }
func (BoundaryUniforms) Stage() StageID   { return StageBoundary }
func (ForceUniforms) Stage() StageID      { return StageForce }
func (ViscousUniforms) Stage() StageID    { return StageViscous }
func (DivergenceUniforms) Stage() StageID { return StageDivergence }
func (PoissonUniforms) Stage() StageID    { return StagePoisson }
func (ProjectUniforms) Stage() StageID    { return StageProject }

// UniformField is one entry of a kernel's reflected uniform schema.
type UniformField struct {
	Name  string
	index int
	Kind  reflect.Kind // Float32 or Int32
	Len   int          // 1 for scalars, 2 for Vec2
}

// Kernel declares a stage: its inputs, output layout and uniform schema.
type Kernel struct {
	ID     StageID
	Entry  string // OpenCL entry point
	Inputs []int  // component count per input buffer
	Output int    // component count of the output buffer
	// InPlace kernels are dispatched with out as their only input.
	InPlace bool
	// Scalar output texels outside the covered domain are zeroed instead of
	// copying the first input.
	Scalar bool
	Schema []UniformField

	uniformType reflect.Type
}

// Registry maps stage identifiers to kernel declarations.
type Registry struct {
	kernels [numStages]*Kernel
}

// NewRegistry builds a registry, reflecting each uniform struct's schema.
// It panics on malformed declarations since those are programming errors.
func NewRegistry(decls ...KernelDecl) *Registry {
	r := &Registry{}
	for _, d := range decls {
		id := d.Uniforms.Stage()
		if r.kernels[id] != nil {
			panic(fmt.Sprintf("fluid: stage %s registered twice", id))
		}
		t := reflect.TypeOf(d.Uniforms)
		r.kernels[id] = &Kernel{
			ID:          id,
			Entry:       d.Entry,
			Inputs:      d.Inputs,
			Output:      d.Output,
			InPlace:     d.InPlace,
			Scalar:      d.Output == 1,
			Schema:      reflectSchema(t),
			uniformType: t,
		}
	}
	return r
}

// KernelDecl is the input to NewRegistry.
type KernelDecl struct {
	Uniforms Uniforms // zero value of the stage's uniform struct
	Entry    string
	Inputs   []int
	Output   int
	InPlace  bool
}

var vec2Type = reflect.TypeOf(Vec2{})

func reflectSchema(t reflect.Type) []UniformField {
	if t.Kind() != reflect.Struct {
		panic(fmt.Sprintf("fluid: uniforms %s must be a struct", t))
	}
	var schema []UniformField
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, ok := f.Tag.Lookup("uniform")
		if !ok {
			continue
		}
		field := UniformField{Name: name, index: i}
		switch {
		case f.Type == vec2Type:
			field.Kind, field.Len = reflect.Float32, 2
		case f.Type.Kind() == reflect.Float32, f.Type.Kind() == reflect.Int32:
			field.Kind, field.Len = f.Type.Kind(), 1
		default:
			panic(fmt.Sprintf("fluid: uniform %s.%s has unsupported type %s", t.Name(), f.Name, f.Type))
		}
		schema = append(schema, field)
	}
	return schema
}

// Lookup returns the kernel registered for id.
func (r *Registry) Lookup(id StageID) (*Kernel, bool) {
	if id < 0 || id >= numStages || r.kernels[id] == nil {
		return nil, false
	}
	return r.kernels[id], true
}

// Kernels returns the registered kernels in stage order.
func (r *Registry) Kernels() []*Kernel {
	out := make([]*Kernel, 0, numStages)
	for _, k := range r.kernels {
		if k != nil {
			out = append(out, k)
		}
	}
	return out
}

// Args flattens u into kernel arguments following the schema order. Vec2
// fields expand to two float32 values.
func (k *Kernel) Args(u Uniforms) ([]any, error) {
	v := reflect.ValueOf(u)
	if v.Type() != k.uniformType {
		return nil, fmt.Errorf("stage %s: uniforms of type %s, want %s", k.ID, v.Type(), k.uniformType)
	}
	args := make([]any, 0, len(k.Schema)*2)
	for _, f := range k.Schema {
		fv := v.Field(f.index)
		switch {
		case f.Len == 2:
			vec := fv.Interface().(Vec2)
			args = append(args, vec[0], vec[1])
		case f.Kind == reflect.Int32:
			args = append(args, int32(fv.Int()))
		default:
			args = append(args, float32(fv.Float()))
		}
	}
	return args, nil
}

// Validate checks buffer arity and layout before a dispatch.
func (k *Kernel) Validate(out Buffer, in []Buffer) error {
	if out == nil {
		return fmt.Errorf("stage %s: nil output buffer", k.ID)
	}
	if out.Components() != k.Output {
		return fmt.Errorf("stage %s: output has %d components, want %d", k.ID, out.Components(), k.Output)
	}
	if len(in) != len(k.Inputs) {
		return fmt.Errorf("stage %s: got %d inputs, want %d", k.ID, len(in), len(k.Inputs))
	}
	for i, b := range in {
		if b == nil {
			return fmt.Errorf("stage %s: nil input %d", k.ID, i)
		}
		if b.Components() != k.Inputs[i] {
			return fmt.Errorf("stage %s: input %d has %d components, want %d", k.ID, i, b.Components(), k.Inputs[i])
		}
		if b.Width() != out.Width() || b.Height() != out.Height() {
			return fmt.Errorf("stage %s: input %d is %dx%d, output is %dx%d",
				k.ID, i, b.Width(), b.Height(), out.Width(), out.Height())
		}
		if !k.InPlace && b == out {
			return fmt.Errorf("stage %s: input %d aliases the output", k.ID, i)
		}
	}
	return nil
}

// Kernels is the solver's stage registry.
var Kernels = NewRegistry(
	KernelDecl{Uniforms: AdvectUniforms{}, Entry: "advect", Inputs: []int{2}, Output: 2},
	KernelDecl{Uniforms: BoundaryUniforms{}, Entry: "boundary", Inputs: []int{2}, Output: 2},
	KernelDecl{Uniforms: ForceUniforms{}, Entry: "force", Inputs: []int{2}, Output: 2, InPlace: true},
	KernelDecl{Uniforms: ViscousUniforms{}, Entry: "viscous", Inputs: []int{2, 2}, Output: 2},
	KernelDecl{Uniforms: DivergenceUniforms{}, Entry: "divergence", Inputs: []int{2}, Output: 1},
	KernelDecl{Uniforms: PoissonUniforms{}, Entry: "poisson", Inputs: []int{1, 1}, Output: 1},
	KernelDecl{Uniforms: ProjectUniforms{}, Entry: "project", Inputs: []int{2, 1}, Output: 2},
)
