package main

import (
	"math"

	"github.com/pthm-cable/ether/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "mouse_force", Path: "fluid.mouse_force", Min: 5, Max: 60, Default: 20},
			{Name: "cursor_size", Path: "fluid.cursor_size", Min: 20, Max: 200, Default: 100},
			{Name: "iterations_poisson", Path: "fluid.iterations_poisson", Min: 4, Max: 64, Default: 32},
			{Name: "resolution", Path: "fluid.resolution", Min: 0.2, Max: 1.0, Default: 0.5},
			{Name: "dt", Path: "fluid.dt", Min: 0.005, Max: 0.03, Default: 0.014},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = math.Min(math.Max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig writes parameter values into cfg. Order must match Specs.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)
	cfg.Fluid.MouseForce = clamped[0]
	cfg.Fluid.CursorSize = clamped[1]
	cfg.Fluid.PoissonIterations = int(math.Round(clamped[2]))
	cfg.Fluid.Resolution = clamped[3]
	cfg.Fluid.DT = clamped[4]
}

// ExtractFromConfig reads the current parameter values from cfg.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		cfg.Fluid.MouseForce,
		cfg.Fluid.CursorSize,
		float64(cfg.Fluid.PoissonIterations),
		cfg.Fluid.Resolution,
		cfg.Fluid.DT,
	}
}
