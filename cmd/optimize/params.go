package main

import (
	"github.com/pthm-cable/forage/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
	field   func(cfg *config.Config) *float64
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of parameters that shape the
// infection dynamics.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "mutate_rate", Path: "schedule.mutate_rate", Min: 0.02, Max: 1.0, Default: 0.2,
				field: func(c *config.Config) *float64 { return &c.Schedule.MutateRate }},
			{Name: "immune_rate", Path: "schedule.immune_rate", Min: 0.05, Max: 2.0, Default: 0.5,
				field: func(c *config.Config) *float64 { return &c.Schedule.ImmuneRate }},
			{Name: "penalty_max", Path: "disease.penalty_max", Min: 0.2, Max: 2.0, Default: 1.0,
				field: func(c *config.Config) *float64 { return &c.Disease.PenaltyMax }},
			{Name: "regrowth_rate", Path: "world.regrowth_rate", Min: 0.2, Max: 3.0, Default: 1.0,
				field: func(c *config.Config) *float64 { return &c.World.RegrowthRate }},
			{Name: "lifespan_max", Path: "agent.lifespan_max", Min: 70, Max: 200, Default: 100,
				field: func(c *config.Config) *float64 { return &c.Agent.LifespanMax }},
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

// FromConfig reads the current parameter values out of cfg.
func (pv *ParamVector) FromConfig(cfg *config.Config) []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = *spec.field(cfg)
	}
	return pv.Clamp(v)
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
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig clamps values and writes them into cfg.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)
	for i, spec := range pv.Specs {
		*spec.field(cfg) = clamped[i]
	}
	// penalty_min must stay below penalty_max
	if cfg.Disease.PenaltyMin >= cfg.Disease.PenaltyMax {
		cfg.Disease.PenaltyMin = cfg.Disease.PenaltyMax / 2
	}
	cfg.ComputeDerived()
}
