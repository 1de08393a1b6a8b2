// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all simulation configuration parameters.
type Config struct {
	World      WorldConfig      `yaml:"world"`
	Population PopulationConfig `yaml:"population"`
	Agent      AgentConfig      `yaml:"agent"`
	Disease    DiseaseConfig    `yaml:"disease"`
	Schedule   ScheduleConfig   `yaml:"schedule"`
	Run        RunConfig        `yaml:"run"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Observer   ObserverConfig   `yaml:"observer"`
	Screen     ScreenConfig     `yaml:"screen"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// WorldConfig holds the resource grid parameters.
type WorldConfig struct {
	Size         int     `yaml:"size"`          // Grid is Size x Size cells
	RegrowthRate float64 `yaml:"regrowth_rate"` // Resource units per unit time, same for every cell
	PeakHeight   float64 `yaml:"peak_height"`   // Height of each capacity peak (psi)
	PeakWidth    float64 `yaml:"peak_width"`    // Peak falloff as a fraction of Size (theta / Size)
}

// PopulationConfig holds population size.
type PopulationConfig struct {
	Initial int `yaml:"initial"` // Held constant for the whole run
}

// AgentConfig holds the ranges agent attributes are drawn from at birth.
// Float ranges are half-open [min, max); vision is inclusive.
type AgentConfig struct {
	VisionMin      int     `yaml:"vision_min"`
	VisionMax      int     `yaml:"vision_max"`
	MetabolismMin  float64 `yaml:"metabolism_min"`
	MetabolismMax  float64 `yaml:"metabolism_max"`
	WealthMin      float64 `yaml:"wealth_min"`
	WealthMax      float64 `yaml:"wealth_max"`
	LifespanMin    float64 `yaml:"lifespan_min"`
	LifespanMax    float64 `yaml:"lifespan_max"`
	ImmuneLength   int     `yaml:"immune_length"`
	InfectNewborns bool    `yaml:"infect_newborns"` // Replacement agents receive one pool disease
}

// DiseaseConfig holds disease pool generation parameters.
type DiseaseConfig struct {
	PoolSize   int     `yaml:"pool_size"` // 0 disables disease entirely
	GenomeMin  int     `yaml:"genome_min"`
	GenomeMax  int     `yaml:"genome_max"`
	PenaltyMin float64 `yaml:"penalty_min"`
	PenaltyMax float64 `yaml:"penalty_max"`
}

// ScheduleConfig holds the exponential inter-arrival rates for periodic events.
type ScheduleConfig struct {
	MoveRate   float64 `yaml:"move_rate"`
	MutateRate float64 `yaml:"mutate_rate"`
	ImmuneRate float64 `yaml:"immune_rate"`
}

// RunConfig holds run-level parameters.
type RunConfig struct {
	Seed    int64   `yaml:"seed"`
	MaxTime float64 `yaml:"max_time"` // 0 = run until the calendar is empty
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow float64 `yaml:"stats_window"` // Simulation time per stats window
}

// ObserverConfig holds the live snapshot stream parameters.
type ObserverConfig struct {
	Addr         string  `yaml:"addr"`          // Empty = observer disabled
	PushInterval float64 `yaml:"push_interval"` // Seconds between pushed snapshots
}

// ScreenConfig holds display settings for the viewer.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
	PaceMs    int `yaml:"pace_ms"` // Delay after each dispatched event while rendering
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	Cells     int     // World.Size squared
	PeakTheta float64 // PeakWidth * Size
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns a fresh copy of the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are broken: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.ComputeDerived()

	return cfg, nil
}

// Clone returns a deep copy suitable for per-run overrides.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

// ComputeDerived recalculates values derived from the loaded config.
// Call it again after changing fields programmatically.
func (c *Config) ComputeDerived() {
	c.Derived.Cells = c.World.Size * c.World.Size
	c.Derived.PeakTheta = c.World.PeakWidth * float64(c.World.Size)
}

// Validate reports the first configuration error that would make a run impossible.
func (c *Config) Validate() error {
	switch {
	case c.World.Size <= 0:
		return fmt.Errorf("%w: world.size must be positive, got %d", ErrInvalid, c.World.Size)
	case c.Population.Initial < 0:
		return fmt.Errorf("%w: population.initial must not be negative", ErrInvalid)
	case c.Population.Initial >= c.World.Size*c.World.Size:
		return fmt.Errorf("%w: population.initial %d must be below the %d grid cells",
			ErrInvalid, c.Population.Initial, c.World.Size*c.World.Size)
	case c.World.RegrowthRate < 0:
		return fmt.Errorf("%w: world.regrowth_rate must not be negative", ErrInvalid)
	case c.Agent.VisionMin < 1 || c.Agent.VisionMax < c.Agent.VisionMin:
		return fmt.Errorf("%w: agent vision range [%d, %d] is empty or non-positive",
			ErrInvalid, c.Agent.VisionMin, c.Agent.VisionMax)
	case c.Agent.MetabolismMax < c.Agent.MetabolismMin,
		c.Agent.WealthMax < c.Agent.WealthMin,
		c.Agent.LifespanMax < c.Agent.LifespanMin:
		return fmt.Errorf("%w: agent attribute range has max below min", ErrInvalid)
	case c.Agent.WealthMin < 0:
		return fmt.Errorf("%w: agent.wealth_min must not be negative, got %g", ErrInvalid, c.Agent.WealthMin)
	case c.Agent.MetabolismMin <= 0:
		return fmt.Errorf("%w: agent.metabolism_min must be positive, got %g", ErrInvalid, c.Agent.MetabolismMin)
	case c.Agent.LifespanMin <= 0:
		return fmt.Errorf("%w: agent.lifespan_min must be positive", ErrInvalid)
	case c.Agent.ImmuneLength <= 0:
		return fmt.Errorf("%w: agent.immune_length must be positive", ErrInvalid)
	case c.Schedule.MoveRate <= 0 || c.Schedule.MutateRate <= 0 || c.Schedule.ImmuneRate <= 0:
		return fmt.Errorf("%w: schedule rates must be positive", ErrInvalid)
	case c.Run.MaxTime < 0:
		return fmt.Errorf("%w: run.max_time must not be negative", ErrInvalid)
	}

	if c.Disease.PoolSize > 0 {
		switch {
		case c.Disease.GenomeMin < 1 || c.Disease.GenomeMax < c.Disease.GenomeMin:
			return fmt.Errorf("%w: disease genome range [%d, %d] is empty",
				ErrInvalid, c.Disease.GenomeMin, c.Disease.GenomeMax)
		case c.Disease.GenomeMax >= c.Agent.ImmuneLength:
			return fmt.Errorf("%w: disease.genome_max %d must be shorter than agent.immune_length %d",
				ErrInvalid, c.Disease.GenomeMax, c.Agent.ImmuneLength)
		case c.Disease.PenaltyMin <= 0 || c.Disease.PenaltyMax < c.Disease.PenaltyMin:
			return fmt.Errorf("%w: disease penalty range must be positive", ErrInvalid)
		}
	}

	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
