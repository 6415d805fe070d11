// Package config provides configuration loading for the ether binaries.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/ether/ether"
	"github.com/pthm-cable/ether/fluid"
	"github.com/pthm-cable/ether/palette"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds every tunable of a run.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Fluid     fluid.Options   `yaml:"fluid"`
	Palette   PaletteConfig   `yaml:"palette"`
	Pointer   PointerConfig   `yaml:"pointer"`
	Idle      IdleConfig      `yaml:"idle"`
	Device    DeviceConfig    `yaml:"device"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds window settings.
type ScreenConfig struct {
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	TargetFPS  int     `yaml:"target_fps"`
	PixelRatio float64 `yaml:"pixel_ratio"` // 0 = ask the host
	Title      string  `yaml:"title"`
}

// PaletteConfig holds the color ramp and resting background.
type PaletteConfig struct {
	Colors          []string `yaml:"colors"`
	Background      string   `yaml:"background"` // hex, empty = black
	BackgroundAlpha float64  `yaml:"background_alpha"`
}

// PointerConfig holds pointer response parameters.
type PointerConfig struct {
	AutoIntensity    float64       `yaml:"auto_intensity"`    // delta multiplier while the idle driver steers
	TakeoverDuration time.Duration `yaml:"takeover_duration"` // blend from driver to user
}

// IdleConfig holds idle driver parameters.
type IdleConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Speed        float64       `yaml:"speed"`         // normalized units per second
	ResumeDelay  time.Duration `yaml:"resume_delay"`  // inactivity before the driver starts
	RampDuration time.Duration `yaml:"ramp_duration"` // ease-in after activation
}

// DeviceConfig selects the solver backend.
type DeviceConfig struct {
	Backend string `yaml:"backend"` // cpu, opencl or auto
	Workers int    `yaml:"workers"` // CPU row workers, 0 = GOMAXPROCS
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"` // simulated seconds per flow window
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	Background palette.Background
	FrameTime  time.Duration // 1/TargetFPS
	Warnings   []string      // problems normalized while deriving
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

	cfg.computeDerived()
	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.Warnings = nil

	bg, err := palette.ParseBackground(c.Palette.Background, c.Palette.BackgroundAlpha)
	if err != nil {
		c.Derived.Warnings = append(c.Derived.Warnings, err.Error())
	}
	c.Derived.Background = bg

	if c.Screen.TargetFPS <= 0 {
		c.Screen.TargetFPS = 60
	}
	c.Derived.FrameTime = time.Second / time.Duration(c.Screen.TargetFPS)

	if c.Screen.Width < 1 || c.Screen.Height < 1 {
		c.Derived.Warnings = append(c.Derived.Warnings,
			fmt.Sprintf("screen %dx%d clamped to 1x1 minimum", c.Screen.Width, c.Screen.Height))
		c.Screen.Width = max(c.Screen.Width, 1)
		c.Screen.Height = max(c.Screen.Height, 1)
	}
}

// EngineOptions converts the config into engine options.
func (c *Config) EngineOptions() ether.Options {
	return ether.Options{
		Options:          c.Fluid,
		Colors:           append([]string(nil), c.Palette.Colors...),
		Background:       c.Derived.Background,
		AutoDemo:         c.Idle.Enabled,
		AutoSpeed:        c.Idle.Speed,
		AutoIntensity:    c.Pointer.AutoIntensity,
		TakeoverDuration: c.Pointer.TakeoverDuration,
		AutoResumeDelay:  c.Idle.ResumeDelay,
		AutoRampDuration: c.Idle.RampDuration,
	}
}

// SetEngineOptions copies live engine options back into the config, so a
// tuned session can be saved with WriteYAML.
func (c *Config) SetEngineOptions(o ether.Options) {
	c.Fluid = o.Options
	c.Palette.Colors = append([]string(nil), o.Colors...)
	c.Idle.Enabled = o.AutoDemo
	c.Idle.Speed = o.AutoSpeed
	c.Idle.ResumeDelay = o.AutoResumeDelay
	c.Idle.RampDuration = o.AutoRampDuration
	c.Pointer.AutoIntensity = o.AutoIntensity
	c.Pointer.TakeoverDuration = o.TakeoverDuration
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
