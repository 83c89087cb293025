package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/san-kum/orrery/internal/orbit"
	"github.com/san-kum/orrery/internal/quality"
	"github.com/san-kum/orrery/internal/timeunit"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPreset      = "solar"
	DefaultFPS         = 60
	DefaultTrailLength = 100
	DefaultLogLevel    = "info"
	// DefaultInitialUnit starts every body at one orbit per year. An empty
	// initial_unit keeps the configured base speeds.
	DefaultInitialUnit = timeunit.Year
)

// Resume policies. ResumeElapsed keeps the clock running through a pause, so
// the first tick after resume sees the whole paused interval.
const (
	ResumeElapsed = "elapsed"
	ResumeReset   = "reset"
)

type Config struct {
	Preset       string             `yaml:"preset"`
	Seed         int64              `yaml:"seed"`
	LogLevel     string             `yaml:"log_level"`
	FPS          int                `yaml:"fps"`
	ResumePolicy string             `yaml:"resume_policy"`
	TrailLength  int                `yaml:"trail_length"`
	StartPaused  bool               `yaml:"start_paused"`
	InitialUnit  string             `yaml:"initial_unit"`
	Display      DisplayConfig      `yaml:"display"`
	Camera       CameraConfig       `yaml:"camera"`
	Quality      quality.Config     `yaml:"quality"`
	TimeUnits    map[string]float64 `yaml:"time_units"`
	Bodies       []BodyConfig       `yaml:"bodies"`
}

type DisplayConfig struct {
	Orbits         bool `yaml:"orbits"`
	Labels         bool `yaml:"labels"`
	Stars          bool `yaml:"stars"`
	Trails         bool `yaml:"trails"`
	RealisticSizes bool `yaml:"realistic_sizes"`
}

type CameraConfig struct {
	Eye    [3]float64 `yaml:"eye"`
	FovY   float64    `yaml:"fov_y"`
	Near   float64    `yaml:"near"`
	Far    float64    `yaml:"far"`
	Aspect float64    `yaml:"aspect"`
	Speed  float64    `yaml:"speed"`
}

type BodyConfig struct {
	Name            string         `yaml:"name"`
	Radius          float64        `yaml:"radius"`
	RealisticRadius float64        `yaml:"realistic_radius"`
	Distance        float64        `yaml:"distance"`
	Speed           float64        `yaml:"speed"`
	RotationSpeed   float64        `yaml:"rotation_speed"`
	Days            float64        `yaml:"days"`
	Color           string         `yaml:"color"`
	Info            string         `yaml:"info,omitempty"`
	RealDistance    string         `yaml:"real_distance,omitempty"`
	RealPeriod      string         `yaml:"real_period,omitempty"`
	Effects         []EffectConfig `yaml:"effects,omitempty"`
}

type EffectConfig struct {
	Name string  `yaml:"name"`
	Kind string  `yaml:"kind"`
	Rate float64 `yaml:"rate"`
	Axis string  `yaml:"axis"`
}

func DefaultConfig() *Config {
	return &Config{
		Preset:       DefaultPreset,
		LogLevel:     DefaultLogLevel,
		FPS:          DefaultFPS,
		ResumePolicy: ResumeElapsed,
		TrailLength:  DefaultTrailLength,
		InitialUnit:  DefaultInitialUnit,
		Display: DisplayConfig{
			Orbits: true,
			Labels: true,
			Stars:  true,
			Trails: true,
		},
		Camera: CameraConfig{
			Eye:    [3]float64{0, 50, 100},
			FovY:   75,
			Near:   0.1,
			Far:    10000,
			Aspect: 16.0 / 9.0,
			Speed:  1,
		},
		Quality:   quality.DefaultConfig(),
		TimeUnits: timeunit.Defaults(),
		Bodies:    solarBodies(),
	}
}

// Load reads a YAML file over the defaults. When the file names a preset but
// no bodies, the preset's bodies are used.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	cfg.Bodies = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if len(cfg.Bodies) == 0 {
		p := GetPreset(cfg.Preset)
		if p == nil {
			return nil, orbit.Errorf("config.Load", orbit.ErrConfiguration, "unknown preset %q", cfg.Preset)
		}
		cfg.Bodies = p.Bodies
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Units validates the configured time-unit table.
func (c *Config) Units() (timeunit.Table, error) {
	return timeunit.Validate(c.TimeUnits)
}

// BuildBodies converts the body table into fresh orbit bodies.
func (c *Config) BuildBodies() ([]*orbit.Body, error) {
	bodies := make([]*orbit.Body, 0, len(c.Bodies))
	for _, bc := range c.Bodies {
		b := &orbit.Body{
			Name:              bc.Name,
			Distance:          bc.Distance,
			OrbitalPeriodDays: bc.Days,
			BaseSpeed:         bc.Speed,
			RotationSpeed:     bc.RotationSpeed,
			Radius:            bc.Radius,
			RealisticRadius:   bc.RealisticRadius,
			Color:             bc.Color,
			Info:              bc.Info,
			RealDistance:      bc.RealDistance,
			RealPeriod:        bc.RealPeriod,
		}
		for _, ec := range bc.Effects {
			e, err := ec.effect()
			if err != nil {
				return nil, fmt.Errorf("%s: %w", bc.Name, err)
			}
			b.Effects = append(b.Effects, e)
		}
		bodies = append(bodies, b)
	}
	return bodies, nil
}

func (ec EffectConfig) effect() (orbit.Effect, error) {
	kind, ok := effectKinds[strings.ToLower(ec.Kind)]
	if !ok {
		return orbit.Effect{}, orbit.Errorf("config.effect", orbit.ErrConfiguration, "unknown effect kind %q", ec.Kind)
	}
	axis, ok := axes[strings.ToLower(ec.Axis)]
	if !ok {
		return orbit.Effect{}, orbit.Errorf("config.effect", orbit.ErrConfiguration, "unknown axis %q", ec.Axis)
	}
	name := ec.Name
	if name == "" {
		name = kind.String()
	}
	return orbit.Effect{Name: name, Kind: kind, Rate: ec.Rate, Axis: axis}, nil
}

var effectKinds = map[string]orbit.EffectKind{
	"atmosphere": orbit.EffectAtmosphere,
	"clouds":     orbit.EffectClouds,
	"storm":      orbit.EffectStorm,
	"dust":       orbit.EffectDust,
	"ring":       orbit.EffectRing,
	"glow":       orbit.EffectGlow,
}

var axes = map[string]orbit.Axis{
	"x": orbit.AxisX,
	"y": orbit.AxisY,
	"":  orbit.AxisY,
	"z": orbit.AxisZ,
}

func (c *Config) ResumeResets() bool {
	return c.ResumePolicy == ResumeReset
}

// Validate checks the settings that have no natural fallback.
func (c *Config) Validate() error {
	switch c.ResumePolicy {
	case "", ResumeElapsed, ResumeReset:
	default:
		return orbit.Errorf("config.Validate", orbit.ErrConfiguration, "resume_policy must be %q or %q, got %q", ResumeElapsed, ResumeReset, c.ResumePolicy)
	}
	if c.FPS <= 0 {
		return orbit.Errorf("config.Validate", orbit.ErrConfiguration, "fps must be positive, got %d", c.FPS)
	}
	if c.TrailLength <= 0 {
		return orbit.Errorf("config.Validate", orbit.ErrConfiguration, "trail_length must be positive, got %d", c.TrailLength)
	}
	if len(c.Bodies) == 0 {
		return orbit.Errorf("config.Validate", orbit.ErrConfiguration, "no bodies configured")
	}
	if c.Quality.Window <= 0 {
		return orbit.Errorf("config.Validate", orbit.ErrConfiguration, "quality window must be positive, got %v", c.Quality.Window)
	}
	if c.Quality.RestoreAbove <= c.Quality.DowngradeBelow {
		return orbit.Errorf("config.Validate", orbit.ErrConfiguration, "quality restore_above (%d) must exceed downgrade_below (%d)", c.Quality.RestoreAbove, c.Quality.DowngradeBelow)
	}
	return nil
}
