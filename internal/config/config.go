package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/pendsim/internal/pendulum"
)

const (
	DefaultTicks      = 10000
	DefaultIntegrator = "semi-implicit"
	DefaultTickHz     = 60
	DefaultFPS        = 30
	DefaultTrail      = 200
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

type Config struct {
	Name       string          `yaml:"name"`
	Integrator string          `yaml:"integrator"`
	Ticks      int             `yaml:"ticks"`
	Pendulum   PendulumConfig  `yaml:"pendulum"`
	InitState  InitStateConfig `yaml:"init_state"`
	Render     RenderConfig    `yaml:"render"`
}

type PendulumConfig struct {
	R1 float64 `yaml:"r1"`
	R2 float64 `yaml:"r2"`
	M1 float64 `yaml:"m1"`
	M2 float64 `yaml:"m2"`
}

type InitStateConfig struct {
	A1 float64 `yaml:"a1"`
	A2 float64 `yaml:"a2"`
	V1 float64 `yaml:"v1"`
	V2 float64 `yaml:"v2"`
}

// RenderConfig only affects drawing. Bob radii default to the masses when
// left at zero.
type RenderConfig struct {
	Radius1 float64 `yaml:"radius1"`
	Radius2 float64 `yaml:"radius2"`
	TickHz  int     `yaml:"tick_hz"`
	FPS     int     `yaml:"fps"`
	Trail   int     `yaml:"trail"`
}

func DefaultConfig() *Config {
	def := pendulum.DefaultConfig()
	return &Config{
		Name:       "reference",
		Integrator: DefaultIntegrator,
		Ticks:      DefaultTicks,
		Pendulum: PendulumConfig{
			R1: def.R1, R2: def.R2,
			M1: def.M1, M2: def.M2,
		},
		InitState: InitStateConfig{A1: def.A1, A2: def.A2},
		Render: RenderConfig{
			TickHz: DefaultTickHz,
			FPS:    DefaultFPS,
			Trail:  DefaultTrail,
		},
	}
}

func Load(path string) (*Config, error) {
	return LoadOver(path, DefaultConfig())
}

// LoadOver reads path on top of base. Keys missing from the file keep the
// values already in base.
func LoadOver(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, base); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return base, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the run settings. Pendulum parameters are validated only
// when strict is set, so degenerate presets can still be explored.
func (c *Config) Validate(strict bool) error {
	if c.Ticks < 0 {
		return fmt.Errorf("%w: ticks must not be negative, got %d", ErrInvalidConfig, c.Ticks)
	}
	if c.Render.TickHz < 0 || c.Render.FPS < 0 || c.Render.Trail < 0 {
		return fmt.Errorf("%w: render rates and trail must not be negative", ErrInvalidConfig)
	}
	for name, v := range map[string]float64{
		"a1": c.InitState.A1, "a2": c.InitState.A2,
		"v1": c.InitState.V1, "v2": c.InitState.V2,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s must be finite", ErrInvalidConfig, name)
		}
	}
	if strict {
		if err := c.Params().Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	return nil
}

func (c *Config) Params() pendulum.Params {
	return pendulum.Params{
		R1: c.Pendulum.R1, R2: c.Pendulum.R2,
		M1: c.Pendulum.M1, M2: c.Pendulum.M2,
	}
}

func (c *Config) PendulumConfig() pendulum.Config {
	return pendulum.Config{
		Params: c.Params(),
		A1:     c.InitState.A1,
		A2:     c.InitState.A2,
		V1:     c.InitState.V1,
		V2:     c.InitState.V2,
	}
}

// FieldNames lists the numeric keys accepted by Field.
var FieldNames = []string{"a1", "a2", "v1", "v2", "m1", "m2", "r1", "r2"}

// Field returns a pointer to the initial-state or pendulum value named by
// one of FieldNames.
func (c *Config) Field(name string) (*float64, error) {
	switch name {
	case "a1":
		return &c.InitState.A1, nil
	case "a2":
		return &c.InitState.A2, nil
	case "v1":
		return &c.InitState.V1, nil
	case "v2":
		return &c.InitState.V2, nil
	case "m1":
		return &c.Pendulum.M1, nil
	case "m2":
		return &c.Pendulum.M2, nil
	case "r1":
		return &c.Pendulum.R1, nil
	case "r2":
		return &c.Pendulum.R2, nil
	}
	return nil, fmt.Errorf("%w: unknown field %q (want one of %v)", ErrInvalidConfig, name, FieldNames)
}

// Radii returns the bob radii used for rendering.
func (c *Config) Radii() (float64, float64) {
	r1, r2 := c.Render.Radius1, c.Render.Radius2
	if r1 <= 0 {
		r1 = c.Pendulum.M1
	}
	if r2 <= 0 {
		r2 = c.Pendulum.M2
	}
	return r1, r2
}
