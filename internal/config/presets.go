package config

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var ErrUnknownPreset = errors.New("config: unknown preset")

var Presets = map[string]func() *Config{
	"reference": DefaultConfig,
	"hanging": func() *Config {
		c := DefaultConfig()
		c.Name = "hanging"
		c.InitState = InitStateConfig{}
		return c
	},
	"gentle": func() *Config {
		c := DefaultConfig()
		c.Name = "gentle"
		c.InitState = InitStateConfig{A1: 0.3, A2: 0.3}
		return c
	},
	"chaos": func() *Config {
		c := DefaultConfig()
		c.Name = "chaos"
		c.InitState = InitStateConfig{A1: 3.0, A2: 3.0}
		return c
	},
	"asymmetric": func() *Config {
		c := DefaultConfig()
		c.Name = "asymmetric"
		c.Pendulum = PendulumConfig{R1: 120, R2: 80, M1: 15, M2: 5}
		c.InitState = InitStateConfig{A1: math.Pi / 2, A2: math.Pi}
		return c
	},
	// Zero first mass with equal angles drives both denominators to zero.
	"degenerate": func() *Config {
		c := DefaultConfig()
		c.Name = "degenerate"
		c.Pendulum.M1 = 0
		c.Render.Radius1 = 4
		return c
	},
}

// GetPreset returns a fresh copy of the named preset.
func GetPreset(name string) (*Config, error) {
	fn, ok := Presets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s (available: %v)", ErrUnknownPreset, name, ListPresets())
	}
	return fn(), nil
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
