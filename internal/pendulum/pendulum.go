package pendulum

import (
	"errors"
	"fmt"
	"math"
)

const (
	// Gravity is the dimensionless gravitational constant g.
	Gravity = 1.0

	// IntegrationRate scales both angular accelerations every tick. It acts as
	// a speed control on the simulation and has no physical meaning.
	IntegrationRate = 0.1
)

const (
	DefaultLength = 100.0
	DefaultMass   = 10.0
	DefaultAngle  = math.Pi / 2
)

var ErrInvalidParams = errors.New("pendulum: lengths and masses must be positive and finite")

// Params holds the geometry and mass terms. They never change after
// construction.
type Params struct {
	R1, R2 float64
	M1, M2 float64
}

func (p Params) Validate() error {
	for _, v := range []struct {
		name string
		val  float64
	}{
		{"r1", p.R1}, {"r2", p.R2}, {"m1", p.M1}, {"m2", p.M2},
	} {
		if !(v.val > 0) || math.IsInf(v.val, 0) {
			return fmt.Errorf("%w: %s=%v", ErrInvalidParams, v.name, v.val)
		}
	}
	return nil
}

// Config is the construction-time configuration of a Pendulum.
type Config struct {
	Params
	A1, A2 float64
	V1, V2 float64
}

// DefaultConfig returns both rods horizontal and at rest.
func DefaultConfig() Config {
	return Config{
		Params: Params{R1: DefaultLength, R2: DefaultLength, M1: DefaultMass, M2: DefaultMass},
		A1:     DefaultAngle,
		A2:     DefaultAngle,
	}
}

// Pendulum is the mutable dynamic state of a double pendulum.
type Pendulum struct {
	params Params

	A1, A2     float64
	V1, V2     float64
	Acc1, Acc2 float64

	tick uint64
}

func New(cfg Config) (*Pendulum, error) {
	if err := cfg.Params.Validate(); err != nil {
		return nil, err
	}
	return NewUnchecked(cfg), nil
}

// NewUnchecked builds a Pendulum without validating the parameters. It exists
// for exploring degenerate parameter sets.
func NewUnchecked(cfg Config) *Pendulum {
	return &Pendulum{
		params: cfg.Params,
		A1:     cfg.A1,
		A2:     cfg.A2,
		V1:     cfg.V1,
		V2:     cfg.V2,
	}
}

func (p *Pendulum) Params() Params { return p.params }

// Tick returns the number of completed Advance calls.
func (p *Pendulum) Tick() uint64 { return p.tick }

// Advance moves the state forward by one tick. Accelerations come from the
// pre-update state; angles are then stepped with the already-updated
// velocities.
func (p *Pendulum) Advance() {
	p.Acc1, p.Acc2 = Accelerations(p.params, p.A1, p.A2, p.V1, p.V2)

	p.V1 += p.Acc1
	p.V2 += p.Acc2
	p.A1 += p.V1
	p.A2 += p.V2

	p.tick++
}

// Accelerations evaluates the double pendulum equations of motion, scaled by
// IntegrationRate, for the given angles and velocities.
func Accelerations(p Params, a1, a2, v1, v2 float64) (acc1, acc2 float64) {
	g := Gravity
	m1, m2, r1, r2 := p.M1, p.M2, p.R1, p.R2

	num1 := -g * (2*m1 + m2) * math.Sin(a1)
	num2 := -m2 * g * math.Sin(a1-2*a2)
	num3 := -2 * math.Sin(a1-a2) * m2
	num4 := v2*v2*r2 + v1*v1*r1*math.Cos(a1-a2)
	den := r1 * (2*m1 + m2 - m2*math.Cos(2*a1-2*a2))

	acc1 = IntegrationRate * ((num1 + num2 + num3*num4) / den)

	num1 = 2 * math.Sin(a1-a2)
	num2 = v1 * v1 * r1 * (m1 + m2)
	num3 = g * (m1 + m2) * math.Cos(a1)
	num4 = v2 * v2 * r2 * m2 * math.Cos(a1-a2)
	den = r2 * (2*m1 + m2 - m2*math.Cos(2*a1-2*a2))

	acc2 = IntegrationRate * (num1 * (num2 + num3 + num4)) / den

	return acc1, acc2
}

// IsFinite reports whether every angle, velocity and acceleration is finite.
func (p *Pendulum) IsFinite() bool {
	for _, v := range [...]float64{p.A1, p.A2, p.V1, p.V2, p.Acc1, p.Acc2} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Energy returns kinetic plus potential energy in tick units. Screen y grows
// downward, so height is -y. It is a diagnostic only; Advance never uses it.
func (p *Pendulum) Energy() float64 {
	return Energy(p.params, p.A1, p.A2, p.V1, p.V2)
}

func Energy(p Params, a1, a2, v1, v2 float64) float64 {
	m1, m2, r1, r2 := p.M1, p.M2, p.R1, p.R2

	v1sq := r1 * r1 * v1 * v1
	v2sq := r1*r1*v1*v1 + r2*r2*v2*v2 + 2*r1*r2*v1*v2*math.Cos(a1-a2)
	ke := 0.5*m1*v1sq + 0.5*m2*v2sq

	y1 := r1 * math.Cos(a1)
	y2 := y1 + r2*math.Cos(a2)
	pe := -Gravity * (m1*y1 + m2*y2)

	return ke + pe
}
