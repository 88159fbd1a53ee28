package pendulum

import "github.com/san-kum/pendsim/internal/dynamo"

// System exposes the pendulum equations as a dynamo.System so the generic
// integrators can drive them. The state layout is [a1, a2, v1, v2].
type System struct {
	params Params
}

func NewSystem(p Params) *System {
	return &System{params: p}
}

func (s *System) StateDim() int { return 4 }

func (s *System) Params() Params { return s.params }

func (s *System) Derive(x dynamo.State, t float64) dynamo.State {
	acc1, acc2 := Accelerations(s.params, x[0], x[1], x[2], x[3])
	return dynamo.State{x[2], x[3], acc1, acc2}
}

func (s *System) Energy(x dynamo.State) float64 {
	return Energy(s.params, x[0], x[1], x[2], x[3])
}

// Vector returns the pendulum's angles and velocities as a dynamo.State.
func (p *Pendulum) Vector() dynamo.State {
	return dynamo.State{p.A1, p.A2, p.V1, p.V2}
}

// StateConfig builds a Config from a [a1, a2, v1, v2] vector.
func StateConfig(params Params, x dynamo.State) Config {
	return Config{Params: params, A1: x[0], A2: x[1], V1: x[2], V2: x[3]}
}
