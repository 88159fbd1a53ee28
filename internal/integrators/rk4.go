package integrators

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/pendsim/internal/dynamo"
)

// RK4 is classical fourth-order Runge-Kutta. The intermediate stage state is
// reused between steps, so one RK4 must not be shared across goroutines, and
// Derive must return a slice it does not keep.
type RK4 struct {
	stage dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

// at returns x + h*k in the stage buffer.
func (r *RK4) at(x, k dynamo.State, h float64) dynamo.State {
	if len(r.stage) != len(x) {
		r.stage = make(dynamo.State, len(x))
	}
	floats.AddScaledTo(r.stage, x, h, k)
	return r.stage
}

func (r *RK4) Step(sys dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	half := dt / 2

	k1 := sys.Derive(x, t)
	k2 := sys.Derive(r.at(x, k1, half), t+half)
	k3 := sys.Derive(r.at(x, k2, half), t+half)
	k4 := sys.Derive(r.at(x, k3, dt), t+dt)

	next := make(dynamo.State, len(x))
	for i := range next {
		next[i] = x[i] + dt/6*(k1[i]+2*(k2[i]+k3[i])+k4[i])
	}
	return next
}
