package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/pendsim/internal/dynamo"
)

// Divergence runs x0 and a copy whose first coordinate is shifted by eps and
// returns the Euclidean separation after every tick. Separation is measured
// over the full state vector and is never renormalized.
func Divergence(
	sys dynamo.System,
	integ dynamo.Integrator,
	x0 dynamo.State,
	eps, dt float64,
	ticks int,
) []float64 {
	if len(x0) == 0 || ticks <= 0 {
		return nil
	}

	x := x0.Clone()
	xp := x0.Clone()
	xp[0] += eps

	seps := make([]float64, ticks)
	t := 0.0
	for i := 0; i < ticks; i++ {
		x = integ.Step(sys, x, t, dt)
		xp = integ.Step(sys, xp, t, dt)
		t += dt
		seps[i] = floats.Distance(x, xp, 2)
	}

	return seps
}

// LyapunovEstimate estimates the largest Lyapunov exponent using the
// trajectory separation method. The perturbed trajectory is pulled back to
// distance eps after every tick, so the result is the mean of ln(d/eps)/dt.
// Non-finite separations end the estimate early.
func LyapunovEstimate(
	sys dynamo.System,
	integ dynamo.Integrator,
	x0 dynamo.State,
	eps, dt float64,
	ticks int,
) float64 {
	if len(x0) == 0 || ticks <= 0 || eps <= 0 {
		return 0
	}

	x := x0.Clone()
	xp := x0.Clone()
	xp[0] += eps

	diff := make([]float64, len(x0))
	sumLog := 0.0
	count := 0
	t := 0.0

	for i := 0; i < ticks; i++ {
		x = integ.Step(sys, x, t, dt)
		xp = integ.Step(sys, xp, t, dt)
		t += dt

		sep := floats.Distance(x, xp, 2)
		if math.IsNaN(sep) || math.IsInf(sep, 0) {
			break
		}
		if sep == 0 {
			continue
		}

		sumLog += math.Log(sep / eps)
		count++

		floats.SubTo(diff, xp, x)
		floats.Scale(eps/sep, diff)
		floats.AddTo(xp, x, diff)
	}

	if count == 0 {
		return 0
	}
	return sumLog / (float64(count) * dt)
}
