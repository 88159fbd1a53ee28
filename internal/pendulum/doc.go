// Package pendulum implements the double pendulum state and its per-tick
// integrator.
//
// Two point masses hang in series from a fixed pivot on massless rods of
// length R1 and R2. Angles are measured from the downward vertical in
// radians, velocities in radians per tick. Each call to [Pendulum.Advance]
// moves the state forward by exactly one tick using a semi-implicit Euler
// step scaled by [IntegrationRate]:
//
//	p, _ := pendulum.New(pendulum.DefaultConfig())
//	for i := 0; i < 600; i++ {
//	    p.Advance()
//	}
//	snap := p.Snapshot() // bob positions relative to the pivot
//
// Bob positions are never integrated; [Pendulum.Snapshot] derives them from
// the current angles on every call.
//
// # Numerical behaviour
//
// Advance performs plain IEEE-754 arithmetic with no guards. Parameter sets
// that drive a denominator to zero produce Inf or NaN, which then propagate
// through later ticks without panicking. Use [Pendulum.IsFinite] to detect
// this.
//
// # Thread Safety
//
// A Pendulum is not safe for concurrent use. Owners that render from another
// goroutine should copy a [Snapshot] under their own lock.
package pendulum
