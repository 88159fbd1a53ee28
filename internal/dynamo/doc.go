// Package dynamo provides the tick-driven simulation primitives shared by the
// pendulum model, the integrators and the metrics.
//
//   - [State]: flat vector of positions followed by velocities
//   - [System]: second-order dynamics, dX = f(X)
//   - [Integrator]: advances a State by one step of size dt
//   - [Simulator]: runs a System for a fixed number of ticks
//
// # Example
//
//	sys := pendulum.NewSystem(pendulum.DefaultConfig().Params)
//	s := dynamo.New(sys, integrators.NewSemiImplicitEuler())
//	result, _ := s.Run(ctx, x0, dynamo.DefaultConfig())
//
// # Thread Safety
//
// Simulator instances are NOT thread-safe. Use [RunBatch] to execute several
// independent simulators in parallel.
package dynamo
