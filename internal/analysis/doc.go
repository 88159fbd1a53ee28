// Package analysis provides chaos and spectral tools for pendulum runs.
//
//   - [Divergence]: separation of two trajectories started ε apart
//   - [LyapunovEstimate]: largest Lyapunov exponent via renormalized separation
//   - [PowerSpectrum], [DominantFrequency]: spectral content of a recorded series
//   - [GeneratePhasePortrait], [GeneratePoincareSection]: phase space views
//
// # Chaos Detection
//
// A positive estimate indicates sensitive dependence on initial conditions:
//
//	lambda := analysis.LyapunovEstimate(sys, integ, x0, 1e-8, 1.0, 5000)
//	if lambda > 0 {
//	    // chaotic
//	}
package analysis
