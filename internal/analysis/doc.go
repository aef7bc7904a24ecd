// Package analysis characterises the long-run behaviour of a system.
//
// The package includes tools for planar and low-dimensional models:
//
//   - [GeneratePhasePortrait] and [PortraitOf]: trajectories in a component plane
//   - [VectorField] and [NullclineGrid]: the flow sampled over a [Window]
//   - [StabilityMap]: fixed-point class over a two-parameter plane
//   - [BifurcationDiagram]: post-transient peaks across a parameter sweep
//   - [PowerSpectrum], [DominantPeriod] and [GeneratePoincareSection]: oscillation period
//   - [LyapunovExponent]: average rate at which nearby trajectories separate
//
// # Limit cycles
//
// A stable fixed point has a negative largest exponent equal to the real
// part of its leading eigenvalue; a stable limit cycle has an exponent
// near zero and a well defined dominant period:
//
//	lambda := analysis.LyapunovExponent(sys, integ, x0, dt, duration, 1e-8)
//	period, _ := analysis.DominantPeriod(res.Component(0), dt)
package analysis
