// Package dynamo provides core simulation primitives for dynamical systems.
//
// The package defines the fundamental interfaces and types for numerical
// simulation of ordinary differential equations (ODEs) and of
// reaction-diffusion systems flattened onto a state vector:
//
//   - [State]: vector representing system state
//   - [System]: interface for ODE systems (dX/dt = f(X, u, t))
//   - [Integrator]: numerical stepping scheme
//   - [Stimulus]: time-dependent external input (meals, injected current)
//   - [Simulator]: orchestrates simulation runs
//
// Optional capabilities ([Labeled], [Conserved], [Projector], [Planar],
// [FixedPointer], [Configurable]) are discovered by type assertion, as is
// [Resettable] on stimuli that keep history between steps.
//
// # Example
//
//	sys := models.NewSIR()
//	sim := dynamo.New(sys, integrators.NewEuler(), nil)
//	result, _ := sim.Run(ctx, sys.DefaultState(), cfg)
//
// # Thread Safety
//
// Simulator instances are NOT thread-safe. For parallel parameter studies
// use [Sweep], which builds one system per run from a [Factory].
package dynamo
