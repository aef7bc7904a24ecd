// Package pattern implements reaction-diffusion models on square lattices:
// morphogen gradients (Dpp, Wg and their readouts), Turing instabilities,
// a diffusively coupled FitzHugh-Nagumo sheet and proneural cluster
// refinement by lateral inhibition.
//
// Each model is a [dynamo.System] whose state is the concatenation of its
// fields in row-major order, so any integrator and the simulator apply
// unchanged. [Lattice] exposes the layout for rendering:
//
//	m := pattern.NewTuringSat()
//	res, _ := dynamo.New(m, integrators.NewEuler(), nil).Run(ctx, m.DefaultState(), cfg)
//	act := pattern.Frame(m, res.Final(), 0)
package pattern
