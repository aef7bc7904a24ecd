// Package models provides the ordinary differential equation models of the
// collection: production/decay, haematopoietic lineages, glucose-insulin
// regulation, epidemics, predator-prey, excitable membranes and small gene
// regulatory circuits.
//
// Every model implements [dynamo.System], [dynamo.Labeled],
// [dynamo.Configurable] and [dynamo.Defaulted]. Two-variable models also
// implement [dynamo.Planar] and, where the fixed points have a closed form,
// [dynamo.FixedPointer]:
//
//	m := models.NewSelkov()
//	for _, fp := range m.FixedPoints() {
//	    rep, _ := stability.Analyze(m.Jacobian(fp))
//	    fmt.Println(fp, rep.Class.Phrase())
//	}
//
// Systems with an exact conserved quantity (total population in SIR,
// the Lotka-Volterra first integral) implement [dynamo.Conserved].
package models
