// Package metrics provides [dynamo.Metric] implementations observed once per
// step and once more on the final state.
package metrics
