// Package render draws simulation results with gonum/plot and encodes
// lattice runs as GIF or Motion-JPEG AVI animations.
package render
