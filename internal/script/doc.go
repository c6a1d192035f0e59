// Package script renders INCA MATLAB scripts: the model definition, the
// labeling experiments with their measurements, simulation options and the
// estimation calls. Equations are produced by package equation and spliced
// in verbatim.
package script
