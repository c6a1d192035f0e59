// Package network defines the format-agnostic model of a stoichiometric
// metabolic network together with the experimental data (measured fluxes,
// MS fragments, tracers) and simulation settings needed to compile an
// isotopomer MFA model script.
//
// The Network is the single source of truth for the equation and script
// packages. Concrete file formats are implemented by loaders in separate
// packages (see internal/hcl).
package network
