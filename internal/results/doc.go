// Package results turns a fitted-simulation container returned by the
// estimation tool into flat, typed records: simulation parameters, fit
// statistics, measurement residuals and the fitted fluxes and fragments.
package results
