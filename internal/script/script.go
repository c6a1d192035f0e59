package script

import (
	"slices"
	"strings"

	"github.com/vk/isoflux/internal/network"
)

// Scope returns a shallow copy of net holding only the measured fluxes,
// fragments and tracers that belong to sim. Empty simulation filters match
// everything. Reactions and metabolites are shared.
func Scope(net *network.Network, sim *network.Simulation) *network.Network {
	inScope := func(experimentID, sampleName string) bool {
		if len(sim.ExperimentIDs) > 0 && !slices.Contains(sim.ExperimentIDs, experimentID) {
			return false
		}
		if len(sim.SampleNameAbbreviations) > 0 && !slices.Contains(sim.SampleNameAbbreviations, sampleName) {
			return false
		}
		return true
	}

	scoped := &network.Network{
		Reactions:   net.Reactions,
		Metabolites: net.Metabolites,
		Simulations: map[string]*network.Simulation{sim.ID: sim},
	}
	for _, f := range net.MeasuredFluxes {
		if inScope(f.ExperimentID, f.SampleNameAbbreviation) {
			scoped.MeasuredFluxes = append(scoped.MeasuredFluxes, f)
		}
	}
	for _, f := range net.Fragments {
		if !inScope(f.ExperimentID, f.SampleNameAbbreviation) {
			continue
		}
		if len(sim.TimePoints) > 0 && !slices.Contains(sim.TimePoints, f.TimePoint) {
			continue
		}
		scoped.Fragments = append(scoped.Fragments, f)
	}
	for _, t := range net.Tracers {
		if inScope(t.ExperimentID, t.SampleNameAbbreviation) {
			scoped.Tracers = append(scoped.Tracers, t)
		}
	}
	return scoped
}

// Full renders the complete script for one simulation: the model, options,
// experiments, estimation and, when configured, simulated measurements and
// continuation.
func Full(net *network.Network, sim *network.Simulation, equations []string) (string, error) {
	scoped := Scope(net, sim)

	model, err := Model(scoped, equations)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(model)
	b.WriteString(Options(sim))
	b.WriteString(Experiments(scoped, sim))
	if sim.Simulate {
		for i := range experimentGroups(scoped, sim) {
			b.WriteString(SimulatedExperiment(i + 1))
		}
	}
	if sim.Restarts > 0 {
		b.WriteString(Estimate(sim.Restarts))
	}
	if sim.Continuate {
		b.WriteString(Continuate())
	}
	return b.String(), nil
}
