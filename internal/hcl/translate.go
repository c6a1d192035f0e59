package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/isoflux/internal/ctxlog"
	"github.com/vk/isoflux/internal/network"
	"github.com/vk/isoflux/internal/schema"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Open reactions default to the widest bounds the estimation tool accepts.
const (
	defaultLowerBound = -1000.0
	defaultUpperBound = 1000.0
	defaultFitStarts  = 10
	defaultRestarts   = 10
)

const (
	sideReactant = "reactant"
	sideProduct  = "product"
)

func translateReaction(ctx context.Context, r *schema.Reaction) (*network.Reaction, error) {
	logger := ctxlog.FromContext(ctx).With("reaction", r.ID)

	rxn := &network.Reaction{
		ID:         r.ID,
		Reversible: r.Reversible,
		LowerBound: defaultLowerBound,
		UpperBound: defaultUpperBound,
		FluxValue:  r.FluxValue,
		Equation:   r.Equation,
	}
	if !r.Reversible {
		rxn.LowerBound = 0
	}
	if r.LowerBound != nil {
		rxn.LowerBound = *r.LowerBound
	}
	if r.UpperBound != nil {
		rxn.UpperBound = *r.UpperBound
	}

	for _, p := range r.Reactants {
		rxn.Reactants = append(rxn.Reactants, network.Participant{MetaboliteID: p.MetaboliteID, Stoichiometry: p.Stoichiometry})
	}
	for _, p := range r.Products {
		rxn.Products = append(rxn.Products, network.Participant{MetaboliteID: p.MetaboliteID, Stoichiometry: p.Stoichiometry})
	}

	for _, am := range r.AtomMaps {
		mapping, err := evalMapping(am.Mapping)
		if err != nil {
			return nil, fmt.Errorf("reaction %q, atom map %q: %w", r.ID, am.MetaboliteID, err)
		}
		m := network.AtomMap{
			MetaboliteID:  am.MetaboliteID,
			Stoichiometry: am.Stoichiometry,
			Elements:      am.Elements,
			Positions:     am.Positions,
			Mapping:       mapping,
		}
		switch am.Side {
		case sideReactant:
			rxn.ReactantAtoms = append(rxn.ReactantAtoms, m)
		case sideProduct:
			rxn.ProductAtoms = append(rxn.ProductAtoms, m)
		default:
			return nil, fmt.Errorf("%w: reaction %q: atom map side must be %q or %q, got %q",
				network.ErrInvalidNetwork, r.ID, sideReactant, sideProduct, am.Side)
		}
	}

	logger.Debug("Translated reaction.",
		"reactants", len(rxn.Reactants),
		"products", len(rxn.Products),
		"atom_maps", len(rxn.ReactantAtoms)+len(rxn.ProductAtoms),
	)
	return rxn, nil
}

// evalMapping accepts either a single string ("[a][b]" or "ab") or a list of
// labels.
func evalMapping(expr hcl.Expression) ([]string, error) {
	if expr == nil {
		return nil, nil
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, diags
	}
	if val.IsNull() {
		return nil, nil
	}
	if !val.IsWhollyKnown() {
		return nil, fmt.Errorf("mapping must be a known value")
	}

	if val.Type() == cty.String {
		return []string{val.AsString()}, nil
	}

	listVal, err := convert.Convert(val, cty.List(cty.String))
	if err != nil {
		return nil, fmt.Errorf("mapping must be a string or a list of strings: %w", err)
	}
	var out []string
	if err := gocty.FromCtyValue(listVal, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func translateMetabolite(m *schema.Metabolite) *network.Metabolite {
	return &network.Metabolite{
		ID:                    m.ID,
		Elements:              m.Elements,
		AtomPositions:         m.AtomPositions,
		SymmetryElements:      m.SymmetryElements,
		SymmetryAtomPositions: m.SymmetryAtomPositions,
	}
}

func translateMeasuredFlux(f *schema.MeasuredFlux) *network.MeasuredFlux {
	return &network.MeasuredFlux{
		ExperimentID:           f.ExperimentID,
		SampleNameAbbreviation: f.SampleNameAbbreviation,
		ReactionID:             f.ReactionID,
		Average:                f.Average,
		Stdev:                  f.Stdev,
		LowerBound:             f.LowerBound,
		UpperBound:             f.UpperBound,
	}
}

func translateFragment(f *schema.MSFragment) *network.MSFragment {
	return &network.MSFragment{
		ExperimentID:           f.ExperimentID,
		SampleNameAbbreviation: f.SampleNameAbbreviation,
		FragmentID:             f.FragmentID,
		MetaboliteID:           f.MetaboliteID,
		Elements:               f.Elements,
		AtomPositions:          f.AtomPositions,
		TimePoint:              f.TimePoint,
		IntensityAverage:       f.IntensityAverage,
		IntensityStdev:         f.IntensityStdev,
	}
}

func translateTracer(t *schema.Tracer) *network.Tracer {
	return &network.Tracer{
		ExperimentID:           t.ExperimentID,
		SampleNameAbbreviation: t.SampleNameAbbreviation,
		MetaboliteID:           t.MetaboliteID,
		MetaboliteName:         t.Name,
		Elements:               t.Elements,
		AtomPositions:          t.AtomPositions,
		Ratio:                  t.Ratio,
	}
}

func translateSimulation(s *schema.Simulation) *network.Simulation {
	sim := &network.Simulation{
		ID:                      s.ID,
		ExperimentIDs:           s.ExperimentIDs,
		SampleNameAbbreviations: s.SampleNameAbbreviations,
		TimePoints:              s.TimePoints,
		ParallelBy:              s.ParallelBy,
		Stationary:              true,
		FitStarts:               defaultFitStarts,
		Restarts:                defaultRestarts,
		Continuate:              s.Continuate,
		Simulate:                s.Simulate,
	}
	if sim.ParallelBy == "" {
		sim.ParallelBy = network.ParallelByExperiment
	}
	if s.Stationary != nil {
		sim.Stationary = *s.Stationary
	}
	if s.FitStarts != nil {
		sim.FitStarts = *s.FitStarts
	}
	if s.Restarts != nil {
		sim.Restarts = *s.Restarts
	}
	return sim
}
