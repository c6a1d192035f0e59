package network

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidNetwork is wrapped by every validation failure.
var ErrInvalidNetwork = errors.New("invalid network")

// Validate checks structural invariants that the builder and the script
// emitter rely on. All problems are reported together.
func (n *Network) Validate() error {
	var errs []error
	seen := make(map[string]struct{}, len(n.Reactions))
	for _, r := range n.Reactions {
		if r.ID == "" {
			errs = append(errs, errors.New("reaction with empty id"))
			continue
		}
		if _, dup := seen[r.ID]; dup {
			errs = append(errs, fmt.Errorf("duplicate reaction %q", r.ID))
		}
		seen[r.ID] = struct{}{}
		if len(r.Reactants) == 0 && len(r.Products) == 0 && r.Equation == "" {
			errs = append(errs, fmt.Errorf("reaction %q has no participants", r.ID))
		}
		for _, m := range append(append([]AtomMap{}, r.ReactantAtoms...), r.ProductAtoms...) {
			if err := m.validate(); err != nil {
				errs = append(errs, fmt.Errorf("reaction %q: %w", r.ID, err))
			}
		}
	}

	mets := make(map[string]struct{}, len(n.Metabolites))
	for _, m := range n.Metabolites {
		if _, dup := mets[m.ID]; dup {
			errs = append(errs, fmt.Errorf("duplicate metabolite %q", m.ID))
		}
		mets[m.ID] = struct{}{}
		if len(m.Elements) != len(m.AtomPositions) {
			errs = append(errs, fmt.Errorf("metabolite %q: %d elements for %d atom positions", m.ID, len(m.Elements), len(m.AtomPositions)))
		}
		if m.Symmetric() && (len(m.SymmetryElements) != len(m.SymmetryAtomPositions) || len(m.SymmetryAtomPositions) != len(m.AtomPositions)) {
			errs = append(errs, fmt.Errorf("metabolite %q: symmetry mapping does not cover every atom", m.ID))
		}
	}

	for _, f := range n.Fragments {
		if len(f.Elements) != len(f.AtomPositions) {
			errs = append(errs, fmt.Errorf("fragment %q: %d elements for %d atom positions", f.FragmentID, len(f.Elements), len(f.AtomPositions)))
		}
		if len(f.IntensityAverage) != len(f.IntensityStdev) {
			errs = append(errs, fmt.Errorf("fragment %q at %s: %d intensities for %d stdevs", f.FragmentID, f.TimePoint, len(f.IntensityAverage), len(f.IntensityStdev)))
		}
	}
	for _, t := range n.Tracers {
		if len(t.Elements) != len(t.AtomPositions) {
			errs = append(errs, fmt.Errorf("tracer %q: %d elements for %d atom positions", t.MetaboliteID, len(t.Elements), len(t.AtomPositions)))
		}
	}

	for id, s := range n.Simulations {
		switch s.ParallelBy {
		case ParallelByExperiment, ParallelBySample:
		default:
			errs = append(errs, fmt.Errorf("simulation %q: parallel_by must be %q or %q, got %q", id, ParallelByExperiment, ParallelBySample, s.ParallelBy))
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidNetwork, errors.Join(errs...))
}

// validate only checks what can be known before bracket expansion: plain
// mapping labels must match the other sequences.
func (m AtomMap) validate() error {
	if m.MetaboliteID == "" {
		return errors.New("atom map with empty metabolite id")
	}
	if len(m.Elements) != len(m.Positions) {
		return fmt.Errorf("atom map %q: %d elements for %d positions", m.MetaboliteID, len(m.Elements), len(m.Positions))
	}
	if labels := m.Labels(); !hasBrackets(m.Mapping) && len(m.Mapping) != 0 && len(labels) != len(m.Elements) {
		return fmt.Errorf("atom map %q: %d mapping labels for %d atoms", m.MetaboliteID, len(labels), len(m.Elements))
	}
	return nil
}

func hasBrackets(tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(t, "[") {
			return true
		}
	}
	return false
}
