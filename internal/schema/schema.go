// Package schema holds the HCL block structures of network files. They are
// decoded with gohcl and translated into the network model by internal/hcl.
package schema

import (
	"github.com/hashicorp/hcl/v2"
)

// File represents every top-level block a network file may contain. Blocks
// may be spread over any number of files; anything else is a decode error.
type File struct {
	Reactions      []*Reaction     `hcl:"reaction,block"`
	Metabolites    []*Metabolite   `hcl:"metabolite,block"`
	MeasuredFluxes []*MeasuredFlux `hcl:"measured_flux,block"`
	Fragments      []*MSFragment   `hcl:"ms_fragment,block"`
	Tracers        []*Tracer       `hcl:"tracer,block"`
	Simulations    []*Simulation   `hcl:"simulation,block"`
}

// --- Network ---

// Participant is a `reactant` or `product` block inside a reaction.
type Participant struct {
	MetaboliteID  string  `hcl:"metabolite_id,label"`
	Stoichiometry float64 `hcl:"stoichiometry"`
}

// AtomMap is an `atom_map "<side>" "<metabolite>"` block. The mapping
// attribute is either a list of labels or a single bracket string such as
// "[a][b][c]", so it is kept as an expression and evaluated on translation.
type AtomMap struct {
	Side          string         `hcl:"side,label"`
	MetaboliteID  string         `hcl:"metabolite_id,label"`
	Stoichiometry float64        `hcl:"stoichiometry"`
	Elements      []string       `hcl:"elements"`
	Positions     []int          `hcl:"positions"`
	Mapping       hcl.Expression `hcl:"mapping"`
}

// Reaction is a `reaction` block.
type Reaction struct {
	ID         string         `hcl:"id,label"`
	Reversible bool           `hcl:"reversible,optional"`
	LowerBound *float64       `hcl:"lower_bound,optional"`
	UpperBound *float64       `hcl:"upper_bound,optional"`
	FluxValue  float64        `hcl:"flux_value,optional"`
	Equation   string         `hcl:"equation,optional"`
	Reactants  []*Participant `hcl:"reactant,block"`
	Products   []*Participant `hcl:"product,block"`
	AtomMaps   []*AtomMap     `hcl:"atom_map,block"`
}

// Metabolite is a `metabolite` block.
type Metabolite struct {
	ID                    string   `hcl:"id,label"`
	Elements              []string `hcl:"elements,optional"`
	AtomPositions         []int    `hcl:"atom_positions,optional"`
	SymmetryElements      []string `hcl:"symmetry_elements,optional"`
	SymmetryAtomPositions []int    `hcl:"symmetry_atom_positions,optional"`
}

// --- Experimental data ---

// MeasuredFlux is a `measured_flux "<reaction>"` block.
type MeasuredFlux struct {
	ReactionID             string  `hcl:"reaction_id,label"`
	ExperimentID           string  `hcl:"experiment_id"`
	SampleNameAbbreviation string  `hcl:"sample_name_abbreviation,optional"`
	Average                float64 `hcl:"average"`
	Stdev                  float64 `hcl:"stdev"`
	LowerBound             float64 `hcl:"lower_bound"`
	UpperBound             float64 `hcl:"upper_bound"`
}

// MSFragment is an `ms_fragment "<fragment>"` block; one block per time point.
type MSFragment struct {
	FragmentID             string    `hcl:"fragment_id,label"`
	ExperimentID           string    `hcl:"experiment_id"`
	SampleNameAbbreviation string    `hcl:"sample_name_abbreviation,optional"`
	MetaboliteID           string    `hcl:"metabolite_id"`
	Elements               []string  `hcl:"elements"`
	AtomPositions          []int     `hcl:"atom_positions"`
	TimePoint              string    `hcl:"time_point"`
	IntensityAverage       []float64 `hcl:"intensity_average,optional"`
	IntensityStdev         []float64 `hcl:"intensity_stdev,optional"`
}

// Tracer is a `tracer "<metabolite>"` block.
type Tracer struct {
	MetaboliteID           string   `hcl:"metabolite_id,label"`
	ExperimentID           string   `hcl:"experiment_id"`
	SampleNameAbbreviation string   `hcl:"sample_name_abbreviation,optional"`
	Name                   string   `hcl:"name"`
	Elements               []string `hcl:"elements"`
	AtomPositions          []int    `hcl:"atom_positions"`
	Ratio                  float64  `hcl:"ratio"`
}

// --- Simulations ---

// Simulation is a `simulation "<id>"` block.
type Simulation struct {
	ID                      string   `hcl:"id,label"`
	ExperimentIDs           []string `hcl:"experiment_ids"`
	SampleNameAbbreviations []string `hcl:"sample_name_abbreviations,optional"`
	TimePoints              []string `hcl:"time_points,optional"`
	ParallelBy              string   `hcl:"parallel_by,optional"`
	Stationary              *bool    `hcl:"stationary,optional"`
	FitStarts               *int     `hcl:"fit_starts,optional"`
	Restarts                *int     `hcl:"restarts,optional"`
	Continuate              bool     `hcl:"continuate,optional"`
	Simulate                bool     `hcl:"simulate,optional"`
}
