package network

// Network is the unified representation of everything loaded from the input
// files: the reaction network, its metabolites, the experimental data and the
// simulations defined over them.
type Network struct {
	Reactions      []*Reaction
	Metabolites    []*Metabolite
	MeasuredFluxes []*MeasuredFlux
	Fragments      []*MSFragment
	Tracers        []*Tracer
	Simulations    map[string]*Simulation
}

// New returns an empty Network ready to be populated by a loader.
func New() *Network {
	return &Network{Simulations: make(map[string]*Simulation)}
}

// Participant is one metabolite occurrence on one side of a reaction. The
// stoichiometry is signed by convention (reactants negative, products
// positive); consumers that only need magnitudes take the absolute value.
type Participant struct {
	MetaboliteID  string
	Stoichiometry float64
}

// AtomMap is a tracked annotation: the atom-mapped fraction of a metabolite
// in one reaction. Elements, Positions and Mapping are parallel sequences,
// one entry per mapped atom. Positions are 0-based.
type AtomMap struct {
	MetaboliteID  string
	Stoichiometry float64
	Elements      []string
	Positions     []int
	Mapping       []string
}

// Reaction is a single reaction of the network.
type Reaction struct {
	ID            string
	Reactants     []Participant
	Products      []Participant
	Reversible    bool
	ReactantAtoms []AtomMap
	ProductAtoms  []AtomMap
	LowerBound    float64
	UpperBound    float64
	FluxValue     float64
	// Equation, when set, replaces the generated equation verbatim.
	Equation string
}

// Metabolite carries the atom layout of a metabolite and, for rotationally
// symmetric molecules, the symmetric atom positions.
type Metabolite struct {
	ID                    string
	Elements              []string
	AtomPositions         []int
	SymmetryElements      []string
	SymmetryAtomPositions []int
}

// Symmetric reports whether the metabolite declares a symmetry mapping.
func (m *Metabolite) Symmetric() bool {
	return len(m.SymmetryAtomPositions) > 0
}

// MeasuredFlux is an experimentally measured flux with its bounds.
type MeasuredFlux struct {
	ExperimentID           string
	SampleNameAbbreviation string
	ReactionID             string
	Average                float64
	Stdev                  float64
	LowerBound             float64
	UpperBound             float64
}

// MSFragment is one time point of a measured mass isotopomer distribution.
type MSFragment struct {
	ExperimentID           string
	SampleNameAbbreviation string
	FragmentID             string
	MetaboliteID           string
	Elements               []string
	AtomPositions          []int
	TimePoint              string
	IntensityAverage       []float64
	IntensityStdev         []float64
}

// Tracer is a labeled substrate fed in an experiment. AtomPositions are
// written to the script as given.
type Tracer struct {
	ExperimentID           string
	SampleNameAbbreviation string
	MetaboliteID           string
	MetaboliteName         string
	Elements               []string
	AtomPositions          []int
	Ratio                  float64
}

// Parallel labeling experiments are grouped either by experiment id or by
// sample name abbreviation.
const (
	ParallelByExperiment = "experiment_id"
	ParallelBySample     = "sample_name_abbreviation"
)

// Simulation describes one model run over the network.
type Simulation struct {
	ID                      string
	ExperimentIDs           []string
	SampleNameAbbreviations []string
	TimePoints              []string
	ParallelBy              string
	Stationary              bool
	FitStarts               int
	Restarts                int
	Continuate              bool
	// Simulate replaces every experiment's measurements with simulated,
	// noised ones before estimation.
	Simulate bool
}

// Reaction returns the reaction with the given id, or nil.
func (n *Network) Reaction(id string) *Reaction {
	for _, r := range n.Reactions {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// MetaboliteIDs returns the ids of all metabolites in declaration order.
func (n *Network) MetaboliteIDs() []string {
	ids := make([]string, 0, len(n.Metabolites))
	for _, m := range n.Metabolites {
		ids = append(ids, m.ID)
	}
	return ids
}
