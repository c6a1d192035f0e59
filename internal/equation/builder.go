package equation

import (
	"context"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/vk/isoflux/internal/ctxlog"
	"github.com/vk/isoflux/internal/network"
)

const (
	// PseudoReactantStoichiometry marks an orphaned reactant atom map as a
	// massless pseudo-metabolite that completes the atom mapping.
	PseudoReactantStoichiometry = -1e-13
	// pseudoReactantCoefficient is how such a pseudo-metabolite is written.
	pseudoReactantCoefficient = "0.0000000000001"
	// BalanceMarker identifies product-side balancing metabolites.
	BalanceMarker = ".balance"
)

// Input is everything the builder needs to know about one reaction.
type Input struct {
	Reactants     []network.Participant
	Products      []network.Participant
	Reversible    bool
	ReactantAtoms []network.AtomMap
	ProductAtoms  []network.AtomMap
}

// InputFor extracts the builder input from a reaction.
func InputFor(r *network.Reaction) Input {
	return Input{
		Reactants:     r.Reactants,
		Products:      r.Products,
		Reversible:    r.Reversible,
		ReactantAtoms: r.ReactantAtoms,
		ProductAtoms:  r.ProductAtoms,
	}
}

// Builder turns reaction inputs into equation strings. It holds no per-call
// state and is safe for concurrent use.
type Builder struct {
	tolerance float64
}

// New creates a Builder.
func New(opts ...Option) *Builder {
	b := &Builder{tolerance: DefaultTolerance}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

type side int

const (
	reactantSide side = iota
	productSide
)

func (s side) String() string {
	if s == reactantSide {
		return "reactant"
	}
	return "product"
}

// BuildReaction returns the reaction's equation. An explicit Equation on the
// reaction is returned unchanged.
func (b *Builder) BuildReaction(ctx context.Context, r *network.Reaction) string {
	if r.Equation != "" {
		return r.Equation
	}
	logger := ctxlog.FromContext(ctx).With("reaction", r.ID)
	return b.Build(ctxlog.WithLogger(ctx, logger), InputFor(r))
}

// Build returns the equation for a single reaction.
func (b *Builder) Build(ctx context.Context, in Input) string {
	logger := ctxlog.FromContext(ctx)
	in = withExchange(in)

	// Pseudo-metabolites are injected at most once per reaction, whichever
	// side they appear on.
	pseudo := make(map[string]struct{})
	lhs := b.side(logger, reactantSide, in.Reactants, in.ReactantAtoms, pseudo)
	rhs := b.side(logger, productSide, in.Products, in.ProductAtoms, pseudo)

	arrow := "->"
	if in.Reversible {
		arrow = "<->"
	}
	eq := strings.Join(lhs, " + ") + " " + arrow + " " + strings.Join(rhs, " + ")
	return strings.TrimSpace(eq)
}

// withExchange adds the exchange placeholder to an open reaction, i.e. one
// with a single participant on one side and nothing on the other.
func withExchange(in Input) Input {
	switch {
	case len(in.Reactants) == 0 && len(in.Products) == 1:
		in.Reactants, in.ReactantAtoms = mirror(in.Products[0], in.ProductAtoms, in.ReactantAtoms)
	case len(in.Products) == 0 && len(in.Reactants) == 1:
		in.Products, in.ProductAtoms = mirror(in.Reactants[0], in.ReactantAtoms, in.ProductAtoms)
	}
	return in
}

func mirror(p network.Participant, atoms, current []network.AtomMap) ([]network.Participant, []network.AtomMap) {
	parts := []network.Participant{{
		MetaboliteID:  network.ExchangeID(p.MetaboliteID),
		Stoichiometry: p.Stoichiometry,
	}}
	if len(atoms) == 0 || atoms[0].MetaboliteID == "" {
		return parts, current
	}
	m := atoms[0]
	m.MetaboliteID = network.ExchangeID(m.MetaboliteID)
	return parts, []network.AtomMap{m}
}

// side renders the clauses of one side of the equation.
func (b *Builder) side(logger *slog.Logger, s side, parts []network.Participant, atoms []network.AtomMap, pseudo map[string]struct{}) []string {
	atoms = usable(logger, s, atoms)

	present := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		present[p.MetaboliteID] = struct{}{}
	}
	tracked := make(map[string]struct{}, len(atoms))
	for _, a := range atoms {
		tracked[a.MetaboliteID] = struct{}{}
	}
	reported := make(map[string]struct{})

	clauses := make([]string, 0, len(parts))
	for _, p := range parts {
		remaining := math.Abs(p.Stoichiometry)
		if _, ok := tracked[p.MetaboliteID]; !ok {
			clauses = append(clauses, clause(FormatCoefficient(remaining), p.MetaboliteID, nil))
			continue
		}

		for _, a := range atoms {
			stoich := math.Abs(a.Stoichiometry)
			_, inSide := present[a.MetaboliteID]
			switch {
			case a.MetaboliteID == p.MetaboliteID && b.equal(remaining, stoich):
				clauses = append(clauses, clause(FormatCoefficient(remaining), p.MetaboliteID, &a))
				remaining = 0
			case a.MetaboliteID == p.MetaboliteID && remaining-stoich > b.tolerance:
				clauses = append(clauses, clause(FormatCoefficient(stoich), p.MetaboliteID, &a))
				remaining -= stoich
			case !inSide:
				coeff, ok := pseudoCoefficient(s, a)
				if !ok {
					if _, seen := reported[a.MetaboliteID]; !seen {
						logger.Warn("Dropping unaccounted for atom map.", "side", s.String(), "metabolite", a.MetaboliteID)
						reported[a.MetaboliteID] = struct{}{}
					}
					continue
				}
				if _, done := pseudo[a.MetaboliteID]; done {
					continue
				}
				logger.Debug("Injecting pseudo-metabolite.", "side", s.String(), "metabolite", a.MetaboliteID)
				clauses = append(clauses, clause(coeff, a.MetaboliteID, &a))
				pseudo[a.MetaboliteID] = struct{}{}
			}
		}

		// Whatever is left of the participant is not atom-tracked.
		if remaining > b.tolerance {
			clauses = append(clauses, clause(FormatCoefficient(remaining), p.MetaboliteID, nil))
		}
	}
	return clauses
}

func (b *Builder) equal(x, y float64) bool {
	return math.Abs(x-y) <= b.tolerance
}

// pseudoCoefficient reports whether an orphaned atom map is a pseudo-metabolite
// and, if so, the coefficient it is written with.
func pseudoCoefficient(s side, a network.AtomMap) (string, bool) {
	switch s {
	case reactantSide:
		if a.Stoichiometry == PseudoReactantStoichiometry {
			return pseudoReactantCoefficient, true
		}
	case productSide:
		if strings.Contains(a.MetaboliteID, BalanceMarker) {
			return FormatCoefficient(math.Abs(a.Stoichiometry)), true
		}
	}
	return "", false
}

// usable drops atom maps that cannot be rendered.
func usable(logger *slog.Logger, s side, atoms []network.AtomMap) []network.AtomMap {
	out := atoms[:0:0]
	for _, a := range atoms {
		if !a.Aligned() {
			logger.Warn("Dropping malformed atom map.",
				"side", s.String(),
				"metabolite", a.MetaboliteID,
				"elements", len(a.Elements),
				"positions", len(a.Positions),
				"labels", len(a.Labels()),
			)
			continue
		}
		out = append(out, a)
	}
	return out
}

// clause renders "coeff*id" optionally followed by the atom list.
func clause(coeff, id string, a *network.AtomMap) string {
	var sb strings.Builder
	sb.WriteString(coeff)
	sb.WriteByte('*')
	sb.WriteString(id)
	if a == nil {
		return sb.String()
	}
	sb.WriteString(" (")
	for i, label := range a.Labels() {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(a.Elements[i])
		sb.WriteString(strconv.Itoa(a.Positions[i] + 1))
		sb.WriteByte(':')
		sb.WriteString(label)
	}
	sb.WriteByte(')')
	return sb.String()
}
