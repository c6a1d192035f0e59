package script

import (
	"fmt"
	"slices"
	"strings"

	"github.com/vk/isoflux/internal/equation"
	"github.com/vk/isoflux/internal/network"
)

// exchangeStates are extracellular metabolites whose exchange placeholders
// are never mass balanced.
var exchangeStates = []string{"co2_e", "h2o_e", "h_e", "na1_e"}

// Model renders the reaction list, symmetry declarations, unbalanced states
// and the rate vectors. equations must be index-aligned with net.Reactions.
func Model(net *network.Network, equations []string) (string, error) {
	if len(equations) != len(net.Reactions) {
		return "", fmt.Errorf("%d equations for %d reactions", len(equations), len(net.Reactions))
	}

	var b strings.Builder
	b.WriteString("clear functions\n")

	b.WriteString("r = reaction({...\n")
	for _, eq := range equations {
		fmt.Fprintf(&b, "'%s';...\n", eq)
	}
	b.WriteString("});\n")
	b.WriteString("m = model(r);\n")

	for _, met := range net.Metabolites {
		if !met.Symmetric() {
			continue
		}
		pairs := make([]string, len(met.AtomPositions))
		for i, pos := range met.AtomPositions {
			pairs[i] = fmt.Sprintf("%s%d:%s%d", met.Elements[i], pos+1, met.SymmetryElements[i], met.SymmetryAtomPositions[i]+1)
		}
		fmt.Fprintf(&b, "m.mets{'%s'}.sym = list('rotate180',map('%s'));\n", met.ID, strings.Join(pairs, " "))
	}

	ids := net.MetaboliteIDs()
	for _, id := range exchangeStates {
		if slices.Contains(ids, id) {
			fmt.Fprintf(&b, "m.states{'%s'}.bal = false;\n", network.ExchangeID(id))
		}
	}
	for _, id := range ids {
		if strings.Contains(id, equation.BalanceMarker) {
			fmt.Fprintf(&b, "m.states{'%s'}.bal = false;\n", id)
		}
	}

	bounds := make(map[string]*network.MeasuredFlux, len(net.MeasuredFluxes))
	for _, f := range net.MeasuredFluxes {
		if _, ok := bounds[f.ReactionID]; !ok {
			bounds[f.ReactionID] = f
		}
	}

	writeVector(&b, "m.rates.flx.lb", net.Reactions, func(r *network.Reaction) string {
		if f, ok := bounds[r.ID]; ok {
			return equation.FormatCoefficient(f.LowerBound)
		}
		return equation.FormatCoefficient(r.LowerBound)
	})
	writeVector(&b, "m.rates.flx.ub", net.Reactions, func(r *network.Reaction) string {
		if f, ok := bounds[r.ID]; ok {
			return equation.FormatCoefficient(f.UpperBound)
		}
		return equation.FormatCoefficient(r.UpperBound)
	})
	writeVector(&b, "m.rates.flx.val", net.Reactions, func(r *network.Reaction) string {
		return equation.FormatCoefficient(r.FluxValue)
	})
	writeVector(&b, "m.rates.on", net.Reactions, func(r *network.Reaction) string {
		if r.FluxValue == 0 && r.LowerBound == 0 && r.UpperBound == 0 {
			return "false"
		}
		return "true"
	})

	b.WriteString("m.rates.id = {...\n")
	for _, r := range net.Reactions {
		fmt.Fprintf(&b, "'%s',...\n", r.ID)
	}
	b.WriteString("};\n")

	return b.String(), nil
}

func writeVector(b *strings.Builder, name string, reactions []*network.Reaction, value func(*network.Reaction) string) {
	fmt.Fprintf(b, "%s = [...\n", name)
	for _, r := range reactions {
		fmt.Fprintf(b, "%s,...\n", value(r))
	}
	b.WriteString("];\n")
}
