package equation

import (
	"context"
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/isoflux/internal/ctxlog"
	"github.com/vk/isoflux/internal/network"
)

func quietCtx() context.Context {
	return ctxlog.WithLogger(context.Background(), ctxlog.Discard())
}

func atoms(id string, stoich float64, labels ...string) network.AtomMap {
	m := network.AtomMap{MetaboliteID: id, Stoichiometry: stoich, Mapping: labels}
	for i := range labels {
		m.Elements = append(m.Elements, "C")
		m.Positions = append(m.Positions, i)
	}
	return m
}

func part(id string, stoich float64) network.Participant {
	return network.Participant{MetaboliteID: id, Stoichiometry: stoich}
}

func TestBuild_ExchangeSynthesis(t *testing.T) {
	eq := New().Build(quietCtx(), Input{
		Products: []network.Participant{part("atp_c", 1.0)},
	})
	lhs, _, found := strings.Cut(eq, " -> ")
	require.True(t, found, eq)
	assert.Equal(t, "1.0*atp_c.EX", lhs)
	assert.Equal(t, "1.0*atp_c.EX -> 1.0*atp_c", eq)
}

func TestBuild_ExchangeMirrorsAtoms(t *testing.T) {
	eq := New().Build(quietCtx(), Input{
		Reactants:     []network.Participant{part("glc_e", -1.0)},
		ReactantAtoms: []network.AtomMap{atoms("glc_e", -1.0, "a", "b")},
	})
	assert.Equal(t, "1.0*glc_e (C1:a C2:b) -> 1.0*glc_e.EX (C1:a C2:b)", eq)
}

func TestBuild_FullTrackedMatch(t *testing.T) {
	in := Input{
		Reactants: []network.Participant{part("a", -2.0)},
		Products:  []network.Participant{part("b", 2.0)},
		ReactantAtoms: []network.AtomMap{{
			MetaboliteID:  "a",
			Stoichiometry: -2.0,
			Elements:      []string{"C", "C"},
			Positions:     []int{0, 1},
			Mapping:       []string{"x", "y"},
		}},
	}
	eq := New().Build(quietCtx(), in)
	assert.Equal(t, "2.0*a (C1:x C2:y) -> 2.0*b", eq)
}

func TestBuild_BracketMapping(t *testing.T) {
	in := Input{
		Reactants:     []network.Participant{part("a", -1)},
		Products:      []network.Participant{part("b", 1)},
		ReactantAtoms: []network.AtomMap{atoms("a", -1, "[x][y]")},
		ProductAtoms:  []network.AtomMap{atoms("b", 1, "[y][x]")},
	}
	// The helper assigned a single element for the single bracket token.
	in.ReactantAtoms[0].Elements = []string{"C", "C"}
	in.ReactantAtoms[0].Positions = []int{0, 1}
	in.ProductAtoms[0].Elements = []string{"C", "C"}
	in.ProductAtoms[0].Positions = []int{0, 1}

	eq := New().Build(quietCtx(), in)
	assert.Equal(t, "1.0*a (C1:x C2:y) -> 1.0*b (C1:y C2:x)", eq)
}

func TestBuild_PartialTrackedSplit(t *testing.T) {
	in := Input{
		Reactants:     []network.Participant{part("a", -3.0)},
		Products:      []network.Participant{part("b", 3.0)},
		ReactantAtoms: []network.AtomMap{atoms("a", -1.0, "x")},
	}
	eq := New().Build(quietCtx(), in)
	assert.Equal(t, "1.0*a (C1:x) + 2.0*a -> 3.0*b", eq)
}

func TestBuild_MultipleTrackedFractions(t *testing.T) {
	in := Input{
		Reactants: []network.Participant{part("a", -2.0)},
		Products:  []network.Participant{part("b", 2.0)},
		ReactantAtoms: []network.AtomMap{
			atoms("a", -1.0, "x"),
			atoms("a", -1.0, "y"),
		},
	}
	eq := New().Build(quietCtx(), in)
	assert.Equal(t, "1.0*a (C1:x) + 1.0*a (C1:y) -> 2.0*b", eq)
}

func TestBuild_ReversibilityToken(t *testing.T) {
	in := Input{
		Reactants:     []network.Participant{part("a", -1), part("h_c", -1)},
		Products:      []network.Participant{part("b", 1)},
		ReactantAtoms: []network.AtomMap{atoms("a", -1, "x", "y")},
		ProductAtoms:  []network.AtomMap{atoms("b", 1, "y", "x")},
	}
	b := New()
	irreversible := b.Build(quietCtx(), in)
	in.Reversible = true
	reversible := b.Build(quietCtx(), in)

	assert.Contains(t, irreversible, " -> ")
	assert.NotContains(t, irreversible, "<->")
	assert.Contains(t, reversible, " <-> ")
	assert.Equal(t, irreversible, strings.Replace(reversible, "<->", "->", 1))
}

func TestBuild_PseudoReactantInjectedOnce(t *testing.T) {
	in := Input{
		Reactants: []network.Participant{part("a", -1), part("c", -1)},
		Products:  []network.Participant{part("b", 1)},
		ReactantAtoms: []network.AtomMap{
			atoms("a", -1, "x"),
			atoms("c", -1, "y"),
			atoms("pseudo_c", PseudoReactantStoichiometry, "z"),
		},
	}
	eq := New().Build(quietCtx(), in)
	assert.Equal(t, "1.0*a (C1:x) + 0.0000000000001*pseudo_c (C1:z) + 1.0*c (C1:y) -> 1.0*b", eq)
	assert.Equal(t, 1, strings.Count(eq, "pseudo_c"))
}

func TestBuild_BalanceProductInjected(t *testing.T) {
	in := Input{
		Reactants: []network.Participant{part("a", -1)},
		Products:  []network.Participant{part("b", 1)},
		ProductAtoms: []network.AtomMap{
			atoms("b", 1, "x"),
			atoms("co2.balance", 1, "y"),
		},
	}
	eq := New().Build(quietCtx(), in)
	assert.Equal(t, "1.0*a -> 1.0*b (C1:x) + 1.0*co2.balance (C1:y)", eq)
}

func TestBuild_UnaccountedOrphanDropped(t *testing.T) {
	in := Input{
		Reactants: []network.Participant{part("a", -1)},
		Products:  []network.Participant{part("b", 1)},
		ReactantAtoms: []network.AtomMap{
			atoms("a", -1, "x"),
			atoms("ghost", -1, "y"),
		},
		ProductAtoms: []network.AtomMap{
			atoms("b", 1, "x"),
			atoms("ghost_p", 1, "y"),
		},
	}
	eq := New().Build(quietCtx(), in)
	assert.Equal(t, "1.0*a (C1:x) -> 1.0*b (C1:x)", eq)
	assert.NotContains(t, eq, "ghost")
}

func TestBuild_MalformedAtomMapFallsThrough(t *testing.T) {
	bad := atoms("a", -1, "x", "y")
	bad.Positions = bad.Positions[:1]
	in := Input{
		Reactants:     []network.Participant{part("a", -1)},
		Products:      []network.Participant{part("b", 1)},
		ReactantAtoms: []network.AtomMap{bad},
	}
	eq := New().Build(quietCtx(), in)
	assert.Equal(t, "1.0*a -> 1.0*b", eq)
}

func TestBuild_PlainStringMapping(t *testing.T) {
	in := Input{
		Reactants: []network.Participant{part("a", -1)},
		Products:  []network.Participant{part("b", 1)},
		ReactantAtoms: []network.AtomMap{{
			MetaboliteID:  "a",
			Stoichiometry: -1,
			Elements:      []string{"C", "C", "C"},
			Positions:     []int{0, 1, 2},
			Mapping:       []string{"abc"},
		}},
	}
	assert.Equal(t, "1.0*a (C1:a C2:b C3:c) -> 1.0*b", New().Build(quietCtx(), in))
}

func TestBuild_Tolerance(t *testing.T) {
	// Runtime addition, so the sum carries the binary rounding error.
	x, y := 0.1, 0.2
	in := Input{
		Reactants:     []network.Participant{part("a", -(x + y))},
		Products:      []network.Participant{part("b", 1)},
		ReactantAtoms: []network.AtomMap{atoms("a", -0.3, "x")},
	}

	tolerant := New().Build(quietCtx(), in)
	assert.Equal(t, "0.30000000000000004*a (C1:x) -> 1.0*b", tolerant)

	exact := New(WithTolerance(0)).Build(quietCtx(), in)
	assert.Equal(t, "0.3*a (C1:x) + 5.551115123125783e-17*a -> 1.0*b", exact)
}

func TestBuild_NoDanglingSeparators(t *testing.T) {
	inputs := []Input{
		{Products: []network.Participant{part("x", 1)}},
		{Reactants: []network.Participant{part("x", -1)}},
		{
			Reactants:     []network.Participant{part("a", -3), part("c", -1)},
			Products:      []network.Participant{part("b", 1), part("d", 2)},
			ReactantAtoms: []network.AtomMap{atoms("a", -1, "x"), atoms("a", -2, "y")},
			ProductAtoms:  []network.AtomMap{atoms("d", 1, "x")},
			Reversible:    true,
		},
	}
	for i, in := range inputs {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			eq := New().Build(quietCtx(), in)
			assert.NotContains(t, eq, "+ ->")
			assert.NotContains(t, eq, "+  <->")
			assert.NotContains(t, eq, "+ <->")
			assert.False(t, strings.HasPrefix(eq, "+"), eq)
			assert.False(t, strings.HasSuffix(eq, "+"), eq)
			assert.Equal(t, strings.TrimSpace(eq), eq)
		})
	}
}

// sideTotals parses one side of an equation back into per-metabolite totals.
func sideTotals(t *testing.T, s string) map[string]float64 {
	t.Helper()
	totals := make(map[string]float64)
	for _, c := range strings.Split(s, " + ") {
		if i := strings.Index(c, " ("); i >= 0 {
			c = c[:i]
		}
		coeff, id, ok := strings.Cut(c, "*")
		require.True(t, ok, "clause %q", c)
		v, err := strconv.ParseFloat(coeff, 64)
		require.NoError(t, err)
		totals[id] += v
	}
	return totals
}

func TestBuild_BalanceProperty(t *testing.T) {
	in := Input{
		Reactants: []network.Participant{part("a", -3.5), part("c", -1), part("e", -0.25)},
		Products:  []network.Participant{part("b", 2), part("d", 4)},
		ReactantAtoms: []network.AtomMap{
			atoms("a", -1, "x"),
			atoms("a", -0.5, "y"),
			atoms("c", -1, "z"),
		},
		ProductAtoms: []network.AtomMap{
			atoms("d", 1.5, "x"),
		},
	}
	eq := New().Build(quietCtx(), in)
	lhs, rhs, ok := strings.Cut(eq, " -> ")
	require.True(t, ok)

	for side, want := range map[string][]network.Participant{lhs: in.Reactants, rhs: in.Products} {
		got := sideTotals(t, side)
		require.Len(t, got, len(want))
		for _, p := range want {
			assert.InDelta(t, math.Abs(p.Stoichiometry), got[p.MetaboliteID], 1e-12, p.MetaboliteID)
		}
	}
}

func TestBuildReaction_EquationOverride(t *testing.T) {
	r := &network.Reaction{ID: "biomass", Equation: "0.488*ala_DASH_L_c -> 45.56*pi_c"}
	assert.Equal(t, r.Equation, New().BuildReaction(quietCtx(), r))
}
