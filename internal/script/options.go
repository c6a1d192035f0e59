package script

import (
	"fmt"
	"strings"

	"github.com/vk/isoflux/internal/network"
)

// Options renders the simulation options. Non-stationary simulations also
// switch the solver to hours and enable sensitivities.
func Options(sim *network.Simulation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "m.options.fit_starts = %d;\n", sim.FitStarts)
	if !sim.Stationary {
		b.WriteString("m.options.sim_tunit = 'h';\n")
		b.WriteString("m.options.fit_reinit = true;\n")
		b.WriteString("m.options.sim_ss = false;\n")
		b.WriteString("m.options.sim_sens = true;\n")
	}
	return b.String()
}

// Estimate renders the parameter estimation call with the given number of
// restarts.
func Estimate(restarts int) string {
	return fmt.Sprintf("f=estimate(m,%d);\n", restarts)
}

// Continuate renders the parameter continuation call.
func Continuate() string {
	return "f=continuate(f,m);\n"
}

// SimulatedExperiment replaces the measurements of experiment index with
// simulated ones: the fluxes are made feasible, measurements simulated and
// copied into the model, and normally distributed error is added with a
// stdev that scales linearly with the measured value.
func SimulatedExperiment(index int) string {
	var b strings.Builder
	b.WriteString("m.rates.flx.val = mod2stoich(m)';\n")
	b.WriteString("s = simulate(m);\n")
	b.WriteString("m = sim2mod(m,s);\n")
	b.WriteString("x0 = 0.005; e0 = 0.003; x1 = 0.25; e1 = 0.01;\n")
	fmt.Fprintf(&b, "for i = 1:length(m.expts(%d).data_ms)\n", index)
	fmt.Fprintf(&b, "\tm.expts(%d).data_ms(i).mdvs.std = max(min((e1-e0)/(x1-x0)*(m.expts(%d).data_ms(i).mdvs.val-x1)+e1,e1),e0);\n", index, index)
	b.WriteString("end\n")
	fmt.Fprintf(&b, "for i = 1:length(m.expts(%d).data_ms)\n", index)
	fmt.Fprintf(&b, "\tm.expts(%d).data_ms(i).mdvs.val = normrnd(m.expts(%d).data_ms(i).mdvs.val,m.expts(%d).data_ms(i).mdvs.std);\n", index, index, index)
	b.WriteString("end\n")
	return b.String()
}
