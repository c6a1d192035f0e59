package script

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/vk/isoflux/internal/equation"
	"github.com/vk/isoflux/internal/network"
)

// MDV sanitization thresholds. Intensities below minIntensity are not
// measured; stdevs below minStdev are replaced so the fit stays well posed.
const (
	minIntensity   = 1e-6
	minStdev       = 1e-3
	zeroStdevValue = 0.05
	lowStdevValue  = 0.001
)

// groupKey returns the value a record is grouped under for a simulation's
// parallel setting.
func groupKey(parallelBy, experimentID, sampleName string) string {
	if parallelBy == network.ParallelBySample {
		return sampleName
	}
	return experimentID
}

// Experiments renders one INCA experiment per parallel group and then the
// measured mass isotopomer distributions. net is expected to be scoped to
// sim already (see Scope).
func Experiments(net *network.Network, sim *network.Simulation) string {
	parallelBy := sim.ParallelBy

	groups := experimentGroups(net, sim)
	var fragments, times []string
	for _, f := range net.Fragments {
		fragments = append(fragments, f.FragmentID)
		times = append(times, f.TimePoint)
	}
	fragments = sortedUnique(fragments)
	times = sortedUnique(times)

	var b strings.Builder
	for n, group := range groups {
		writeExperiment(&b, net, parallelBy, group, fragments, n+1)
	}
	for n, group := range groups {
		writeMDVs(&b, net, parallelBy, group, fragments, times, n+1)
	}
	return b.String()
}

// experimentGroups returns the sorted parallel groups of the fragments; the
// n-th group becomes m.expts(n+1).
func experimentGroups(net *network.Network, sim *network.Simulation) []string {
	var groups []string
	for _, f := range net.Fragments {
		groups = append(groups, groupKey(sim.ParallelBy, f.ExperimentID, f.SampleNameAbbreviation))
	}
	return sortedUnique(groups)
}

func writeExperiment(b *strings.Builder, net *network.Network, parallelBy, group string, fragments []string, index int) {
	b.WriteString("d = msdata({...\n")
	for _, id := range fragments {
		for _, f := range net.Fragments {
			if f.FragmentID != id || groupKey(parallelBy, f.ExperimentID, f.SampleNameAbbreviation) != group {
				continue
			}
			atoms := make([]string, len(f.AtomPositions))
			for i, pos := range f.AtomPositions {
				atoms[i] = f.Elements[i] + strconv.Itoa(pos+1)
			}
			fmt.Fprintf(b, "'%s: %s @ %s';\n", f.FragmentID, f.MetaboliteID, strings.Join(atoms, " "))
			break
		}
	}
	b.WriteString("});\n")
	b.WriteString("d.mdvs = mdv;\n")

	var fracs []string
	b.WriteString("t = tracer({...\n")
	for _, t := range net.Tracers {
		if groupKey(parallelBy, t.ExperimentID, t.SampleNameAbbreviation) != group {
			continue
		}
		atoms := make([]string, len(t.AtomPositions))
		for i, pos := range t.AtomPositions {
			atoms[i] = t.Elements[i] + strconv.Itoa(pos)
		}
		fmt.Fprintf(b, "'%s: %s @ %s';...\n", t.MetaboliteName, network.ExchangeID(t.MetaboliteID), strings.Join(atoms, " "))
		fracs = append(fracs, equation.FormatCoefficient(t.Ratio))
	}
	b.WriteString("});\n")
	fmt.Fprintf(b, "t.frac = [%s];\n", strings.Join(fracs, ","))

	var ids, vals, stds []string
	for _, f := range net.MeasuredFluxes {
		if groupKey(parallelBy, f.ExperimentID, f.SampleNameAbbreviation) != group {
			continue
		}
		ids = append(ids, f.ReactionID)
		vals = append(vals, equation.FormatCoefficient(f.Average))
		stds = append(stds, equation.FormatCoefficient(f.Stdev))
	}
	fmt.Fprintf(b, "f = data('%s');\n", strings.Join(ids, " "))
	b.WriteString("f.val = [...\n")
	for _, v := range vals {
		fmt.Fprintf(b, "%s,...\n", v)
	}
	b.WriteString("];\n")
	b.WriteString("f.std = [...\n")
	for _, s := range stds {
		fmt.Fprintf(b, "%s,...\n", s)
	}
	b.WriteString("];\n")

	b.WriteString("x = experiment(t);\n")
	b.WriteString("x.data_flx = f;\n")
	b.WriteString("x.data_ms = d;\n")
	fmt.Fprintf(b, "m.expts(%d) = x;\n", index)
	fmt.Fprintf(b, "m.expts(%d).id = {'%s'};\n", index, group)
}

// writeMDVs pads every fragment/time cell with NaN and then assigns the
// measured values. Ids and times go to row 1 of the cell; values and
// stdevs fill one row per mass isotopomer.
func writeMDVs(b *strings.Builder, net *network.Network, parallelBy, group string, fragments, times []string, index int) {
	for i, id := range fragments {
		for j, tp := range times {
			fmt.Fprintf(b, "m.expts(%d).data_ms(%d).mdvs.val(%d,%d) = NaN;\n", index, i+1, 1, j+1)
			fmt.Fprintf(b, "m.expts(%d).data_ms(%d).mdvs.std(%d,%d) = NaN;\n", index, i+1, 1, j+1)
			for _, f := range net.Fragments {
				if f.FragmentID != id || f.TimePoint != tp || groupKey(parallelBy, f.ExperimentID, f.SampleNameAbbreviation) != group {
					continue
				}
				for cnt, ave := range f.IntensityAverage {
					name := fmt.Sprintf("%s_%d_%d_%s", id, cnt, j, group)
					fmt.Fprintf(b, "m.expts(%d).data_ms(%d).mdvs.id(%d,%d) = {'%s'};\n", index, i+1, 1, j+1, name)
					fmt.Fprintf(b, "m.expts(%d).data_ms(%d).mdvs.time(%d,%d) = %s;\n", index, i+1, 1, j+1, tp)

					var stdev float64
					if cnt < len(f.IntensityStdev) {
						stdev = f.IntensityStdev[cnt]
					}
					val, std := mdvCell(ave, stdev)
					fmt.Fprintf(b, "m.expts(%d).data_ms(%d).mdvs.val(%d,%d) = %s;\n", index, i+1, cnt+1, j+1, val)
					fmt.Fprintf(b, "m.expts(%d).data_ms(%d).mdvs.std(%d,%d) = %s;\n", index, i+1, cnt+1, j+1, std)
				}
			}
		}
	}
}

// mdvCell applies the intensity and stdev thresholds and formats both values.
func mdvCell(ave, stdev float64) (string, string) {
	missing := ave < minIntensity || math.IsNaN(ave)
	val := "NaN"
	if !missing {
		val = fmt.Sprintf("%f", ave)
	}

	if stdev >= minStdev {
		return val, fmt.Sprintf("%f", stdev)
	}
	switch {
	case missing:
		return val, "NaN"
	case stdev == 0:
		return val, equation.FormatCoefficient(zeroStdevValue)
	default:
		return val, equation.FormatCoefficient(lowStdevValue)
	}
}

func sortedUnique(s []string) []string {
	slices.Sort(s)
	return slices.Compact(s)
}
