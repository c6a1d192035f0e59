package results

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/vk/isoflux/internal/ctxlog"
	"github.com/vk/isoflux/internal/equation"
	"github.com/vk/isoflux/internal/formula"
	"github.com/vk/isoflux/internal/network"
)

// ErrNoResults is returned for a container that carries no fit.
var ErrNoResults = errors.New("no fit results in container")

// Measurement and parameter types written by the estimation tool.
const (
	TypeFlux    = "Flux"
	TypeMS      = "MS"
	TypeNetFlux = "Net flux"
	TypeNorm    = "Norm"
)

const (
	// firstExperimentPlaceholder is what the tool calls the first
	// experiment when it was not given an id.
	firstExperimentPlaceholder = "Expt #1"
	// DefaultFluxUnit is used for parameters exported without a unit.
	DefaultFluxUnit = "mmol*gDCW-1*hr-1"
	// maxParameterValue replaces infinite values and empty upper bounds.
	maxParameterValue = 1000.0
)

// SimulationInfo describes the simulation a container belongs to. Records
// are routed to an experiment or sample name abbreviation from it.
type SimulationInfo struct {
	SimulationID            string
	ExperimentIDs           []string
	SampleNameAbbreviations []string
	TimePoints              []string
}

// InfoFor derives the extraction info of a simulation.
func InfoFor(sim *network.Simulation) SimulationInfo {
	return SimulationInfo{
		SimulationID:            sim.ID,
		ExperimentIDs:           sim.ExperimentIDs,
		SampleNameAbbreviations: sim.SampleNameAbbreviations,
		TimePoints:              sim.TimePoints,
	}
}

// route maps a tool experiment label to (experiment id, sample name).
func (i SimulationInfo) route(expt string) (string, string, bool) {
	switch {
	case slices.Contains(i.ExperimentIDs, expt):
		return expt, first(i.SampleNameAbbreviations), true
	case slices.Contains(i.SampleNameAbbreviations, expt):
		return first(i.ExperimentIDs), expt, true
	}
	return "", "", false
}

func (i SimulationInfo) resolveExpt(expt string) string {
	if expt == firstExperimentPlaceholder {
		return first(i.ExperimentIDs)
	}
	return expt
}

func first(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}

// Source identifies where a container came from.
type Source struct {
	Filename string
	ModTime  time.Time
}

// MassFunc returns the mass of a molecular formula.
type MassFunc func(formula string) (float64, error)

// Extractor builds records from result containers.
type Extractor struct {
	mass MassFunc
}

// NewExtractor returns an Extractor computing fragment masses with mass, or
// with formula.Mass when mass is nil.
func NewExtractor(mass MassFunc) *Extractor {
	if mass == nil {
		mass = formula.Mass
	}
	return &Extractor{mass: mass}
}

// Extract reads the container at path. The file's modification time becomes
// the simulation time of every record.
func (e *Extractor) Extract(ctx context.Context, path string, info SimulationInfo) (*Records, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get information about %s: %w", path, err)
	}
	dec, err := DecoderFor(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return e.ExtractData(ctx, data, dec, info, Source{Filename: path, ModTime: st.ModTime()})
}

// ExtractData decodes data with dec and extracts its records.
func (e *Extractor) ExtractData(ctx context.Context, data []byte, dec Decoder, info SimulationInfo, src Source) (*Records, error) {
	c, err := dec.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return e.FromContainer(ctx, c, info, src)
}

// FromContainer extracts the records of an already decoded container.
func (e *Extractor) FromContainer(ctx context.Context, c *Container, info SimulationInfo, src Source) (*Records, error) {
	if c.Fit == nil {
		return nil, ErrNoResults
	}
	logger := ctxlog.FromContext(ctx).With("simulation_id", info.SimulationID)
	meta := Meta{SimulationID: info.SimulationID, SimulationTime: src.ModTime, Used: true}

	recs := &Records{
		SimulationParameters: []SimulationParameters{simulationParameters(meta, src.Filename, c.Model.Options)},
		FitSummaries:         []FitSummary{fitSummary(meta, c.Fit)},
	}
	e.measurements(logger, recs, meta, info, c.Fit.Measurements)
	e.residuals(logger, recs, meta, info, c.Fit.Residuals)
	e.parameters(logger, recs, meta, info, c.Fit.Parameters)

	logger.Debug("Extracted simulation results.",
		"measured_fluxes", len(recs.MeasuredFluxes),
		"measured_fragments", len(recs.MeasuredFragments),
		"flux_residuals", len(recs.FluxResiduals),
		"fragment_residuals", len(recs.FragmentResiduals),
		"fitted_fluxes", len(recs.FittedFluxes),
		"fitted_fragments", len(recs.FittedFragments),
	)
	return recs, nil
}

func simulationParameters(meta Meta, filename string, o Options) SimulationParameters {
	p := SimulationParameters{
		Meta:             meta,
		OriginalFilename: filename,
		ContAlpha:        o.ContAlpha,
		ContRelTol:       o.ContRelTol,
		ContSteps:        o.ContSteps,
		FitNudge:         o.FitNudge,
		FitReinit:        o.FitReinit,
		FitRelTol:        o.FitRelTol,
		FitStarts:        o.FitStarts,
		FitTau:           o.FitTau,
		HPCOn:            o.HPCOn,
		IntMaxStep:       o.IntMaxStep,
		IntRelTol:        o.IntRelTol,
		IntSensTol:       o.IntSensTol,
		IntTimeout:       o.IntTimeout,
		IntTSpan:         o.IntTSpan,
		MSCorrect:        o.MSCorrect,
		OEDCrit:          o.OEDCrit,
		OEDReinit:        o.OEDReinit,
		OEDTolF:          o.OEDTolF,
		OEDTolX:          o.OEDTolX,
		SimMore:          o.SimMore,
		SimNA:            o.SimNA,
		SimSens:          o.SimSens,
		SimSS:            o.SimSS,
		SimTUnit:         o.SimTUnit,
	}
	switch {
	case o.HPCMCR != nil:
		p.HPCMCR = *o.HPCMCR
	case o.HPCBg != nil:
		p.HPCMCR = equation.FormatCoefficient(*o.HPCBg)
	}
	switch {
	case o.HPCServe != nil:
		p.HPCServe = *o.HPCServe
	case o.HPCSched != nil:
		p.HPCServe = *o.HPCSched
	}
	return p
}

func fitSummary(meta Meta, f *Fit) FitSummary {
	s := FitSummary{Meta: meta, Alf: f.Alf, Chi2: f.Chi2, Dof: f.Dof}
	if len(f.Echi2) > 0 && !math.IsNaN(f.Echi2[0]) {
		s.Echi2 = slices.Clone(f.Echi2[:min(len(f.Echi2), 2)])
	}
	return s
}

func (e *Extractor) measurements(logger *slog.Logger, recs *Records, meta Meta, info SimulationInfo, mnts []Measurement) {
	for _, m := range mnts {
		switch m.Type {
		case TypeFlux, TypeMS:
		default:
			logger.Warn("Measurement type not recognized.", "type", m.Type, "id", m.ID)
			continue
		}
		exp, sna, ok := info.route(m.Expt)
		if !ok {
			logger.Debug("Skipping measurement of another experiment.", "id", m.ID, "expt", m.Expt)
			continue
		}
		if m.Type == TypeFlux {
			recs.MeasuredFluxes = append(recs.MeasuredFluxes, MeasuredFluxSres{
				Meta: meta, ExperimentID: exp, SampleNameAbbreviation: sna, ReactionID: m.ID, Sres: m.Sres,
			})
			continue
		}
		recs.MeasuredFragments = append(recs.MeasuredFragments, MeasuredFragmentSres{
			Meta: meta, ExperimentID: exp, SampleNameAbbreviation: sna, FragmentID: m.ID, Sres: m.Sres,
		})
	}
}

func (e *Extractor) residuals(logger *slog.Logger, recs *Records, meta Meta, info SimulationInfo, res []Residual) {
	for _, r := range res {
		timePoint := "0"
		if !math.IsInf(r.Time, 0) {
			timePoint = equation.FormatCoefficient(r.Time)
		}
		expt := info.resolveExpt(r.Expt)

		switch r.Type {
		case TypeFlux:
			exp, sna, ok := info.route(expt)
			if !ok {
				continue
			}
			recs.FluxResiduals = append(recs.FluxResiduals, FluxResidual{
				Meta: meta, ExperimentID: exp, SampleNameAbbreviation: sna, TimePoint: timePoint,
				ReactionID: r.ID, Data: r.Data, Fit: r.Fit, Peak: r.Peak, Stdev: r.Std, Val: r.Val,
			})
		case TypeMS:
			frag, err := e.parseFragment(r.ID)
			if err != nil {
				logger.Warn("Dropping residual with malformed fragment id.", "id", r.ID, "error", err)
				continue
			}
			exp, sna, ok := info.route(expt)
			if !ok {
				continue
			}
			recs.FragmentResiduals = append(recs.FragmentResiduals, FragmentResidual{
				Meta: meta, ExperimentID: exp, SampleNameAbbreviation: sna, TimePoint: timePoint,
				FragmentID: network.EscapeID(frag.id), FragmentMass: frag.mass,
				Data: r.Data, Fit: r.Fit, Peak: r.Peak, Stdev: r.Std, Val: r.Val,
			})
		default:
			logger.Warn("Residual type not recognized.", "type", r.Type, "id", r.ID)
		}
	}
}

func (e *Extractor) parameters(logger *slog.Logger, recs *Records, meta Meta, info SimulationInfo, pars []Parameter) {
	for _, p := range pars {
		id := strings.ReplaceAll(p.ID, firstExperimentPlaceholder, first(info.ExperimentIDs))
		val, std, lb, ub := sanitizeParameter(p)
		unit := p.Unit
		if unit == "" {
			unit = DefaultFluxUnit
		}

		switch p.Type {
		case TypeNetFlux:
			recs.FittedFluxes = append(recs.FittedFluxes, FittedFlux{
				Meta: meta, ReactionID: id, Flux: val, Stdev: std, LowerBound: lb, UpperBound: ub,
				Units: unit, Alf: p.Alf, Free: p.Free,
			})
		case TypeNorm:
			// "<expt> <fragment id> <fragment string> <units>"
			fields := strings.Split(id, " ")
			if len(fields) < 4 {
				logger.Warn("Dropping norm parameter with malformed id.", "id", id)
				continue
			}
			frag, err := e.parseFragment(fields[2])
			if err != nil {
				logger.Warn("Dropping norm parameter with malformed fragment string.", "id", id, "error", err)
				continue
			}
			exp, sna, ok := info.route(fields[0])
			if !ok {
				continue
			}
			recs.FittedFragments = append(recs.FittedFragments, FittedFragment{
				Meta: meta, ExperimentID: exp, SampleNameAbbreviation: sna, TimePoint: frag.timePoint,
				FragmentID: fields[1], FragmentMass: frag.mass, Val: val, Stdev: std,
				Units: fields[3], Alf: p.Alf, Free: p.Free,
			})
		default:
			logger.Warn("Parameter type not recognized.", "type", p.Type, "id", id)
		}
	}
}

// sanitizeParameter clamps empty, NaN and infinite values into the ranges
// downstream consumers accept.
func sanitizeParameter(p Parameter) (val, std, lb, ub float64) {
	switch {
	case p.Val == nil || math.IsNaN(*p.Val):
	case math.IsInf(*p.Val, 0):
		val = maxParameterValue
	default:
		val = *p.Val
	}
	if p.Std != nil && !math.IsNaN(*p.Std) {
		std = *p.Std
	}
	if p.LB != nil && !math.IsNaN(*p.LB) {
		lb = *p.LB
	}
	ub = maxParameterValue
	if p.UB != nil && !math.IsNaN(*p.UB) && !math.IsInf(*p.UB, 0) {
		ub = *p.UB
	}
	return val, std, lb, ub
}

type fragment struct {
	id        string
	mass      float64
	timePoint string
}

// parseFragment splits a measurement name such as
// "pyr_c_C3H3O3_1_0_exp01" into the fragment id ("pyr_c_C3H3O3"), its mass
// (formula mass plus the isotopomer shift) and the time point. MRM and EPI
// fragments carry one more segment in their id.
func (e *Extractor) parseFragment(name string) (fragment, error) {
	parts := strings.Split(network.UnescapeID(name), "_")
	idLen := 3
	if len(parts) > 5 && (slices.Contains(parts, "MRM") || slices.Contains(parts, "EPI")) {
		idLen = 4
	}
	if len(parts) < idLen+2 {
		return fragment{}, fmt.Errorf("%q has %d segments", name, len(parts))
	}

	base, err := e.mass(parts[2])
	if err != nil {
		return fragment{}, err
	}
	shift, err := strconv.ParseFloat(parts[idLen], 64)
	if err != nil {
		return fragment{}, fmt.Errorf("mass shift of %q: %w", name, err)
	}
	return fragment{
		id:        strings.Join(parts[:idLen], "_"),
		mass:      base + shift,
		timePoint: parts[idLen+1],
	}, nil
}
