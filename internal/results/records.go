package results

import (
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

// Meta is carried by every record.
type Meta struct {
	SimulationID   string    `yaml:"simulation_id"`
	SimulationTime time.Time `yaml:"simulation_date_and_time"`
	Used           bool      `yaml:"used"`
	Comment        string    `yaml:"comment,omitempty"`
}

type SimulationParameters struct {
	Meta             `yaml:",inline"`
	OriginalFilename string  `yaml:"original_filename"`
	ContAlpha        float64 `yaml:"cont_alpha"`
	ContRelTol       float64 `yaml:"cont_reltol"`
	ContSteps        float64 `yaml:"cont_steps"`
	FitNudge         float64 `yaml:"fit_nudge"`
	FitReinit        bool    `yaml:"fit_reinit"`
	FitRelTol        float64 `yaml:"fit_reltol"`
	FitStarts        float64 `yaml:"fit_starts"`
	FitTau           float64 `yaml:"fit_tau"`
	HPCMCR           string  `yaml:"hpc_mcr"`
	HPCOn            bool    `yaml:"hpc_on"`
	HPCServe         string  `yaml:"hpc_serve"`
	IntMaxStep       float64 `yaml:"int_maxstep"`
	IntRelTol        float64 `yaml:"int_reltol"`
	IntSensTol       float64 `yaml:"int_senstol"`
	IntTimeout       float64 `yaml:"int_timeout"`
	IntTSpan         float64 `yaml:"int_tspan"`
	MSCorrect        bool    `yaml:"ms_correct"`
	OEDCrit          string  `yaml:"oed_crit"`
	OEDReinit        bool    `yaml:"oed_reinit"`
	OEDTolF          float64 `yaml:"oed_tolf"`
	OEDTolX          float64 `yaml:"oed_tolx"`
	SimMore          bool    `yaml:"sim_more"`
	SimNA            bool    `yaml:"sim_na"`
	SimSens          bool    `yaml:"sim_sens"`
	SimSS            bool    `yaml:"sim_ss"`
	SimTUnit         string  `yaml:"sim_tunit"`
}

type FitSummary struct {
	Meta  `yaml:",inline"`
	Echi2 []float64 `yaml:"fitted_echi2"`
	Alf   float64   `yaml:"fitted_alf"`
	Chi2  float64   `yaml:"fitted_chi2"`
	Dof   int       `yaml:"fitted_dof"`
}

type MeasuredFluxSres struct {
	Meta                   `yaml:",inline"`
	ExperimentID           string  `yaml:"experiment_id"`
	SampleNameAbbreviation string  `yaml:"sample_name_abbreviation"`
	ReactionID             string  `yaml:"rxn_id"`
	Sres                   float64 `yaml:"fitted_sres"`
}

type MeasuredFragmentSres struct {
	Meta                   `yaml:",inline"`
	ExperimentID           string  `yaml:"experiment_id"`
	SampleNameAbbreviation string  `yaml:"sample_name_abbreviation"`
	FragmentID             string  `yaml:"fragment_id"`
	Sres                   float64 `yaml:"fitted_sres"`
}

type FluxResidual struct {
	Meta                   `yaml:",inline"`
	ExperimentID           string  `yaml:"experiment_id"`
	SampleNameAbbreviation string  `yaml:"sample_name_abbreviation"`
	TimePoint              string  `yaml:"time_point"`
	ReactionID             string  `yaml:"rxn_id"`
	Data                   float64 `yaml:"res_data"`
	Fit                    float64 `yaml:"res_fit"`
	Peak                   *string `yaml:"res_peak"`
	Stdev                  float64 `yaml:"res_stdev"`
	Val                    float64 `yaml:"res_val"`
}

type FragmentResidual struct {
	Meta                   `yaml:",inline"`
	ExperimentID           string  `yaml:"experiment_id"`
	SampleNameAbbreviation string  `yaml:"sample_name_abbreviation"`
	TimePoint              string  `yaml:"time_point"`
	FragmentID             string  `yaml:"fragment_id"`
	FragmentMass           float64 `yaml:"fragment_mass"`
	Data                   float64 `yaml:"res_data"`
	Fit                    float64 `yaml:"res_fit"`
	Peak                   *string `yaml:"res_peak"`
	Stdev                  float64 `yaml:"res_stdev"`
	Val                    float64 `yaml:"res_val"`
}

type FittedFlux struct {
	Meta       `yaml:",inline"`
	ReactionID string  `yaml:"rxn_id"`
	Flux       float64 `yaml:"flux"`
	Stdev      float64 `yaml:"flux_stdev"`
	LowerBound float64 `yaml:"flux_lb"`
	UpperBound float64 `yaml:"flux_ub"`
	Units      string  `yaml:"flux_units"`
	Alf        float64 `yaml:"fit_alf"`
	Free       bool    `yaml:"free"`
}

type FittedFragment struct {
	Meta                   `yaml:",inline"`
	ExperimentID           string  `yaml:"experiment_id"`
	SampleNameAbbreviation string  `yaml:"sample_name_abbreviation"`
	TimePoint              string  `yaml:"time_point"`
	FragmentID             string  `yaml:"fragment_id"`
	FragmentMass           float64 `yaml:"fragment_mass"`
	Val                    float64 `yaml:"fit_val"`
	Stdev                  float64 `yaml:"fit_stdev"`
	Units                  string  `yaml:"fit_units"`
	Alf                    float64 `yaml:"fit_alf"`
	Free                   bool    `yaml:"free"`
}

// Records groups everything extracted from one container.
type Records struct {
	SimulationParameters []SimulationParameters `yaml:"simulation_parameters"`
	FitSummaries         []FitSummary           `yaml:"fit_summaries"`
	MeasuredFluxes       []MeasuredFluxSres     `yaml:"measured_fluxes"`
	MeasuredFragments    []MeasuredFragmentSres `yaml:"measured_fragments"`
	FluxResiduals        []FluxResidual         `yaml:"flux_residuals"`
	FragmentResiduals    []FragmentResidual     `yaml:"fragment_residuals"`
	FittedFluxes         []FittedFlux           `yaml:"fitted_fluxes"`
	FittedFragments      []FittedFragment       `yaml:"fitted_fragments"`
}

// WriteYAML dumps the records as a single YAML document.
func (r *Records) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return err
	}
	return enc.Close()
}
