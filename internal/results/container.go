package results

// Container is the exported result of one estimation run. Numeric fields
// that the tool may leave empty are pointers; nil means empty.
type Container struct {
	Model Model `msgpack:"m" yaml:"m"`
	Fit   *Fit  `msgpack:"f" yaml:"f"`
}

// Model holds the parts of the fitted model that are recorded.
type Model struct {
	Options     Options      `msgpack:"options" yaml:"options"`
	Experiments []Experiment `msgpack:"expts" yaml:"expts"`
}

// Experiment is one labeling experiment of the model.
type Experiment struct {
	ID             string   `msgpack:"id" yaml:"id"`
	MeasurementIDs []string `msgpack:"data_ms" yaml:"data_ms"`
}

// Options are the solver options the model was fitted with. HPCMCR and
// HPCServe were renamed to HPCBg and HPCSched in later tool versions.
type Options struct {
	ContAlpha  float64  `msgpack:"cont_alpha" yaml:"cont_alpha"`
	ContRelTol float64  `msgpack:"cont_reltol" yaml:"cont_reltol"`
	ContSteps  float64  `msgpack:"cont_steps" yaml:"cont_steps"`
	FitNudge   float64  `msgpack:"fit_nudge" yaml:"fit_nudge"`
	FitReinit  bool     `msgpack:"fit_reinit" yaml:"fit_reinit"`
	FitRelTol  float64  `msgpack:"fit_reltol" yaml:"fit_reltol"`
	FitStarts  float64  `msgpack:"fit_starts" yaml:"fit_starts"`
	FitTau     float64  `msgpack:"fit_tau" yaml:"fit_tau"`
	HPCOn      bool     `msgpack:"hpc_on" yaml:"hpc_on"`
	IntMaxStep float64  `msgpack:"int_maxstep" yaml:"int_maxstep"`
	IntRelTol  float64  `msgpack:"int_reltol" yaml:"int_reltol"`
	IntSensTol float64  `msgpack:"int_senstol" yaml:"int_senstol"`
	IntTimeout float64  `msgpack:"int_timeout" yaml:"int_timeout"`
	IntTSpan   float64  `msgpack:"int_tspan" yaml:"int_tspan"`
	MSCorrect  bool     `msgpack:"ms_correct" yaml:"ms_correct"`
	OEDCrit    string   `msgpack:"oed_crit" yaml:"oed_crit"`
	OEDReinit  bool     `msgpack:"oed_reinit" yaml:"oed_reinit"`
	OEDTolF    float64  `msgpack:"oed_tolf" yaml:"oed_tolf"`
	OEDTolX    float64  `msgpack:"oed_tolx" yaml:"oed_tolx"`
	SimMore    bool     `msgpack:"sim_more" yaml:"sim_more"`
	SimNA      bool     `msgpack:"sim_na" yaml:"sim_na"`
	SimSens    bool     `msgpack:"sim_sens" yaml:"sim_sens"`
	SimSS      bool     `msgpack:"sim_ss" yaml:"sim_ss"`
	SimTUnit   string   `msgpack:"sim_tunit" yaml:"sim_tunit"`
	HPCMCR     *string  `msgpack:"hpc_mcr" yaml:"hpc_mcr"`
	HPCBg      *float64 `msgpack:"hpc_bg" yaml:"hpc_bg"`
	HPCServe   *string  `msgpack:"hpc_serve" yaml:"hpc_serve"`
	HPCSched   *string  `msgpack:"hpc_sched" yaml:"hpc_sched"`
}

// Fit holds the goodness of fit and the per-measurement and per-parameter
// results.
type Fit struct {
	Echi2        []float64     `msgpack:"Echi2" yaml:"Echi2"`
	Alf          float64       `msgpack:"alf" yaml:"alf"`
	Chi2         float64       `msgpack:"chi2" yaml:"chi2"`
	Dof          int           `msgpack:"dof" yaml:"dof"`
	Measurements []Measurement `msgpack:"mnt" yaml:"mnt"`
	Residuals    []Residual    `msgpack:"res" yaml:"res"`
	Parameters   []Parameter   `msgpack:"par" yaml:"par"`
}

// Measurement is the summed squared residual of one measurement set.
type Measurement struct {
	ID   string  `msgpack:"id" yaml:"id"`
	Expt string  `msgpack:"expt" yaml:"expt"`
	Type string  `msgpack:"type" yaml:"type"`
	Sres float64 `msgpack:"sres" yaml:"sres"`
}

// Residual is the fit of a single measured value.
type Residual struct {
	ID   string  `msgpack:"id" yaml:"id"`
	Expt string  `msgpack:"expt" yaml:"expt"`
	Type string  `msgpack:"type" yaml:"type"`
	Val  float64 `msgpack:"val" yaml:"val"`
	Fit  float64 `msgpack:"fit" yaml:"fit"`
	Std  float64 `msgpack:"std" yaml:"std"`
	Data float64 `msgpack:"data" yaml:"data"`
	Time float64 `msgpack:"time" yaml:"time"`
	Peak *string `msgpack:"peak" yaml:"peak"`
}

// Parameter is one fitted parameter: a net flux or a fragment norm.
type Parameter struct {
	ID   string   `msgpack:"id" yaml:"id"`
	Type string   `msgpack:"type" yaml:"type"`
	Val  *float64 `msgpack:"val" yaml:"val"`
	Std  *float64 `msgpack:"std" yaml:"std"`
	LB   *float64 `msgpack:"lb" yaml:"lb"`
	UB   *float64 `msgpack:"ub" yaml:"ub"`
	Unit string   `msgpack:"unit" yaml:"unit"`
	Alf  float64  `msgpack:"alf" yaml:"alf"`
	Free bool     `msgpack:"free" yaml:"free"`
}
