package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vk/isoflux/internal/artifact"
	"github.com/vk/isoflux/internal/ctxlog"
	"github.com/vk/isoflux/internal/dispatch"
	"github.com/vk/isoflux/internal/equation"
	"github.com/vk/isoflux/internal/network"
	"github.com/vk/isoflux/internal/results"
	"github.com/vk/isoflux/internal/script"
)

// ErrUnknownSimulation is returned when a requested simulation or reaction
// is not defined by the loaded network.
var ErrUnknownSimulation = errors.New("unknown simulation")

// Artifact names written under the simulation (and run) prefix.
const (
	scriptName  = "script.m"
	recordsName = "records.yaml"
	resultName  = "result"
)

// App encapsulates the dependencies of one invocation.
type App struct {
	outW      io.Writer
	logger    *slog.Logger
	config    *Config
	loader    network.Loader
	builder   *equation.Builder
	extractor *results.Extractor
	store     artifact.Store
	dial      func(context.Context, dispatch.Config) (estimator, error)
}

// estimator is the part of dispatch.Client used by Submit.
type estimator interface {
	Estimate(ctx context.Context, req dispatch.Request) (*dispatch.Response, error)
	Close() error
}

// NewApp wires an App. Scripts, equations and records go to outW unless the
// config names an output location; logs go to logW.
func NewApp(outW, logW io.Writer, cfg *Config, loader network.Loader) (*App, error) {
	a := &App{
		outW:      outW,
		logger:    newLogger(cfg.LogLevel, cfg.LogFormat, logW),
		config:    cfg,
		loader:    loader,
		builder:   equation.New(equation.WithTolerance(cfg.Tolerance)),
		extractor: results.NewExtractor(nil),
		dial: func(ctx context.Context, c dispatch.Config) (estimator, error) {
			return dispatch.Dial(ctx, c)
		},
	}
	if cfg.Output != "" {
		store, err := artifact.Open(cfg.Output, cfg.artifactConfig())
		if err != nil {
			return nil, fmt.Errorf("failed to open output %q: %w", cfg.Output, err)
		}
		a.store = store
	}
	return a, nil
}

// Logger returns the application's configured logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

func (a *App) context(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}

// Compile loads the network at paths and emits the full estimation script of
// the chosen simulation.
func (a *App) Compile(ctx context.Context, paths []string, simulationID string) error {
	ctx = a.context(ctx)
	net, sim, err := a.load(ctx, paths, simulationID)
	if err != nil {
		return err
	}
	text, err := a.render(ctx, net, sim)
	if err != nil {
		return err
	}
	return a.emit(ctx, path.Join(sim.ID, scriptName), []byte(text))
}

// Equation prints the equation of one reaction, or of every reaction as
// "id: equation" lines when reactionID is empty.
func (a *App) Equation(ctx context.Context, paths []string, reactionID string) error {
	ctx = a.context(ctx)
	net, err := a.loader.Load(ctx, paths...)
	if err != nil {
		return fmt.Errorf("failed to load network: %w", err)
	}

	if reactionID != "" {
		r := net.Reaction(reactionID)
		if r == nil {
			return fmt.Errorf("reaction %q: %w", reactionID, network.ErrInvalidNetwork)
		}
		_, err = fmt.Fprintln(a.outW, a.builder.BuildReaction(ctx, r))
		return err
	}

	eqs, err := a.builder.BuildAll(ctx, net.Reactions, a.config.Workers)
	if err != nil {
		return err
	}
	for i, r := range net.Reactions {
		if _, err := fmt.Fprintf(a.outW, "%s: %s\n", r.ID, eqs[i]); err != nil {
			return err
		}
	}
	return nil
}

// IngestRequest names a result container and the simulation it belongs to.
// Path is a local file or a file:// or s3:// object URI.
// When NetworkPaths is set the simulation is looked up there; otherwise the
// experiment ids and sample names are taken as given.
type IngestRequest struct {
	Path                    string
	SimulationID            string
	NetworkPaths            []string
	ExperimentIDs           []string
	SampleNameAbbreviations []string
}

// Ingest extracts the records of a result container and writes them as YAML.
func (a *App) Ingest(ctx context.Context, req IngestRequest) error {
	ctx = a.context(ctx)
	info := results.SimulationInfo{
		SimulationID:            req.SimulationID,
		ExperimentIDs:           req.ExperimentIDs,
		SampleNameAbbreviations: req.SampleNameAbbreviations,
	}
	if len(req.NetworkPaths) > 0 {
		_, sim, err := a.load(ctx, req.NetworkPaths, req.SimulationID)
		if err != nil {
			return err
		}
		info = results.InfoFor(sim)
	}
	if info.SimulationID == "" {
		return errors.New("a simulation id is required to ingest results")
	}

	recs, err := a.extract(ctx, req.Path, info)
	if err != nil {
		return fmt.Errorf("failed to extract %s: %w", req.Path, err)
	}
	return a.emitRecords(ctx, path.Join(info.SimulationID, recordsName), recs)
}

// extract reads a container from a local path, or through the artifact store
// when source is a file:// or s3:// object URI. Store objects carry no
// modification time, so their records are stamped with the ingestion time.
func (a *App) extract(ctx context.Context, source string, info results.SimulationInfo) (*results.Records, error) {
	location, key, ok := artifact.SplitURI(source)
	if !ok {
		return a.extractor.Extract(ctx, source, info)
	}
	store, err := artifact.Open(location, a.config.artifactConfig())
	if err != nil {
		return nil, err
	}
	dec, err := results.DecoderFor(key)
	if err != nil {
		return nil, err
	}
	data, err := store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return a.extractor.ExtractData(ctx, data, dec, info, results.Source{Filename: source, ModTime: time.Now()})
}

// Submit compiles the script of a simulation, sends it to the estimation
// worker and ingests the returned container. Artifacts are stored under a
// fresh run id.
func (a *App) Submit(ctx context.Context, paths []string, simulationID string) error {
	if a.config.Dispatch.URL == "" {
		return errors.New("a dispatch URL is required to submit")
	}
	runID := uuid.NewString()
	logger := a.logger.With("run_id", runID)
	ctx = ctxlog.WithLogger(ctx, logger)

	net, sim, err := a.load(ctx, paths, simulationID)
	if err != nil {
		return err
	}
	text, err := a.render(ctx, net, sim)
	if err != nil {
		return err
	}
	prefix := path.Join(sim.ID, runID)
	if a.store != nil {
		if err := a.store.Put(ctx, path.Join(prefix, scriptName), []byte(text)); err != nil {
			return err
		}
	}

	client, err := a.dial(ctx, a.config.dispatchConfig())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := client.Close(); cerr != nil {
			logger.Warn("Failed to close dispatch client.", "error", cerr)
		}
	}()

	resp, err := client.Estimate(ctx, dispatch.Request{
		SimulationID: sim.ID,
		Script:       text,
		Format:       a.config.Dispatch.Format,
	})
	if err != nil {
		return fmt.Errorf("estimation of %s failed: %w", sim.ID, err)
	}

	key := path.Join(prefix, resultName+"."+extensionFor(resp.Format))
	if a.store != nil {
		if err := a.store.Put(ctx, key, resp.Container); err != nil {
			return err
		}
	}
	dec, err := results.DecoderFor(key)
	if err != nil {
		return err
	}
	recs, err := a.extractor.ExtractData(ctx, resp.Container, dec, results.InfoFor(sim), results.Source{
		Filename: key,
		ModTime:  time.Now(),
	})
	if err != nil {
		return err
	}
	return a.emitRecords(ctx, path.Join(prefix, recordsName), recs)
}

// load reads the network and resolves the simulation to run.
func (a *App) load(ctx context.Context, paths []string, simulationID string) (*network.Network, *network.Simulation, error) {
	net, err := a.loader.Load(ctx, paths...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load network: %w", err)
	}
	sim, err := selectSimulation(net, simulationID)
	if err != nil {
		return nil, nil, err
	}
	ctxlog.FromContext(ctx).Debug("Simulation selected.", "simulation", sim.ID)
	return net, sim, nil
}

// selectSimulation returns the named simulation. Without a name, the only
// defined simulation is used, or a default one covering every experiment
// when the network defines none.
func selectSimulation(net *network.Network, id string) (*network.Simulation, error) {
	if id != "" {
		sim, ok := net.Simulations[id]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownSimulation, id)
		}
		return sim, nil
	}
	switch len(net.Simulations) {
	case 0:
		return &network.Simulation{
			ID:         uuid.NewString(),
			ParallelBy: network.ParallelByExperiment,
			Stationary: true,
			FitStarts:  defaultFitStarts,
			Restarts:   defaultRestarts,
		}, nil
	case 1:
		for _, sim := range net.Simulations {
			return sim, nil
		}
	}
	ids := make([]string, 0, len(net.Simulations))
	for id := range net.Simulations {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return nil, fmt.Errorf("several simulations are defined, choose one of: %s", strings.Join(ids, ", "))
}

// Defaults of a simulation synthesized for a network that defines none.
const (
	defaultFitStarts = 10
	defaultRestarts  = 10
)

func (a *App) render(ctx context.Context, net *network.Network, sim *network.Simulation) (string, error) {
	eqs, err := a.builder.BuildAll(ctx, net.Reactions, a.config.Workers)
	if err != nil {
		return "", err
	}
	return script.Full(net, sim, eqs)
}

// emit writes an artifact to the store, or to the output stream when no
// output location is configured.
func (a *App) emit(ctx context.Context, key string, content []byte) error {
	if a.store == nil {
		_, err := a.outW.Write(content)
		return err
	}
	if err := a.store.Put(ctx, key, content); err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Info("Artifact written.", "key", key, "bytes", len(content))
	return nil
}

func (a *App) emitRecords(ctx context.Context, key string, recs *results.Records) error {
	var buf bytes.Buffer
	if err := recs.WriteYAML(&buf); err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}
	ctxlog.FromContext(ctx).Info("Records extracted.",
		"simulation_parameters", len(recs.SimulationParameters),
		"fitted_fluxes", len(recs.FittedFluxes),
		"fitted_fragments", len(recs.FittedFragments),
	)
	return a.emit(ctx, key, buf.Bytes())
}

func extensionFor(format string) string {
	switch format {
	case "yaml", "json":
		return format
	default:
		return "msgpack"
	}
}
