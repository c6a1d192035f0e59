package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/isoflux/internal/artifact"
	"github.com/vk/isoflux/internal/dispatch"
	"github.com/vk/isoflux/internal/network"
)

// staticLoader returns a fixed network regardless of the paths it is given.
type staticLoader struct {
	net *network.Network
	err error
}

func (l staticLoader) Load(_ context.Context, _ ...string) (*network.Network, error) {
	return l.net, l.err
}

func testNetwork() *network.Network {
	n := network.New()
	n.Reactions = []*network.Reaction{
		{ID: "R1", Reversible: true, LowerBound: -1000, UpperBound: 1000, Equation: "A <-> B"},
		{ID: "R2", LowerBound: 0, UpperBound: 1000, Equation: "B -> C"},
	}
	n.Simulations["sim01"] = &network.Simulation{
		ID:            "sim01",
		ExperimentIDs: []string{"exp01"},
		ParallelBy:    network.ParallelByExperiment,
		Stationary:    true,
		FitStarts:     10,
		Restarts:      10,
	}
	return n
}

func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg, err := loadConfig(envOptions(nil))
	require.NoError(t, err)
	validated, err := NewConfig(cfg)
	require.NoError(t, err)
	return validated
}

func newTestApp(t *testing.T, cfg *Config, net *network.Network) (*App, *bytes.Buffer, *SafeBuffer) {
	t.Helper()
	out := &bytes.Buffer{}
	logs := &SafeBuffer{}
	a, err := NewApp(out, logs, cfg, staticLoader{net: net})
	require.NoError(t, err)
	return a, out, logs
}

func TestCompile_WritesScriptToOutput(t *testing.T) {
	// Arrange
	a, out, _ := newTestApp(t, testConfig(t), testNetwork())

	// Act
	err := a.Compile(context.Background(), []string{"net"}, "sim01")

	// Assert
	require.NoError(t, err)
	script := out.String()
	assert.Contains(t, script, "A <-> B")
	assert.Contains(t, script, "B -> C")
	assert.Contains(t, script, "m = model(r);")
	assert.Contains(t, script, "m.options.fit_starts = 10;")
}

func TestCompile_StoresScriptUnderSimulation(t *testing.T) {
	// Arrange
	cfg := testConfig(t)
	cfg.Output = t.TempDir()
	a, out, logs := newTestApp(t, cfg, testNetwork())

	// Act
	err := a.Compile(context.Background(), nil, "")

	// Assert
	require.NoError(t, err)
	assert.Empty(t, out.String())
	content, err := os.ReadFile(filepath.Join(cfg.Output, "sim01", "script.m"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "m = model(r);")
	assert.Contains(t, logs.String(), "Artifact written.")
}

func TestCompile_Errors(t *testing.T) {
	t.Run("unknown simulation", func(t *testing.T) {
		a, _, _ := newTestApp(t, testConfig(t), testNetwork())
		err := a.Compile(context.Background(), nil, "nope")
		require.ErrorIs(t, err, ErrUnknownSimulation)
	})

	t.Run("loader failure", func(t *testing.T) {
		boom := errors.New("boom")
		a, err := NewApp(&bytes.Buffer{}, &SafeBuffer{}, testConfig(t), staticLoader{err: boom})
		require.NoError(t, err)
		err = a.Compile(context.Background(), nil, "sim01")
		require.ErrorIs(t, err, boom)
	})
}

func TestSelectSimulation(t *testing.T) {
	t.Run("single simulation is implied", func(t *testing.T) {
		sim, err := selectSimulation(testNetwork(), "")
		require.NoError(t, err)
		assert.Equal(t, "sim01", sim.ID)
	})

	t.Run("default simulation gets a fresh id", func(t *testing.T) {
		sim, err := selectSimulation(network.New(), "")
		require.NoError(t, err)
		_, err = uuid.Parse(sim.ID)
		require.NoError(t, err)
		assert.True(t, sim.Stationary)
		assert.Equal(t, network.ParallelByExperiment, sim.ParallelBy)
		assert.Equal(t, defaultRestarts, sim.Restarts)
	})

	t.Run("ambiguous", func(t *testing.T) {
		n := testNetwork()
		n.Simulations["sim02"] = &network.Simulation{ID: "sim02"}
		_, err := selectSimulation(n, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sim01, sim02")
	})
}

func TestEquation(t *testing.T) {
	t.Run("single reaction", func(t *testing.T) {
		a, out, _ := newTestApp(t, testConfig(t), testNetwork())
		require.NoError(t, a.Equation(context.Background(), nil, "R2"))
		assert.Equal(t, "B -> C\n", out.String())
	})

	t.Run("all reactions in order", func(t *testing.T) {
		a, out, _ := newTestApp(t, testConfig(t), testNetwork())
		require.NoError(t, a.Equation(context.Background(), nil, ""))
		assert.Equal(t, "R1: A <-> B\nR2: B -> C\n", out.String())
	})

	t.Run("unknown reaction", func(t *testing.T) {
		a, _, _ := newTestApp(t, testConfig(t), testNetwork())
		err := a.Equation(context.Background(), nil, "R9")
		require.ErrorIs(t, err, network.ErrInvalidNetwork)
	})
}

const resultYAML = `
m:
  options:
    fit_starts: 10
    sim_tunit: h
f:
  alf: 0.05
  chi2: 12.5
  dof: 4
  mnt:
    - {id: R1, expt: exp01, type: Flux, sres: 1.25}
  par:
    - {id: R1, type: Net flux, val: 3.5, std: 0.1, lb: 3.3, ub: 3.7, unit: mmol*gDCW-1*hr-1, alf: 0.05, free: true}
`

func TestIngest_WithNetwork(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	path := filepath.Join(dir, "sim01.yaml")
	require.NoError(t, os.WriteFile(path, []byte(resultYAML), 0o644))
	a, out, _ := newTestApp(t, testConfig(t), testNetwork())

	// Act
	err := a.Ingest(context.Background(), IngestRequest{
		Path:         path,
		SimulationID: "sim01",
		NetworkPaths: []string{"net"},
	})

	// Assert
	require.NoError(t, err)
	records := out.String()
	assert.Contains(t, records, "simulation_id: sim01")
	assert.Contains(t, records, "rxn_id: R1")
	assert.Contains(t, records, "experiment_id: exp01")
	assert.Contains(t, records, "fitted_chi2: 12.5")
}

func TestIngest_FromStoreURI(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "runs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "runs", "sim01.yaml"), []byte(resultYAML), 0o644))
	a, out, _ := newTestApp(t, testConfig(t), testNetwork())

	// Act
	err := a.Ingest(context.Background(), IngestRequest{
		Path:          "file://" + filepath.ToSlash(filepath.Join(dir, "runs", "sim01.yaml")),
		SimulationID:  "sim01",
		ExperimentIDs: []string{"exp01"},
	})

	// Assert
	require.NoError(t, err)
	assert.Contains(t, out.String(), "rxn_id: R1")
	assert.Contains(t, out.String(), "original_filename: file://")
}

func TestIngest_MissingStoreObject(t *testing.T) {
	a, _, _ := newTestApp(t, testConfig(t), testNetwork())
	err := a.Ingest(context.Background(), IngestRequest{
		Path:         "file://" + filepath.ToSlash(filepath.Join(t.TempDir(), "missing.yaml")),
		SimulationID: "sim01",
	})
	require.ErrorIs(t, err, artifact.ErrNotFound)
}

func TestIngest_Errors(t *testing.T) {
	a, _, _ := newTestApp(t, testConfig(t), testNetwork())

	err := a.Ingest(context.Background(), IngestRequest{Path: "missing.yaml"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "simulation id is required")

	err = a.Ingest(context.Background(), IngestRequest{Path: "missing.yaml", SimulationID: "sim01"})
	require.ErrorIs(t, err, os.ErrNotExist)
}

type fakeEstimator struct {
	got    dispatch.Request
	resp   *dispatch.Response
	err    error
	closed bool
}

func (f *fakeEstimator) Estimate(_ context.Context, req dispatch.Request) (*dispatch.Response, error) {
	f.got = req
	return f.resp, f.err
}

func (f *fakeEstimator) Close() error {
	f.closed = true
	return nil
}

func TestSubmit_StoresRunArtifacts(t *testing.T) {
	// Arrange
	cfg := testConfig(t)
	cfg.Output = t.TempDir()
	cfg.Dispatch.URL = "http://worker.invalid"
	cfg.Dispatch.Format = "yaml"
	a, _, _ := newTestApp(t, cfg, testNetwork())
	fake := &fakeEstimator{resp: &dispatch.Response{SimulationID: "sim01", Format: "yaml", Container: []byte(resultYAML)}}
	a.dial = func(context.Context, dispatch.Config) (estimator, error) { return fake, nil }

	// Act
	err := a.Submit(context.Background(), nil, "sim01")

	// Assert
	require.NoError(t, err)
	assert.True(t, fake.closed)
	assert.Equal(t, "sim01", fake.got.SimulationID)
	assert.Equal(t, "yaml", fake.got.Format)
	assert.Contains(t, fake.got.Script, "m = model(r);")

	runs, err := os.ReadDir(filepath.Join(cfg.Output, "sim01"))
	require.NoError(t, err)
	require.Len(t, runs, 1)
	_, err = uuid.Parse(runs[0].Name())
	require.NoError(t, err)

	runDir := filepath.Join(cfg.Output, "sim01", runs[0].Name())
	for _, name := range []string{"script.m", "result.yaml", "records.yaml"} {
		assert.FileExists(t, filepath.Join(runDir, name))
	}
	records, err := os.ReadFile(filepath.Join(runDir, "records.yaml"))
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(records), "fitted_sres: 1.25"))
}

func TestSubmit_Errors(t *testing.T) {
	t.Run("no dispatch url", func(t *testing.T) {
		a, _, _ := newTestApp(t, testConfig(t), testNetwork())
		err := a.Submit(context.Background(), nil, "sim01")
		require.Error(t, err)
	})

	t.Run("estimation failure closes the client", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Dispatch.URL = "http://worker.invalid"
		a, _, _ := newTestApp(t, cfg, testNetwork())
		fake := &fakeEstimator{err: dispatch.ErrTimeout}
		a.dial = func(context.Context, dispatch.Config) (estimator, error) { return fake, nil }

		err := a.Submit(context.Background(), nil, "sim01")
		require.ErrorIs(t, err, dispatch.ErrTimeout)
		assert.True(t, fake.closed)
	})
}
