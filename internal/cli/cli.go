package cli

import (
	"context"
	"errors"
	"io"

	"github.com/spf13/cobra"
	"github.com/vk/isoflux/internal/app"
	"github.com/vk/isoflux/internal/hcl"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// usageError marks err as a command-line mistake (exit code 2).
func usageError(err error) error {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}
	return &ExitError{Code: 2, Message: err.Error()}
}

// Runner is what the commands drive. *app.App implements it.
type Runner interface {
	Compile(ctx context.Context, paths []string, simulationID string) error
	Equation(ctx context.Context, paths []string, reactionID string) error
	Ingest(ctx context.Context, req app.IngestRequest) error
	Submit(ctx context.Context, paths []string, simulationID string) error
}

// RunnerFactory builds a Runner once flags are parsed and the configuration
// is final.
type RunnerFactory func(cfg *app.Config) (Runner, error)

// Execute loads the environment configuration, parses args and runs the
// selected command. Usage mistakes are returned as *ExitError with code 2.
func Execute(ctx context.Context, args []string, outW, errW io.Writer) error {
	cfg, err := app.LoadConfig()
	if err != nil {
		return usageError(err)
	}
	factory := func(cfg *app.Config) (Runner, error) {
		return app.NewApp(outW, errW, cfg, hcl.NewLoader())
	}
	return execute(ctx, NewRootCommand(&cfg, outW, errW, factory), args)
}

func execute(ctx context.Context, root *cobra.Command, args []string) error {
	root.SetArgs(args)
	started := false
	prev := root.PersistentPreRunE
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		started = true
		if prev != nil {
			return prev(cmd, args)
		}
		return nil
	}
	if err := root.ExecuteContext(ctx); err != nil {
		if !started {
			return usageError(err)
		}
		return err
	}
	return nil
}

// NewRootCommand builds the isoflux command tree. Flag defaults come from
// cfg, and parsed flags are written back into it.
func NewRootCommand(cfg *app.Config, outW, errW io.Writer, newRunner RunnerFactory) *cobra.Command {
	var runner Runner

	root := &cobra.Command{
		Use:   "isoflux",
		Short: "Isotopomer MFA model compiler",
		Long: `isoflux compiles metabolic networks with atom mappings, measured fluxes,
MS fragments and tracers into INCA estimation scripts, submits them to an
estimation worker and extracts the fitted results into flat records.

Configuration is read from ISOFLUX_* environment variables (and a .env file);
flags take precedence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			validated, err := app.NewConfig(*cfg)
			if err != nil {
				return usageError(err)
			}
			r, err := newRunner(validated)
			if err != nil {
				return err
			}
			runner = r
			return nil
		},
	}
	root.SetOut(outW)
	root.SetErr(errW)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	pf := root.PersistentFlags()
	pf.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	pf.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log output format. Options: 'text' or 'json'.")
	pf.IntVar(&cfg.Workers, "workers", cfg.Workers, "Number of concurrent equation builds.")
	pf.Float64Var(&cfg.Tolerance, "tolerance", cfg.Tolerance, "Tolerance when matching stoichiometries.")
	pf.StringVarP(&cfg.Output, "out", "o", cfg.Output, "Artifact location: a directory, file:// or s3://bucket/prefix. Empty prints to stdout.")

	current := func() Runner { return runner }
	root.AddCommand(
		newCompileCommand(current),
		newEquationCommand(current),
		newIngestCommand(current),
		newSubmitCommand(cfg, current),
	)
	return root
}

func usageArgs(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			return usageError(err)
		}
		return nil
	}
}
