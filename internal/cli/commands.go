package cli

import (
	"github.com/spf13/cobra"
	"github.com/vk/isoflux/internal/app"
)

func newCompileCommand(runner func() Runner) *cobra.Command {
	var simulationID string
	cmd := &cobra.Command{
		Use:   "compile PATH...",
		Short: "Emit the estimation script of a simulation",
		Long: `Load the network from .hcl files (or directories of them) and emit the
full estimation script of one simulation: model, options, experiments,
estimation and continuation.`,
		Args: usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runner().Compile(cmd.Context(), args, simulationID)
		},
	}
	cmd.Flags().StringVarP(&simulationID, "simulation", "s", "", "Simulation id. Optional when the network defines at most one.")
	return cmd
}

func newEquationCommand(runner func() Runner) *cobra.Command {
	var reactionID string
	cmd := &cobra.Command{
		Use:   "equation PATH...",
		Short: "Print isotopomer reaction equations",
		Args:  usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runner().Equation(cmd.Context(), args, reactionID)
		},
	}
	cmd.Flags().StringVarP(&reactionID, "reaction", "r", "", "Reaction id. Prints every reaction when empty.")
	return cmd
}

func newIngestCommand(runner func() Runner) *cobra.Command {
	var req app.IngestRequest
	cmd := &cobra.Command{
		Use:   "ingest FILE",
		Short: "Extract records from a result container",
		Long: `Decode a result container (.msgpack, .yaml or .json) and write the
extracted simulation parameters, fit summary, residuals and fitted
parameters as YAML records.`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Path = args[0]
			return runner().Ingest(cmd.Context(), req)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&req.SimulationID, "simulation", "s", "", "Simulation id the container belongs to.")
	f.StringSliceVarP(&req.NetworkPaths, "network", "n", nil, "Network paths to look the simulation up in.")
	f.StringSliceVar(&req.ExperimentIDs, "experiment", nil, "Experiment ids, when no network is given.")
	f.StringSliceVar(&req.SampleNameAbbreviations, "sample", nil, "Sample name abbreviations, when no network is given.")
	return cmd
}

func newSubmitCommand(cfg *app.Config, runner func() Runner) *cobra.Command {
	var simulationID string
	cmd := &cobra.Command{
		Use:   "submit PATH...",
		Short: "Compile a simulation, run it on an estimation worker and ingest the result",
		Args:  usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runner().Submit(cmd.Context(), args, simulationID)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&simulationID, "simulation", "s", "", "Simulation id. Optional when the network defines at most one.")
	f.StringVar(&cfg.Dispatch.URL, "url", cfg.Dispatch.URL, "Estimation worker URL.")
	f.StringVar(&cfg.Dispatch.Namespace, "namespace", cfg.Dispatch.Namespace, "Socket.IO namespace of the worker.")
	f.DurationVar(&cfg.Dispatch.RequestTimeout, "timeout", cfg.Dispatch.RequestTimeout, "How long to wait for the estimation result.")
	f.BoolVar(&cfg.Dispatch.InsecureSkipVerify, "insecure", cfg.Dispatch.InsecureSkipVerify, "Skip TLS certificate verification.")
	f.StringVar(&cfg.Dispatch.Format, "format", cfg.Dispatch.Format, "Result container format: 'msgpack', 'yaml' or 'json'.")
	return cmd
}
