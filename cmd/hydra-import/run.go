package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"hydraimport/internal/codec"
	"hydraimport/internal/importer"
	"hydraimport/internal/runner"
	"hydraimport/internal/simulation"
)

const runPlugin = "Run Model"

type runOptions struct {
	model      string
	networkID  int64
	scenarioID int64
	overrides  []string
	outputDir  string
	format     string

	parsed []runner.Override
}

func newRunCmd(a *app) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a simulation model against an imported network",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("output-dir") {
				opts.outputDir = a.cfg.Import.OutputDir
			}
			if !cmd.Flags().Changed("format") {
				opts.format = a.cfg.Import.Format
			}
			if _, err := codec.ForFormat(opts.format); err != nil {
				return withCode(exitUsage, fmt.Errorf("invalid --format: %w", err))
			}
			for _, s := range opts.overrides {
				o, err := runner.ParseOverride(s)
				if err != nil {
					return withCode(exitUsage, err)
				}
				opts.parsed = append(opts.parsed, o)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runModel(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.model, "model", "m", "", "Simulation model file (required)")
	cmd.Flags().Int64VarP(&opts.networkID, "network-id", "n", 0, "ID of the network to run against")
	cmd.Flags().Int64VarP(&opts.scenarioID, "scenario-id", "s", 0, "ID of the scenario to run")
	cmd.Flags().StringArrayVar(&opts.overrides, "set", nil, "Override an exogenous input before the run, as slot[index]=value (repeatable)")
	cmd.Flags().StringVarP(&opts.outputDir, "output-dir", "o", "", "Directory for the network snapshot")
	cmd.Flags().StringVar(&opts.format, "format", "json", "Report and snapshot format: json or yaml")
	_ = cmd.MarkFlagRequired("model")

	return cmd
}

func (a *app) runModel(ctx context.Context, opts runOptions) error {
	start := time.Now()
	report := importer.NewReport(runPlugin)

	err := a.executeRun(ctx, opts, report)
	a.elapsed("run", start, err)
	if err != nil {
		report.Fail(err, a.log)
	}

	if printErr := a.printReport(report, opts.format); printErr != nil {
		return printErr
	}
	if !report.OK() {
		return errReported
	}
	return nil
}

func (a *app) executeRun(ctx context.Context, opts runOptions, report *importer.Report) error {
	c, err := a.connect(ctx)
	if err != nil {
		return err
	}

	progress := importer.NewProgressBus()
	progress.Subscribe(func(e importer.ProgressEvent) {
		a.log.Debug("progress", zap.Int("step", e.Step), zap.Int("total", e.Total))
	})

	provider := simulation.NewFileProvider(opts.model, nil, a.log.Named("simulation"))
	r := runner.New(c, provider, progress, a.log.Named("runner"))

	result, err := r.Run(ctx, runner.Options{
		NetworkID:  opts.networkID,
		ScenarioID: opts.scenarioID,
		Overrides:  opts.parsed,
	})
	if err != nil {
		return err
	}

	report.NetworkID = result.Network.ID
	report.ScenarioIDs = []int64{opts.scenarioID}
	report.Warn(result.Warnings...)
	report.Message = runner.CompleteMessage

	if opts.outputDir != "" {
		exporter, err := codec.ForFormat(opts.format)
		if err != nil {
			return err
		}
		path, err := codec.WriteSnapshot(opts.outputDir, "network", result.Network.Name, exporter, result.Network)
		if err != nil {
			return err
		}
		report.AddFile(path)
	}
	return nil
}
