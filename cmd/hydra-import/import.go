package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"hydraimport/internal/codec"
	"hydraimport/internal/domain"
	"hydraimport/internal/importer"
	"hydraimport/internal/loader"
	"hydraimport/internal/watcher"
)

const (
	importPlugin   = "Import Network"
	importComplete = "Import Complete"
)

type importOptions struct {
	model       string
	simulation  string
	templateID  int64
	projectID   int64
	outputDir   string
	format      string
	watch       bool
	strictNames bool
}

func newImportCmd(a *app) *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import the network of a simulation model",
		Long: `Import reads a simulation model file, builds the network of its first
simulation (or the one named by --simulation) against a template, stores it
as a new network and adds a Baseline scenario holding the institution
memberships. Every run creates a new network.`,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("template-id") {
				opts.templateID = a.cfg.Import.TemplateID
			}
			if !cmd.Flags().Changed("project-id") {
				opts.projectID = a.cfg.Import.ProjectID
			}
			if !cmd.Flags().Changed("output-dir") {
				opts.outputDir = a.cfg.Import.OutputDir
			}
			if !cmd.Flags().Changed("format") {
				opts.format = a.cfg.Import.Format
			}
			if !cmd.Flags().Changed("strict-names") {
				opts.strictNames = a.cfg.Import.StrictNames
			}
			if _, err := codec.ForFormat(opts.format); err != nil {
				return withCode(exitUsage, fmt.Errorf("invalid --format: %w", err))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if !opts.watch {
				return a.importOnce(ctx, opts)
			}
			return a.watchImport(ctx, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.model, "model", "m", "", "Simulation model file (required)")
	cmd.Flags().StringVar(&opts.simulation, "simulation", "", "Simulation whose network is imported (default: the first)")
	cmd.Flags().Int64VarP(&opts.templateID, "template-id", "t", 0, "ID of the template the network is built against")
	cmd.Flags().Int64VarP(&opts.projectID, "project-id", "p", 0, "ID of the target project (default: create a new project)")
	cmd.Flags().StringVarP(&opts.outputDir, "output-dir", "o", "", "Directory for network and scenario snapshots")
	cmd.Flags().StringVar(&opts.format, "format", "json", "Report and snapshot format: json or yaml")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "Import again whenever the model file changes")
	cmd.Flags().BoolVar(&opts.strictNames, "strict-names", false, "Fail on duplicate entity names instead of keeping the last")
	_ = cmd.MarkFlagRequired("model")

	return cmd
}

// importOnce runs one import and prints its report
func (a *app) importOnce(ctx context.Context, opts importOptions) error {
	start := time.Now()
	report := importer.NewReport(importPlugin)

	err := a.runImport(ctx, opts, report)
	a.elapsed("import", start, err)
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

func (a *app) runImport(ctx context.Context, opts importOptions, report *importer.Report) error {
	a.log.Info("Starting App")

	src, err := loadNetwork(opts.model, opts.simulation)
	if err != nil {
		return err
	}

	c, err := a.connect(ctx)
	if err != nil {
		return err
	}

	progress := importer.NewProgressBus()
	progress.Subscribe(func(e importer.ProgressEvent) {
		a.log.Info("progress",
			zap.String("stage", string(e.Stage)),
			zap.Int("step", e.Step),
			zap.Int("total", e.Total),
			zap.String("detail", e.Message))
	})

	imp := importer.New(c, a.log.Named("importer"),
		importer.WithMetrics(a.metrics),
		importer.WithProgress(progress),
	)
	result, err := imp.Run(ctx, src, importer.Options{
		TemplateID:  opts.templateID,
		ProjectID:   opts.projectID,
		StrictNames: opts.strictNames,
		Projection:  a.cfg.Import.Projection,
		NetworkName: a.cfg.Import.NetworkName,
		ProjectName: a.cfg.Import.ProjectName,
	})
	if err != nil {
		return err
	}

	report.NetworkID = result.Network.ID
	report.ScenarioIDs = []int64{result.Scenario.ID}
	report.Warn(result.Warnings...)
	report.Message = importComplete

	if opts.outputDir != "" {
		if err := a.writeSnapshots(opts, result, report); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) writeSnapshots(opts importOptions, result *importer.Result, report *importer.Report) error {
	exporter, err := codec.ForFormat(opts.format)
	if err != nil {
		return err
	}
	path, err := codec.WriteSnapshot(opts.outputDir, "network", result.Network.Name, exporter, result.Network)
	if err != nil {
		return err
	}
	report.AddFile(path)

	path, err = codec.WriteSnapshot(opts.outputDir, "scenario",
		fmt.Sprintf("%d_%s", result.Network.ID, result.Scenario.Name), exporter, result.Scenario)
	if err != nil {
		return err
	}
	report.AddFile(path)

	a.log.Info("snapshots written", zap.Strings("files", report.Files))
	return nil
}

// watchImport imports once, then again after every change to the model
func (a *app) watchImport(ctx context.Context, opts importOptions) error {
	if err := a.importOnce(ctx, opts); err != nil && !errors.Is(err, errReported) {
		return err
	}

	w := watcher.New(opts.model, func(ctx context.Context) {
		if err := a.importOnce(ctx, opts); err != nil && !errors.Is(err, errReported) {
			a.log.Error("import failed", zap.Error(err))
		}
	}, a.log.Named("watcher")).WithDebounce(a.cfg.Watch.Debounce.Duration())

	err := w.Watch(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// loadNetwork returns the network of the named simulation, or of the first
// one when name is empty
func loadNetwork(path, name string) (*domain.SourceNetwork, error) {
	model, err := loader.LoadYAML(path)
	if err != nil {
		return nil, err
	}
	for _, sim := range model.Simulations {
		if name == "" || sim.Name == name {
			if sim.Network == nil {
				return nil, fmt.Errorf("simulation %q has no network", sim.Name)
			}
			return sim.Network, nil
		}
	}
	return nil, fmt.Errorf("model %s has no simulation named %q", path, name)
}
