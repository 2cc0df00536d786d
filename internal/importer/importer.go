// Package importer turns a simulation model network into a persisted
// network and its baseline scenario.
package importer

import (
	"context"
	"fmt"
	"time"

	"hydraimport/internal/domain"
	"hydraimport/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Options control a single import run
type Options struct {
	TemplateID  int64
	ProjectID   int64
	StrictNames bool
	Projection  string
	NetworkName string
	ProjectName string
}

// Result is what a successful import produced
type Result struct {
	Project  *domain.Project
	Network  *domain.Network
	Scenario *domain.Scenario
	Members  []domain.GroupMember
	Warnings []string
}

// Importer runs the import pipeline against a persistence service
type Importer struct {
	svc      Service
	log      *zap.Logger
	metrics  *observability.Metrics
	progress *ProgressBus
	now      func() time.Time
	tracer   trace.Tracer
}

// Option configures an Importer
type Option func(*Importer)

// WithMetrics records entity counts on m
func WithMetrics(m *observability.Metrics) Option {
	return func(i *Importer) { i.metrics = m }
}

// WithProgress publishes stage completion on bus
func WithProgress(bus *ProgressBus) Option {
	return func(i *Importer) { i.progress = bus }
}

// WithClock overrides the clock used for generated names
func WithClock(now func() time.Time) Option {
	return func(i *Importer) { i.now = now }
}

// New creates an Importer
func New(svc Service, log *zap.Logger, opts ...Option) *Importer {
	if log == nil {
		log = zap.NewNop()
	}
	i := &Importer{
		svc:    svc,
		log:    log,
		now:    time.Now,
		tracer: observability.Tracer("hydraimport/importer"),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Run imports src. Stages run strictly in order and the first failure stops
// the run. Nothing already created on the service is rolled back.
func (i *Importer) Run(ctx context.Context, src *domain.SourceNetwork, opts Options) (*Result, error) {
	if src == nil {
		return nil, fmt.Errorf("import: nil source network")
	}

	ctx, span := i.tracer.Start(ctx, "importer.Run", trace.WithAttributes(
		attribute.Int64("template_id", opts.TemplateID),
		attribute.Int64("project_id", opts.ProjectID),
	))
	defer span.End()

	result, err := i.run(ctx, src, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.Int64("network_id", result.Network.ID),
		attribute.Int64("scenario_id", result.Scenario.ID),
	)
	return result, nil
}

func (i *Importer) run(ctx context.Context, src *domain.SourceNetwork, opts Options) (*Result, error) {
	registry := NewTypeRegistry(i.svc, i.log.Named("registry"))
	projects := NewProjectResolver(i.svc, opts.ProjectName, i.log.Named("project"))
	projects.now = i.now
	builder := NewNetworkBuilder(registry, projects, i.svc, BuildOptions{
		StrictNames: opts.StrictNames,
		Projection:  opts.Projection,
		NetworkName: opts.NetworkName,
	}, i.log.Named("builder"))
	builder.now = i.now
	builder.metrics = i.metrics
	flattener := NewGroupHierarchyFlattener(i.log.Named("flatten"))
	flattener.metrics = i.metrics
	scenarios := NewScenarioAssembler(i.svc, i.log.Named("scenario"))

	err := i.stage(ctx, StageTemplate, func(ctx context.Context) error {
		if _, err := registry.LoadTemplate(ctx, opts.TemplateID); err != nil {
			return err
		}
		return registry.LoadAttributes(ctx, opts.TemplateID)
	})
	if err != nil {
		return nil, err
	}

	var built *BuildResult
	err = i.stage(ctx, StageBuild, func(ctx context.Context) error {
		var err error
		built, err = builder.Build(src)
		return err
	})
	if err != nil {
		return nil, err
	}

	// Commit resolves the project itself; the project stage is reported
	// together with the network stage.
	var network *domain.Network
	err = i.stage(ctx, StageNetwork, func(ctx context.Context) error {
		var err error
		network, err = builder.Commit(ctx, built, opts.ProjectID)
		if err == nil {
			i.progress.stageDone(StageProject, fmt.Sprintf("project %d", network.ProjectID))
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	var members []domain.GroupMember
	err = i.stage(ctx, StageFlatten, func(ctx context.Context) error {
		if err := flattener.Reindex(network); err != nil {
			return err
		}
		var err error
		members, err = flattener.Flatten(src.Institutions)
		return err
	})
	if err != nil {
		return nil, err
	}

	var scenario *domain.Scenario
	err = i.stage(ctx, StageScenario, func(ctx context.Context) error {
		var err error
		scenario, err = scenarios.Submit(ctx, scenarios.Assemble(network.ID, members))
		return err
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		Project:  &domain.Project{ID: network.ProjectID},
		Network:  network,
		Scenario: scenario,
		Members:  members,
		Warnings: built.Warnings,
	}, nil
}

func (i *Importer) stage(ctx context.Context, stage Stage, fn func(context.Context) error) error {
	ctx, span := i.tracer.Start(ctx, "importer."+string(stage))
	defer span.End()

	start := time.Now()
	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	i.log.Debug("stage complete", zap.String("stage", string(stage)), zap.Duration("elapsed", time.Since(start)))
	i.progress.stageDone(stage, "")
	return nil
}
