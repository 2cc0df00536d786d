// Package runner executes a simulation model against a persisted network.
package runner

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"hydraimport/internal/domain"
	"hydraimport/internal/importer"
	"hydraimport/internal/simulation"

	"go.uber.org/zap"
)

// CompleteMessage is reported after every simulation has run
const CompleteMessage = "Model Run Complete"

// Service is the part of the persistence service a model run needs
type Service interface {
	GetNetwork(ctx context.Context, networkID int64, scenarioIDs ...int64) (*domain.Network, error)
	GetAllAttributes(ctx context.Context) ([]domain.Attribute, error)
}

// Override replaces one exogenous input value before the model starts
type Override struct {
	Slot  string
	Index int
	Value float64
}

func (o Override) String() string {
	return fmt.Sprintf("%s[%d]=%g", o.Slot, o.Index, o.Value)
}

var overridePattern = regexp.MustCompile(`^\s*([A-Za-z_][A-Za-z0-9_.]*)\[(\d+)\]\s*=\s*(\S+)\s*$`)

// ParseOverride parses "slot[index]=value"
func ParseOverride(s string) (Override, error) {
	m := overridePattern.FindStringSubmatch(s)
	if m == nil {
		return Override{}, importer.NewError(importer.ErrInvalidOverride, "%q is not of the form slot[index]=value", s)
	}
	idx, err := strconv.Atoi(m[2])
	if err != nil {
		return Override{}, importer.WrapError(importer.ErrInvalidOverride, err, "index in %q", s)
	}
	v, err := strconv.ParseFloat(m[3], 64)
	if err != nil {
		return Override{}, importer.WrapError(importer.ErrInvalidOverride, err, "value in %q", s)
	}
	return Override{Slot: m[1], Index: idx, Value: v}, nil
}

// Options control a model run
type Options struct {
	NetworkID  int64
	ScenarioID int64
	Overrides  []Override
}

// Result describes a completed run
type Result struct {
	Network     *domain.Network
	TemplateID  int64
	Simulations []*simulation.Simulation
	Warnings    []string
}

// Runner fetches a network and runs the simulations of a model
type Runner struct {
	svc      Service
	provider simulation.Provider
	progress *importer.ProgressBus
	log      *zap.Logger
}

// New creates a Runner
func New(svc Service, provider simulation.Provider, progress *importer.ProgressBus, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{svc: svc, provider: provider, progress: progress, log: log}
}

const runSteps = 3

// Run loads the network and scenario, applies overrides to the first
// simulation, and starts every simulation in order.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	r.publish(1, "Starting App")

	network, err := r.fetchNetwork(ctx, opts)
	if err != nil {
		return nil, err
	}
	r.publish(2, "Network retrieved")

	result := &Result{Network: network, TemplateID: network.TemplateID()}

	attrs, err := r.svc.GetAllAttributes(ctx)
	if err != nil {
		return nil, fmt.Errorf("get attributes: %w", err)
	}
	attrIDMap := make(map[int64]domain.Attribute, len(attrs))
	for _, a := range attrs {
		attrIDMap[a.ID] = a
	}
	for _, ra := range network.Attributes {
		if _, ok := attrIDMap[ra.AttrID]; !ok {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("network attribute %d is not in the attribute catalogue", ra.AttrID))
		}
	}

	sims, err := r.provider.Simulations(ctx)
	if err != nil {
		return nil, fmt.Errorf("load simulations: %w", err)
	}
	if len(sims) == 0 {
		return nil, fmt.Errorf("model defines no simulations")
	}

	inputs := sims[0].Inputs()
	for _, o := range opts.Overrides {
		old, _ := inputs.Get(o.Slot, o.Index)
		if err := inputs.Set(o.Slot, o.Index, o.Value); err != nil {
			return nil, importer.WrapError(importer.ErrInvalidOverride, err, "simulation %q", sims[0].Name)
		}
		r.log.Warn("exogenous input overridden",
			zap.String("slot", o.Slot),
			zap.Int("index", o.Index),
			zap.Float64("from", old),
			zap.Float64("to", o.Value))
	}

	for _, s := range sims {
		if err := s.Start(ctx); err != nil {
			return nil, err
		}
	}
	result.Simulations = sims

	r.publish(3, CompleteMessage)
	return result, nil
}

func (r *Runner) fetchNetwork(ctx context.Context, opts Options) (*domain.Network, error) {
	if opts.NetworkID <= 0 {
		return nil, importer.NewError(importer.ErrMissingNetwork, "")
	}
	if opts.ScenarioID <= 0 {
		return nil, importer.NewError(importer.ErrMissingScenario, "")
	}

	network, err := r.svc.GetNetwork(ctx, opts.NetworkID, opts.ScenarioID)
	if err != nil {
		r.log.Error("get network failed", zap.Int64("network_id", opts.NetworkID), zap.Error(err))
		return nil, importer.WrapError(importer.ErrNetworkNotFound, err, "network %d", opts.NetworkID)
	}
	return network, nil
}

func (r *Runner) publish(step int, message string) {
	r.log.Info(message)
	r.progress.Publish(importer.ProgressEvent{Stage: "run", Step: step, Total: runSteps, Message: message})
}
