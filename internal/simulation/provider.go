package simulation

import (
	"context"
	"fmt"

	"hydraimport/internal/loader"

	"go.uber.org/zap"
)

// Provider supplies the simulations of a model
type Provider interface {
	Simulations(ctx context.Context) ([]*Simulation, error)
}

// EngineFactory creates the engines of a simulation
type EngineFactory func(sim *Simulation) []Engine

// FileProvider loads simulations from a model file
type FileProvider struct {
	path    string
	engines EngineFactory
	log     *zap.Logger
}

// NewFileProvider creates a provider for the model at path. A nil factory
// gives every simulation a single InputEngine.
func NewFileProvider(path string, engines EngineFactory, log *zap.Logger) *FileProvider {
	if log == nil {
		log = zap.NewNop()
	}
	if engines == nil {
		engines = func(*Simulation) []Engine {
			return []Engine{NewInputEngine(log)}
		}
	}
	return &FileProvider{path: path, engines: engines, log: log}
}

// Simulations implements Provider
func (p *FileProvider) Simulations(ctx context.Context) ([]*Simulation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	model, err := loader.LoadYAML(p.path)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", p.path, err)
	}

	sims := make([]*Simulation, 0, len(model.Simulations))
	for _, spec := range model.Simulations {
		sim := New(spec, p.log)
		for _, e := range p.engines(sim) {
			sim.AddEngine(e)
		}
		sims = append(sims, sim)
	}

	p.log.Info("simulations loaded", zap.String("path", p.path), zap.Int("count", len(sims)))
	return sims, nil
}
