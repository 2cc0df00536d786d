// Package simulation runs simulation models over their timesteps.
package simulation

import (
	"context"
	"fmt"
	"time"

	"hydraimport/internal/domain"

	"go.uber.org/zap"
)

// Engine advances a simulation by one timestep
type Engine interface {
	Name() string
	Step(ctx context.Context, sim *Simulation, step int) error
}

// Simulation is one runnable simulation of a model
type Simulation struct {
	Name      string
	Timesteps int
	Network   *domain.SourceNetwork
	Engines   []Engine

	log *zap.Logger
}

// New creates a simulation from its model description
func New(spec *domain.SimulationSpec, log *zap.Logger) *Simulation {
	if log == nil {
		log = zap.NewNop()
	}
	return &Simulation{
		Name:      spec.Name,
		Timesteps: spec.Timesteps,
		Network:   spec.Network,
		log:       log.With(zap.String("simulation", spec.Name)),
	}
}

// AddEngine appends an engine. Engines run in the order they were added.
func (s *Simulation) AddEngine(e Engine) {
	s.Engines = append(s.Engines, e)
}

// Inputs returns the exogenous inputs of the simulation network
func (s *Simulation) Inputs() domain.ExogenousInputs {
	if s.Network == nil {
		return nil
	}
	return s.Network.ExogenousInputs
}

// Start runs every engine for every timestep. It stops at the first engine
// error or when ctx is cancelled.
func (s *Simulation) Start(ctx context.Context) error {
	if len(s.Engines) == 0 {
		return fmt.Errorf("simulation %q has no engines", s.Name)
	}

	start := time.Now()
	s.log.Info("simulation starting", zap.Int("timesteps", s.Timesteps), zap.Int("engines", len(s.Engines)))

	for step := 0; step < s.Timesteps; step++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("simulation %q interrupted at step %d: %w", s.Name, step, err)
		}
		for _, e := range s.Engines {
			if err := e.Step(ctx, s, step); err != nil {
				return fmt.Errorf("simulation %q: engine %s failed at step %d: %w", s.Name, e.Name(), step, err)
			}
		}
	}

	s.log.Info("simulation finished", zap.Duration("elapsed", time.Since(start)))
	return nil
}
