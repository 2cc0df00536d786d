package simulation

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// InputEngine reads every exogenous input slot at each timestep. A slot
// shorter than the run repeats its last value. It keeps the value it used
// per slot and step so a run can be inspected afterwards.
type InputEngine struct {
	log    *zap.Logger
	Values map[string][]float64
}

// NewInputEngine creates an InputEngine
func NewInputEngine(log *zap.Logger) *InputEngine {
	if log == nil {
		log = zap.NewNop()
	}
	return &InputEngine{log: log, Values: make(map[string][]float64)}
}

// Name implements Engine
func (e *InputEngine) Name() string { return "inputs" }

// Step implements Engine
func (e *InputEngine) Step(_ context.Context, sim *Simulation, step int) error {
	inputs := sim.Inputs()
	slots := make([]string, 0, len(inputs))
	for slot := range inputs {
		slots = append(slots, slot)
	}
	sort.Strings(slots)

	for _, slot := range slots {
		values := inputs[slot]
		if len(values) == 0 {
			return fmt.Errorf("exogenous input %q has no values", slot)
		}
		idx := step
		if idx >= len(values) {
			idx = len(values) - 1
		}
		e.Values[slot] = append(e.Values[slot], values[idx])
	}

	e.log.Debug("step", zap.Int("step", step), zap.Int("slots", len(slots)))
	return nil
}

// Value returns the value slot had at step
func (e *InputEngine) Value(slot string, step int) (float64, bool) {
	values := e.Values[slot]
	if step < 0 || step >= len(values) {
		return 0, false
	}
	return values[step], true
}
