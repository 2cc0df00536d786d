package domain

import "fmt"

// SourceNode is a node as produced by the simulation model
type SourceNode struct {
	Name          string `validate:"required"`
	X             float64
	Y             float64
	ComponentType string `validate:"required"`
}

// SourceLink joins two source nodes by name
type SourceLink struct {
	Name          string `validate:"required"`
	StartNode     string `validate:"required"`
	EndNode       string `validate:"required"`
	ComponentType string `validate:"required"`
}

// SourceInstitution is a named container of nodes, links and other
// institutions. Nested institutions are shared pointers into the
// network's institution list, so the structure is a tree in the normal
// case but nothing here prevents a cycle.
type SourceInstitution struct {
	Name          string `validate:"required"`
	ComponentType string `validate:"required"`
	Nodes         []string
	Links         []string
	Institutions  []*SourceInstitution
}

// SourceNetwork is the network of one simulation
type SourceNetwork struct {
	Nodes           []SourceNode         `validate:"dive"`
	Links           []SourceLink         `validate:"dive"`
	Institutions    []*SourceInstitution `validate:"dive"`
	ExogenousInputs ExogenousInputs
}

// ExogenousInputs holds named input slots of a simulation. Each slot is an
// ordered list of values that may be overridden before the model runs.
type ExogenousInputs map[string][]float64

// Get returns the value at slot[index]
func (e ExogenousInputs) Get(slot string, index int) (float64, bool) {
	values, ok := e[slot]
	if !ok || index < 0 || index >= len(values) {
		return 0, false
	}
	return values[index], true
}

// Set overrides the value at slot[index]. The slot and index must already exist.
func (e ExogenousInputs) Set(slot string, index int, value float64) error {
	values, ok := e[slot]
	if !ok {
		return fmt.Errorf("unknown exogenous input %q", slot)
	}
	if index < 0 || index >= len(values) {
		return fmt.Errorf("exogenous input %s[%d] out of range (len %d)", slot, index, len(values))
	}
	values[index] = value
	return nil
}

// SimulationSpec describes one simulation of a model file
type SimulationSpec struct {
	Name      string         `validate:"required"`
	Timesteps int            `validate:"gte=0"`
	Network   *SourceNetwork `validate:"required"`
}

// Model is the content of a simulation model file
type Model struct {
	Version     string
	Description string
	Simulations []*SimulationSpec `validate:"min=1,dive"`
}
