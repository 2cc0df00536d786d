// Package loader reads simulation model files.
package loader

import (
	"errors"
	"fmt"
	"os"

	"hydraimport/internal/domain"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ModelYAML represents the model file structure
type ModelYAML struct {
	Version     string            `yaml:"version"`
	Description string            `yaml:"description,omitempty"`
	Simulations []*SimulationYAML `yaml:"simulations"`
}

// SimulationYAML represents one simulation
type SimulationYAML struct {
	Name      string       `yaml:"name"`
	Timesteps int          `yaml:"timesteps,omitempty"`
	Network   *NetworkYAML `yaml:"network"`
}

// NetworkYAML represents the network of a simulation
type NetworkYAML struct {
	Nodes           []NodeYAML           `yaml:"nodes"`
	Links           []LinkYAML           `yaml:"links"`
	Institutions    []InstitutionYAML    `yaml:"institutions,omitempty"`
	ExogenousInputs map[string][]float64 `yaml:"exogenous_inputs,omitempty"`
}

// NodeYAML represents a node
type NodeYAML struct {
	Name          string  `yaml:"name"`
	X             float64 `yaml:"x"`
	Y             float64 `yaml:"y"`
	ComponentType string  `yaml:"component_type"`
}

// LinkYAML represents a link between two named nodes
type LinkYAML struct {
	Name          string `yaml:"name"`
	StartNode     string `yaml:"start_node"`
	EndNode       string `yaml:"end_node"`
	ComponentType string `yaml:"component_type"`
}

// InstitutionYAML represents an institution. Nested institutions are
// referenced by name and must be defined in the same network.
type InstitutionYAML struct {
	Name          string   `yaml:"name"`
	ComponentType string   `yaml:"component_type"`
	Nodes         []string `yaml:"nodes,omitempty"`
	Links         []string `yaml:"links,omitempty"`
	Institutions  []string `yaml:"institutions,omitempty"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadYAML loads a model from a YAML file
func LoadYAML(path string) (*domain.Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return ParseYAML(data)
}

// ParseYAML parses a model from YAML bytes
func ParseYAML(data []byte) (*domain.Model, error) {
	var yamlData ModelYAML
	if err := yaml.Unmarshal(data, &yamlData); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	model, err := convertYAMLToModel(&yamlData)
	if err != nil {
		return nil, err
	}

	if err := validate.Struct(model); err != nil {
		return nil, fmt.Errorf("invalid model: %w", describeValidation(err))
	}
	return model, nil
}

func convertYAMLToModel(y *ModelYAML) (*domain.Model, error) {
	model := &domain.Model{
		Version:     y.Version,
		Description: y.Description,
		Simulations: make([]*domain.SimulationSpec, 0, len(y.Simulations)),
	}

	for i, s := range y.Simulations {
		if s == nil {
			return nil, fmt.Errorf("simulation %d is empty", i)
		}
		sim := &domain.SimulationSpec{
			Name:      s.Name,
			Timesteps: s.Timesteps,
		}
		if s.Network != nil {
			network, err := convertNetwork(s.Network)
			if err != nil {
				return nil, fmt.Errorf("simulation %q: %w", s.Name, err)
			}
			sim.Network = network
		}
		model.Simulations = append(model.Simulations, sim)
	}

	return model, nil
}

func convertNetwork(n *NetworkYAML) (*domain.SourceNetwork, error) {
	network := &domain.SourceNetwork{
		Nodes:           make([]domain.SourceNode, 0, len(n.Nodes)),
		Links:           make([]domain.SourceLink, 0, len(n.Links)),
		Institutions:    make([]*domain.SourceInstitution, 0, len(n.Institutions)),
		ExogenousInputs: make(domain.ExogenousInputs, len(n.ExogenousInputs)),
	}

	for _, node := range n.Nodes {
		network.Nodes = append(network.Nodes, domain.SourceNode{
			Name:          node.Name,
			X:             node.X,
			Y:             node.Y,
			ComponentType: node.ComponentType,
		})
	}

	for _, link := range n.Links {
		network.Links = append(network.Links, domain.SourceLink{
			Name:          link.Name,
			StartNode:     link.StartNode,
			EndNode:       link.EndNode,
			ComponentType: link.ComponentType,
		})
	}

	// Create every institution first so nested references can point at
	// the shared instance regardless of declaration order
	byName := make(map[string]*domain.SourceInstitution, len(n.Institutions))
	for _, inst := range n.Institutions {
		si := &domain.SourceInstitution{
			Name:          inst.Name,
			ComponentType: inst.ComponentType,
			Nodes:         inst.Nodes,
			Links:         inst.Links,
		}
		byName[inst.Name] = si
		network.Institutions = append(network.Institutions, si)
	}
	for i, inst := range n.Institutions {
		parent := network.Institutions[i]
		for _, childName := range inst.Institutions {
			child, ok := byName[childName]
			if !ok {
				return nil, fmt.Errorf("institution %q contains undefined institution %q", inst.Name, childName)
			}
			parent.Institutions = append(parent.Institutions, child)
		}
	}

	for slot, values := range n.ExogenousInputs {
		network.ExogenousInputs[slot] = append([]float64(nil), values...)
	}

	return network, nil
}

func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Errorf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return errors.Join(msgs...)
}

// ExportYAML writes a model back to YAML
func ExportYAML(model *domain.Model) ([]byte, error) {
	yamlData := &ModelYAML{
		Version:     model.Version,
		Description: model.Description,
		Simulations: make([]*SimulationYAML, 0, len(model.Simulations)),
	}

	for _, sim := range model.Simulations {
		s := &SimulationYAML{Name: sim.Name, Timesteps: sim.Timesteps}
		if sim.Network != nil {
			s.Network = exportNetwork(sim.Network)
		}
		yamlData.Simulations = append(yamlData.Simulations, s)
	}

	return yaml.Marshal(yamlData)
}

func exportNetwork(n *domain.SourceNetwork) *NetworkYAML {
	y := &NetworkYAML{ExogenousInputs: n.ExogenousInputs}
	for _, node := range n.Nodes {
		y.Nodes = append(y.Nodes, NodeYAML{
			Name:          node.Name,
			X:             node.X,
			Y:             node.Y,
			ComponentType: node.ComponentType,
		})
	}
	for _, link := range n.Links {
		y.Links = append(y.Links, LinkYAML{
			Name:          link.Name,
			StartNode:     link.StartNode,
			EndNode:       link.EndNode,
			ComponentType: link.ComponentType,
		})
	}
	for _, inst := range n.Institutions {
		iy := InstitutionYAML{
			Name:          inst.Name,
			ComponentType: inst.ComponentType,
			Nodes:         inst.Nodes,
			Links:         inst.Links,
		}
		for _, child := range inst.Institutions {
			iy.Institutions = append(iy.Institutions, child.Name)
		}
		y.Institutions = append(y.Institutions, iy)
	}
	return y
}
