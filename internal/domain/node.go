package domain

// TypeBinding ties a persisted entity to one type of one template.
type TypeBinding struct {
	TemplateID int64  `json:"template_id" yaml:"template_id" validate:"gt=0"`
	ID         int64  `json:"id" yaml:"id" validate:"gt=0"`
	Name       string `json:"name,omitempty" yaml:"name,omitempty"`
}

// ResourceAttribute links an entity to an attribute definition.
type ResourceAttribute struct {
	ID     int64 `json:"id,omitempty" yaml:"id,omitempty"`
	AttrID int64 `json:"attr_id" yaml:"attr_id"`
}

// NetworkNode is a node as submitted to and returned by the persistence service
type NetworkNode struct {
	ID          int64               `json:"id" yaml:"id"`
	Name        string              `json:"name" yaml:"name" validate:"required"`
	Description string              `json:"description" yaml:"description"`
	X           float64             `json:"x" yaml:"x"`
	Y           float64             `json:"y" yaml:"y"`
	Attributes  []ResourceAttribute `json:"attributes" yaml:"attributes"`
	Types       []TypeBinding       `json:"types" yaml:"types" validate:"dive"`
}

// NewNetworkNode creates a node bound to a single type with no attributes
func NewNetworkNode(id int64, name string, x, y float64, binding TypeBinding) *NetworkNode {
	return &NetworkNode{
		ID:          id,
		Name:        name,
		Description: "Node",
		X:           x,
		Y:           y,
		Attributes:  make([]ResourceAttribute, 0),
		Types:       []TypeBinding{binding},
	}
}

// IsProvisional reports whether the node still carries a client-side ID
func (n *NetworkNode) IsProvisional() bool {
	return n.ID < 0
}
