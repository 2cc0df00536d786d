package domain

// NetworkLink connects two nodes by ID
type NetworkLink struct {
	ID          int64               `json:"id" yaml:"id"`
	Name        string              `json:"name" yaml:"name" validate:"required"`
	Description string              `json:"description" yaml:"description"`
	Node1ID     int64               `json:"node_1_id" yaml:"node_1_id" validate:"ne=0"`
	Node2ID     int64               `json:"node_2_id" yaml:"node_2_id" validate:"ne=0"`
	Attributes  []ResourceAttribute `json:"attributes" yaml:"attributes"`
	Types       []TypeBinding       `json:"types" yaml:"types" validate:"dive"`
}

// NewNetworkLink creates a link between two node IDs
func NewNetworkLink(id int64, name string, node1ID, node2ID int64, binding TypeBinding) *NetworkLink {
	return &NetworkLink{
		ID:          id,
		Name:        name,
		Description: "Link",
		Node1ID:     node1ID,
		Node2ID:     node2ID,
		Attributes:  make([]ResourceAttribute, 0),
		Types:       []TypeBinding{binding},
	}
}

// ResourceGroup is the persisted form of an institution
type ResourceGroup struct {
	ID          int64               `json:"id" yaml:"id"`
	Name        string              `json:"name" yaml:"name" validate:"required"`
	Description string              `json:"description" yaml:"description"`
	Attributes  []ResourceAttribute `json:"attributes" yaml:"attributes"`
	Types       []TypeBinding       `json:"types" yaml:"types" validate:"dive"`
}

// NewResourceGroup creates a group bound to a single type
func NewResourceGroup(id int64, name string, binding TypeBinding) *ResourceGroup {
	return &ResourceGroup{
		ID:          id,
		Name:        name,
		Description: "A Model Institution",
		Attributes:  make([]ResourceAttribute, 0),
		Types:       []TypeBinding{binding},
	}
}
