package domain

// DefaultProjection is the spatial reference code attached to imported networks
const DefaultProjection = "EPSG:2229"

// Network is the top-level record created by the persistence service
type Network struct {
	ID             int64               `json:"id,omitempty" yaml:"id,omitempty"`
	ProjectID      int64               `json:"project_id" yaml:"project_id" validate:"gt=0"`
	Name           string              `json:"name" yaml:"name" validate:"required"`
	Description    string              `json:"description" yaml:"description"`
	Projection     string              `json:"projection" yaml:"projection"`
	Nodes          []NetworkNode       `json:"nodes" yaml:"nodes" validate:"dive"`
	Links          []NetworkLink       `json:"links" yaml:"links" validate:"dive"`
	ResourceGroups []ResourceGroup     `json:"resourcegroups" yaml:"resourcegroups" validate:"dive"`
	Attributes     []ResourceAttribute `json:"attributes" yaml:"attributes"`
	Types          []TypeBinding       `json:"types" yaml:"types" validate:"dive"`
	Scenarios      []Scenario          `json:"scenarios" yaml:"scenarios"`
}

// TemplateID returns the template of the first type binding, or 0 when the
// network is untyped
func (n *Network) TemplateID() int64 {
	if len(n.Types) == 0 {
		return 0
	}
	return n.Types[0].TemplateID
}

// Project groups networks on the persistence service
type Project struct {
	ID          int64  `json:"id,omitempty" yaml:"id,omitempty"`
	Name        string `json:"name" yaml:"name" validate:"required"`
	Description string `json:"description" yaml:"description"`
}
