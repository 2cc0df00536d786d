package domain

// ResourceType is the kind of entity a template type applies to
type ResourceType string

const (
	ResourceTypeNode    ResourceType = "NODE"
	ResourceTypeLink    ResourceType = "LINK"
	ResourceTypeGroup   ResourceType = "GROUP"
	ResourceTypeNetwork ResourceType = "NETWORK"
)

// NetworkTypeName is the template type every imported network is bound to
const NetworkTypeName = "Network"

// TypeDescriptor is one type defined by a template
type TypeDescriptor struct {
	ID           int64        `json:"id" yaml:"id"`
	TemplateID   int64        `json:"template_id" yaml:"template_id"`
	Name         string       `json:"name" yaml:"name" validate:"required"`
	ResourceType ResourceType `json:"resource_type,omitempty" yaml:"resource_type,omitempty"`
}

// Binding returns the TypeBinding that attaches an entity to this type
func (t TypeDescriptor) Binding() TypeBinding {
	return TypeBinding{TemplateID: t.TemplateID, ID: t.ID}
}

// Template is a named set of allowed types
type Template struct {
	ID    int64            `json:"id" yaml:"id"`
	Name  string           `json:"name" yaml:"name"`
	Types []TypeDescriptor `json:"types" yaml:"types"`
}

// Attribute is an entry in the persistence service attribute catalogue
type Attribute struct {
	ID        int64  `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	Dimension string `json:"dimension,omitempty" yaml:"dimension,omitempty"`
}
