package domain

import "fmt"

// RefKind identifies the class of entity a GroupMember points at
type RefKind string

const (
	RefNode  RefKind = "NODE"
	RefLink  RefKind = "LINK"
	RefGroup RefKind = "GROUP"
)

// Valid reports whether k is one of the known reference kinds
func (k RefKind) Valid() bool {
	switch k {
	case RefNode, RefLink, RefGroup:
		return true
	}
	return false
}

// GroupMember records that an entity is a direct member of a group
type GroupMember struct {
	RefKey  RefKind `json:"ref_key" yaml:"ref_key" validate:"oneof=NODE LINK GROUP"`
	RefID   int64   `json:"ref_id" yaml:"ref_id" validate:"gt=0"`
	GroupID int64   `json:"group_id" yaml:"group_id" validate:"gt=0"`
}

func (m GroupMember) String() string {
	return fmt.Sprintf("%s:%d in group %d", m.RefKey, m.RefID, m.GroupID)
}

// ResourceScenario holds one attribute value within a scenario
type ResourceScenario struct {
	ResourceAttrID int64  `json:"resource_attr_id" yaml:"resource_attr_id"`
	Value          string `json:"value" yaml:"value"`
}

// Scenario bundles group memberships for one network
type Scenario struct {
	ID                 int64              `json:"id,omitempty" yaml:"id,omitempty"`
	Name               string             `json:"name" yaml:"name" validate:"required"`
	Description        string             `json:"description" yaml:"description"`
	NetworkID          int64              `json:"network_id" yaml:"network_id"`
	ResourceGroupItems []GroupMember      `json:"resourcegroupitems" yaml:"resourcegroupitems" validate:"dive"`
	ResourceScenarios  []ResourceScenario `json:"resourcescenarios" yaml:"resourcescenarios"`
}
