package importer

import (
	"fmt"

	"hydraimport/internal/domain"
	"hydraimport/internal/observability"

	"go.uber.org/zap"
)

type visitState int

const (
	unvisited visitState = iota
	onStack
	done
)

// GroupHierarchyFlattener turns nested institution membership into flat
// GroupMember relations. It must be re-indexed from the persisted network
// before Flatten, because only permanent IDs may appear in a scenario.
type GroupHierarchyFlattener struct {
	log     *zap.Logger
	metrics *observability.Metrics

	nodes  map[string]int64
	links  map[string]int64
	groups map[string]int64

	indexed bool
}

// NewGroupHierarchyFlattener creates a flattener with empty indexes
func NewGroupHierarchyFlattener(log *zap.Logger) *GroupHierarchyFlattener {
	if log == nil {
		log = zap.NewNop()
	}
	return &GroupHierarchyFlattener{log: log}
}

// Reindex replaces the name indexes with the IDs of the persisted network
func (f *GroupHierarchyFlattener) Reindex(network *domain.Network) error {
	if network == nil {
		return fmt.Errorf("reindex: nil network")
	}

	f.nodes = make(map[string]int64, len(network.Nodes))
	for _, n := range network.Nodes {
		if n.ID <= 0 {
			return fmt.Errorf("reindex: node %q has no permanent ID (%d)", n.Name, n.ID)
		}
		f.nodes[n.Name] = n.ID
	}
	f.links = make(map[string]int64, len(network.Links))
	for _, l := range network.Links {
		if l.ID <= 0 {
			return fmt.Errorf("reindex: link %q has no permanent ID (%d)", l.Name, l.ID)
		}
		f.links[l.Name] = l.ID
	}
	f.groups = make(map[string]int64, len(network.ResourceGroups))
	for _, g := range network.ResourceGroups {
		if g.ID <= 0 {
			return fmt.Errorf("reindex: group %q has no permanent ID (%d)", g.Name, g.ID)
		}
		f.groups[g.Name] = g.ID
	}

	f.indexed = true
	return nil
}

// Flatten walks institutions depth first and returns every direct
// membership as a GroupMember. For each institution its nodes come first,
// then its links, then its child institutions, and then each child is
// walked in turn. An institution reachable along several paths is emitted
// once.
func (f *GroupHierarchyFlattener) Flatten(institutions []*domain.SourceInstitution) ([]domain.GroupMember, error) {
	if !f.indexed {
		return nil, fmt.Errorf("flatten: indexes have not been rebuilt from the persisted network")
	}

	members := make([]domain.GroupMember, 0)
	state := make(map[*domain.SourceInstitution]visitState)

	var visit func(inst *domain.SourceInstitution) error
	visit = func(inst *domain.SourceInstitution) error {
		switch state[inst] {
		case onStack:
			return NewError(ErrCyclicMembership, "institution %q contains itself", inst.Name)
		case done:
			return nil
		}
		state[inst] = onStack

		groupID, ok := f.groups[inst.Name]
		if !ok {
			return NewError(ErrDanglingReference, "institution %q was not persisted as a group", inst.Name)
		}

		for _, name := range inst.Nodes {
			id, ok := f.nodes[name]
			if !ok {
				return NewError(ErrDanglingReference, "institution %q references unknown node %q", inst.Name, name)
			}
			members = append(members, domain.GroupMember{RefKey: domain.RefNode, RefID: id, GroupID: groupID})
		}
		for _, name := range inst.Links {
			id, ok := f.links[name]
			if !ok {
				return NewError(ErrDanglingReference, "institution %q references unknown link %q", inst.Name, name)
			}
			members = append(members, domain.GroupMember{RefKey: domain.RefLink, RefID: id, GroupID: groupID})
		}
		for _, child := range inst.Institutions {
			if child == nil {
				continue
			}
			id, ok := f.groups[child.Name]
			if !ok {
				return NewError(ErrDanglingReference, "institution %q references unknown institution %q", inst.Name, child.Name)
			}
			members = append(members, domain.GroupMember{RefKey: domain.RefGroup, RefID: id, GroupID: groupID})
		}

		for _, child := range inst.Institutions {
			if child == nil {
				continue
			}
			if err := visit(child); err != nil {
				return err
			}
		}

		state[inst] = done
		return nil
	}

	for _, inst := range institutions {
		if inst == nil {
			continue
		}
		if err := visit(inst); err != nil {
			return nil, err
		}
	}

	for range members {
		f.metrics.EntityBuilt("member")
	}
	f.log.Info("group hierarchy flattened",
		zap.Int("institutions", len(state)),
		zap.Int("members", len(members)))

	return members, nil
}
