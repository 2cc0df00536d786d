package importer

import (
	"context"
	"fmt"

	"hydraimport/internal/domain"
)

type notFoundError struct{ what string }

func (e *notFoundError) Error() string  { return e.what + " not found" }
func (e *notFoundError) NotFound() bool { return true }

// fakeService is an in-memory persistence service that assigns permanent
// IDs the way the real one does and records every call.
type fakeService struct {
	template   *domain.Template
	attributes []domain.Attribute
	projects   map[int64]*domain.Project

	calls     []string
	networks  []*domain.Network
	scenarios []*domain.Scenario

	nextID int64
	failOn map[string]error
}

func newFakeService() *fakeService {
	return &fakeService{
		template: &domain.Template{
			ID:   7,
			Name: "CALVIN",
			Types: []domain.TypeDescriptor{
				{ID: 1, Name: "Network", ResourceType: domain.ResourceTypeNetwork},
				{ID: 2, Name: "Reservoir", ResourceType: domain.ResourceTypeNode},
				{ID: 3, Name: "Junction", ResourceType: domain.ResourceTypeNode},
				{ID: 4, Name: "River", ResourceType: domain.ResourceTypeLink},
				{ID: 5, Name: "Institution", ResourceType: domain.ResourceTypeGroup},
			},
		},
		attributes: []domain.Attribute{{ID: 11, Name: "storage", Dimension: "Volume"}},
		projects:   map[int64]*domain.Project{3: {ID: 3, Name: "existing"}},
		nextID:     100,
		failOn:     make(map[string]error),
	}
}

func (f *fakeService) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeService) record(method string) error {
	f.calls = append(f.calls, method)
	return f.failOn[method]
}

func (f *fakeService) GetTemplate(_ context.Context, id int64) (*domain.Template, error) {
	if err := f.record("get_template"); err != nil {
		return nil, err
	}
	if id != f.template.ID {
		return nil, &notFoundError{what: fmt.Sprintf("template %d", id)}
	}
	return f.template, nil
}

func (f *fakeService) GetAllAttributes(context.Context) ([]domain.Attribute, error) {
	if err := f.record("get_all_attributes"); err != nil {
		return nil, err
	}
	return f.attributes, nil
}

func (f *fakeService) GetProject(_ context.Context, id int64) (*domain.Project, error) {
	if err := f.record("get_project"); err != nil {
		return nil, err
	}
	p, ok := f.projects[id]
	if !ok {
		return nil, &notFoundError{what: fmt.Sprintf("project %d", id)}
	}
	return p, nil
}

func (f *fakeService) AddProject(_ context.Context, p *domain.Project) (*domain.Project, error) {
	if err := f.record("add_project"); err != nil {
		return nil, err
	}
	saved := *p
	saved.ID = f.id()
	f.projects[saved.ID] = &saved
	return &saved, nil
}

func (f *fakeService) AddNetwork(_ context.Context, n *domain.Network) (*domain.Network, error) {
	if err := f.record("add_network"); err != nil {
		return nil, err
	}
	f.networks = append(f.networks, n)

	saved := *n
	saved.ID = f.id()
	nodeIDs := make(map[int64]int64)
	saved.Nodes = make([]domain.NetworkNode, len(n.Nodes))
	for i, node := range n.Nodes {
		provisional := node.ID
		node.ID = f.id()
		nodeIDs[provisional] = node.ID
		saved.Nodes[i] = node
	}
	saved.Links = make([]domain.NetworkLink, len(n.Links))
	for i, link := range n.Links {
		link.ID = f.id()
		link.Node1ID = nodeIDs[link.Node1ID]
		link.Node2ID = nodeIDs[link.Node2ID]
		saved.Links[i] = link
	}
	saved.ResourceGroups = make([]domain.ResourceGroup, len(n.ResourceGroups))
	for i, g := range n.ResourceGroups {
		g.ID = f.id()
		saved.ResourceGroups[i] = g
	}
	return &saved, nil
}

func (f *fakeService) AddScenario(_ context.Context, networkID int64, s *domain.Scenario) (*domain.Scenario, error) {
	if err := f.record("add_scenario"); err != nil {
		return nil, err
	}
	f.scenarios = append(f.scenarios, s)
	saved := *s
	saved.ID = f.id()
	saved.NetworkID = networkID
	return &saved, nil
}

func (f *fakeService) count(method string) int {
	n := 0
	for _, c := range f.calls {
		if c == method {
			n++
		}
	}
	return n
}

// sampleNetwork has two nodes, one link and an institution that contains
// one node, the link and a nested institution.
func sampleNetwork() *domain.SourceNetwork {
	child := &domain.SourceInstitution{Name: "District", ComponentType: "Institution", Nodes: []string{"Dam"}}
	parent := &domain.SourceInstitution{
		Name:          "Agency",
		ComponentType: "Institution",
		Nodes:         []string{"Lake"},
		Links:         []string{"Lake to Dam"},
		Institutions:  []*domain.SourceInstitution{child},
	}
	return &domain.SourceNetwork{
		Nodes: []domain.SourceNode{
			{Name: "Lake", X: 10, Y: 900000, ComponentType: "Reservoir"},
			{Name: "Dam", X: 20, Y: 500000, ComponentType: "Junction"},
		},
		Links: []domain.SourceLink{
			{Name: "Lake to Dam", StartNode: "Lake", EndNode: "Dam", ComponentType: "River"},
		},
		Institutions: []*domain.SourceInstitution{parent, child},
	}
}
