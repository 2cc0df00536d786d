package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"hydraimport/internal/domain"
	"hydraimport/internal/repository"
)

// DefaultSessionTTL is how long a login session stays valid
const DefaultSessionTTL = 24 * time.Hour

// PersistenceService implements the persistence service operations on top
// of a repository. It validates every payload before it is stored.
type PersistenceService struct {
	repo       repository.Repository
	eventBus   *EventBus
	validate   *validator.Validate
	log        *zap.Logger
	sessionTTL time.Duration
	now        func() time.Time
}

// Option configures a PersistenceService
type Option func(*PersistenceService)

// WithSessionTTL overrides DefaultSessionTTL
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *PersistenceService) { s.sessionTTL = ttl }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *PersistenceService) { s.now = now }
}

// NewPersistenceService creates a new persistence service
func NewPersistenceService(repo repository.Repository, eventBus *EventBus, log *zap.Logger, opts ...Option) *PersistenceService {
	if log == nil {
		log = zap.NewNop()
	}
	s := &PersistenceService{
		repo:       repo,
		eventBus:   eventBus,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		log:        log,
		sessionTTL: DefaultSessionTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetProject retrieves a project by ID
func (s *PersistenceService) GetProject(ctx context.Context, id int64) (*domain.Project, error) {
	return s.repo.GetProject(ctx, id)
}

// AddProject creates a new project
func (s *PersistenceService) AddProject(ctx context.Context, project *domain.Project) (*domain.Project, error) {
	if project == nil {
		return nil, invalid("project is required")
	}
	if err := s.validateStruct(project); err != nil {
		return nil, err
	}
	project.ID = 0
	if err := s.repo.CreateProject(ctx, project); err != nil {
		return nil, err
	}

	s.log.Info("project created", zap.Int64("project_id", project.ID), zap.String("name", project.Name))
	s.eventBus.Publish(Event{
		Type:    EventProjectCreated,
		Payload: map[string]string{"project_id": fmt.Sprint(project.ID)},
	})
	return project, nil
}

// GetTemplate retrieves a template with its types
func (s *PersistenceService) GetTemplate(ctx context.Context, id int64) (*domain.Template, error) {
	return s.repo.GetTemplate(ctx, id)
}

// GetAllAttributes returns the attribute catalogue
func (s *PersistenceService) GetAllAttributes(ctx context.Context) ([]domain.Attribute, error) {
	return s.repo.ListAttributes(ctx)
}

// AddNetwork stores a new network. Nodes, links and groups may carry
// provisional IDs; the returned network carries the permanent ones.
func (s *PersistenceService) AddNetwork(ctx context.Context, network *domain.Network) (*domain.Network, error) {
	if network == nil {
		return nil, invalid("network is required")
	}
	if err := s.validateStruct(network); err != nil {
		return nil, err
	}
	if len(network.Scenarios) > 0 {
		return nil, invalid("network %q: scenarios must be added with add_scenario", network.Name)
	}
	if _, err := s.repo.GetProject(ctx, network.ProjectID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("project %d not found", network.ProjectID)
		}
		return nil, err
	}
	if err := checkNodeIDs(network.Nodes); err != nil {
		return nil, err
	}
	if err := s.checkBindings(ctx, network); err != nil {
		return nil, err
	}

	if err := s.repo.CreateNetwork(ctx, network); err != nil {
		return nil, err
	}

	s.log.Info("network created",
		zap.Int64("network_id", network.ID),
		zap.Int("nodes", len(network.Nodes)),
		zap.Int("links", len(network.Links)),
		zap.Int("groups", len(network.ResourceGroups)),
	)
	s.eventBus.Publish(Event{
		Type:    EventNetworkCreated,
		Payload: map[string]string{"network_id": fmt.Sprint(network.ID), "name": network.Name},
	})

	return s.repo.GetNetwork(ctx, network.ID, nil)
}

// GetNetwork retrieves a network. An empty scenarioIDs loads every scenario.
func (s *PersistenceService) GetNetwork(ctx context.Context, id int64, scenarioIDs []int64) (*domain.Network, error) {
	return s.repo.GetNetwork(ctx, id, scenarioIDs)
}

// AddScenario stores a scenario on networkID. Every group item must point
// at a node, link or group of that network.
func (s *PersistenceService) AddScenario(ctx context.Context, networkID int64, scenario *domain.Scenario) (*domain.Scenario, error) {
	if scenario == nil {
		return nil, invalid("scenario is required")
	}
	if scenario.NetworkID != 0 && scenario.NetworkID != networkID {
		return nil, invalid("scenario names network %d but was added to network %d", scenario.NetworkID, networkID)
	}
	scenario.NetworkID = networkID
	if err := s.validateStruct(scenario); err != nil {
		return nil, err
	}

	network, err := s.repo.GetNetwork(ctx, networkID, nil)
	if err != nil {
		return nil, err
	}
	if err := checkGroupItems(network, scenario.ResourceGroupItems); err != nil {
		return nil, err
	}

	if err := s.repo.CreateScenario(ctx, scenario); err != nil {
		return nil, err
	}

	s.log.Info("scenario created",
		zap.Int64("scenario_id", scenario.ID),
		zap.Int64("network_id", networkID),
		zap.Int("items", len(scenario.ResourceGroupItems)),
	)
	s.eventBus.Publish(Event{
		Type:    EventScenarioCreated,
		Payload: map[string]string{"scenario_id": fmt.Sprint(scenario.ID), "network_id": fmt.Sprint(networkID)},
	})

	return s.repo.GetScenario(ctx, scenario.ID)
}

// GetScenario retrieves a scenario by ID
func (s *PersistenceService) GetScenario(ctx context.Context, id int64) (*domain.Scenario, error) {
	return s.repo.GetScenario(ctx, id)
}

func (s *PersistenceService) validateStruct(v any) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fe := verrs[0]
	return invalid("%s failed %q validation", fe.Namespace(), fe.Tag())
}

// checkNodeIDs rejects repeated node IDs, which would make link endpoints
// ambiguous
func checkNodeIDs(nodes []domain.NetworkNode) error {
	seen := make(map[int64]string, len(nodes))
	for _, n := range nodes {
		if other, ok := seen[n.ID]; ok {
			return invalid("nodes %q and %q share id %d", other, n.Name, n.ID)
		}
		seen[n.ID] = n.Name
	}
	return nil
}

// checkBindings verifies that every type binding names a type of its
// template, and that the type applies to the kind of entity it is bound to
func (s *PersistenceService) checkBindings(ctx context.Context, network *domain.Network) error {
	types := make(map[int64]map[int64]domain.TypeDescriptor)

	check := func(kind domain.ResourceType, name string, bindings []domain.TypeBinding) error {
		for _, b := range bindings {
			byID, ok := types[b.TemplateID]
			if !ok {
				tmpl, err := s.repo.GetTemplate(ctx, b.TemplateID)
				if err != nil {
					if errors.Is(err, repository.ErrNotFound) {
						return invalid("%s %q: template %d does not exist", kind, name, b.TemplateID)
					}
					return err
				}
				byID = make(map[int64]domain.TypeDescriptor, len(tmpl.Types))
				for _, t := range tmpl.Types {
					byID[t.ID] = t
				}
				types[b.TemplateID] = byID
			}
			t, ok := byID[b.ID]
			if !ok {
				return invalid("%s %q: type %d is not part of template %d", kind, name, b.ID, b.TemplateID)
			}
			if t.ResourceType != "" && t.ResourceType != kind {
				return invalid("%s %q: type %q applies to %s", kind, name, t.Name, t.ResourceType)
			}
		}
		return nil
	}

	if err := check(domain.ResourceTypeNetwork, network.Name, network.Types); err != nil {
		return err
	}
	for _, n := range network.Nodes {
		if err := check(domain.ResourceTypeNode, n.Name, n.Types); err != nil {
			return err
		}
	}
	for _, l := range network.Links {
		if err := check(domain.ResourceTypeLink, l.Name, l.Types); err != nil {
			return err
		}
	}
	for _, g := range network.ResourceGroups {
		if err := check(domain.ResourceTypeGroup, g.Name, g.Types); err != nil {
			return err
		}
	}
	return nil
}

// checkGroupItems verifies that every item references an entity of network
func checkGroupItems(network *domain.Network, items []domain.GroupMember) error {
	ids := map[domain.RefKind]map[int64]bool{
		domain.RefNode:  make(map[int64]bool, len(network.Nodes)),
		domain.RefLink:  make(map[int64]bool, len(network.Links)),
		domain.RefGroup: make(map[int64]bool, len(network.ResourceGroups)),
	}
	for _, n := range network.Nodes {
		ids[domain.RefNode][n.ID] = true
	}
	for _, l := range network.Links {
		ids[domain.RefLink][l.ID] = true
	}
	for _, g := range network.ResourceGroups {
		ids[domain.RefGroup][g.ID] = true
	}

	for _, item := range items {
		if !ids[domain.RefGroup][item.GroupID] {
			return invalid("group item %s: group %d is not part of network %d", item, item.GroupID, network.ID)
		}
		if !ids[item.RefKey][item.RefID] {
			return invalid("group item %s: %s %d is not part of network %d", item, item.RefKey, item.RefID, network.ID)
		}
	}
	return nil
}
