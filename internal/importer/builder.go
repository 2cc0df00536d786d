package importer

import (
	"context"
	"fmt"
	"time"

	"hydraimport/internal/domain"
	"hydraimport/internal/observability"

	"go.uber.org/zap"
)

// BuildOptions tune how the network record is assembled
type BuildOptions struct {
	// StrictNames turns a repeated entity name into ErrDuplicateName instead
	// of letting the later entity replace the earlier one.
	StrictNames bool
	Projection  string
	NetworkName string
}

// BuildResult holds the entities built from one source network, indexed by
// name. Order slices keep the first-seen order of names.
type BuildResult struct {
	Nodes  map[string]*domain.NetworkNode
	Links  map[string]*domain.NetworkLink
	Groups map[string]*domain.ResourceGroup

	Warnings []string

	nodeOrder  []string
	linkOrder  []string
	groupOrder []string
}

func newBuildResult() *BuildResult {
	return &BuildResult{
		Nodes:  make(map[string]*domain.NetworkNode),
		Links:  make(map[string]*domain.NetworkLink),
		Groups: make(map[string]*domain.ResourceGroup),
	}
}

// NodeList returns the built nodes in source order
func (b *BuildResult) NodeList() []domain.NetworkNode {
	nodes := make([]domain.NetworkNode, 0, len(b.nodeOrder))
	for _, name := range b.nodeOrder {
		nodes = append(nodes, *b.Nodes[name])
	}
	return nodes
}

// LinkList returns the built links in source order
func (b *BuildResult) LinkList() []domain.NetworkLink {
	links := make([]domain.NetworkLink, 0, len(b.linkOrder))
	for _, name := range b.linkOrder {
		links = append(links, *b.Links[name])
	}
	return links
}

// GroupList returns the built groups in source order
func (b *BuildResult) GroupList() []domain.ResourceGroup {
	groups := make([]domain.ResourceGroup, 0, len(b.groupOrder))
	for _, name := range b.groupOrder {
		groups = append(groups, *b.Groups[name])
	}
	return groups
}

// NetworkBuilder turns a source network into persistable entities and
// submits them as one network.
type NetworkBuilder struct {
	registry *TypeRegistry
	projects *ProjectResolver
	networks NetworkService
	opts     BuildOptions
	now      func() time.Time
	log      *zap.Logger
	metrics  *observability.Metrics

	nodeIDs  *TempIDAllocator
	linkIDs  *TempIDAllocator
	groupIDs *TempIDAllocator
}

// NewNetworkBuilder creates a builder with fresh ID allocators
func NewNetworkBuilder(registry *TypeRegistry, projects *ProjectResolver, networks NetworkService, opts BuildOptions, log *zap.Logger) *NetworkBuilder {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Projection == "" {
		opts.Projection = domain.DefaultProjection
	}
	if opts.NetworkName == "" {
		opts.NetworkName = "Imported"
	}
	return &NetworkBuilder{
		registry: registry,
		projects: projects,
		networks: networks,
		opts:     opts,
		now:      time.Now,
		log:      log,
		nodeIDs:  NewTempIDAllocator(),
		linkIDs:  NewTempIDAllocator(),
		groupIDs: NewTempIDAllocator(),
	}
}

// Build constructs nodes, then links, then groups. It makes no remote calls.
// Nested institutions are not visited here; every institution that should
// become a group must be listed at the top level of src.
func (b *NetworkBuilder) Build(src *domain.SourceNetwork) (*BuildResult, error) {
	result := newBuildResult()

	for _, sn := range src.Nodes {
		b.log.Debug("node", zap.String("name", sn.Name), zap.String("component_type", sn.ComponentType))
		binding, err := b.registry.Binding(sn.ComponentType)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", sn.Name, err)
		}
		if err := b.checkDuplicate(result, "node", sn.Name, result.Nodes[sn.Name] != nil); err != nil {
			return nil, err
		}
		if result.Nodes[sn.Name] == nil {
			result.nodeOrder = append(result.nodeOrder, sn.Name)
		}
		result.Nodes[sn.Name] = domain.NewNetworkNode(b.nodeIDs.Next(), sn.Name, sn.X, NormalizeY(sn.Y), binding)
		b.metrics.EntityBuilt("node")
	}

	// Links resolve their endpoints against the node index, so every node
	// must be built first.
	for _, sl := range src.Links {
		b.log.Debug("link", zap.String("name", sl.Name), zap.String("component_type", sl.ComponentType))
		binding, err := b.registry.Binding(sl.ComponentType)
		if err != nil {
			return nil, fmt.Errorf("link %q: %w", sl.Name, err)
		}
		start, ok := result.Nodes[sl.StartNode]
		if !ok {
			return nil, NewError(ErrDanglingReference, "link %q starts at unknown node %q", sl.Name, sl.StartNode)
		}
		end, ok := result.Nodes[sl.EndNode]
		if !ok {
			return nil, NewError(ErrDanglingReference, "link %q ends at unknown node %q", sl.Name, sl.EndNode)
		}
		if err := b.checkDuplicate(result, "link", sl.Name, result.Links[sl.Name] != nil); err != nil {
			return nil, err
		}
		if result.Links[sl.Name] == nil {
			result.linkOrder = append(result.linkOrder, sl.Name)
		}
		result.Links[sl.Name] = domain.NewNetworkLink(b.linkIDs.Next(), sl.Name, start.ID, end.ID, binding)
		b.metrics.EntityBuilt("link")
	}

	for _, inst := range src.Institutions {
		if inst == nil {
			continue
		}
		b.log.Debug("group", zap.String("name", inst.Name), zap.String("component_type", inst.ComponentType))
		binding, err := b.registry.Binding(inst.ComponentType)
		if err != nil {
			return nil, fmt.Errorf("institution %q: %w", inst.Name, err)
		}
		if err := b.checkDuplicate(result, "institution", inst.Name, result.Groups[inst.Name] != nil); err != nil {
			return nil, err
		}
		if result.Groups[inst.Name] == nil {
			result.groupOrder = append(result.groupOrder, inst.Name)
		}
		result.Groups[inst.Name] = domain.NewResourceGroup(b.groupIDs.Next(), inst.Name, binding)
		b.metrics.EntityBuilt("group")
	}

	b.log.Info("network built",
		zap.Int("nodes", len(result.Nodes)),
		zap.Int("links", len(result.Links)),
		zap.Int("groups", len(result.Groups)),
		zap.Int("warnings", len(result.Warnings)))

	return result, nil
}

func (b *NetworkBuilder) checkDuplicate(result *BuildResult, class, name string, exists bool) error {
	if !exists {
		return nil
	}
	if b.opts.StrictNames {
		return NewError(ErrDuplicateName, "%s %q is defined more than once", class, name)
	}
	msg := fmt.Sprintf("%s %q is defined more than once; the last definition wins", class, name)
	result.Warnings = append(result.Warnings, msg)
	b.log.Warn("duplicate name", zap.String("class", class), zap.String("name", name))
	return nil
}

// Assemble packages built entities into a network record for projectID
func (b *NetworkBuilder) Assemble(built *BuildResult, projectID int64, networkType domain.TypeDescriptor) *domain.Network {
	return &domain.Network{
		ProjectID:      projectID,
		Name:           fmt.Sprintf("%s Network (%s)", b.opts.NetworkName, b.now().Format(time.RFC3339)),
		Description:    "Network imported directly from the simulation model",
		Projection:     b.opts.Projection,
		Nodes:          built.NodeList(),
		Links:          built.LinkList(),
		ResourceGroups: built.GroupList(),
		Attributes:     make([]domain.ResourceAttribute, 0),
		Types:          []domain.TypeBinding{{TemplateID: b.registry.TemplateID(), ID: networkType.ID}},
		Scenarios:      make([]domain.Scenario, 0),
	}
}

// Commit resolves the destination project and creates the network in a
// single call. The returned network carries permanent IDs.
func (b *NetworkBuilder) Commit(ctx context.Context, built *BuildResult, projectID int64) (*domain.Network, error) {
	networkType, err := b.registry.Resolve(domain.NetworkTypeName)
	if err != nil {
		return nil, fmt.Errorf("network: %w", err)
	}

	project, err := b.projects.Resolve(ctx, projectID)
	if err != nil {
		return nil, err
	}

	network := b.Assemble(built, project.ID, networkType)
	persisted, err := b.networks.AddNetwork(ctx, network)
	if err != nil {
		return nil, fmt.Errorf("add network: %w", err)
	}

	b.log.Info("network created",
		zap.Int64("network_id", persisted.ID),
		zap.Int64("project_id", project.ID),
		zap.String("name", persisted.Name))

	return persisted, nil
}
