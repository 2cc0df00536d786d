package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"hydraimport/internal/domain"
	"hydraimport/internal/repository/sqlite"
)

type fixture struct {
	svc      *PersistenceService
	events   chan Event
	tmpl     *domain.Template
	project  *domain.Project
	bindings map[string]domain.TypeBinding
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	repo, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	bus := NewEventBus()
	events := make(chan Event, 32)
	bus.Subscribe(events)

	svc := NewPersistenceService(repo, bus, zap.NewNop(), opts...)
	ctx := context.Background()

	tmpl, err := svc.SeedTemplate(ctx, &TemplateFile{
		Name: "Water",
		Types: []domain.TypeDescriptor{
			{Name: "Network", ResourceType: domain.ResourceTypeNetwork},
			{Name: "Reservoir", ResourceType: domain.ResourceTypeNode},
			{Name: "River", ResourceType: domain.ResourceTypeLink},
			{Name: "Agency", ResourceType: domain.ResourceTypeGroup},
		},
		Attributes: []domain.Attribute{{Name: "storage", Dimension: "Volume"}},
	})
	require.NoError(t, err)

	project, err := svc.AddProject(ctx, &domain.Project{Name: "Test"})
	require.NoError(t, err)

	bindings := make(map[string]domain.TypeBinding)
	for _, typ := range tmpl.Types {
		bindings[typ.Name] = typ.Binding()
	}
	return &fixture{svc: svc, events: events, tmpl: tmpl, project: project, bindings: bindings}
}

func (f *fixture) network() *domain.Network {
	return &domain.Network{
		ProjectID:  f.project.ID,
		Name:       "Imported Network",
		Projection: domain.DefaultProjection,
		Types:      []domain.TypeBinding{f.bindings["Network"]},
		Nodes: []domain.NetworkNode{
			*domain.NewNetworkNode(-1, "Lake", 0, 0, f.bindings["Reservoir"]),
			*domain.NewNetworkNode(-2, "Dam", 1, 1, f.bindings["Reservoir"]),
		},
		Links: []domain.NetworkLink{
			*domain.NewNetworkLink(-1, "Lake to Dam", -1, -2, f.bindings["River"]),
		},
		ResourceGroups: []domain.ResourceGroup{
			*domain.NewResourceGroup(-1, "Agency", f.bindings["Agency"]),
		},
	}
}

func drain(ch chan Event) []EventType {
	var types []EventType
	for {
		select {
		case e := <-ch:
			types = append(types, e.Type)
		default:
			return types
		}
	}
}

func TestSeedTemplate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("assigns ids", func(t *testing.T) {
		assert.Positive(t, f.tmpl.ID)
		require.Len(t, f.tmpl.Types, 4)
		for _, typ := range f.tmpl.Types {
			assert.Positive(t, typ.ID)
		}
		attrs, err := f.svc.GetAllAttributes(ctx)
		require.NoError(t, err)
		require.Len(t, attrs, 1)
		assert.Equal(t, "storage", attrs[0].Name)
	})

	t.Run("seeding again returns the stored template", func(t *testing.T) {
		again, err := f.svc.SeedTemplate(ctx, &TemplateFile{
			Name:  "Water",
			Types: []domain.TypeDescriptor{{Name: "Other"}},
		})
		require.NoError(t, err)
		assert.Equal(t, f.tmpl.ID, again.ID)
		assert.Len(t, again.Types, 4)
	})

	t.Run("from yaml file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "template.yaml")
		content := "name: Energy\ntypes:\n  - name: Network\n    resource_type: NETWORK\n  - name: Plant\n    resource_type: NODE\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		tmpl, err := f.svc.SeedTemplateFile(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, "Energy", tmpl.Name)
		assert.Len(t, tmpl.Types, 2)
	})

	t.Run("rejects a template without types", func(t *testing.T) {
		_, err := f.svc.SeedTemplate(ctx, &TemplateFile{Name: "Empty"})
		svcErr, _ := AsError(err)
		assert.Equal(t, CodeInvalid, svcErr.Code)
	})
}

func TestAddNetwork(t *testing.T) {
	ctx := context.Background()

	t.Run("returns permanent ids", func(t *testing.T) {
		f := newFixture(t)
		drain(f.events)

		saved, err := f.svc.AddNetwork(ctx, f.network())
		require.NoError(t, err)
		assert.Positive(t, saved.ID)
		require.Len(t, saved.Nodes, 2)
		for _, n := range saved.Nodes {
			assert.Positive(t, n.ID)
		}
		assert.Equal(t, saved.Nodes[0].ID, saved.Links[0].Node1ID)
		assert.Equal(t, saved.Nodes[1].ID, saved.Links[0].Node2ID)
		assert.Positive(t, saved.ResourceGroups[0].ID)
		assert.Empty(t, saved.Scenarios)
		assert.Equal(t, []EventType{EventNetworkCreated}, drain(f.events))
	})

	tests := []struct {
		name   string
		mutate func(f *fixture, n *domain.Network)
		code   int
	}{
		{
			name:   "unknown project",
			mutate: func(_ *fixture, n *domain.Network) { n.ProjectID = 999 },
			code:   CodeNotFound,
		},
		{
			name:   "missing name",
			mutate: func(_ *fixture, n *domain.Network) { n.Name = "" },
			code:   CodeInvalid,
		},
		{
			name: "scenarios included",
			mutate: func(_ *fixture, n *domain.Network) {
				n.Scenarios = []domain.Scenario{{Name: "Baseline"}}
			},
			code: CodeInvalid,
		},
		{
			name: "type outside template",
			mutate: func(f *fixture, n *domain.Network) {
				n.Nodes[0].Types = []domain.TypeBinding{{TemplateID: f.tmpl.ID, ID: 999}}
			},
			code: CodeInvalid,
		},
		{
			name: "unknown template",
			mutate: func(_ *fixture, n *domain.Network) {
				n.Nodes[0].Types = []domain.TypeBinding{{TemplateID: 999, ID: 1}}
			},
			code: CodeInvalid,
		},
		{
			name: "link type bound to a node",
			mutate: func(f *fixture, n *domain.Network) {
				n.Nodes[0].Types = []domain.TypeBinding{f.bindings["River"]}
			},
			code: CodeInvalid,
		},
		{
			name:   "repeated node id",
			mutate: func(_ *fixture, n *domain.Network) { n.Nodes[1].ID = -1 },
			code:   CodeInvalid,
		},
		{
			name:   "dangling link endpoint",
			mutate: func(_ *fixture, n *domain.Network) { n.Links[0].Node2ID = -7 },
			code:   CodeInvalid,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			n := f.network()
			tt.mutate(f, n)

			_, err := f.svc.AddNetwork(ctx, n)
			require.Error(t, err)
			svcErr, internal := AsError(err)
			assert.False(t, internal, "unexpected internal error: %v", err)
			assert.Equal(t, tt.code, svcErr.Code, svcErr.Message)
		})
	}
}

func TestAddScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	saved, err := f.svc.AddNetwork(ctx, f.network())
	require.NoError(t, err)
	group := saved.ResourceGroups[0].ID

	t.Run("stores group items", func(t *testing.T) {
		scenario, err := f.svc.AddScenario(ctx, saved.ID, &domain.Scenario{
			Name: "Baseline",
			ResourceGroupItems: []domain.GroupMember{
				{RefKey: domain.RefNode, RefID: saved.Nodes[0].ID, GroupID: group},
				{RefKey: domain.RefLink, RefID: saved.Links[0].ID, GroupID: group},
			},
		})
		require.NoError(t, err)
		assert.Positive(t, scenario.ID)
		assert.Equal(t, saved.ID, scenario.NetworkID)
		assert.Len(t, scenario.ResourceGroupItems, 2)

		network, err := f.svc.GetNetwork(ctx, saved.ID, []int64{scenario.ID})
		require.NoError(t, err)
		require.Len(t, network.Scenarios, 1)
		assert.Equal(t, "Baseline", network.Scenarios[0].Name)
	})

	t.Run("rejects items outside the network", func(t *testing.T) {
		_, err := f.svc.AddScenario(ctx, saved.ID, &domain.Scenario{
			Name: "Broken",
			ResourceGroupItems: []domain.GroupMember{
				{RefKey: domain.RefNode, RefID: 9999, GroupID: group},
			},
		})
		svcErr, _ := AsError(err)
		assert.Equal(t, CodeInvalid, svcErr.Code)
	})

	t.Run("rejects unknown group", func(t *testing.T) {
		_, err := f.svc.AddScenario(ctx, saved.ID, &domain.Scenario{
			Name: "Broken",
			ResourceGroupItems: []domain.GroupMember{
				{RefKey: domain.RefNode, RefID: saved.Nodes[0].ID, GroupID: 9999},
			},
		})
		svcErr, _ := AsError(err)
		assert.Equal(t, CodeInvalid, svcErr.Code)
	})

	t.Run("rejects mismatched network id", func(t *testing.T) {
		_, err := f.svc.AddScenario(ctx, saved.ID, &domain.Scenario{Name: "x", NetworkID: saved.ID + 1})
		svcErr, _ := AsError(err)
		assert.Equal(t, CodeInvalid, svcErr.Code)
	})

	t.Run("unknown network", func(t *testing.T) {
		_, err := f.svc.AddScenario(ctx, 999, &domain.Scenario{Name: "x"})
		svcErr, _ := AsError(err)
		assert.Equal(t, CodeNotFound, svcErr.Code)
	})
}

func TestSessions(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	f := newFixture(t, WithClock(func() time.Time { return now }), WithSessionTTL(time.Hour))

	require.NoError(t, f.svc.EnsureUser(ctx, "root", "secret"))
	require.NoError(t, f.svc.EnsureUser(ctx, "root", "changed"))

	t.Run("wrong password", func(t *testing.T) {
		_, err := f.svc.Login(ctx, "root", "changed")
		svcErr, _ := AsError(err)
		assert.Equal(t, CodeUnauthorized, svcErr.Code)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := f.svc.Login(ctx, "nobody", "secret")
		svcErr, _ := AsError(err)
		assert.Equal(t, CodeUnauthorized, svcErr.Code)
	})

	t.Run("session lifecycle", func(t *testing.T) {
		sessionID, err := f.svc.Login(ctx, "root", "secret")
		require.NoError(t, err)
		require.NotEmpty(t, sessionID)

		user, err := f.svc.Authenticate(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "root", user)

		now = now.Add(2 * time.Hour)
		_, err = f.svc.Authenticate(ctx, sessionID)
		svcErr, _ := AsError(err)
		assert.Equal(t, CodeUnauthorized, svcErr.Code)
	})

	t.Run("missing session", func(t *testing.T) {
		_, err := f.svc.Authenticate(ctx, "")
		svcErr, _ := AsError(err)
		assert.Equal(t, CodeUnauthorized, svcErr.Code)
	})
}

func TestAsError(t *testing.T) {
	svcErr, internal := AsError(assert.AnError)
	assert.True(t, internal)
	assert.Equal(t, CodeInternal, svcErr.Code)
	assert.Equal(t, "internal error", svcErr.Message)
}
