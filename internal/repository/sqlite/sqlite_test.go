package sqlite

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hydraimport/internal/domain"
	"hydraimport/internal/repository"
)

// ============================================================================
// Test Helpers
// ============================================================================

// newTestRepo creates an in-memory SQLite repository for testing
func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
	})
	return repo
}

// seedProject creates a project and returns its ID
func seedProject(t *testing.T, repo *Repository) int64 {
	t.Helper()
	p := &domain.Project{Name: "Test Project"}
	require.NoError(t, repo.CreateProject(context.Background(), p))
	return p.ID
}

// testNetwork returns a network with provisional IDs
func testNetwork(projectID int64) *domain.Network {
	binding := domain.TypeBinding{TemplateID: 1, ID: 7}
	return &domain.Network{
		ProjectID:  projectID,
		Name:       "Imported Network",
		Projection: domain.DefaultProjection,
		Types:      []domain.TypeBinding{{TemplateID: 1, ID: 1}},
		Nodes: []domain.NetworkNode{
			*domain.NewNetworkNode(-1, "Lake", 10, -100000, binding),
			*domain.NewNetworkNode(-2, "Dam", 20, 100000, binding),
		},
		Links: []domain.NetworkLink{
			*domain.NewNetworkLink(-1, "Lake to Dam", -1, -2, binding),
		},
		ResourceGroups: []domain.ResourceGroup{
			*domain.NewResourceGroup(-1, "Agency", binding),
		},
		Scenarios: make([]domain.Scenario, 0),
	}
}

// ============================================================================
// Helper Function Tests
// ============================================================================

func TestNullToString(t *testing.T) {
	tests := []struct {
		name     string
		input    sql.NullString
		expected string
	}{
		{"valid", sql.NullString{String: "EPSG:2229", Valid: true}, "EPSG:2229"},
		{"null", sql.NullString{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, nullToString(tt.input))
		})
	}
}

func TestMarshalToNull(t *testing.T) {
	empty, err := marshalToNull([]domain.TypeBinding{})
	require.NoError(t, err)
	assert.False(t, empty.Valid)

	full, err := marshalToNull([]domain.TypeBinding{{TemplateID: 1, ID: 2}})
	require.NoError(t, err)
	assert.True(t, full.Valid)
	assert.JSONEq(t, `[{"template_id":1,"id":2}]`, full.String)
}

func TestInClause(t *testing.T) {
	clause, args := inClause([]int64{3, 4})
	assert.Equal(t, "(?, ?)", clause)
	assert.Equal(t, []interface{}{int64(3), int64(4)}, args)
}

// ============================================================================
// Project, Template and Attribute Tests
// ============================================================================

func TestProjects(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	p := &domain.Project{Name: "Alpha", Description: "first"}
	require.NoError(t, repo.CreateProject(ctx, p))
	assert.Positive(t, p.ID)

	got, err := repo.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, *p, *got)

	_, err = repo.GetProject(ctx, 999)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestTemplates(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	tmpl := &domain.Template{
		Name: "Water",
		Types: []domain.TypeDescriptor{
			{Name: "Network", ResourceType: domain.ResourceTypeNetwork},
			{Name: "Reservoir", ResourceType: domain.ResourceTypeNode},
		},
	}
	require.NoError(t, repo.SaveTemplate(ctx, tmpl))
	require.Positive(t, tmpl.ID)
	for _, typ := range tmpl.Types {
		assert.Positive(t, typ.ID)
		assert.Equal(t, tmpl.ID, typ.TemplateID)
	}

	byID, err := repo.GetTemplate(ctx, tmpl.ID)
	require.NoError(t, err)
	assert.Equal(t, tmpl.Types, byID.Types)

	byName, err := repo.GetTemplateByName(ctx, "Water")
	require.NoError(t, err)
	assert.Equal(t, tmpl.ID, byName.ID)

	err = repo.SaveTemplate(ctx, &domain.Template{Name: "Water"})
	assert.ErrorIs(t, err, repository.ErrConflict)

	_, err = repo.GetTemplate(ctx, 999)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestAttributes(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	storage := &domain.Attribute{Name: "storage", Dimension: "Volume"}
	require.NoError(t, repo.SaveAttribute(ctx, storage))

	again := &domain.Attribute{Name: "storage", Dimension: "Volume"}
	require.NoError(t, repo.SaveAttribute(ctx, again))
	assert.Equal(t, storage.ID, again.ID)

	flow := &domain.Attribute{Name: "flow"}
	require.NoError(t, repo.SaveAttribute(ctx, flow))

	attrs, err := repo.ListAttributes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Attribute{*storage, *flow}, attrs)
}

// ============================================================================
// Network and Scenario Tests
// ============================================================================

func TestCreateNetwork(t *testing.T) {
	t.Run("assigns permanent ids and remaps link endpoints", func(t *testing.T) {
		repo := newTestRepo(t)
		ctx := context.Background()
		n := testNetwork(seedProject(t, repo))

		require.NoError(t, repo.CreateNetwork(ctx, n))
		assert.Positive(t, n.ID)
		for _, node := range n.Nodes {
			assert.Positive(t, node.ID)
		}
		assert.Equal(t, n.Nodes[0].ID, n.Links[0].Node1ID)
		assert.Equal(t, n.Nodes[1].ID, n.Links[0].Node2ID)
		assert.Positive(t, n.ResourceGroups[0].ID)

		got, err := repo.GetNetwork(ctx, n.ID, nil)
		require.NoError(t, err)
		assert.Equal(t, n.Name, got.Name)
		assert.Equal(t, domain.DefaultProjection, got.Projection)
		assert.Equal(t, n.Types, got.Types)
		assert.Equal(t, n.Nodes, got.Nodes)
		assert.Equal(t, n.Links, got.Links)
		assert.Equal(t, n.ResourceGroups, got.ResourceGroups)
		assert.Empty(t, got.Scenarios)
	})

	t.Run("dangling link endpoint rolls back", func(t *testing.T) {
		repo := newTestRepo(t)
		ctx := context.Background()
		n := testNetwork(seedProject(t, repo))
		n.Links[0].Node2ID = -9

		err := repo.CreateNetwork(ctx, n)
		assert.ErrorIs(t, err, repository.ErrInvalidReference)

		var count int
		require.NoError(t, repo.db.QueryRow(`SELECT COUNT(*) FROM networks`).Scan(&count))
		assert.Zero(t, count)
	})

	t.Run("identical networks are stored twice", func(t *testing.T) {
		repo := newTestRepo(t)
		ctx := context.Background()
		projectID := seedProject(t, repo)

		first, second := testNetwork(projectID), testNetwork(projectID)
		require.NoError(t, repo.CreateNetwork(ctx, first))
		require.NoError(t, repo.CreateNetwork(ctx, second))
		assert.NotEqual(t, first.ID, second.ID)
		assert.NotEqual(t, first.Nodes[0].ID, second.Nodes[0].ID)
	})

	t.Run("unknown network", func(t *testing.T) {
		repo := newTestRepo(t)
		_, err := repo.GetNetwork(context.Background(), 42, nil)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestScenarios(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	n := testNetwork(seedProject(t, repo))
	require.NoError(t, repo.CreateNetwork(ctx, n))

	group := n.ResourceGroups[0].ID
	baseline := &domain.Scenario{
		Name:      "Baseline",
		NetworkID: n.ID,
		ResourceGroupItems: []domain.GroupMember{
			{RefKey: domain.RefNode, RefID: n.Nodes[0].ID, GroupID: group},
			{RefKey: domain.RefLink, RefID: n.Links[0].ID, GroupID: group},
		},
		ResourceScenarios: []domain.ResourceScenario{{ResourceAttrID: 1, Value: "12.5"}},
	}
	require.NoError(t, repo.CreateScenario(ctx, baseline))
	require.Positive(t, baseline.ID)

	other := &domain.Scenario{Name: "Dry Year", NetworkID: n.ID}
	require.NoError(t, repo.CreateScenario(ctx, other))

	got, err := repo.GetScenario(ctx, baseline.ID)
	require.NoError(t, err)
	assert.Equal(t, baseline.ResourceGroupItems, got.ResourceGroupItems)
	assert.Equal(t, baseline.ResourceScenarios, got.ResourceScenarios)

	t.Run("network loads requested scenarios only", func(t *testing.T) {
		net, err := repo.GetNetwork(ctx, n.ID, []int64{other.ID})
		require.NoError(t, err)
		require.Len(t, net.Scenarios, 1)
		assert.Equal(t, "Dry Year", net.Scenarios[0].Name)
	})

	t.Run("network loads every scenario by default", func(t *testing.T) {
		net, err := repo.GetNetwork(ctx, n.ID, nil)
		require.NoError(t, err)
		assert.Len(t, net.Scenarios, 2)
	})

	t.Run("unknown network", func(t *testing.T) {
		err := repo.CreateScenario(ctx, &domain.Scenario{Name: "x", NetworkID: 999})
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("unknown scenario", func(t *testing.T) {
		_, err := repo.GetScenario(ctx, 999)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

// ============================================================================
// User and Session Tests
// ============================================================================

func TestUsersAndSessions(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.CreateUser(ctx, "root", []byte("hash")))
	assert.ErrorIs(t, repo.CreateUser(ctx, "root", []byte("other")), repository.ErrConflict)

	hash, err := repo.GetPasswordHash(ctx, "root")
	require.NoError(t, err)
	assert.Equal(t, []byte("hash"), hash)

	_, err = repo.GetPasswordHash(ctx, "nobody")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	expires := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	require.NoError(t, repo.CreateSession(ctx, "abc", "root", expires))

	user, got, err := repo.GetSession(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "root", user)
	assert.True(t, expires.Equal(got), "expected %v, got %v", expires, got)

	_, _, err = repo.GetSession(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
