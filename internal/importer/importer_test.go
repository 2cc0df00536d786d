package importer

import (
	"context"
	"errors"
	"testing"
	"time"

	"hydraimport/internal/domain"
	"hydraimport/internal/observability"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestImporterRun(t *testing.T) {
	svc := newFakeService()
	metrics, err := observability.NewMetrics(nil)
	require.NoError(t, err)

	bus := NewProgressBus()
	var events []ProgressEvent
	bus.Subscribe(func(e ProgressEvent) { events = append(events, e) })

	imp := New(svc, zap.NewNop(), WithMetrics(metrics), WithProgress(bus),
		WithClock(func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) }))

	result, err := imp.Run(context.Background(), sampleNetwork(), Options{TemplateID: 7, ProjectID: 3})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"get_template", "get_all_attributes", "get_project", "add_network", "add_scenario",
	}, svc.calls)
	assert.Equal(t, int64(3), result.Project.ID)
	assert.Greater(t, result.Network.ID, int64(0))
	assert.Greater(t, result.Scenario.ID, int64(0))
	assert.Len(t, result.Members, 4)

	require.Len(t, svc.scenarios, 1)
	assert.Equal(t, result.Network.ID, svc.scenarios[0].NetworkID)
	assert.Equal(t, BaselineScenarioName, svc.scenarios[0].Name)

	var stages []Stage
	for _, e := range events {
		stages = append(stages, e.Stage)
		assert.Equal(t, len(stageOrder), e.Total)
	}
	assert.Equal(t, stageOrder, stages)

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.EntitiesBuilt.WithLabelValues("node")))
	assert.Equal(t, 4.0, testutil.ToFloat64(metrics.EntitiesBuilt.WithLabelValues("member")))
}

func TestImporterRunTwiceCreatesTwoNetworks(t *testing.T) {
	svc := newFakeService()
	imp := New(svc, nil)

	first, err := imp.Run(context.Background(), sampleNetwork(), Options{TemplateID: 7})
	require.NoError(t, err)
	second, err := imp.Run(context.Background(), sampleNetwork(), Options{TemplateID: 7})
	require.NoError(t, err)

	assert.NotEqual(t, first.Network.ID, second.Network.ID)
	assert.NotEqual(t, first.Project.ID, second.Project.ID)
	assert.Equal(t, 2, svc.count("add_network"))

	// provisional IDs restart on each run
	assert.Equal(t, int64(-1), svc.networks[1].Nodes[0].ID)
}

func TestImporterRunUnresolvedType(t *testing.T) {
	svc := newFakeService()
	src := sampleNetwork()
	src.Nodes[0].ComponentType = "Pump"

	_, err := New(svc, nil).Run(context.Background(), src, Options{TemplateID: 7})
	assert.ErrorIs(t, err, ErrUnresolvedType)
	assert.Equal(t, 0, svc.count("add_project"))
	assert.Equal(t, 0, svc.count("add_network"))
	assert.Equal(t, 0, svc.count("add_scenario"))
}

func TestImporterRunStopsOnFailure(t *testing.T) {
	svc := newFakeService()
	svc.failOn["add_network"] = errors.New("service unavailable")

	_, err := New(svc, nil).Run(context.Background(), sampleNetwork(), Options{TemplateID: 7, ProjectID: 3})
	require.Error(t, err)
	assert.False(t, IsExpected(err))
	assert.Equal(t, 0, svc.count("add_scenario"))
}

func TestImporterRunMissingTemplate(t *testing.T) {
	svc := newFakeService()
	_, err := New(svc, nil).Run(context.Background(), sampleNetwork(), Options{})
	assert.ErrorIs(t, err, ErrMissingTemplate)
	assert.Empty(t, svc.calls)
}

func TestImporterRunEmptyNetwork(t *testing.T) {
	svc := newFakeService()
	result, err := New(svc, nil).Run(context.Background(), &domain.SourceNetwork{}, Options{TemplateID: 7})
	require.NoError(t, err)
	assert.Empty(t, result.Members)
	assert.Empty(t, svc.networks[0].Nodes)
}
