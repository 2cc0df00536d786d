package runner

import (
	"context"
	"errors"
	"testing"

	"hydraimport/internal/domain"
	"hydraimport/internal/importer"
	"hydraimport/internal/simulation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) GetNetwork(ctx context.Context, networkID int64, scenarioIDs ...int64) (*domain.Network, error) {
	args := m.Called(ctx, networkID, scenarioIDs)
	n, _ := args.Get(0).(*domain.Network)
	return n, args.Error(1)
}

func (m *mockService) GetAllAttributes(ctx context.Context) ([]domain.Attribute, error) {
	args := m.Called(ctx)
	a, _ := args.Get(0).([]domain.Attribute)
	return a, args.Error(1)
}

type staticProvider struct {
	sims []*simulation.Simulation
	err  error
}

func (p staticProvider) Simulations(context.Context) ([]*simulation.Simulation, error) {
	return p.sims, p.err
}

func newSims(engine *simulation.InputEngine) []*simulation.Simulation {
	sim := simulation.New(&domain.SimulationSpec{
		Name:      "base",
		Timesteps: 2,
		Network: &domain.SourceNetwork{
			ExogenousInputs: domain.ExogenousInputs{"tariff": {1, 1}},
		},
	}, zap.NewNop())
	sim.AddEngine(engine)
	return []*simulation.Simulation{sim}
}

func TestParseOverride(t *testing.T) {
	tests := []struct {
		in      string
		want    Override
		wantErr bool
	}{
		{in: "tariff[0]=2", want: Override{Slot: "tariff", Index: 0, Value: 2}},
		{in: " amman.params[3] = 1.5 ", want: Override{Slot: "amman.params", Index: 3, Value: 1.5}},
		{in: "tariff=2", wantErr: true},
		{in: "tariff[-1]=2", wantErr: true},
		{in: "tariff[0]=cheap", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOverride(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, importer.ErrInvalidOverride)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRun(t *testing.T) {
	svc := new(mockService)
	network := &domain.Network{
		ID:         4,
		Types:      []domain.TypeBinding{{TemplateID: 7, ID: 1}},
		Attributes: []domain.ResourceAttribute{{AttrID: 11}, {AttrID: 99}},
	}
	svc.On("GetNetwork", mock.Anything, int64(4), []int64{12}).Return(network, nil)
	svc.On("GetAllAttributes", mock.Anything).Return([]domain.Attribute{{ID: 11, Name: "storage"}}, nil)

	engine := simulation.NewInputEngine(nil)
	bus := importer.NewProgressBus()
	var messages []string
	bus.Subscribe(func(e importer.ProgressEvent) { messages = append(messages, e.Message) })

	r := New(svc, staticProvider{sims: newSims(engine)}, bus, zap.NewNop())
	result, err := r.Run(context.Background(), Options{
		NetworkID:  4,
		ScenarioID: 12,
		Overrides:  []Override{{Slot: "tariff", Index: 0, Value: 2}},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(7), result.TemplateID)
	assert.Equal(t, []float64{2, 1}, engine.Values["tariff"])
	assert.Len(t, result.Warnings, 1)
	assert.Equal(t, CompleteMessage, messages[len(messages)-1])
	svc.AssertExpectations(t)
}

func TestRunRequiresIDs(t *testing.T) {
	svc := new(mockService)
	r := New(svc, staticProvider{}, nil, nil)

	_, err := r.Run(context.Background(), Options{ScenarioID: 1})
	assert.ErrorIs(t, err, importer.ErrMissingNetwork)

	_, err = r.Run(context.Background(), Options{NetworkID: 1})
	assert.ErrorIs(t, err, importer.ErrMissingScenario)
	assert.True(t, importer.IsExpected(err))

	svc.AssertNotCalled(t, "GetNetwork")
}

func TestRunNetworkNotFound(t *testing.T) {
	svc := new(mockService)
	svc.On("GetNetwork", mock.Anything, int64(4), []int64{12}).Return(nil, errors.New("remote error 404"))

	_, err := New(svc, staticProvider{}, nil, nil).Run(context.Background(), Options{NetworkID: 4, ScenarioID: 12})
	assert.ErrorIs(t, err, importer.ErrNetworkNotFound)
	assert.Contains(t, err.Error(), "network 4")
}

func TestRunBadOverride(t *testing.T) {
	svc := new(mockService)
	svc.On("GetNetwork", mock.Anything, int64(4), []int64{12}).Return(&domain.Network{ID: 4}, nil)
	svc.On("GetAllAttributes", mock.Anything).Return([]domain.Attribute{}, nil)

	engine := simulation.NewInputEngine(nil)
	r := New(svc, staticProvider{sims: newSims(engine)}, nil, nil)
	_, err := r.Run(context.Background(), Options{
		NetworkID:  4,
		ScenarioID: 12,
		Overrides:  []Override{{Slot: "tariff", Index: 5, Value: 2}},
	})
	assert.ErrorIs(t, err, importer.ErrInvalidOverride)
	assert.Empty(t, engine.Values, "no simulation may start")
}
