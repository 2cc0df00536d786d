package importer

import (
	"context"
	"fmt"

	"hydraimport/internal/domain"

	"go.uber.org/zap"
)

// BaselineScenarioName is the name of the scenario created with every import
const BaselineScenarioName = "Baseline"

// ScenarioAssembler packages group memberships into the baseline scenario
type ScenarioAssembler struct {
	svc ScenarioService
	log *zap.Logger
}

// NewScenarioAssembler creates an assembler that submits through svc
func NewScenarioAssembler(svc ScenarioService, log *zap.Logger) *ScenarioAssembler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ScenarioAssembler{svc: svc, log: log}
}

// Assemble builds the baseline scenario for networkID
func (a *ScenarioAssembler) Assemble(networkID int64, members []domain.GroupMember) *domain.Scenario {
	if members == nil {
		members = make([]domain.GroupMember, 0)
	}
	return &domain.Scenario{
		Name:               BaselineScenarioName,
		Description:        "Baseline scenario created by the network importer",
		NetworkID:          networkID,
		ResourceGroupItems: members,
		ResourceScenarios:  make([]domain.ResourceScenario, 0),
	}
}

// Submit creates the scenario on the persistence service
func (a *ScenarioAssembler) Submit(ctx context.Context, scenario *domain.Scenario) (*domain.Scenario, error) {
	saved, err := a.svc.AddScenario(ctx, scenario.NetworkID, scenario)
	if err != nil {
		return nil, fmt.Errorf("add scenario: %w", err)
	}
	a.log.Info("scenario created",
		zap.Int64("scenario_id", saved.ID),
		zap.Int64("network_id", scenario.NetworkID),
		zap.Int("group_items", len(scenario.ResourceGroupItems)))
	return saved, nil
}
