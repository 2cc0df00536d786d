package importer

import (
	"context"

	"hydraimport/internal/domain"
)

// TemplateService reads templates and the attribute catalogue
type TemplateService interface {
	GetTemplate(ctx context.Context, templateID int64) (*domain.Template, error)
	GetAllAttributes(ctx context.Context) ([]domain.Attribute, error)
}

// ProjectService reads and creates projects
type ProjectService interface {
	GetProject(ctx context.Context, projectID int64) (*domain.Project, error)
	AddProject(ctx context.Context, project *domain.Project) (*domain.Project, error)
}

// NetworkService creates networks
type NetworkService interface {
	AddNetwork(ctx context.Context, network *domain.Network) (*domain.Network, error)
}

// ScenarioService creates scenarios
type ScenarioService interface {
	AddScenario(ctx context.Context, networkID int64, scenario *domain.Scenario) (*domain.Scenario, error)
}

// Service is the subset of the persistence service an import needs
type Service interface {
	TemplateService
	ProjectService
	NetworkService
	ScenarioService
}
