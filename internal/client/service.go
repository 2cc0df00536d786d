package client

import (
	"context"

	"hydraimport/internal/domain"
)

// GetProject fetches a project by ID
func (c *Client) GetProject(ctx context.Context, projectID int64) (*domain.Project, error) {
	var project domain.Project
	if err := c.Call(ctx, "get_project", map[string]int64{"project_id": projectID}, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// AddProject creates a project
func (c *Client) AddProject(ctx context.Context, project *domain.Project) (*domain.Project, error) {
	var saved domain.Project
	if err := c.Call(ctx, "add_project", map[string]any{"project": project}, &saved); err != nil {
		return nil, err
	}
	return &saved, nil
}

// GetTemplate fetches a template with its types
func (c *Client) GetTemplate(ctx context.Context, templateID int64) (*domain.Template, error) {
	var tmpl domain.Template
	if err := c.Call(ctx, "get_template", map[string]int64{"template_id": templateID}, &tmpl); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// GetAllAttributes fetches the attribute catalogue
func (c *Client) GetAllAttributes(ctx context.Context) ([]domain.Attribute, error) {
	var attrs []domain.Attribute
	if err := c.Call(ctx, "get_all_attributes", map[string]any{}, &attrs); err != nil {
		return nil, err
	}
	return attrs, nil
}

// AddNetwork creates a network and returns it with permanent IDs
func (c *Client) AddNetwork(ctx context.Context, network *domain.Network) (*domain.Network, error) {
	var saved domain.Network
	if err := c.Call(ctx, "add_network", map[string]any{"net": network}, &saved); err != nil {
		return nil, err
	}
	return &saved, nil
}

// GetNetwork fetches a network with its nodes, links and groups, limited
// to the given scenarios
func (c *Client) GetNetwork(ctx context.Context, networkID int64, scenarioIDs ...int64) (*domain.Network, error) {
	var network domain.Network
	params := map[string]any{"network_id": networkID}
	if len(scenarioIDs) > 0 {
		params["scenario_ids"] = scenarioIDs
	}
	if err := c.Call(ctx, "get_network", params, &network); err != nil {
		return nil, err
	}
	return &network, nil
}

// AddScenario creates a scenario on networkID
func (c *Client) AddScenario(ctx context.Context, networkID int64, scenario *domain.Scenario) (*domain.Scenario, error) {
	var saved domain.Scenario
	params := map[string]any{"network_id": networkID, "scen": scenario}
	if err := c.Call(ctx, "add_scenario", params, &saved); err != nil {
		return nil, err
	}
	return &saved, nil
}

// GetScenario fetches a scenario by ID
func (c *Client) GetScenario(ctx context.Context, scenarioID int64) (*domain.Scenario, error) {
	var scenario domain.Scenario
	if err := c.Call(ctx, "get_scenario", map[string]int64{"scenario_id": scenarioID}, &scenario); err != nil {
		return nil, err
	}
	return &scenario, nil
}
