package handler

import (
	"context"
	"encoding/json"

	"hydraimport/internal/domain"
	"hydraimport/internal/service"
)

func (h *RPCHandler) register() map[string]method {
	return map[string]method{
		"login":              {public: true, call: h.login},
		"get_project":        {call: h.getProject},
		"add_project":        {call: h.addProject},
		"get_template":       {call: h.getTemplate},
		"get_all_attributes": {call: h.getAllAttributes},
		"add_network":        {call: h.addNetwork},
		"get_network":        {call: h.getNetwork},
		"add_scenario":       {call: h.addScenario},
		"get_scenario":       {call: h.getScenario},
	}
}

func (h *RPCHandler) login(ctx context.Context, params json.RawMessage) (any, error) {
	var p struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	sessionID, err := h.backend.Login(ctx, p.Username, p.Password)
	if err != nil {
		return nil, err
	}
	return map[string]string{"session_id": sessionID}, nil
}

func (h *RPCHandler) getProject(ctx context.Context, params json.RawMessage) (any, error) {
	var p struct {
		ProjectID int64 `json:"project_id"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	return h.backend.GetProject(ctx, p.ProjectID)
}

func (h *RPCHandler) addProject(ctx context.Context, params json.RawMessage) (any, error) {
	var p struct {
		Project *domain.Project `json:"project"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	return h.backend.AddProject(ctx, p.Project)
}

func (h *RPCHandler) getTemplate(ctx context.Context, params json.RawMessage) (any, error) {
	var p struct {
		TemplateID int64 `json:"template_id"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	return h.backend.GetTemplate(ctx, p.TemplateID)
}

func (h *RPCHandler) getAllAttributes(ctx context.Context, _ json.RawMessage) (any, error) {
	return h.backend.GetAllAttributes(ctx)
}

func (h *RPCHandler) addNetwork(ctx context.Context, params json.RawMessage) (any, error) {
	var p struct {
		Net *domain.Network `json:"net"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	return h.backend.AddNetwork(ctx, p.Net)
}

func (h *RPCHandler) getNetwork(ctx context.Context, params json.RawMessage) (any, error) {
	var p struct {
		NetworkID   int64   `json:"network_id"`
		ScenarioIDs []int64 `json:"scenario_ids"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	return h.backend.GetNetwork(ctx, p.NetworkID, p.ScenarioIDs)
}

func (h *RPCHandler) addScenario(ctx context.Context, params json.RawMessage) (any, error) {
	var p struct {
		NetworkID int64            `json:"network_id"`
		Scen      *domain.Scenario `json:"scen"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.NetworkID == 0 && p.Scen != nil {
		p.NetworkID = p.Scen.NetworkID
	}
	if p.NetworkID <= 0 {
		return nil, &service.Error{Code: service.CodeInvalid, Message: "network_id is required"}
	}
	return h.backend.AddScenario(ctx, p.NetworkID, p.Scen)
}

func (h *RPCHandler) getScenario(ctx context.Context, params json.RawMessage) (any, error) {
	var p struct {
		ScenarioID int64 `json:"scenario_id"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	return h.backend.GetScenario(ctx, p.ScenarioID)
}
