package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"hydraimport/internal/domain"
	"hydraimport/internal/service"
)

// SessionHeader carries the session ID of an authenticated call
const SessionHeader = "X-Session-ID"

// maxBodyBytes limits the size of one JSON-RPC request
const maxBodyBytes = 64 << 20

// Backend is the persistence service the handler dispatches to
type Backend interface {
	Login(ctx context.Context, username, password string) (string, error)
	Authenticate(ctx context.Context, sessionID string) (string, error)

	GetProject(ctx context.Context, id int64) (*domain.Project, error)
	AddProject(ctx context.Context, project *domain.Project) (*domain.Project, error)
	GetTemplate(ctx context.Context, id int64) (*domain.Template, error)
	GetAllAttributes(ctx context.Context) ([]domain.Attribute, error)
	AddNetwork(ctx context.Context, network *domain.Network) (*domain.Network, error)
	GetNetwork(ctx context.Context, id int64, scenarioIDs []int64) (*domain.Network, error)
	AddScenario(ctx context.Context, networkID int64, scenario *domain.Scenario) (*domain.Scenario, error)
	GetScenario(ctx context.Context, id int64) (*domain.Scenario, error)
}

// Request is a JSON-RPC call
type Request struct {
	ID     string          `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

// Response carries either a result or an error
type Response struct {
	ID     string         `json:"id"`
	Result any            `json:"result,omitempty"`
	Error  *service.Error `json:"error,omitempty"`
}

type methodFunc func(ctx context.Context, params json.RawMessage) (any, error)

type method struct {
	public bool
	call   methodFunc
}

// RPCHandler serves the persistence service over JSON-RPC
type RPCHandler struct {
	backend Backend
	methods map[string]method
	log     *zap.Logger
}

// NewRPCHandler creates a new JSON-RPC handler
func NewRPCHandler(backend Backend, log *zap.Logger) *RPCHandler {
	if log == nil {
		log = zap.NewNop()
	}
	h := &RPCHandler{backend: backend, log: log}
	h.methods = h.register()
	return h
}

// Methods returns the names of every method the handler serves
func (h *RPCHandler) Methods() []string {
	names := make([]string, 0, len(h.methods))
	for name := range h.methods {
		names = append(names, name)
	}
	return names
}

// ServeHTTP dispatches one JSON-RPC request
func (h *RPCHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req Request
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		h.writeResponse(w, Response{Error: &service.Error{
			Code:    service.CodeInvalid,
			Message: fmt.Sprintf("invalid request body: %v", err),
		}}, http.StatusBadRequest)
		return
	}

	m, ok := h.methods[req.Method]
	if !ok {
		h.writeResponse(w, Response{ID: req.ID, Error: &service.Error{
			Code:    service.CodeInvalid,
			Message: fmt.Sprintf("unknown method %q", req.Method),
		}}, http.StatusOK)
		return
	}

	ctx := r.Context()
	if !m.public {
		user, err := h.backend.Authenticate(ctx, r.Header.Get(SessionHeader))
		if err != nil {
			h.writeError(w, req, err)
			return
		}
		ctx = withUser(ctx, user)
	}

	result, err := m.call(ctx, req.Params)
	if err != nil {
		h.writeError(w, req, err)
		return
	}

	h.log.Debug("rpc ok", zap.String("method", req.Method), zap.String("request_id", RequestIDFrom(ctx)))
	h.writeResponse(w, Response{ID: req.ID, Result: result}, http.StatusOK)
}

func (h *RPCHandler) writeError(w http.ResponseWriter, req Request, err error) {
	svcErr, internal := service.AsError(err)
	status := http.StatusOK
	switch {
	case internal:
		h.log.Error("rpc failed", zap.String("method", req.Method), zap.Error(err))
		status = http.StatusInternalServerError
	case svcErr.Code == service.CodeUnauthorized:
		status = http.StatusUnauthorized
	default:
		h.log.Info("rpc rejected", zap.String("method", req.Method), zap.Int("code", svcErr.Code), zap.String("reason", svcErr.Message))
	}
	h.writeResponse(w, Response{ID: req.ID, Error: svcErr}, status)
}

func (h *RPCHandler) writeResponse(w http.ResponseWriter, resp Response, statusCode int) {
	writeJSON(w, resp, statusCode, h.log)
}

// Health reports that the server is up
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"}, http.StatusOK, zap.NewNop())
}

func writeJSON(w http.ResponseWriter, data any, statusCode int, log *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Warn("failed to encode JSON", zap.Error(err))
	}
}

// decodeParams decodes params into v. Missing params decode as {}.
func decodeParams(params json.RawMessage, v any) error {
	if len(params) == 0 || string(params) == "null" {
		return nil
	}
	if err := json.Unmarshal(params, v); err != nil {
		return &service.Error{Code: service.CodeInvalid, Message: fmt.Sprintf("invalid params: %v", err)}
	}
	return nil
}
