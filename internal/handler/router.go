package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// NewRouter mounts the JSON-RPC endpoint, the health check and, when
// events is not nil, the server-sent event stream
func NewRouter(rpc *RPCHandler, events http.Handler, log *zap.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(RequestID, Recover(log), CORS, Logger(log))

	r.Method(http.MethodPost, "/json", rpc)
	r.Get("/healthz", Health)
	if events != nil {
		r.Method(http.MethodGet, "/events", events)
	}
	return r
}
