package api

import (
	"context"
	"net/http"

	"github.com/okian/rally/internal/domain/model"
	"github.com/okian/rally/internal/domain/types"
)

// TraceDependencies defines the interface for rating traces.
type TraceDependencies interface {
	Trace(ctx context.Context, competitor string) ([]types.TracePoint, error)
}

// TraceHandler handles trace requests.
type TraceHandler struct {
	deps TraceDependencies
}

// NewTraceHandler creates a new trace handler.
func NewTraceHandler(deps TraceDependencies) *TraceHandler {
	return &TraceHandler{deps: deps}
}

type traceResponse struct {
	Competitor string             `json:"competitor"`
	Points     []types.TracePoint `json:"points"`
}

// HandleGetTrace handles GET /trace/{name} requests.
func (h *TraceHandler) HandleGetTrace(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_trace"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	name, ok := pathParam(r, "/trace/")
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	points, err := h.deps.Trace(r.Context(), name)
	if err != nil {
		writeUpstreamError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, traceResponse{Competitor: model.NormalizeName(name), Points: points})
}
