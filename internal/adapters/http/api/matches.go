package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/okian/rally/internal/domain/model"
)

// MatchDependencies defines the interface for match ingestion.
type MatchDependencies interface {
	// Submit validates and queues a match. It returns the match id, generated
	// when missing, and reports true for an id that was already accepted.
	Submit(ctx context.Context, m model.Match) (string, bool, error)
}

// MatchesHandler handles match submissions.
type MatchesHandler struct {
	deps MatchDependencies
}

// NewMatchesHandler creates a new matches handler.
func NewMatchesHandler(deps MatchDependencies) *MatchesHandler {
	return &MatchesHandler{deps: deps}
}

// matchRequest mirrors the OpenAPI schema for POST /matches.
type matchRequest struct {
	MatchID string   `json:"match_id"`
	Player1 string   `json:"player1"`
	Player2 string   `json:"player2"`
	Points1 *float64 `json:"points1"`
	Points2 *float64 `json:"points2"`
	Winner  int      `json:"winner"`
	Date    string   `json:"date"`
}

func (m matchRequest) toMatch() (model.Match, error) {
	id := strings.TrimSpace(m.MatchID)
	if m.Points1 == nil {
		return model.Match{}, &model.IntegrityError{MatchID: id, Field: "points1", Reason: "missing score"}
	}
	if m.Points2 == nil {
		return model.Match{}, &model.IntegrityError{MatchID: id, Field: "points2", Reason: "missing score"}
	}
	date, err := parseDate(m.Date)
	if err != nil {
		return model.Match{}, err
	}
	return model.Match{
		ID:      id,
		Date:    date,
		PlayerA: m.Player1,
		PlayerB: m.Player2,
		ScoreA:  *m.Points1,
		ScoreB:  *m.Points2,
		Winner:  model.Outcome(m.Winner),
	}, nil
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
	MatchID   string `json:"match_id,omitempty"`
}

// HandlePostMatch handles POST /matches requests.
func (h *MatchesHandler) HandlePostMatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_match"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req matchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	m, err := req.toMatch()
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	id, dup, err := h.deps.Submit(r.Context(), m)
	if err != nil {
		writeUpstreamError(w, op, err)
		return
	}
	if dup {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true, MatchID: id})
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", MatchID: id})
}
