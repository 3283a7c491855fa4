package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/okian/rally/internal/domain/predict"
)

// PredictDependencies defines the interface for winner predictions.
type PredictDependencies interface {
	Predict(ctx context.Context, req predict.Request) (predict.Label, error)
	PredictMatch(ctx context.Context, player1, player2 string, date time.Time) (predict.Label, predict.Request, error)
}

// PredictHandler handles prediction requests.
type PredictHandler struct {
	deps PredictDependencies
}

// NewPredictHandler creates a new predict handler.
func NewPredictHandler(deps PredictDependencies) *PredictHandler {
	return &PredictHandler{deps: deps}
}

// predictRequest mirrors the OpenAPI schema for POST /predict. Every field
// is required.
type predictRequest struct {
	Age   *float64 `json:"age"`
	Elo1  *float64 `json:"elo1"`
	Elo2  *float64 `json:"elo2"`
	Grad1 *float64 `json:"grad1"`
	Grad2 *float64 `json:"grad2"`
}

func (p predictRequest) toRequest() (predict.Request, error) {
	for _, f := range []struct {
		name string
		v    *float64
	}{{"age", p.Age}, {"elo1", p.Elo1}, {"elo2", p.Elo2}, {"grad1", p.Grad1}, {"grad2", p.Grad2}} {
		if f.v == nil {
			return predict.Request{}, errors.New("missing " + f.name)
		}
	}
	return predict.Request{Age: *p.Age, Elo1: *p.Elo1, Elo2: *p.Elo2, Grad1: *p.Grad1, Grad2: *p.Grad2}, nil
}

type predictMatchRequest struct {
	Player1 string `json:"player1"`
	Player2 string `json:"player2"`
	Date    string `json:"date"`
}

type predictResponse struct {
	Winner   predict.Label    `json:"winner"`
	Code     string           `json:"code,omitempty"`
	Message  string           `json:"message,omitempty"`
	Features *predict.Request `json:"features,omitempty"`
}

// HandlePredict handles POST /predict requests.
func (h *PredictHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	const op = "api.predict"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var body predictRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	req, err := body.toRequest()
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	label, err := h.deps.Predict(r.Context(), req)
	if err != nil {
		writePredictError(w, op, label, nil, err)
		return
	}
	writeJSON(w, http.StatusOK, predictResponse{Winner: label})
}

// HandlePredictMatch handles POST /predict/match requests.
func (h *PredictHandler) HandlePredictMatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.predict_match"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var body predictMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	date, err := parseDate(body.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	label, req, err := h.deps.PredictMatch(r.Context(), body.Player1, body.Player2, date)
	if err != nil {
		writePredictError(w, op, label, &req, err)
		return
	}
	writeJSON(w, http.StatusOK, predictResponse{Winner: label, Features: &req})
}

// writePredictError reports predictor failures as 502 with the explicit
// error label. Anything else goes through the upstream mapping.
func writePredictError(w http.ResponseWriter, op string, label predict.Label, req *predict.Request, err error) {
	var code string
	switch {
	case errors.Is(err, predict.ErrUnknownOutcome):
		code = "unknown_outcome"
	case errors.Is(err, predict.ErrPredictor):
		code = "predictor_error"
	default:
		writeUpstreamError(w, op, err)
		return
	}
	if label == "" {
		label = predict.LabelError
	}
	writeJSON(w, http.StatusBadGateway, predictResponse{
		Winner:   label,
		Code:     code,
		Message:  WrapKind(op, ErrPredictor, err).Error(),
		Features: req,
	})
}
