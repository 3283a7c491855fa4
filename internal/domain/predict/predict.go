// Package predict defines the classifier boundary: a fixed-shape feature
// vector in, an outcome code out, mapped to a user-facing label.
package predict

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/rally/internal/domain/features"
	"github.com/okian/rally/internal/domain/model"
	"github.com/okian/rally/pkg/metrics"
)

// Label is the user-facing prediction result.
type Label string

const (
	LabelPlayer1 Label = "Player 1"
	LabelPlayer2 Label = "Player 2"
	LabelError   Label = "ERROR"
)

// Predictor is an opaque classifier over the feature vector.
type Predictor interface {
	// Predict returns an outcome code, honoring ctx for cancellation.
	Predict(ctx context.Context, v features.Vector) (int, error)
}

// Request is the inference request. Fields map 1:1 onto the vector order.
type Request struct {
	Age   float64 `json:"age"`
	Elo1  float64 `json:"elo1"`
	Elo2  float64 `json:"elo2"`
	Grad1 float64 `json:"grad1"`
	Grad2 float64 `json:"grad2"`
}

// Vector converts the request into the classifier input.
func (r Request) Vector() features.Vector {
	return features.Vector{
		Age:       r.Age,
		RatingA:   r.Elo1,
		RatingB:   r.Elo2,
		MomentumA: r.Grad1,
		MomentumB: r.Grad2,
	}
}

// LabelFor maps an outcome code to its label. Codes outside {1, 2} yield
// LabelError and ErrUnknownOutcome.
func LabelFor(code int) (Label, error) {
	switch model.Outcome(code) {
	case model.OutcomeA:
		return LabelPlayer1, nil
	case model.OutcomeB:
		return LabelPlayer2, nil
	default:
		return LabelError, fmt.Errorf("%w: %d", ErrUnknownOutcome, code)
	}
}

// Classify runs the predictor on req and maps the answer to a label.
func Classify(ctx context.Context, p Predictor, req Request) (Label, error) {
	start := time.Now()
	code, err := p.Predict(ctx, req.Vector())
	metrics.RecordPredictorLatency(float64(time.Since(start).Microseconds()) / 1000)
	if err != nil {
		if errors.Is(err, ErrUnknownOutcome) {
			metrics.RecordUnknownOutcome()
		} else {
			metrics.RecordPredictorFailure()
		}
		return LabelError, err
	}

	label, err := LabelFor(code)
	if err != nil {
		metrics.RecordUnknownOutcome()
		return label, err
	}
	metrics.RecordPrediction(string(label))
	return label, nil
}
