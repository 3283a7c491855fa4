package predict

import (
	"context"
	"fmt"

	"github.com/okian/rally/internal/domain/features"
	"github.com/okian/rally/internal/domain/model"
	"github.com/okian/rally/internal/domain/rating"
)

// RatingPredictor is a deterministic baseline that needs no trained model.
// Each side's effective rating is its rating plus momentum; the side with
// the higher expected score wins and ties go to Player 1.
type RatingPredictor struct{}

// NewRatingPredictor creates the baseline predictor.
func NewRatingPredictor() *RatingPredictor {
	return &RatingPredictor{}
}

// Predict implements Predictor.
func (RatingPredictor) Predict(ctx context.Context, v features.Vector) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("context cancelled: %w", err)
	}
	ea, eb := rating.Expected(v.RatingA+v.MomentumA, v.RatingB+v.MomentumB)
	if ea >= eb {
		return int(model.OutcomeA), nil
	}
	return int(model.OutcomeB), nil
}
