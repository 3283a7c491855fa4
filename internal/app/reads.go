package service

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/rally/internal/adapters/repository"
	"github.com/okian/rally/internal/domain/features"
	"github.com/okian/rally/internal/domain/model"
	"github.com/okian/rally/internal/domain/predict"
	"github.com/okian/rally/internal/domain/replay"
	"github.com/okian/rally/internal/domain/types"
)

// TopN returns the top N leaderboard entries.
func (s *Service) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	if !s.isStarted() {
		return nil, ErrNotStarted
	}
	return s.leaderboard.TopN(ctx, n)
}

// Rating returns the leaderboard entry of a competitor.
func (s *Service) Rating(ctx context.Context, competitor string) (types.Entry, error) {
	if !s.isStarted() {
		return types.Entry{}, ErrNotStarted
	}
	return s.leaderboard.Rank(ctx, model.NormalizeName(competitor))
}

// Trace returns the competitor's rating after every applied match.
func (s *Service) Trace(_ context.Context, competitor string) ([]types.TracePoint, error) {
	if !s.isStarted() {
		return nil, ErrNotStarted
	}
	name := model.NormalizeName(competitor)

	s.mu.RLock()
	_, known := s.engine.Lookup(name)
	history := s.engine.History()
	s.mu.RUnlock()

	if !known {
		return nil, fmt.Errorf("%w: %s", repository.ErrNotFound, name)
	}
	return replay.Points(history, name), nil
}

// Features returns one feature row per applied match.
func (s *Service) Features(_ context.Context) ([]features.Row, error) {
	if !s.isStarted() {
		return nil, ErrNotStarted
	}
	s.mu.RLock()
	history := s.engine.History()
	s.mu.RUnlock()
	return s.assembler.Assemble(history), nil
}

// Predict classifies an explicit feature request.
func (s *Service) Predict(ctx context.Context, req predict.Request) (predict.Label, error) {
	return predict.Classify(ctx, s.predictor, req)
}

// PredictMatch builds the feature request for two named competitors from
// their current ratings and latest rating change, then classifies it.
// Unknown competitors enter with the default rating and no momentum. A
// zero date means now.
func (s *Service) PredictMatch(ctx context.Context, player1, player2 string, date time.Time) (predict.Label, predict.Request, error) {
	if !s.isStarted() {
		return predict.LabelError, predict.Request{}, ErrNotStarted
	}
	a, b := model.NormalizeName(player1), model.NormalizeName(player2)
	if a == "" || b == "" || a == b {
		return predict.LabelError, predict.Request{}, &model.IntegrityError{Field: "player2", Reason: "two distinct competitors are required"}
	}
	if date.IsZero() {
		date = s.now().UTC()
	}

	s.mu.RLock()
	sa := s.standing(a)
	sb := s.standing(b)
	s.mu.RUnlock()

	req := predict.Request{
		Age:   float64(model.AgeInDays(s.assembler.Reference(), date)),
		Elo1:  sa.Rating,
		Elo2:  sb.Rating,
		Grad1: sa.LastDelta,
		Grad2: sb.LastDelta,
	}
	label, err := predict.Classify(ctx, s.predictor, req)
	return label, req, err
}

// standing must be called with s.mu held.
func (s *Service) standing(name string) replay.Standing {
	if st, ok := s.engine.Lookup(name); ok {
		return st
	}
	return replay.Standing{Competitor: name, Rating: s.defaultRating}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	started := s.isStarted()
	stats := map[string]interface{}{
		"started":    started,
		"queueSize":  s.queueSize,
		"dedupeSize": s.dedupeSize,
		"kFactor":    s.kFactor,
	}
	if !started {
		return stats
	}

	s.mu.RLock()
	stats["matches"] = s.engine.Len()
	stats["competitors"] = s.engine.Competitors()
	stats["state"] = s.engine.State().String()
	s.mu.RUnlock()

	stats["queueLength"] = s.queue.Len()
	stats["dedupeEntries"] = s.deduper.Size()
	stats["persistent"] = s.store != nil
	return stats
}
