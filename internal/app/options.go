package service

import (
	"time"

	"github.com/okian/rally/internal/domain/predict"
	"github.com/okian/rally/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithQueueSize sets the maximum number of matches waiting to be applied.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the match id cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithKFactor sets the rating sensitivity.
func WithKFactor(k float64) Option {
	return func(s *Service) {
		if k > 0 {
			s.kFactor = k
		}
	}
}

// WithDefaultRating sets the rating given to new competitors.
func WithDefaultRating(r float64) Option {
	return func(s *Service) {
		s.defaultRating = r
	}
}

// WithReferenceDate sets the instant feature ages are measured from.
func WithReferenceDate(t time.Time) Option {
	return func(s *Service) {
		if !t.IsZero() {
			s.referenceDate = t
		}
	}
}

// WithHistory seeds the service with matches replayed on Start.
func WithHistory(matches []Match) Option {
	return func(s *Service) {
		s.history = matches
	}
}

// WithMatchStore persists accepted matches and replays stored ones on Start.
func WithMatchStore(store MatchStore) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithPredictor sets the classifier used for predictions.
func WithPredictor(p predict.Predictor) Option {
	return func(s *Service) {
		if p != nil {
			s.predictor = p
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source used for defaulted match dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
