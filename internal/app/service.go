// Package service owns the live rating state: it replays the stored history
// on start, applies submitted matches through a single worker, and answers
// leaderboard, trace and prediction queries.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/rally/internal/adapters/mq/queue"
	"github.com/okian/rally/internal/adapters/mq/worker"
	"github.com/okian/rally/internal/adapters/repository"
	"github.com/okian/rally/internal/domain/dedupe"
	"github.com/okian/rally/internal/domain/features"
	"github.com/okian/rally/internal/domain/model"
	"github.com/okian/rally/internal/domain/predict"
	"github.com/okian/rally/internal/domain/rating"
	"github.com/okian/rally/internal/domain/replay"
	"github.com/okian/rally/pkg/logger"
	"github.com/okian/rally/pkg/metrics"
)

// Default service configuration constants.
const (
	defaultQueueSize  = 10000
	defaultDedupeSize = 100000
	shutdownTimeout   = 10 * time.Second
)

// Match is the record the service ingests.
type Match = model.Match

// MatchStore persists the accepted match history.
type MatchStore interface {
	SaveMatches(ctx context.Context, matches []model.Match) (int, error)
	ListMatches(ctx context.Context) ([]model.Match, error)
}

// Service implements the API dependencies for the rating system.
type Service struct {
	// mu guards engine. The worker is the only writer after Start.
	mu     sync.RWMutex
	engine *replay.Engine

	lifecycle sync.Mutex
	started   bool

	leaderboard repository.Store
	deduper     dedupe.Deduper
	queue       *queue.InMemoryQueue
	worker      *worker.IngestWorker
	assembler   *features.Assembler
	predictor   predict.Predictor
	store       MatchStore

	// Configuration
	queueSize     int
	dedupeSize    int
	kFactor       float64
	defaultRating float64
	referenceDate time.Time
	history       []Match
	now           func() time.Time

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		queueSize:     defaultQueueSize,
		dedupeSize:    defaultDedupeSize,
		kFactor:       rating.DefaultK,
		defaultRating: rating.DefaultRating,
		referenceDate: features.DefaultReferenceDate,
		predictor:     predict.NewRatingPredictor(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start replays the bootstrap history and starts the ingest worker.
// A history that fails validation aborts the start.
func (s *Service) Start(ctx context.Context) error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.logger.Info(ctx, "starting rating service...")

	matches, err := s.bootstrap(ctx)
	if err != nil {
		return err
	}

	engine := replay.New(
		replay.WithKFactor(s.kFactor),
		replay.WithDefaultRating(s.defaultRating),
		replay.WithLogger(s.logger.Named("replay")),
	)
	if _, err := engine.Run(ctx, matches); err != nil {
		return fmt.Errorf("replay history: %w", err)
	}

	s.mu.Lock()
	s.engine = engine
	s.mu.Unlock()

	s.assembler = features.NewAssembler(features.WithReferenceDate(s.referenceDate))
	s.leaderboard = repository.NewLeaderboard()
	s.leaderboard.Publish(ctx, engine.Standings())

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
	}
	dedupe.Seed(ctx, s.deduper, ids)

	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.worker = worker.NewIngestWorker(s.queue, s, worker.WithLogger(s.logger.Named("worker")))
	go s.worker.Run(context.WithoutCancel(ctx))

	s.started = true
	s.logger.Info(ctx, "rating service started",
		logger.Int("matches", len(matches)),
		logger.Int("competitors", engine.Competitors()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)
	return nil
}

// bootstrap merges the configured history with the stored matches. Ids
// present in both are taken once; the result is stably ordered by date.
func (s *Service) bootstrap(ctx context.Context) ([]Match, error) {
	matches := append([]Match(nil), s.history...)
	if s.store != nil {
		stored, err := s.store.ListMatches(ctx)
		if err != nil {
			return nil, fmt.Errorf("load stored matches: %w", err)
		}
		seen := make(map[string]struct{}, len(matches))
		for _, m := range matches {
			seen[m.ID] = struct{}{}
		}
		for _, m := range stored {
			if _, ok := seen[m.ID]; !ok {
				matches = append(matches, m)
			}
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Date.Before(matches[j].Date)
	})
	return matches, nil
}

// Stop closes the queue, lets the worker drain it and marks the engine done.
func (s *Service) Stop() {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if !s.started {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info(ctx, "stopping rating service...")
	_ = s.queue.Close()
	if err := s.worker.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker did not drain", logger.Error(err))
	}

	s.mu.Lock()
	s.engine.Finish()
	s.mu.Unlock()

	s.started = false
	s.logger.Info(ctx, "rating service stopped")
}

// Submit validates a match and queues it for the worker. It returns the
// match id, generated when missing, and reports true when the id was already
// accepted. A missing date defaults to now.
func (s *Service) Submit(ctx context.Context, m Match) (string, bool, error) {
	if !s.isStarted() {
		return "", false, ErrNotStarted
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Date.IsZero() {
		m.Date = s.now().UTC()
	}
	m.PlayerA = model.NormalizeName(m.PlayerA)
	m.PlayerB = model.NormalizeName(m.PlayerB)
	if err := m.Validate(); err != nil {
		metrics.RecordIngestError("integrity")
		return m.ID, false, err
	}

	if s.deduper.SeenAndRecord(ctx, m.ID) {
		metrics.RecordIngestDuplicate()
		return m.ID, true, nil
	}
	if err := s.queue.Enqueue(ctx, m); err != nil {
		s.deduper.Unrecord(ctx, m.ID)
		if errors.Is(err, queue.ErrFull) {
			metrics.RecordIngestError("backpressure")
			return m.ID, false, fmt.Errorf("%w: %w", ErrBackpressure, err)
		}
		return m.ID, false, err
	}
	return m.ID, false, nil
}

// Apply implements worker.Applier. The match is checked against the engine,
// persisted, applied and the leaderboard republished. A rejected match is
// forgotten by the deduper so a corrected resubmission is accepted.
//
// The worker is the only writer, so the check under the read lock still
// holds when the write lock is taken. The store is written with no lock held.
func (s *Service) Apply(ctx context.Context, m Match) error {
	s.mu.RLock()
	err := s.engine.Check(m)
	s.mu.RUnlock()
	if err != nil {
		s.deduper.Unrecord(ctx, m.ID)
		return err
	}

	if s.store != nil {
		if _, err := s.store.SaveMatches(ctx, []Match{m}); err != nil {
			s.deduper.Unrecord(ctx, m.ID)
			return fmt.Errorf("persist match: %w", err)
		}
		metrics.RecordMatchPersisted()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.engine.Apply(m); err != nil {
		return err
	}
	metrics.UpdateCompetitors(s.engine.Competitors())
	metrics.UpdateIngestQueueSize(s.queue.Len())
	s.leaderboard.Publish(ctx, s.engine.Standings())
	return nil
}

func (s *Service) isStarted() bool {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	return s.started
}
