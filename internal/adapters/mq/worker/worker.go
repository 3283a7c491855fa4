// Package worker runs the single consumer that applies submitted matches to
// the ratings. There is exactly one writer so matches are applied in the
// order they were accepted.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/rally/internal/domain/model"
	"github.com/okian/rally/internal/domain/replay"
	"github.com/okian/rally/pkg/logger"
	"github.com/okian/rally/pkg/metrics"
)

// Applier folds one match into the ratings and persists it.
type Applier interface {
	Apply(ctx context.Context, m model.Match) error
}

// Queue defines how the worker receives matches.
type Queue interface {
	Dequeue() <-chan model.Match
}

// Worker consumes matches until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue closes.
	Run(ctx context.Context)

	// Shutdown waits for Run to drain the closed queue, or stops it when
	// ctx expires first.
	Shutdown(ctx context.Context) error
}

// IngestWorker implements Worker.
type IngestWorker struct {
	queue   Queue
	applier Applier
	name    string

	stop chan struct{}
	done chan struct{}

	logger logger.Logger
}

// NewIngestWorker creates the worker with configuration options.
func NewIngestWorker(queue Queue, applier Applier, opts ...Option) *IngestWorker {
	w := &IngestWorker{
		queue:   queue,
		applier: applier,
		name:    "ingest",
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named("worker")
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run starts the worker loop.
func (w *IngestWorker) Run(ctx context.Context) {
	defer close(w.done)

	matches := w.queue.Dequeue()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case m, ok := <-matches:
			if !ok {
				return
			}
			if err := w.process(ctx, m); err != nil {
				w.logger.Error(ctx, "error applying match",
					logger.String("match_id", m.ID),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown implements Worker.
func (w *IngestWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		close(w.stop)
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *IngestWorker) process(ctx context.Context, m model.Match) error {
	start := time.Now()
	err := w.applier.Apply(ctx, m)
	if err != nil {
		metrics.RecordIngestError(Reason(err))
		return fmt.Errorf("apply match %s: %w", m.ID, err)
	}
	w.logger.Debug(ctx, "match applied",
		logger.String("match_id", m.ID),
		logger.Duration("took", time.Since(start)),
	)
	return nil
}

// Reason classifies an apply error for the ingest error metric.
func Reason(err error) string {
	switch {
	case errors.Is(err, replay.ErrOutOfOrder):
		return "out_of_order"
	case errors.Is(err, model.ErrDataIntegrity):
		return "integrity"
	case errors.Is(err, replay.ErrReplayDone):
		return "replay_done"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "apply_error"
	}
}
