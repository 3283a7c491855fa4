package replay

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/rally/internal/domain/model"
	"github.com/okian/rally/internal/domain/rating"
	"github.com/okian/rally/pkg/logger"
	"github.com/okian/rally/pkg/metrics"
)

// State is the engine's position in the match sequence.
type State int

const (
	NotStarted State = iota
	Processing
	Done
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case Processing:
		return "processing"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// Side is one competitor's view of a match.
type Side struct {
	Competitor   string
	RatingBefore float64 // rating entering the match
	Rating       float64 // rating after the match; the rating feature
	Momentum     float64 // change from the competitor's previous match; 0 on first appearance
	Delta        float64 // change produced by this match
}

// Snapshot is the immutable record emitted for one applied match.
type Snapshot struct {
	Index   int
	MatchID string
	Date    time.Time
	Outcome model.Outcome
	A       Side
	B       Side
}

// Engine replays matches in order against a Store it owns exclusively.
type Engine struct {
	k             float64
	defaultRating float64
	store         *Store
	history       []Snapshot
	state         State
	last          time.Time
	logger        logger.Logger
}

// New creates an engine with an empty store.
func New(opts ...Option) *Engine {
	e := &Engine{
		k:             rating.DefaultK,
		defaultRating: rating.DefaultRating,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.store = NewStore(e.defaultRating)
	return e
}

// State returns the engine state.
func (e *Engine) State() State { return e.state }

// Index returns the index of the last applied match, or -1 before the first.
func (e *Engine) Index() int { return len(e.history) - 1 }

// Len returns the number of matches applied so far.
func (e *Engine) Len() int { return len(e.history) }

// KFactor returns the sensitivity constant in use.
func (e *Engine) KFactor() float64 { return e.k }

// Apply folds a single match into the store and returns its snapshot.
// The match must be valid and not older than the previous one.
func (e *Engine) Apply(m model.Match) (Snapshot, error) {
	if err := e.Check(m); err != nil {
		return Snapshot{}, err
	}
	return e.apply(m), nil
}

// Check reports the error Apply would return for m, without applying it.
func (e *Engine) Check(m model.Match) error {
	if e.state == Done {
		return ErrReplayDone
	}
	if err := m.Validate(); err != nil {
		return err
	}
	if m.Date.Before(e.last) {
		return fmt.Errorf("%w: %s before %s", ErrOutOfOrder,
			m.Date.Format(time.DateOnly), e.last.Format(time.DateOnly))
	}
	return nil
}

func (e *Engine) apply(m model.Match) Snapshot {
	e.state = Processing

	a := e.store.ensure(m.PlayerA)
	b := e.store.ensure(m.PlayerB)
	ra, rb := a.rating, b.rating

	sa, sb := rating.Indicators(m.ScoreA, m.ScoreB)
	raNew, rbNew := rating.Update(ra, rb, sa, sb, e.k)

	snap := Snapshot{
		Index:   len(e.history),
		MatchID: m.ID,
		Date:    m.Date,
		Outcome: m.Outcome(),
		A: Side{
			Competitor:   m.PlayerA,
			RatingBefore: ra,
			Rating:       raNew,
			Momentum:     a.lastDelta,
			Delta:        raNew - ra,
		},
		B: Side{
			Competitor:   m.PlayerB,
			RatingBefore: rb,
			Rating:       rbNew,
			Momentum:     b.lastDelta,
			Delta:        rbNew - rb,
		},
	}

	a.record(raNew)
	b.record(rbNew)
	e.history = append(e.history, snap)
	e.last = m.Date

	metrics.RecordMatchApplied(snap.A.Delta, snap.B.Delta)
	return snap
}

// Run validates the whole sequence and then folds it in input order. Any
// invalid or out-of-order record aborts the run before the store changes.
// It returns the snapshots emitted by this run.
func (e *Engine) Run(ctx context.Context, matches []model.Match) ([]Snapshot, error) {
	if e.state == Done {
		return nil, ErrReplayDone
	}
	if err := ValidateSequence(matches, e.last); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("replay not started: %w", err)
	}

	start := time.Now()
	from := len(e.history)
	for _, m := range matches {
		snap := e.apply(m)
		if e.logger != nil {
			e.logger.Debug(ctx, "match applied",
				logger.Int("index", snap.Index),
				logger.String("player1", snap.A.Competitor),
				logger.String("player2", snap.B.Competitor),
				logger.Float64("elo1", snap.A.Rating),
				logger.Float64("elo2", snap.B.Rating),
			)
		}
	}
	took := time.Since(start)

	metrics.RecordReplayDuration(took.Seconds())
	metrics.UpdateCompetitors(e.store.Len())
	if e.logger != nil {
		e.logger.Info(ctx, "replay finished",
			logger.Int("matches", len(matches)),
			logger.Int("competitors", e.store.Len()),
			logger.Duration("took", took),
		)
	}

	out := make([]Snapshot, len(e.history)-from)
	copy(out, e.history[from:])
	return out, nil
}

// Finish marks the sequence as complete. Further matches are rejected.
func (e *Engine) Finish() {
	e.state = Done
}

// History returns a copy of every snapshot emitted so far.
func (e *Engine) History() []Snapshot {
	out := make([]Snapshot, len(e.history))
	copy(out, e.history)
	return out
}

// Lookup returns a copy of a competitor's current state.
func (e *Engine) Lookup(competitor string) (Standing, bool) {
	return e.store.Lookup(competitor)
}

// Standings returns every competitor ordered by rating.
func (e *Engine) Standings() []Standing {
	return e.store.Standings()
}

// Competitors returns the number of known competitors.
func (e *Engine) Competitors() int {
	return e.store.Len()
}

// ValidateSequence checks every record and the non-decreasing date order,
// starting from notBefore. Row numbers in the error are 1-based.
func ValidateSequence(matches []model.Match, notBefore time.Time) error {
	last := notBefore
	for i, m := range matches {
		if err := m.Validate(); err != nil {
			return model.AtRow(err, i+1)
		}
		if m.Date.Before(last) {
			return model.AtRow(&model.IntegrityError{
				MatchID: m.ID,
				Field:   "date",
				Reason:  fmt.Sprintf("%s is before %s", m.Date.Format(time.DateOnly), last.Format(time.DateOnly)),
			}, i+1)
		}
		last = m.Date
	}
	return nil
}

// Replay runs matches through a fresh engine and finishes it.
func Replay(ctx context.Context, matches []model.Match, opts ...Option) (*Engine, error) {
	e := New(opts...)
	if _, err := e.Run(ctx, matches); err != nil {
		return nil, err
	}
	e.Finish()
	return e, nil
}
