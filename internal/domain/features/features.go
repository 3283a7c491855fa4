// Package features turns replay snapshots into the fixed-shape feature rows
// consumed by the outcome classifier.
package features

import (
	"math/rand"
	"time"

	"github.com/okian/rally/internal/domain/model"
	"github.com/okian/rally/internal/domain/replay"
)

// Default assembly parameters.
const (
	DefaultTestFraction = 0.2
	DefaultSeed         = 42
)

// DefaultReferenceDate is the instant match ages are measured from.
var DefaultReferenceDate = time.Date(2022, time.January, 1, 0, 0, 0, 0, time.UTC)

// Vector is the classifier input. Field order is part of the contract.
type Vector struct {
	Age       float64 // days between the match and the reference date
	RatingA   float64 // elo1
	RatingB   float64 // elo2
	MomentumA float64 // grad1
	MomentumB float64 // grad2
}

// Slice returns [age, rating_A, rating_B, momentum_A, momentum_B].
func (v Vector) Slice() []float64 {
	return []float64{v.Age, v.RatingA, v.RatingB, v.MomentumA, v.MomentumB}
}

// Row is one labelled training example.
type Row struct {
	MatchID string
	PlayerA string
	PlayerB string
	Date    time.Time
	Vector  Vector
	Label   model.Outcome
}

// Option applies a configuration option to the Assembler.
type Option func(*Assembler)

// WithReferenceDate sets the instant ages are computed against.
func WithReferenceDate(t time.Time) Option {
	return func(a *Assembler) {
		if !t.IsZero() {
			a.reference = t
		}
	}
}

// Assembler builds feature rows from snapshots.
type Assembler struct {
	reference time.Time
}

// NewAssembler creates an assembler with the given options.
func NewAssembler(opts ...Option) *Assembler {
	a := &Assembler{reference: DefaultReferenceDate}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Reference returns the reference date in use.
func (a *Assembler) Reference() time.Time { return a.reference }

// Vector builds the classifier input for one snapshot.
func (a *Assembler) Vector(s replay.Snapshot) Vector {
	return Vector{
		Age:       float64(model.AgeInDays(a.reference, s.Date)),
		RatingA:   s.A.Rating,
		RatingB:   s.B.Rating,
		MomentumA: s.A.Momentum,
		MomentumB: s.B.Momentum,
	}
}

// Assemble returns one row per snapshot, in history order.
func (a *Assembler) Assemble(history []replay.Snapshot) []Row {
	rows := make([]Row, 0, len(history))
	for _, s := range history {
		rows = append(rows, Row{
			MatchID: s.MatchID,
			PlayerA: s.A.Competitor,
			PlayerB: s.B.Competitor,
			Date:    s.Date,
			Vector:  a.Vector(s),
			Label:   s.Outcome,
		})
	}
	return rows
}

// Split partitions rows into train and test sets with a seeded shuffle. The
// input is not modified. A fraction outside (0,1) falls back to the default.
func Split(rows []Row, testFraction float64, seed int64) (train, test []Row) {
	if testFraction <= 0 || testFraction >= 1 {
		testFraction = DefaultTestFraction
	}

	idx := make([]int, len(rows))
	for i := range idx {
		idx[i] = i
	}
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // reproducible split
	rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

	nTest := int(float64(len(rows)) * testFraction)
	test = make([]Row, 0, nTest)
	train = make([]Row, 0, len(rows)-nTest)
	for i, k := range idx {
		if i < nTest {
			test = append(test, rows[k])
		} else {
			train = append(train, rows[k])
		}
	}
	return train, test
}
