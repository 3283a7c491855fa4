// Package model contains domain models passed between layers.
package model

import (
	"math"
	"strings"
	"time"
)

// Outcome identifies the winning side of a match. The numeric values are the
// outcome codes shared with the external classifier.
type Outcome int

const (
	OutcomeUnknown Outcome = 0
	OutcomeA       Outcome = 1
	OutcomeB       Outcome = 2
)

// Valid reports whether o is one of the two recognized outcome codes.
func (o Outcome) Valid() bool {
	return o == OutcomeA || o == OutcomeB
}

// Match is an immutable head-to-head result.
type Match struct {
	ID      string    // stable identifier, used for idempotent ingestion
	Date    time.Time // chronological key; replay order
	PlayerA string    // normalized competitor name
	PlayerB string    // normalized competitor name
	ScoreA  float64
	ScoreB  float64
	Winner  Outcome // optional label; OutcomeUnknown means derive from scores
}

// Outcome derives the winner from the scores. A non-greater score is a loss
// for side A; draws do not exist in this domain.
func (m Match) Outcome() Outcome {
	if m.ScoreA > m.ScoreB {
		return OutcomeA
	}
	return OutcomeB
}

// Validate checks the record before it may enter a replay.
func (m Match) Validate() error {
	switch {
	case m.PlayerA == "":
		return &IntegrityError{MatchID: m.ID, Field: "player1", Reason: "missing competitor"}
	case m.PlayerB == "":
		return &IntegrityError{MatchID: m.ID, Field: "player2", Reason: "missing competitor"}
	case m.PlayerA == m.PlayerB:
		return &IntegrityError{MatchID: m.ID, Field: "player2", Reason: "competitor plays itself"}
	case !finite(m.ScoreA):
		return &IntegrityError{MatchID: m.ID, Field: "points1", Reason: "score is not a finite number"}
	case !finite(m.ScoreB):
		return &IntegrityError{MatchID: m.ID, Field: "points2", Reason: "score is not a finite number"}
	case m.Date.IsZero():
		return &IntegrityError{MatchID: m.ID, Field: "date", Reason: "missing date"}
	}
	if m.Winner != OutcomeUnknown {
		if !m.Winner.Valid() {
			return &IntegrityError{MatchID: m.ID, Field: "winner", Reason: "winner must be 1 or 2"}
		}
		if m.Winner != m.Outcome() {
			return &IntegrityError{MatchID: m.ID, Field: "winner", Reason: "winner label disagrees with scores"}
		}
	}
	return nil
}

// NormalizeName lower-cases a competitor name and collapses whitespace runs
// into a single underscore, so "Tai  Tzu Ying" and "tai tzu ying" match.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "_")
}

// AgeInDays returns the whole days from date to reference, floored.
func AgeInDays(reference, date time.Time) int {
	return int(math.Floor(reference.Sub(date).Hours() / 24))
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
