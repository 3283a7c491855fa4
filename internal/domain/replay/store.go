// Package replay folds a chronologically ordered match history into ratings
// and per-match snapshots.
package replay

import "sort"

// Standing is a read-only copy of one competitor's state.
type Standing struct {
	Competitor string
	Rating     float64
	LastDelta  float64 // change produced by the competitor's latest match
	Matches    int
}

type entry struct {
	rating    float64
	lastDelta float64
	matches   int
}

// Store maps competitors to their current rating and last rating change.
// It is owned by a single Engine and is not safe for concurrent use.
type Store struct {
	defaultRating float64
	entries       map[string]*entry
}

// NewStore returns an empty store that seeds competitors with defaultRating.
func NewStore(defaultRating float64) *Store {
	return &Store{
		defaultRating: defaultRating,
		entries:       make(map[string]*entry),
	}
}

// ensure returns the competitor's entry, inserting it on first reference.
func (s *Store) ensure(competitor string) *entry {
	e, ok := s.entries[competitor]
	if !ok {
		e = &entry{rating: s.defaultRating}
		s.entries[competitor] = e
	}
	return e
}

// record stores the outcome of one match for a competitor.
func (e *entry) record(newRating float64) {
	e.lastDelta = newRating - e.rating
	e.rating = newRating
	e.matches++
}

// Len returns the number of known competitors.
func (s *Store) Len() int {
	return len(s.entries)
}

// Lookup returns a copy of the competitor's state.
func (s *Store) Lookup(competitor string) (Standing, bool) {
	e, ok := s.entries[competitor]
	if !ok {
		return Standing{}, false
	}
	return Standing{Competitor: competitor, Rating: e.rating, LastDelta: e.lastDelta, Matches: e.matches}, true
}

// Standings returns every competitor ordered by rating desc, then name asc.
func (s *Store) Standings() []Standing {
	out := make([]Standing, 0, len(s.entries))
	for name, e := range s.entries {
		out = append(out, Standing{Competitor: name, Rating: e.rating, LastDelta: e.lastDelta, Matches: e.matches})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		return out[i].Competitor < out[j].Competitor
	})
	return out
}
