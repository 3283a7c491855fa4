package repository

import (
	"context"
	"sort"
	"sync/atomic"

	"github.com/okian/rally/internal/domain/replay"
	"github.com/okian/rally/internal/domain/types"
)

const defaultTopCacheSize = 1000

// Snapshot is an immutable ranking. Readers load it without locking.
type Snapshot struct {
	Entries      []types.Entry  // rating desc, then name asc
	RankByPlayer map[string]int // index into Entries
}

// Leaderboard publishes snapshots built by the single ratings writer.
type Leaderboard struct {
	snapshot     atomic.Pointer[Snapshot]
	topCacheSize int
}

// NewLeaderboard creates an empty leaderboard.
func NewLeaderboard(opts ...Option) *Leaderboard {
	l := &Leaderboard{topCacheSize: defaultTopCacheSize}
	for _, opt := range opts {
		opt(l)
	}
	l.snapshot.Store(&Snapshot{RankByPlayer: map[string]int{}})
	return l
}

// Publish implements Store.
func (l *Leaderboard) Publish(_ context.Context, standings []replay.Standing) {
	entries := make([]types.Entry, len(standings))
	for i, s := range standings {
		entries[i] = types.Entry{
			Competitor: s.Competitor,
			Rating:     s.Rating,
			Momentum:   s.LastDelta,
			Matches:    s.Matches,
		}
	}
	sortEntries(entries)
	assignRanksWithTies(entries)

	byName := make(map[string]int, len(entries))
	for i, e := range entries {
		byName[e.Competitor] = i
	}
	l.snapshot.Store(&Snapshot{Entries: entries, RankByPlayer: byName})
}

// Rank implements Store.
func (l *Leaderboard) Rank(_ context.Context, competitor string) (types.Entry, error) {
	snap := l.snapshot.Load()
	i, ok := snap.RankByPlayer[competitor]
	if !ok {
		return types.Entry{}, ErrNotFound
	}
	return snap.Entries[i], nil
}

// TopN implements Store. n is capped by the top cache size.
func (l *Leaderboard) TopN(_ context.Context, n int) ([]types.Entry, error) {
	if n < 1 {
		return nil, ErrInvalidLimit
	}
	n = min(n, l.topCacheSize)

	snap := l.snapshot.Load()
	n = min(n, len(snap.Entries))
	out := make([]types.Entry, n)
	copy(out, snap.Entries[:n])
	return out, nil
}

// Count implements Store.
func (l *Leaderboard) Count(_ context.Context) int {
	return len(l.snapshot.Load().Entries)
}

// sortEntries orders by rating (descending), then competitor (ascending).
func sortEntries(entries []types.Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Rating != entries[j].Rating {
			return entries[i].Rating > entries[j].Rating
		}
		return entries[i].Competitor < entries[j].Competitor
	})
}

// assignRanksWithTies gives equal ratings the same rank; the next distinct
// rating takes the next consecutive rank.
func assignRanksWithTies(entries []types.Entry) {
	rank := 0
	for i := range entries {
		if i == 0 || entries[i].Rating != entries[i-1].Rating {
			rank++
		}
		entries[i].Rank = rank
	}
}
