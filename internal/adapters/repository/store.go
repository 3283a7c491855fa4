// Package repository holds the ranked leaderboard view over the ratings.
package repository

import (
	"context"

	"github.com/okian/rally/internal/domain/replay"
	"github.com/okian/rally/internal/domain/types"
)

// Store provides read access to the ranking state and a way to replace it.
type Store interface {
	// Publish replaces the ranking with one built from standings.
	Publish(ctx context.Context, standings []replay.Standing)

	// Rank returns the entry for a competitor.
	// Returns ErrNotFound if the competitor is unknown.
	Rank(ctx context.Context, competitor string) (types.Entry, error)

	// TopN returns the top-N entries ordered by rating desc.
	TopN(ctx context.Context, n int) ([]types.Entry, error)

	// Count returns the number of competitors on the leaderboard.
	Count(ctx context.Context) int
}
