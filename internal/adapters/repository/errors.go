package repository

import "errors"

// Sentinel kinds for leaderboard errors.
var (
	ErrNotFound     = errors.New("competitor not found")
	ErrInvalidLimit = errors.New("invalid leaderboard limit")
)
