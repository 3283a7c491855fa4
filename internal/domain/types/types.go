// Package types contains read shapes shared by the service and its adapters.
package types

import "time"

// Entry represents a leaderboard entry.
type Entry struct {
	Rank       int     `json:"rank"`
	Competitor string  `json:"competitor"`
	Rating     float64 `json:"rating"`
	Momentum   float64 `json:"momentum"` // change produced by the latest match
	Matches    int     `json:"matches"`
}

// TracePoint is one entry of a competitor's rating trace.
type TracePoint struct {
	Index   int       `json:"index"`
	MatchID string    `json:"match_id"`
	Date    time.Time `json:"date"`
	Rating  float64   `json:"rating"` // 0 before the competitor's first match
	Played  bool      `json:"played"`
}
