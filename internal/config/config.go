// Package config defines service configuration structures and loading hooks.
package config

import (
	"fmt"
	"time"
)

// Predictor kinds.
const (
	PredictorRating = "rating"
	PredictorRemote = "remote"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// DatasetPath is the CSV match history replayed on start. Optional.
	DatasetPath string `koanf:"dataset_path"`

	// DateFormat is the Go layout of dataset dates and the reference date.
	DateFormat string `koanf:"date_format"`

	// ReferenceDate is the instant feature ages are measured from.
	ReferenceDate string `koanf:"reference_date"`

	// SkipRetired drops dataset rows where a competitor retired.
	SkipRetired bool `koanf:"skip_retired"`

	// KFactor is the rating sensitivity.
	KFactor float64 `koanf:"k_factor"`

	// DefaultRating is the rating of a competitor's first match.
	DefaultRating float64 `koanf:"default_rating"`

	// QueueSize bounds the in-memory ingestion queue.
	QueueSize int `koanf:"queue_size"`

	// DedupeSize sets the size of the match id cache.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// DBPath enables SQLite persistence of ingested matches. Optional.
	DBPath string `koanf:"db_path"`

	// Predictor selects the classifier: rating or remote.
	Predictor string `koanf:"predictor"`

	// PredictorURL is the remote model endpoint.
	PredictorURL string `koanf:"predictor_url"`

	// PredictorTimeoutMS bounds each remote prediction call.
	PredictorTimeoutMS int `koanf:"predictor_timeout_ms"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		DateFormat:          "02-01-2006",
		ReferenceDate:       "01-01-2022",
		SkipRetired:         true,
		KFactor:             24,
		DefaultRating:       1500,
		QueueSize:           10_000,
		DedupeSize:          100_000,
		MaxLeaderboardLimit: 100,
		Predictor:           PredictorRating,
		PredictorTimeoutMS:  2000,
	}
}

// Reference parses ReferenceDate with DateFormat.
func (c *Config) Reference() (time.Time, error) {
	t, err := time.Parse(c.DateFormat, c.ReferenceDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: reference_date %q: %w", ErrInvalidConfig, c.ReferenceDate, err)
	}
	return t, nil
}

// PredictorTimeout returns the remote prediction timeout.
func (c *Config) PredictorTimeout() time.Duration {
	return time.Duration(c.PredictorTimeoutMS) * time.Millisecond
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.KFactor <= 0:
		return fmt.Errorf("%w: k_factor must be positive", ErrInvalidConfig)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.DedupeSize < 1:
		return fmt.Errorf("%w: dedupe_size must be positive", ErrInvalidConfig)
	case c.MaxLeaderboardLimit < 1:
		return fmt.Errorf("%w: max_leaderboard_limit must be positive", ErrInvalidConfig)
	case c.LogFormat != "text" && c.LogFormat != "json":
		return fmt.Errorf("%w: unknown log_format %q", ErrInvalidConfig, c.LogFormat)
	}

	switch c.Predictor {
	case PredictorRating:
	case PredictorRemote:
		if c.PredictorURL == "" {
			return fmt.Errorf("%w: predictor_url is required for the remote predictor", ErrInvalidConfig)
		}
		if c.PredictorTimeoutMS < 1 {
			return fmt.Errorf("%w: predictor_timeout_ms must be positive", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown predictor %q", ErrInvalidConfig, c.Predictor)
	}

	_, err := c.Reference()
	return err
}
