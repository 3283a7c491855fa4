package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/rally/internal/domain/model"
	"github.com/okian/rally/pkg/logger"
)

// submitResult classifies one POST /matches answer.
type submitResult int

const (
	submitAccepted submitResult = iota
	submitDuplicate
	submitFailed
)

// submitStats counts the outcomes of a submit run.
type submitStats struct {
	Accepted  int
	Duplicate int
	Failed    int
}

// matchPayload mirrors the POST /matches request body.
type matchPayload struct {
	MatchID string  `json:"match_id"`
	Player1 string  `json:"player1"`
	Player2 string  `json:"player2"`
	Points1 float64 `json:"points1"`
	Points2 float64 `json:"points2"`
	Winner  int     `json:"winner,omitempty"`
	Date    string  `json:"date"`
}

func payloadFor(m model.Match) matchPayload {
	return matchPayload{
		MatchID: m.ID,
		Player1: m.PlayerA,
		Player2: m.PlayerB,
		Points1: m.ScoreA,
		Points2: m.ScoreB,
		Winner:  int(m.Winner),
		Date:    m.Date.Format(time.DateOnly),
	}
}

func newSubmitCmd(g *globals) *cobra.Command {
	var (
		baseURL     string
		timeout     time.Duration
		limit       int
		stopOnError bool
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Post the dataset's matches to a running server",
		Long: "Send every match of --data to POST /matches in chronological order.\n" +
			"Matches already accepted by the server are counted as duplicates.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			matches, err := g.load(ctx)
			if err != nil {
				return err
			}
			if limit > 0 && limit < len(matches) {
				matches = matches[:limit]
			}

			client := &http.Client{Timeout: timeout}
			url := strings.TrimRight(baseURL, "/") + "/matches"
			stats, err := submitMatches(ctx, client, url, matches, stopOnError)
			fmt.Fprintf(cmd.OutOrStdout(), "submitted %d matches: %d accepted, %d duplicate, %d failed\n",
				len(matches), stats.Accepted, stats.Duplicate, stats.Failed)
			if err != nil {
				return err
			}
			if stats.Failed > 0 {
				return fmt.Errorf("%d matches failed", stats.Failed)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&baseURL, "url", "http://localhost:9080", "base URL of the server")
	f.DurationVar(&timeout, "timeout", 10*time.Second, "HTTP request timeout")
	f.IntVar(&limit, "limit", 0, "submit at most this many matches (0 means all)")
	f.BoolVar(&stopOnError, "stop-on-error", false, "stop at the first failed match")
	return cmd
}

// submitMatches posts matches one at a time. The server applies matches in
// arrival order, so the order of matches is preserved.
func submitMatches(ctx context.Context, client *http.Client, url string, matches []model.Match, stopOnError bool) (submitStats, error) {
	log := logger.Named("submit")
	var stats submitStats
	for _, m := range matches {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		res, err := submitMatch(ctx, client, url, m)
		switch res {
		case submitAccepted:
			stats.Accepted++
		case submitDuplicate:
			stats.Duplicate++
		default:
			stats.Failed++
			log.Warn(ctx, "match rejected", logger.String("match_id", m.ID), logger.Error(err))
			if stopOnError {
				return stats, fmt.Errorf("submit %s: %w", m.ID, err)
			}
		}
	}
	return stats, nil
}

func submitMatch(ctx context.Context, client *http.Client, url string, m model.Match) (submitResult, error) {
	body, err := json.Marshal(payloadFor(m))
	if err != nil {
		return submitFailed, fmt.Errorf("marshal match: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return submitFailed, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return submitFailed, err
	}
	defer resp.Body.Close()
	msg, _ := io.ReadAll(resp.Body)

	switch resp.StatusCode {
	case http.StatusAccepted:
		return submitAccepted, nil
	case http.StatusOK:
		return submitDuplicate, nil
	default:
		return submitFailed, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
}
