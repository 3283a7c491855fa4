package replay

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/okian/rally/internal/domain/types"
)

// NotPlayed is the trace value before a competitor's first match. It is
// distinct from the default rating so callers can tell "unrated" apart.
const NotPlayed = 0.0

// Trace reduces a snapshot history to one value per match: the competitor's
// post-match rating where they played, carried forward where they did not,
// and NotPlayed before their first match.
func Trace(history []Snapshot, competitor string) []float64 {
	out := make([]float64, len(history))
	current := NotPlayed
	for i := range history {
		switch competitor {
		case history[i].A.Competitor:
			current = history[i].A.Rating
		case history[i].B.Competitor:
			current = history[i].B.Rating
		}
		out[i] = current
	}
	return out
}

// Points is Trace annotated with each match's id and date.
func Points(history []Snapshot, competitor string) []types.TracePoint {
	values := Trace(history, competitor)
	points := make([]types.TracePoint, len(history))
	for i, snap := range history {
		points[i] = types.TracePoint{
			Index:   snap.Index,
			MatchID: snap.MatchID,
			Date:    snap.Date,
			Rating:  values[i],
			Played:  snap.A.Competitor == competitor || snap.B.Competitor == competitor,
		}
	}
	return points
}

// Traces computes Trace for many competitors concurrently. The history is
// only read, so one replay pass fans out to every view.
func Traces(ctx context.Context, history []Snapshot, competitors []string) (map[string][]float64, error) {
	results := make([][]float64, len(competitors))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, name := range competitors {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = Trace(history, name)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string][]float64, len(competitors))
	for i, name := range competitors {
		out[name] = results[i]
	}
	return out, nil
}
