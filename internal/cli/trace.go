package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/rally/internal/domain/model"
	"github.com/okian/rally/internal/domain/replay"
)

func newTraceCmd(g *globals) *cobra.Command {
	var playedOnly bool

	cmd := &cobra.Command{
		Use:   "trace <name> [name...]",
		Short: "Print competitors' ratings after every match",
		Long: "Replay the history and print each competitor's rating after every match, carried forward\n" +
			"between their own matches. Before a competitor's first match the value is shown as \"-\".",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := g.replay(cmd.Context())
			if err != nil {
				return err
			}

			names := make([]string, len(args))
			for i, a := range args {
				names[i] = model.NormalizeName(a)
				if _, ok := engine.Lookup(names[i]); !ok {
					return fmt.Errorf("unknown competitor %q", a)
				}
			}
			history := engine.History()

			if len(names) == 1 {
				points := replay.Points(history, names[0])
				if playedOnly {
					kept := points[:0]
					for _, p := range points {
						if p.Played {
							kept = append(kept, p)
						}
					}
					points = kept
				}
				printTrace(cmd.OutOrStdout(), points)
				return nil
			}

			traces, err := replay.Traces(cmd.Context(), history, names)
			if err != nil {
				return err
			}
			table := newTable(cmd.OutOrStdout())
			header := []any{"#", "DATE", "MATCH"}
			for _, n := range names {
				header = append(header, n)
			}
			table.Header(header...)
			for i, snap := range history {
				if playedOnly && !playedAny(snap, names) {
					continue
				}
				row := []any{strconv.Itoa(i + 1), snap.Date.Format(time.DateOnly), snap.MatchID}
				for _, n := range names {
					row = append(row, formatTraceValue(traces[n][i]))
				}
				table.Append(row...)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().BoolVar(&playedOnly, "played-only", false, "only show matches the competitors played")
	return cmd
}

func playedAny(s replay.Snapshot, names []string) bool {
	for _, n := range names {
		if s.A.Competitor == n || s.B.Competitor == n {
			return true
		}
	}
	return false
}

func formatTraceValue(v float64) string {
	if v == replay.NotPlayed {
		return "-"
	}
	return fmt.Sprintf("%.2f", v)
}
