package cli

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/okian/rally/internal/domain/types"
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

// printTrace writes one row per match. Points before the first match show "-".
func printTrace(w io.Writer, points []types.TracePoint) {
	table := newTable(w)
	table.Header("#", "DATE", "MATCH", "RATING", "PLAYED")
	for _, p := range points {
		played := ""
		if p.Played {
			played = "*"
		}
		table.Append(strconv.Itoa(p.Index+1), p.Date.Format(time.DateOnly), p.MatchID, formatTraceValue(p.Rating), played)
	}
	table.Render()
}

// printLeaderboard writes ranked entries.
func printLeaderboard(w io.Writer, entries []types.Entry) {
	table := newTable(w)
	table.Header("RANK", "COMPETITOR", "RATING", "LAST", "MATCHES")
	for _, e := range entries {
		table.Append(
			strconv.Itoa(e.Rank),
			e.Competitor,
			fmt.Sprintf("%.2f", e.Rating),
			fmt.Sprintf("%+.2f", e.Momentum),
			strconv.Itoa(e.Matches),
		)
	}
	table.Render()
}
