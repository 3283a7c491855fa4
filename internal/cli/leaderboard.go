package cli

import (
	"github.com/spf13/cobra"

	"github.com/okian/rally/internal/adapters/repository"
)

func newLeaderboardCmd(g *globals) *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Print final ratings, highest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, err := g.replay(cmd.Context())
			if err != nil {
				return err
			}
			board := repository.NewLeaderboard(repository.WithTopCacheSize(max(top, 1)))
			board.Publish(cmd.Context(), engine.Standings())
			entries, err := board.TopN(cmd.Context(), top)
			if err != nil {
				return err
			}
			printLeaderboard(cmd.OutOrStdout(), entries)
			return nil
		},
	}

	cmd.Flags().IntVar(&top, "top", 20, "number of competitors to show")
	return cmd
}
