package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/rally/internal/adapters/storage"
	"github.com/okian/rally/internal/domain/model"
	"github.com/okian/rally/internal/domain/replay"
)

func newImportCmd(g *globals) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Validate the history and store it in SQLite",
		Long: "Load and validate the CSV history, then write it to the match store a rally server\n" +
			"replays on start. Matches already stored are skipped.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			matches, err := g.load(ctx)
			if err != nil {
				return err
			}

			db, err := storage.Open(dbPath)
			if err != nil {
				return fmt.Errorf("open storage: %w", err)
			}
			defer db.Close()

			stored, err := db.ListMatches(ctx)
			if err != nil {
				return fmt.Errorf("list stored matches: %w", err)
			}
			// New rows must not predate what the store already replays.
			if n := len(stored); n > 0 {
				known := make(map[string]struct{}, n)
				for _, m := range stored {
					known[m.ID] = struct{}{}
				}
				fresh := make([]model.Match, 0, len(matches))
				for _, m := range matches {
					if _, ok := known[m.ID]; !ok {
						fresh = append(fresh, m)
					}
				}
				if err := replay.ValidateSequence(fresh, stored[n-1].Date); err != nil {
					return err
				}
			}

			inserted, err := db.SaveMatches(ctx, matches)
			if err != nil {
				return fmt.Errorf("save matches: %w", err)
			}
			total, err := db.CountMatches(ctx)
			if err != nil {
				return fmt.Errorf("count matches: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d of %d matches (%d stored)\n", inserted, len(matches), total)
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "rally.db", "path to SQLite database")
	return cmd
}
