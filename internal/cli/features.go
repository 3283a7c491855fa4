package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/rally/internal/adapters/dataset"
	"github.com/okian/rally/internal/domain/features"
)

func newFeaturesCmd(g *globals) *cobra.Command {
	var (
		outPath      string
		testPath     string
		testFraction float64
		seed         int64
		reference    string
	)

	cmd := &cobra.Command{
		Use:   "features",
		Short: "Export one classifier feature row per match",
		Long: "Replay the history and write [age, elo1, elo2, grad1, grad2] plus the winner label per match.\n" +
			"With --test the rows are split into a training file (--out) and a test file.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ref := features.DefaultReferenceDate
			if reference != "" {
				t, err := time.Parse(g.dateFormat, reference)
				if err != nil {
					return fmt.Errorf("parse --reference-date: %w", err)
				}
				ref = t
			}
			engine, err := g.replay(cmd.Context())
			if err != nil {
				return err
			}
			rows := features.NewAssembler(features.WithReferenceDate(ref)).Assemble(engine.History())

			if testPath == "" {
				return writeRows(cmd.OutOrStdout(), outPath, rows)
			}
			train, test := features.Split(rows, testFraction, seed)
			if err := writeRows(cmd.OutOrStdout(), outPath, train); err != nil {
				return err
			}
			if err := writeRows(cmd.OutOrStdout(), testPath, test); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d train rows, %d test rows\n", len(train), len(test))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&outPath, "out", "", "output CSV (default stdout)")
	f.StringVar(&testPath, "test", "", "also write a held-out test CSV here")
	f.Float64Var(&testFraction, "test-fraction", features.DefaultTestFraction, "share of rows held out with --test")
	f.Int64Var(&seed, "seed", features.DefaultSeed, "shuffle seed for --test")
	f.StringVar(&reference, "reference-date", "", "date ages are measured from, in --date-format (default 01-01-2022)")
	return cmd
}

// writeRows writes rows to path, or to stdout when path is empty.
func writeRows(stdout io.Writer, path string, rows []features.Row) error {
	if path == "" {
		return dataset.WriteFeatures(stdout, rows)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := dataset.WriteFeatures(f, rows); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
