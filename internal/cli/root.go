// Package cli implements the rally command-line tools: offline replay,
// feature export, traces, leaderboards, imports and predictions.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/rally/internal/adapters/dataset"
	"github.com/okian/rally/internal/domain/model"
	"github.com/okian/rally/internal/domain/rating"
	"github.com/okian/rally/internal/domain/replay"
	"github.com/okian/rally/pkg/logger"
)

// globals holds the flags shared by every subcommand.
type globals struct {
	dataPath      string
	dateFormat    string
	skipRetired   bool
	kFactor       float64
	defaultRating float64
	logLevel      string
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	g := &globals{}

	root := &cobra.Command{
		Use:           "rally",
		Short:         "Pairwise rating replay and winner prediction",
		Long:          "Replay match histories into Elo ratings, export classifier features and predict winners.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Init(logger.WithWriter(cmd.ErrOrStderr())); err != nil {
				return err
			}
			return logger.SetLevelString(g.logLevel)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.dataPath, "data", "ws.csv", "path to the match history CSV")
	pf.StringVar(&g.dateFormat, "date-format", dataset.DefaultDateLayout, "Go layout of the CSV date column")
	pf.BoolVar(&g.skipRetired, "skip-retired", true, "drop matches where a competitor retired")
	pf.Float64Var(&g.kFactor, "k-factor", rating.DefaultK, "rating sensitivity")
	pf.Float64Var(&g.defaultRating, "default-rating", rating.DefaultRating, "rating of a competitor's first match")
	pf.StringVar(&g.logLevel, "log-level", "warn", "log level: debug, info, warn, error")

	root.AddCommand(newFeaturesCmd(g))
	root.AddCommand(newTraceCmd(g))
	root.AddCommand(newLeaderboardCmd(g))
	root.AddCommand(newImportCmd(g))
	root.AddCommand(newPredictCmd(g))
	root.AddCommand(newSubmitCmd(g))
	return root
}

// load reads the dataset named by --data.
func (g *globals) load(ctx context.Context) ([]model.Match, error) {
	loader := dataset.NewLoader(
		dataset.WithDateLayout(g.dateFormat),
		dataset.WithSkipRetired(g.skipRetired),
	)
	matches, stats, err := loader.LoadFile(g.dataPath)
	if err != nil {
		return nil, err
	}
	logger.Get().Info(ctx, "dataset loaded",
		logger.String("path", g.dataPath),
		logger.Int("rows", stats.Rows),
		logger.Int("matches", stats.Matches),
		logger.Int("retired", stats.Retired),
	)
	return matches, nil
}

// replay loads the dataset and folds it through a fresh engine.
func (g *globals) replay(ctx context.Context) (*replay.Engine, error) {
	matches, err := g.load(ctx)
	if err != nil {
		return nil, err
	}
	engine, err := replay.Replay(ctx, matches,
		replay.WithKFactor(g.kFactor),
		replay.WithDefaultRating(g.defaultRating),
		replay.WithLogger(logger.Named("replay")),
	)
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", g.dataPath, err)
	}
	return engine, nil
}
