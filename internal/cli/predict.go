package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	app "github.com/okian/rally/internal/app"
	"github.com/okian/rally/internal/domain/predict"
)

var featureFlags = []string{"age", "elo1", "elo2", "grad1", "grad2"}

func newPredictCmd(g *globals) *cobra.Command {
	var (
		req       predict.Request
		player1   string
		player2   string
		date      string
		url       string
		timeout   time.Duration
		showInput bool
	)

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict the winner of a match",
		Long: "Classify an explicit feature vector (--age --elo1 --elo2 --grad1 --grad2), or name two\n" +
			"competitors (--player1 --player2) to build the vector from the replayed history.\n" +
			"Predictions use the rating baseline unless --url points at a model server.",
		Example: "  rally predict --age 30 --elo1 1480 --elo2 1520 --grad1 -3.5 --grad2 12\n" +
			"  rally predict --data ws.csv --player1 \"Tai Tzu Ying\" --player2 \"Carolina Marin\"",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			var p predict.Predictor = predict.NewRatingPredictor()
			if url != "" {
				p = predict.NewRemotePredictor(url, predict.WithTimeout(timeout))
			}

			var (
				label predict.Label
				err   error
			)
			switch {
			case player1 != "" || player2 != "":
				label, req, err = predictByName(cmd, g, p, player1, player2, date)
			default:
				for _, name := range featureFlags {
					if !cmd.Flags().Changed(name) {
						return fmt.Errorf("--%s is required without --player1/--player2", name)
					}
				}
				label, err = predict.Classify(ctx, p, req)
			}

			if showInput {
				fmt.Fprintf(cmd.ErrOrStderr(), "age=%g elo1=%.2f elo2=%.2f grad1=%.2f grad2=%.2f\n",
					req.Age, req.Elo1, req.Elo2, req.Grad1, req.Grad2)
			}
			if err != nil && (errors.Is(err, predict.ErrUnknownOutcome) || errors.Is(err, predict.ErrPredictor)) {
				fmt.Fprintln(cmd.OutOrStdout(), predict.LabelError)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), label)
			return nil
		},
	}

	f := cmd.Flags()
	f.Float64Var(&req.Age, "age", 0, "days between the match and the reference date")
	f.Float64Var(&req.Elo1, "elo1", 0, "player 1 rating")
	f.Float64Var(&req.Elo2, "elo2", 0, "player 2 rating")
	f.Float64Var(&req.Grad1, "grad1", 0, "player 1 latest rating change")
	f.Float64Var(&req.Grad2, "grad2", 0, "player 2 latest rating change")
	f.StringVar(&player1, "player1", "", "player 1 name; uses the replayed history")
	f.StringVar(&player2, "player2", "", "player 2 name; uses the replayed history")
	f.StringVar(&date, "date", "", "match date in --date-format (default today)")
	f.StringVar(&url, "url", "", "model server endpoint")
	f.DurationVar(&timeout, "timeout", 2*time.Second, "model server timeout")
	f.BoolVar(&showInput, "show-features", false, "print the feature vector to stderr")
	return cmd
}

// predictByName replays the history into a service and asks it for a named
// prediction.
func predictByName(cmd *cobra.Command, g *globals, p predict.Predictor, player1, player2, date string) (predict.Label, predict.Request, error) {
	ctx := cmd.Context()
	var when time.Time
	if date != "" {
		t, err := time.Parse(g.dateFormat, date)
		if err != nil {
			return predict.LabelError, predict.Request{}, fmt.Errorf("parse --date: %w", err)
		}
		when = t
	}

	matches, err := g.load(ctx)
	if err != nil {
		return predict.LabelError, predict.Request{}, err
	}
	svc := app.New(
		app.WithHistory(matches),
		app.WithKFactor(g.kFactor),
		app.WithDefaultRating(g.defaultRating),
		app.WithPredictor(p),
	)
	if err := svc.Start(ctx); err != nil {
		return predict.LabelError, predict.Request{}, err
	}
	defer svc.Stop()

	return svc.PredictMatch(ctx, player1, player2, when)
}
