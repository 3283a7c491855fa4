package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/okian/rally/internal/domain/features"
)

// FeatureHeader is the header written by WriteFeatures.
var FeatureHeader = []string{"match_id", "player1", "player2", "age", "elo1", "elo2", "grad1", "grad2", "winner"}

// WriteFeatures writes one CSV line per row in the classifier's column order.
func WriteFeatures(w io.Writer, rows []features.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(FeatureHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		record := []string{r.MatchID, r.PlayerA, r.PlayerB}
		for _, v := range r.Vector.Slice() {
			record = append(record, strconv.FormatFloat(v, 'f', -1, 64))
		}
		record = append(record, strconv.Itoa(int(r.Label)))
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %s: %w", r.MatchID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
