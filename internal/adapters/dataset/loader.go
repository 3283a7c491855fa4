// Package dataset reads match histories from CSV and writes feature rows.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/rally/internal/domain/model"
)

// rowNamespace seeds deterministic ids for rows without a match_id column.
var rowNamespace = uuid.MustParse("0b5a1f7e-4c61-4a8e-9d3c-6f1e2a7b9c40")

// Stats summarizes one load.
type Stats struct {
	Rows    int // data rows read
	Matches int // rows kept
	Retired int // rows dropped as retired
}

// Loader parses match CSV files.
type Loader struct {
	columns     Columns
	dateLayout  string
	skipRetired bool
}

// NewLoader creates a loader with the given options.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		columns:     DefaultColumns(),
		dateLayout:  DefaultDateLayout,
		skipRetired: true,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadFile opens path and calls Load.
func (l *Loader) LoadFile(path string) ([]model.Match, Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("%w: %w", ErrReadDataset, err)
	}
	defer f.Close()
	return l.Load(f)
}

// Load parses every row, normalizes names and checks chronological order. Any
// malformed row fails the whole load with an *model.IntegrityError carrying
// its 1-based data row number.
func (l *Loader) Load(r io.Reader) ([]model.Match, Stats, error) {
	var stats Stats

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, stats, fmt.Errorf("%w: read header: %w", ErrReadDataset, err)
	}
	colIdx := make(map[string]int, len(header))
	for i, h := range header {
		colIdx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	c := l.columns
	for _, name := range []string{c.Date, c.PlayerA, c.PlayerB, c.ScoreA, c.ScoreB} {
		if _, ok := colIdx[name]; !ok {
			return nil, stats, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}

	var (
		matches []model.Match
		last    time.Time
	)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("%w: %w", ErrReadDataset, err)
		}
		stats.Rows++

		if l.skipRetired {
			if v := getCol(record, colIdx, c.Retired); v != "" {
				retired, perr := strconv.ParseBool(v)
				if perr != nil {
					return nil, stats, rowError(stats.Rows, "", c.Retired, "not a boolean: "+v)
				}
				if retired {
					stats.Retired++
					continue
				}
			}
		}

		m, err := l.parse(record, colIdx, stats.Rows)
		if err != nil {
			return nil, stats, err
		}
		if err := m.Validate(); err != nil {
			return nil, stats, model.AtRow(err, stats.Rows)
		}
		if m.Date.Before(last) {
			return nil, stats, rowError(stats.Rows, m.ID, "date",
				fmt.Sprintf("%s is before %s", m.Date.Format(time.DateOnly), last.Format(time.DateOnly)))
		}
		last = m.Date
		matches = append(matches, m)
	}

	stats.Matches = len(matches)
	return matches, stats, nil
}

func (l *Loader) parse(record []string, colIdx map[string]int, row int) (model.Match, error) {
	c := l.columns
	id := getCol(record, colIdx, c.MatchID)

	rawDate := getCol(record, colIdx, c.Date)
	date, err := time.Parse(l.dateLayout, rawDate)
	if err != nil {
		return model.Match{}, rowError(row, id, "date", fmt.Sprintf("cannot parse %q with layout %s", rawDate, l.dateLayout))
	}
	scoreA, err := parseScore(getCol(record, colIdx, c.ScoreA))
	if err != nil {
		return model.Match{}, rowError(row, id, "points1", err.Error())
	}
	scoreB, err := parseScore(getCol(record, colIdx, c.ScoreB))
	if err != nil {
		return model.Match{}, rowError(row, id, "points2", err.Error())
	}

	var winner model.Outcome
	if v := getCol(record, colIdx, c.Winner); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return model.Match{}, rowError(row, id, "winner", "not an integer: "+v)
		}
		winner = model.Outcome(n)
	}

	m := model.Match{
		ID:      id,
		Date:    date,
		PlayerA: model.NormalizeName(getCol(record, colIdx, c.PlayerA)),
		PlayerB: model.NormalizeName(getCol(record, colIdx, c.PlayerB)),
		ScoreA:  scoreA,
		ScoreB:  scoreB,
		Winner:  winner,
	}
	if m.ID == "" {
		m.ID = RowID(row, record)
	}
	return m, nil
}

// RowID derives a stable id for a row from its position and content, so
// reloading the same file yields the same ids.
func RowID(row int, record []string) string {
	key := strconv.Itoa(row) + "\x1f" + strings.Join(record, "\x1f")
	return uuid.NewSHA1(rowNamespace, []byte(key)).String()
}

func parseScore(v string) (float64, error) {
	if v == "" {
		return 0, errors.New("missing score")
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %s", v)
	}
	return f, nil
}

func rowError(row int, id, field, reason string) error {
	return &model.IntegrityError{Row: row, MatchID: id, Field: field, Reason: reason}
}

func getCol(record []string, colIdx map[string]int, name string) string {
	i, ok := colIdx[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}
