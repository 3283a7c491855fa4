package dataset

// DefaultDateLayout matches day-month-year dates such as 27-06-2019.
const DefaultDateLayout = "02-01-2006"

// Columns names the CSV headers the loader reads.
type Columns struct {
	Date    string
	PlayerA string
	PlayerB string
	ScoreA  string
	ScoreB  string
	Winner  string // optional
	Retired string // optional
	MatchID string // optional
}

// DefaultColumns are the headers of the BWF singles dataset.
func DefaultColumns() Columns {
	return Columns{
		Date:    "date",
		PlayerA: "team_one_players",
		PlayerB: "team_two_players",
		ScoreA:  "team_one_total_points",
		ScoreB:  "team_two_total_points",
		Winner:  "winner",
		Retired: "retired",
		MatchID: "match_id",
	}
}

// Option applies a configuration option to the Loader.
type Option func(*Loader)

// WithDateLayout sets the time layout used to parse the date column.
func WithDateLayout(layout string) Option {
	return func(l *Loader) {
		if layout != "" {
			l.dateLayout = layout
		}
	}
}

// WithSkipRetired controls whether rows marked retired are dropped.
func WithSkipRetired(skip bool) Option {
	return func(l *Loader) {
		l.skipRetired = skip
	}
}

// WithColumns overrides the header names.
func WithColumns(c Columns) Option {
	return func(l *Loader) {
		l.columns = c
	}
}
