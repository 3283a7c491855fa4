package repository

// Option applies a configuration option to the Leaderboard.
type Option func(*Leaderboard)

// WithTopCacheSize sets how many leading entries each snapshot keeps
// pre-sliced for TopN.
func WithTopCacheSize(n int) Option {
	return func(l *Leaderboard) {
		if n > 0 {
			l.topCacheSize = n
		}
	}
}
