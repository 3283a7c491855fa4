package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/rally/internal/domain/model"
)

// dateLayout has a fixed width so stored dates sort as text.
const dateLayout = "2006-01-02T15:04:05Z"

// SaveMatches inserts matches in one transaction. Ids already stored are
// skipped, so the original insertion order is preserved on resubmission.
// It returns the number of rows actually inserted.
func (db *DB) SaveMatches(ctx context.Context, matches []model.Match) (int, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO matches(id, match_date, player1, player2, points1, points2, winner)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	inserted := 0
	for _, m := range matches {
		res, err := stmt.ExecContext(ctx,
			m.ID, m.Date.UTC().Format(dateLayout), m.PlayerA, m.PlayerB,
			m.ScoreA, m.ScoreB, int(m.Winner),
		)
		if err != nil {
			return 0, fmt.Errorf("insert match %s: %w", m.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		inserted += int(n)
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

// ListMatches returns every stored match ordered by date, then by
// insertion order.
func (db *DB) ListMatches(ctx context.Context) ([]model.Match, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, match_date, player1, player2, points1, points2, winner
		FROM matches
		ORDER BY match_date, seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Match
	for rows.Next() {
		var (
			m      model.Match
			date   string
			winner int
		)
		if err := rows.Scan(&m.ID, &date, &m.PlayerA, &m.PlayerB, &m.ScoreA, &m.ScoreB, &winner); err != nil {
			return nil, err
		}
		m.Date, err = time.Parse(dateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("match %s: parse date %q: %w", m.ID, date, err)
		}
		m.Winner = model.Outcome(winner)
		out = append(out, m)
	}
	return out, rows.Err()
}

// MatchExists returns true if a match with the given id is stored.
func (db *DB) MatchExists(ctx context.Context, id string) (bool, error) {
	var count int
	err := db.conn.QueryRowContext(ctx, "SELECT COUNT(1) FROM matches WHERE id = ?", id).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountMatches returns the number of stored matches.
func (db *DB) CountMatches(ctx context.Context) (int, error) {
	var count int
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(1) FROM matches").Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
