package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDataIntegrity marks malformed or out-of-order match data. Replays
// refuse to start when any record fails this check.
var ErrDataIntegrity = errors.New("data integrity error")

// IntegrityError locates a data integrity problem.
type IntegrityError struct {
	Row     int // 1-based data row, 0 when unknown
	MatchID string
	Field   string
	Reason  string
}

func (e *IntegrityError) Error() string {
	var b strings.Builder
	b.WriteString(ErrDataIntegrity.Error())
	if e.Row > 0 {
		fmt.Fprintf(&b, ": row %d", e.Row)
	}
	if e.MatchID != "" {
		fmt.Fprintf(&b, ": match %s", e.MatchID)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, ": %s", e.Field)
	}
	fmt.Fprintf(&b, ": %s", e.Reason)
	return b.String()
}

// Unwrap lets errors.Is(err, ErrDataIntegrity) match.
func (e *IntegrityError) Unwrap() error { return ErrDataIntegrity }

// AtRow returns err with its row set when err is an *IntegrityError.
func AtRow(err error, row int) error {
	var ie *IntegrityError
	if errors.As(err, &ie) {
		cp := *ie
		cp.Row = row
		return &cp
	}
	return err
}
