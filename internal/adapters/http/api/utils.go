package api

import (
	"errors"
	"net/http"
	"strings"
	"time"
)

// Accepted request date layouts, tried in order.
var dateLayouts = []string{time.DateOnly, time.RFC3339, "02-01-2006"}

var errInvalidDate = errors.New("invalid date; use YYYY-MM-DD, RFC3339 or DD-MM-YYYY")

// parseDate parses a request date. An empty string yields the zero time.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errInvalidDate
}

// pathParam returns the single path segment after prefix.
func pathParam(r *http.Request, prefix string) (string, bool) {
	v := strings.TrimPrefix(r.URL.Path, prefix)
	if v == "" || strings.Contains(v, "/") {
		return "", false
	}
	return v, true
}
