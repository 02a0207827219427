// Package helpers provides utility functions for parsing and normalizing
// bepress metadata values.
package helpers

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// ParseDate parses a bepress date or datetime with a best-effort,
// locale-agnostic parser. When the full value cannot be parsed, everything
// from the first "T" separator on is dropped and the date-only prefix is
// retried once. Blank input yields (nil, nil).
func ParseDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	t, err := dateparse.ParseIn(raw, time.UTC)
	if err == nil {
		return &t, nil
	}

	prefix, _, found := strings.Cut(raw, "T")
	prefix = strings.TrimSpace(prefix)
	if !found || prefix == "" {
		return nil, fmt.Errorf("parsing date %q: %w", raw, err)
	}

	t, retryErr := dateparse.ParseIn(prefix, time.UTC)
	if retryErr != nil {
		return nil, fmt.Errorf("parsing date %q (date prefix %q): %w", raw, prefix, retryErr)
	}
	return &t, nil
}

// YearStart returns January 1st of the given year in UTC.
func YearStart(year int) time.Time {
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
}
