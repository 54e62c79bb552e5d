package cli

import (
	"fmt"
	"time"

	"github.com/devbush/stockdesk/internal/application"
	"github.com/devbush/stockdesk/internal/config"
	"github.com/devbush/stockdesk/internal/domain"
)

// parseDay parses a YYYY-MM-DD flag in local time. Empty means zero.
func parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must be formatted YYYY-MM-DD", domain.ErrInvalidInput, s)
	}
	return t, nil
}

// parseDateRange builds an inclusive range; to covers its whole day.
func parseDateRange(from, to string) (application.DateRange, error) {
	var r application.DateRange
	var err error
	if r.From, err = parseDay(from); err != nil {
		return r, err
	}
	if r.To, err = parseDay(to); err != nil {
		return r, err
	}
	if !r.To.IsZero() {
		r.To = r.To.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	if !r.From.IsZero() && !r.To.IsZero() && r.To.Before(r.From) {
		return r, fmt.Errorf("%w: --to is before --from", domain.ErrInvalidInput)
	}
	return r, nil
}

// parseSince accepts a lookback like "7d" or "12h", or a YYYY-MM-DD date.
func parseSince(s string, now time.Time) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if d, err := config.ParseDuration(s); err == nil {
		return now.Add(-d), nil
	}
	return parseDay(s)
}

// parseAt accepts "YYYY-MM-DD HH:MM" or a bare date. Empty means zero.
func parseAt(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.ParseInLocation("2006-01-02 15:04", s, time.Local); err == nil {
		return t, nil
	}
	return parseDay(s)
}
