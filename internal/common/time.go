package common

import (
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// ErrInvalidTimestamp is returned by the relative time formatters for a zero time.
var ErrInvalidTimestamp = errors.New("invalid timestamp")

// RelativeTimeFormatter turns an absolute timestamp into a description of
// how long ago it was, relative to the formatter's clock.
type RelativeTimeFormatter func(t time.Time) (string, error)

// Clock returns the current time. A nil Clock means time.Now.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}

// FormatAge returns a human-readable age string for a timestamp.
// Examples: "just now", "5m ago", "3h ago", "2d ago"
func FormatAge(t time.Time) string {
	return FormatDuration(time.Since(t))
}

// FormatDuration returns a human-readable string for a duration.
// Examples: "just now", "5m ago", "3h ago", "2d ago"
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return "just now"
	}
	if d < time.Hour {
		mins := int(d.Minutes())
		return fmt.Sprintf("%dm ago", mins)
	}
	if d < 24*time.Hour {
		hours := int(d.Hours())
		return fmt.Sprintf("%dh ago", hours)
	}
	days := int(d.Hours() / 24)
	return fmt.Sprintf("%dd ago", days)
}

// CompactAge returns a RelativeTimeFormatter producing the short form used in
// tables ("5m ago").
func CompactAge(clock Clock) RelativeTimeFormatter {
	return func(t time.Time) (string, error) {
		if t.IsZero() {
			return "", ErrInvalidTimestamp
		}
		return FormatDuration(clock.now().Sub(t)), nil
	}
}

// LongAge returns a RelativeTimeFormatter producing spelled-out units
// ("5 minutes ago", "2 days ago"). Timestamps ahead of the clock read
// "from now".
func LongAge(clock Clock) RelativeTimeFormatter {
	return func(t time.Time) (string, error) {
		if t.IsZero() {
			return "", ErrInvalidTimestamp
		}
		return humanize.RelTime(t, clock.now(), "ago", "from now"), nil
	}
}
