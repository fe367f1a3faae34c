// Package common provides shared utilities used across CLI and server packages.
package common

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidEntryKey is returned when an entry key doesn't match the expected format.
var ErrInvalidEntryKey = errors.New("invalid entry key format (expected FEED-NUMBER)")

// entryKeyRegex validates entry keys like "OPS-42" or "TEAM1-7"
var entryKeyRegex = regexp.MustCompile(`^([A-Z][A-Z0-9]*)-(\d+)$`)

// ParseEntryKey parses an entry key like "OPS-42" into feed key and number.
// It also accepts just a number (e.g., "42") for use with a default feed.
// Returns ErrInvalidEntryKey if the format is invalid or number is not positive.
func ParseEntryKey(key string) (feedKey string, number int, err error) {
	key = strings.ToUpper(strings.TrimSpace(key))

	matches := entryKeyRegex.FindStringSubmatch(key)
	if matches != nil {
		feedKey = matches[1]
		number, _ = strconv.Atoi(matches[2])
		if number <= 0 {
			return "", 0, ErrInvalidEntryKey
		}
		return feedKey, number, nil
	}

	if n, err := strconv.Atoi(key); err == nil && n > 0 {
		return "", n, nil
	}

	return "", 0, ErrInvalidEntryKey
}

// FormatEntryKey joins a feed key and entry number ("OPS-42").
func FormatEntryKey(feedKey string, number int) string {
	return feedKey + "-" + strconv.Itoa(number)
}
