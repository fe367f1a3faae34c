package common

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Time styles accepted by NewByline.
const (
	StyleCompact = "compact"
	StyleLong    = "long"
)

// ErrUnknownStyle is returned by NewByline for an unrecognised style name.
var ErrUnknownStyle = errors.New("unknown time style")

// Styles returns the valid time style names, default first.
func Styles() []string {
	return []string{StyleCompact, StyleLong}
}

// TimeAndAuthor describes createdAt relative to now and, when name is not
// empty, appends " by <name>". Errors from relative are returned as is.
func TimeAndAuthor(relative RelativeTimeFormatter, createdAt time.Time, name string) (string, error) {
	timeAgo, err := relative(createdAt)
	if err != nil {
		return "", err
	}

	if name != "" {
		return timeAgo + " by " + name, nil
	}

	return timeAgo, nil
}

// Byline formats "time ago by author" strings with a fixed relative time
// formatter. The zero value is not usable; build one with NewByline or set
// Relative directly.
type Byline struct {
	Relative RelativeTimeFormatter
}

// NewByline returns a Byline for the named style. An empty style selects
// StyleCompact.
func NewByline(style string, clock Clock) (*Byline, error) {
	switch strings.ToLower(strings.TrimSpace(style)) {
	case "", StyleCompact:
		return &Byline{Relative: CompactAge(clock)}, nil
	case StyleLong:
		return &Byline{Relative: LongAge(clock)}, nil
	default:
		return nil, fmt.Errorf("%w: %q (valid: %s)", ErrUnknownStyle, style, strings.Join(Styles(), ", "))
	}
}

// Format returns the byline for an item created at createdAt by name.
func (b *Byline) Format(createdAt time.Time, name string) (string, error) {
	return TimeAndAuthor(b.Relative, createdAt, name)
}
