package models

import (
	"fmt"
	"regexp"
	"time"
)

// Feed is a named stream of entries.
type Feed struct {
	ID          int64     `json:"id"`
	Key         string    `json:"key"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// feedKeyRegex validates feed keys (uppercase alphanumeric, 2-10 chars).
var feedKeyRegex = regexp.MustCompile(`^[A-Z][A-Z0-9]{1,9}$`)

// ValidateFeedKey validates a feed key.
func ValidateFeedKey(key string) error {
	if key == "" {
		return fmt.Errorf("feed key cannot be empty")
	}
	if !feedKeyRegex.MatchString(key) {
		return fmt.Errorf("feed key must be 2-10 uppercase alphanumeric characters starting with a letter")
	}
	return nil
}

// Validate validates the feed fields.
func (f *Feed) Validate() error {
	if err := ValidateFeedKey(f.Key); err != nil {
		return err
	}
	if f.Name == "" {
		return fmt.Errorf("feed name cannot be empty")
	}
	return nil
}
