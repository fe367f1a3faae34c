package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Entry is a single item posted to a feed.
type Entry struct {
	ID        int64     `json:"id"`
	Ref       string    `json:"ref"`
	FeedID    int64     `json:"feed_id"`
	Number    int       `json:"number"`
	Action    Action    `json:"action"`
	ActorType ActorType `json:"actor_type"`
	Author    string    `json:"author,omitempty"`
	Summary   string    `json:"summary"`
	Details   string    `json:"details,omitempty"` // JSON string
	CreatedAt time.Time `json:"created_at"`

	// Computed fields
	FeedKey string `json:"feed_key,omitempty"`
}

// Key returns the entry key ("OPS-42"), or "" if the feed key is unknown.
func (e *Entry) Key() string {
	if e.FeedKey == "" || e.Number == 0 {
		return ""
	}
	return fmt.Sprintf("%s-%d", e.FeedKey, e.Number)
}

// Validate validates the entry.
func (e *Entry) Validate() error {
	if e.FeedID <= 0 {
		return fmt.Errorf("feed_id is required")
	}
	if !e.Action.IsValid() {
		return fmt.Errorf("invalid action: %s", e.Action)
	}
	if !e.ActorType.IsValid() {
		return fmt.Errorf("invalid actor_type: %s", e.ActorType)
	}
	if strings.TrimSpace(e.Summary) == "" {
		return fmt.Errorf("summary cannot be empty")
	}
	return nil
}

// GetDetails parses the JSON details into a map.
func (e *Entry) GetDetails() (map[string]interface{}, error) {
	if e.Details == "" {
		return nil, nil
	}
	var details map[string]interface{}
	if err := json.Unmarshal([]byte(e.Details), &details); err != nil {
		return nil, fmt.Errorf("failed to parse details: %w", err)
	}
	return details, nil
}

// SetDetails sets the details from a map.
func (e *Entry) SetDetails(details map[string]interface{}) error {
	if details == nil {
		e.Details = ""
		return nil
	}
	data, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("failed to marshal details: %w", err)
	}
	e.Details = string(data)
	return nil
}

// NewEntry creates a new entry. The author is trimmed; a blank author is
// stored as no author.
func NewEntry(feedID int64, action Action, actorType ActorType, author, summary string) *Entry {
	return &Entry{
		FeedID:    feedID,
		Action:    action,
		ActorType: actorType,
		Author:    strings.TrimSpace(author),
		Summary:   summary,
		CreatedAt: time.Now(),
	}
}

// NewEntryWithDetails creates a new entry with details.
func NewEntryWithDetails(feedID int64, action Action, actorType ActorType, author, summary string, details map[string]interface{}) (*Entry, error) {
	e := NewEntry(feedID, action, actorType, author, summary)
	if err := e.SetDetails(details); err != nil {
		return nil, err
	}
	return e, nil
}
