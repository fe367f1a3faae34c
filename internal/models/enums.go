// Package models defines the domain models for byline.
package models

import (
	"fmt"
	"strings"
)

// ActorType represents who wrote an entry.
type ActorType string

const (
	ActorTypeHuman  ActorType = "human"
	ActorTypeAgent  ActorType = "agent"
	ActorTypeSystem ActorType = "system"
)

// IsValid returns true if the actor type is valid.
func (at ActorType) IsValid() bool {
	switch at {
	case ActorTypeHuman, ActorTypeAgent, ActorTypeSystem:
		return true
	}
	return false
}

// ActorTypes returns all valid actor types.
func ActorTypes() []ActorType {
	return []ActorType{ActorTypeHuman, ActorTypeAgent, ActorTypeSystem}
}

// ParseActorType parses a case-insensitive actor type.
func ParseActorType(s string) (ActorType, error) {
	at := ActorType(strings.ToLower(strings.TrimSpace(s)))
	if !at.IsValid() {
		return "", fmt.Errorf("invalid actor type %q (valid: %s)", s, joinValues(ActorTypes()))
	}
	return at, nil
}

// Action represents what kind of entry was posted to a feed.
type Action string

const (
	ActionPosted    Action = "posted"
	ActionCommented Action = "commented"
	ActionUpdated   Action = "updated"
	ActionPublished Action = "published"
	ActionArchived  Action = "archived"

	// Written by the system when old entries are removed.
	ActionPruned Action = "pruned"
)

// IsValid returns true if the action is valid.
func (a Action) IsValid() bool {
	switch a {
	case ActionPosted, ActionCommented, ActionUpdated, ActionPublished, ActionArchived, ActionPruned:
		return true
	}
	return false
}

// Actions returns all valid actions.
func Actions() []Action {
	return []Action{ActionPosted, ActionCommented, ActionUpdated, ActionPublished, ActionArchived, ActionPruned}
}

// ParseAction parses a case-insensitive action. Hyphens are accepted in place
// of underscores.
func ParseAction(s string) (Action, error) {
	a := Action(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	if !a.IsValid() {
		return "", fmt.Errorf("invalid action %q (valid: %s)", s, joinValues(Actions()))
	}
	return a, nil
}

func joinValues[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}
