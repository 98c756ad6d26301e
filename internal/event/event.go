// Package event defines the event envelope appended to and replayed from
// the external event store, plus the action-name parsing rules the
// projection engine uses while replaying a stream.
package event

import (
	"strings"

	"github.com/makkalot/eskit/internal/originator"
)

// Action is the verb suffix of an event type: Created, Updated or Deleted.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// Event is a single entry in an entity's event stream.
type Event struct {
	Originator originator.Originator `json:"originator"`
	// EventType is "<entity_type>.<Created|Updated|Deleted>".
	EventType string `json:"event_type"`
	// Payload is the JSON snapshot for a Created event, a JSON-Patch
	// document for an Updated event, or "{}" for a Deleted event.
	Payload   string `json:"payload"`
	OccuredOn int64  `json:"occured_on"`
}

// TypeFor builds the event type string for entityType and action.
func TypeFor(entityType string, action Action) string {
	return entityType + "." + capitalize(string(action))
}

// ActionOf extracts the lowercased action suffix from an event type
// string, e.g. "Widget.Updated" -> "updated".
func ActionOf(eventType string) Action {
	parts := strings.Split(eventType, ".")
	return Action(strings.ToLower(parts[len(parts)-1]))
}

// IsCrud reports whether eventType's action suffix is one this projection
// engine knows how to replay.
func IsCrud(eventType string) bool {
	switch ActionOf(eventType) {
	case ActionCreated, ActionUpdated, ActionDeleted:
		return true
	default:
		return false
	}
}

// IsDeleted reports whether eventType is a tombstone event.
func IsDeleted(eventType string) bool {
	return ActionOf(eventType) == ActionDeleted
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
