package domain

import (
	"time"
)

// EventType names a domain event.
type EventType string

const (
	EventVideoPublished         EventType = "video.published"
	EventVideoUpdated           EventType = "video.updated"
	EventVideoVisibilityChanged EventType = "video.visibility_changed"
	EventVideoDeleted           EventType = "video.deleted"
	EventTweetCreated           EventType = "tweet.created"
	EventTweetUpdated           EventType = "tweet.updated"
	EventTweetDeleted           EventType = "tweet.deleted"
	EventUserRegistered         EventType = "user.registered"
)

// Event is emitted after a successful mutation.
type Event struct {
	Type       EventType         `json:"type"`
	ResourceID string            `json:"resourceId"`
	OwnerID    string            `json:"ownerId"`
	OccurredAt time.Time         `json:"occurredAt"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// NewEvent creates an event stamped with the current time.
func NewEvent(t EventType, resourceID, ownerID string) Event {
	return Event{
		Type:       t,
		ResourceID: resourceID,
		OwnerID:    ownerID,
		OccurredAt: time.Now().UTC(),
	}
}
