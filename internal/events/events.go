package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event is the envelope published for every row the service creates or changes.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Entity     string    `json:"entity"`
	EntityID   int64     `json:"entity_id"`
	UserID     int64     `json:"user_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data,omitempty"`
}

// New builds an event whose routing key is "<entity>.<action>".
func New(entity, action string, entityID, userID int64, data any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       entity + "." + action,
		Entity:     entity,
		EntityID:   entityID,
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
}

// RoutingKey returns the topic routing key of the event.
func (e Event) RoutingKey() string {
	return e.Type
}

// Publisher delivers change events to subscribers.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close()
}
