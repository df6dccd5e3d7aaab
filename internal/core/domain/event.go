package domain

import "time"

type EventType string

const (
	EventInventoryCreated EventType = "inventory.created"
	EventInventoryUpdated EventType = "inventory.updated"
	EventInventoryDeleted EventType = "inventory.deleted"
	EventOrderCreated     EventType = "order.created"
	EventOrderDeleted     EventType = "order.deleted"
	EventOrderItemAdded   EventType = "order.item_added"
	EventOrderItemRemoved EventType = "order.item_removed"
)

// Event describes an acknowledged mutation.
type Event struct {
	Type       EventType `json:"type"`
	EntityID   int64     `json:"entityId"`
	Payload    any       `json:"payload,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

func NewEvent(t EventType, entityID int64, payload any) Event {
	return Event{Type: t, EntityID: entityID, Payload: payload, OccurredAt: time.Now().UTC()}
}
