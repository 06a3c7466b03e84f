package ports

import (
	"time"

	"dispatch/internal/core/domain/model/kernel"
)

// EventKind classifies realtime events broadcast to an order room.
type EventKind string

const (
	EventKindMessage        EventKind = "message"
	EventKindStatusChanged  EventKind = "status_changed"
	EventKindLocationUpdate EventKind = "location_update"
	EventKindTyping         EventKind = "typing"
)

// Event is one realtime notification scoped to a single order room.
// Payload holds one of the typed payload structs below.
type Event struct {
	Kind    EventKind
	OrderID kernel.UUID
	At      time.Time
	Payload any
}

// MessagePayload carries a persisted conversation message.
type MessagePayload struct {
	Seq      int64
	SenderID kernel.UUID
	Content  string
	Kind     string
}

// StatusChangedPayload carries an order lifecycle transition.
type StatusChangedPayload struct {
	Status   string
	DriverID *kernel.UUID
}

// LocationUpdatePayload carries a driver position fix.
type LocationUpdatePayload struct {
	DriverID kernel.UUID
	Location kernel.GeoPoint
}

// TypingPayload is an ephemeral typing indicator. It is never persisted.
type TypingPayload struct {
	ActorID kernel.UUID
	Role    string
}

// EventPublisher fans an event out to every subscriber of the order's room.
// Publish must not block on slow consumers.
type EventPublisher interface {
	Publish(event Event)
}
