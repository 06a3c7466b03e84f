// Package realtime implements in-process fan-out of order events.
// Each order gets a room; clients viewing that order subscribe to the room
// and receive lifecycle, chat and location events in publish order.
package realtime

import (
	"log/slog"
	"sync"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"
)

const subscriberBufferSize = 64

// Subscription is one client's attachment to an order room.
// Events arrives in the order they were published. The channel is closed
// when the subscription is cancelled or the hub shuts down.
type Subscription struct {
	Events <-chan ports.Event

	orderID kernel.UUID
	id      uint64
}

// Hub routes events to subscribers grouped by order. A room exists only
// while it has at least one subscriber. Slow subscribers are disconnected
// rather than allowed to stall the publisher.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[kernel.UUID]map[uint64]chan ports.Event
	nextID uint64
	closed bool

	logger *slog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		rooms:  make(map[kernel.UUID]map[uint64]chan ports.Event),
		logger: logger.With("component", "realtime_hub"),
	}
}

// Subscribe attaches a new subscriber to the order's room, creating the room
// if needed. The caller must eventually call Unsubscribe.
func (h *Hub) Subscribe(orderID kernel.UUID) Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan ports.Event, subscriberBufferSize)
	if h.closed {
		close(ch)
		return Subscription{Events: ch, orderID: orderID}
	}

	h.nextID++
	id := h.nextID

	room, ok := h.rooms[orderID]
	if !ok {
		room = make(map[uint64]chan ports.Event)
		h.rooms[orderID] = room
	}
	room[id] = ch

	return Subscription{Events: ch, orderID: orderID, id: id}
}

// Unsubscribe detaches the subscriber and closes its channel.
// Calling it twice for the same subscription is safe.
func (h *Hub) Unsubscribe(sub Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeLocked(sub.orderID, sub.id)
}

// Publish delivers the event to every subscriber of the event's order room.
// Subscribers whose buffers are full are dropped so a stalled connection
// cannot block dispatch or chat flows.
func (h *Hub) Publish(event ports.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}

	room, ok := h.rooms[event.OrderID]
	if !ok {
		return
	}

	for id, ch := range room {
		select {
		case ch <- event:
		default:
			h.logger.Warn("dropping slow subscriber",
				"order_id", event.OrderID.String(),
				"subscriber_id", id)
			h.removeLocked(event.OrderID, id)
		}
	}
}

// SubscriberCount reports how many subscribers the order's room currently has.
func (h *Hub) SubscriberCount(orderID kernel.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.rooms[orderID])
}

// Close shuts the hub down, closing every subscriber channel.
// Subsequent Publish calls are ignored and new subscriptions arrive closed.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true

	for orderID, room := range h.rooms {
		for id, ch := range room {
			close(ch)
			delete(room, id)
		}
		delete(h.rooms, orderID)
	}
}

func (h *Hub) removeLocked(orderID kernel.UUID, id uint64) {
	room, ok := h.rooms[orderID]
	if !ok {
		return
	}

	ch, ok := room[id]
	if !ok {
		return
	}

	close(ch)
	delete(room, id)

	if len(room) == 0 {
		delete(h.rooms, orderID)
	}
}
