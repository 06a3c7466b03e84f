// Package commands contains business operations that modify system state.
// Implements the Command pattern for write operations in the CQRS architecture.
// All commands follow a consistent pattern: validation, transaction management,
// persistence, and post-commit event publication.
package commands

import (
	"context"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"
)

// Unit of Work interfaces provide transaction management for command handlers.
// Each handler depends on the narrowest composition it needs, which keeps the
// mock surface in tests small.
type (
	// TxManager handles database transaction lifecycle.
	// Ensures atomic operations across multiple repository calls.
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	// OrderRepoFactory provides access to the order repository within a transaction.
	OrderRepoFactory interface {
		OrderRepository() ports.OrderRepository
	}

	// PresenceRepoFactory provides access to the presence repository within a transaction.
	PresenceRepoFactory interface {
		PresenceRepository() ports.PresenceRepository
	}

	// ChatRepoFactory provides access to the conversation repository within a transaction.
	ChatRepoFactory interface {
		ChatRepository() ports.ChatRepository
	}

	// OfferRepoFactory provides access to the offer repository within a transaction.
	OfferRepoFactory interface {
		OfferRepository() ports.OfferRepository
	}

	// OrderUoW manages transactions for order-only operations.
	OrderUoW interface {
		TxManager
		OrderRepoFactory
	}

	// OrderUoWFactory creates new order unit of work instances.
	OrderUoWFactory interface {
		Create() OrderUoW
	}

	// PresenceUoW manages transactions for presence-only operations.
	PresenceUoW interface {
		TxManager
		PresenceRepoFactory
	}

	// PresenceUoWFactory creates new presence unit of work instances.
	PresenceUoWFactory interface {
		Create() PresenceUoW
	}

	// TrackingUoW manages transactions for location pings, which touch the
	// presence record and read the driver's active order.
	TrackingUoW interface {
		TxManager
		PresenceRepoFactory
		OrderRepoFactory
	}

	// TrackingUoWFactory creates new tracking unit of work instances.
	TrackingUoWFactory interface {
		Create() TrackingUoW
	}

	// AssignmentUoW manages transactions that move an order through its
	// assignment lifecycle. Accept, reject, cancel and status advancement
	// coordinate the order row, the in-flight offer and driver presence.
	AssignmentUoW interface {
		TxManager
		OrderRepoFactory
		OfferRepoFactory
		PresenceRepoFactory
	}

	// AssignmentUoWFactory creates new assignment unit of work instances.
	AssignmentUoWFactory interface {
		Create() AssignmentUoW
	}

	// ConversationUoW manages transactions for the per-order message log.
	// The order row is read in the same transaction to authorize the sender.
	ConversationUoW interface {
		TxManager
		OrderRepoFactory
		ChatRepoFactory
	}

	// ConversationUoWFactory creates new conversation unit of work instances.
	ConversationUoWFactory interface {
		Create() ConversationUoW
	}
)

// DispatchNotifier wakes the matching loop after a commit changes dispatch
// state. Implementations must not block; the notification is a hint, the
// requeue sweep covers missed ones.
type DispatchNotifier interface {
	// OrderQueued signals that a pending order wants candidate matching.
	OrderQueued(orderID kernel.UUID)

	// OfferDeclined signals that the current candidate turned the offer
	// down and the next one should be tried.
	OfferDeclined(orderID kernel.UUID)
}
