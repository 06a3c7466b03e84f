// Package ports defines the contracts between the dispatch engine's core and
// its infrastructure adapters: persistence repositories, the unit of work,
// the geo index, and the realtime event publisher. The interfaces enable
// dependency inversion and testability; adapters under internal/adapters
// provide the implementations.
package ports

import (
	"context"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
)

// OrderRepository is the persistence contract for order aggregates.
//
// Update applies an optimistic compare-and-set: the row is written only where
// the stored version equals the aggregate's loaded version, and the version
// is incremented atomically. A conditional update matching zero rows reports
// errs.ErrVersionIsInvalid — the caller lost a race and must re-fetch. This
// is the durable primitive behind the at-most-one-acceptance guarantee.
type OrderRepository interface {
	// Add persists a new order aggregate. The order must be valid and not
	// already exist.
	Add(ctx context.Context, aggregate *order.Order) error

	// Update persists changes via compare-and-set on the aggregate version.
	// Returns errs.ErrVersionIsInvalid when a concurrent writer won.
	Update(ctx context.Context, aggregate *order.Order) error

	// Get retrieves an order by ID, or errs.ErrObjectNotFound.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// GetAllPending retrieves orders awaiting dispatch, oldest first.
	// Used by the requeue sweep to re-enter matching for orders whose
	// candidates were exhausted or that were created while no driver
	// was available.
	GetAllPending(ctx context.Context) ([]*order.Order, error)

	// GetActiveByDriver retrieves the driver's live assignment (assigned
	// through in_transit), or errs.ErrObjectNotFound when the driver holds
	// none. Backs the single-active-order-per-driver rule and location-ping
	// forwarding.
	GetActiveByDriver(ctx context.Context, driverID kernel.UUID) (*order.Order, error)
}
