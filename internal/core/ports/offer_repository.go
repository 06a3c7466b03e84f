package ports

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/offer"
)

// OfferRepository is the persistence contract for dispatch offers. Offers are
// ephemeral but persisted keyed by order id, so in-flight dispatch state
// survives a process restart and can be recovered by the requeue sweep.
type OfferRepository interface {
	// Save upserts the offer for its order.
	Save(ctx context.Context, aggregate *offer.Offer) error

	// Get retrieves the offer for an order, or errs.ErrObjectNotFound when
	// no dispatch is in flight.
	Get(ctx context.Context, orderID kernel.UUID) (*offer.Offer, error)

	// Delete removes the offer for an order. Deleting a missing offer is
	// not an error.
	Delete(ctx context.Context, orderID kernel.UUID) error

	// GetAllExpired retrieves offers whose deadline passed before now.
	// After a restart no in-process timer exists for them; the requeue
	// sweep picks them up and advances to the next candidate.
	GetAllExpired(ctx context.Context, now time.Time) ([]*offer.Offer, error)
}
