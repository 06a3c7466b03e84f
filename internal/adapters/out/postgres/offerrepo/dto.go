// Package offerrepo persists in-flight dispatch offers keyed by order id.
// Having the candidate ladder and deadline on disk lets the requeue sweep
// resume offers whose in-process timers died with the process.
package offerrepo

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/offer"
)

// OfferDTO represents the database structure for dispatch offers.
type OfferDTO struct {
	OrderID      uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Candidates   pq.StringArray `gorm:"type:text[]"`
	CurrentIndex int
	Deadline     time.Time `gorm:"index"`
	Epoch        int64
}

// TableName specifies the database table name for dispatch offers.
func (OfferDTO) TableName() string {
	return "dispatch_offers"
}

func fromDomain(aggregate *offer.Offer) OfferDTO {
	candidates := make(pq.StringArray, 0, len(aggregate.Candidates()))
	for _, candidate := range aggregate.Candidates() {
		candidates = append(candidates, candidate.String())
	}

	return OfferDTO{
		OrderID:      aggregate.OrderID().Bytes(),
		Candidates:   candidates,
		CurrentIndex: aggregate.CurrentIndex(),
		Deadline:     aggregate.Deadline(),
		Epoch:        aggregate.Epoch(),
	}
}

func toDomain(dto OfferDTO) (*offer.Offer, error) {
	orderID, err := kernel.UUIDFromBytes(dto.OrderID[:])
	if err != nil {
		return nil, err
	}

	candidates := make([]kernel.UUID, 0, len(dto.Candidates))
	for _, raw := range dto.Candidates {
		candidate, candidateErr := kernel.UUIDFromString(raw)
		if candidateErr != nil {
			return nil, candidateErr
		}
		candidates = append(candidates, candidate)
	}

	return offer.RestoreOffer(orderID, candidates, dto.CurrentIndex, dto.Deadline.UTC(), dto.Epoch)
}
