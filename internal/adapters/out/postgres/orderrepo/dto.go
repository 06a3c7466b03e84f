// Package orderrepo provides data transfer objects and mapping functions for order persistence.
// This package implements the repository pattern for the order domain aggregate, handling
// the conversion between domain entities and database representations.
package orderrepo

import (
	"time"

	"github.com/google/uuid"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
)

// OrderDTO represents the database structure for persisting order aggregates.
// The version column backs the optimistic compare-and-set that settles
// accept, cancel and timeout races; indexes support lookups by status and by
// assigned driver.
type OrderDTO struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey"`
	ClientID       uuid.UUID  `gorm:"type:uuid;index"`
	DriverID       *uuid.UUID `gorm:"type:uuid;index"`
	DropoffLat     float64
	DropoffLon     float64
	DropoffAddress string
	PaymentMethod  string
	Amount         int64
	Description    string
	Status         string `gorm:"index"`
	Version        int64
	CreatedAt      time.Time
	AssignedAt     *time.Time
	AcceptedAt     *time.Time
	PickedUpAt     *time.Time
	InTransitAt    *time.Time
	DeliveredAt    *time.Time
	CancelledAt    *time.Time
	FailedAt       *time.Time
}

// TableName specifies the database table name for order entities.
func (OrderDTO) TableName() string {
	return "orders"
}

// fromDomain converts an order domain aggregate to its database representation.
func fromDomain(aggregate *order.Order) OrderDTO {
	var driverID *uuid.UUID
	if id := aggregate.Driver(); id != nil {
		raw := id.Bytes()
		driverID = &raw
	}

	stamps := aggregate.Timestamps()

	return OrderDTO{
		ID:             aggregate.ID().Bytes(),
		ClientID:       aggregate.ClientID().Bytes(),
		DriverID:       driverID,
		DropoffLat:     aggregate.Dropoff().Latitude(),
		DropoffLon:     aggregate.Dropoff().Longitude(),
		DropoffAddress: aggregate.DropoffAddress(),
		PaymentMethod:  aggregate.PaymentMethod(),
		Amount:         aggregate.Amount(),
		Description:    aggregate.Description(),
		Status:         aggregate.Status().String(),
		Version:        aggregate.Version(),
		CreatedAt:      stamps.CreatedAt,
		AssignedAt:     stamps.AssignedAt,
		AcceptedAt:     stamps.AcceptedAt,
		PickedUpAt:     stamps.PickedUpAt,
		InTransitAt:    stamps.InTransitAt,
		DeliveredAt:    stamps.DeliveredAt,
		CancelledAt:    stamps.CancelledAt,
		FailedAt:       stamps.FailedAt,
	}
}

// toDomain converts a database DTO to an order domain aggregate.
func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	clientID, err := kernel.UUIDFromBytes(dto.ClientID[:])
	if err != nil {
		return nil, err
	}

	var driverID *kernel.UUID
	if dto.DriverID != nil {
		dID, driverErr := kernel.UUIDFromBytes((*dto.DriverID)[:])
		if driverErr != nil {
			return nil, driverErr
		}

		driverID = &dID
	}

	dropoff, err := kernel.NewGeoPoint(dto.DropoffLat, dto.DropoffLon)
	if err != nil {
		return nil, err
	}

	status, err := order.StatusFromString(dto.Status)
	if err != nil {
		return nil, err
	}

	return order.RestoreOrder(
		id,
		clientID,
		driverID,
		dropoff,
		dto.DropoffAddress,
		dto.PaymentMethod,
		dto.Amount,
		dto.Description,
		status,
		dto.Version,
		order.Timestamps{
			CreatedAt:   dto.CreatedAt,
			AssignedAt:  dto.AssignedAt,
			AcceptedAt:  dto.AcceptedAt,
			PickedUpAt:  dto.PickedUpAt,
			InTransitAt: dto.InTransitAt,
			DeliveredAt: dto.DeliveredAt,
			CancelledAt: dto.CancelledAt,
			FailedAt:    dto.FailedAt,
		},
	)
}
