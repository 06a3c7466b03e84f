// Package queries contains read operations for retrieving system state.
// Implements the Query pattern for read operations in the CQRS architecture.
// Queries return optimized read models for specific use cases.
package queries

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrGetOrderQueryIsNotConstructed = errors.New(
	"GetOrderQuery must be created via NewGetOrderQuery constructor",
)

// GetOrderQuery retrieves a single order snapshot: identity, lifecycle
// status, assignment and the full timestamp trail.
type GetOrderQuery struct {
	orderID kernel.UUID

	guard guard.ConstructorGuard
}

// NewGetOrderQuery creates a query for one order by ID.
func NewGetOrderQuery(orderID kernel.UUID) (GetOrderQuery, error) {
	if err := orderID.Validate(); err != nil {
		return GetOrderQuery{}, err
	}

	return GetOrderQuery{orderID: orderID, guard: guard.NewConstructorGuard()}, nil
}

// Validate ensures the query was created through the constructor.
func (q GetOrderQuery) Validate() error {
	return q.guard.Validate(ErrGetOrderQueryIsNotConstructed)
}

// OrderID returns the requested order.
func (q GetOrderQuery) OrderID() kernel.UUID {
	return q.orderID
}

// GetOrderQueryResponse is the order read model returned to clients.
type GetOrderQueryResponse struct {
	ID             kernel.UUID
	ClientID       kernel.UUID
	DriverID       *kernel.UUID
	Status         string
	DropoffLat     float64
	DropoffLon     float64
	DropoffAddress string
	PaymentMethod  string
	Amount         int64
	Description    string
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
