package queries

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
)

// GetOrderQueryHandler retrieves one order snapshot from the database.
// Uses direct SQL for optimal read performance in the CQRS pattern.
type GetOrderQueryHandler struct {
	db *gorm.DB
}

// NewGetOrderQueryHandler creates a handler for single order queries.
func NewGetOrderQueryHandler(db *gorm.DB) GetOrderQueryHandler {
	return GetOrderQueryHandler{db: db}
}

// Handle executes the query. Returns errs.ErrObjectNotFound for unknown IDs.
func (h GetOrderQueryHandler) Handle(ctx context.Context, query GetOrderQuery) (GetOrderQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetOrderQueryResponse{}, err
	}

	row := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			client_id,
			driver_id,
			status,
			dropoff_lat,
			dropoff_lon,
			dropoff_address,
			payment_method,
			amount,
			description,
			version,
			created_at,
			assigned_at,
			accepted_at,
			picked_up_at,
			in_transit_at,
			delivered_at,
			cancelled_at,
			failed_at
		FROM orders
		WHERE id = ?
	`, query.OrderID().Bytes()).Row()

	var (
		response GetOrderQueryResponse
		id       uuid.UUID
		clientID uuid.UUID
		driverID uuid.NullUUID
	)

	err := row.Scan(
		&id,
		&clientID,
		&driverID,
		&response.Status,
		&response.DropoffLat,
		&response.DropoffLon,
		&response.DropoffAddress,
		&response.PaymentMethod,
		&response.Amount,
		&response.Description,
		&response.Version,
		&response.CreatedAt,
		&response.AssignedAt,
		&response.AcceptedAt,
		&response.PickedUpAt,
		&response.InTransitAt,
		&response.DeliveredAt,
		&response.CancelledAt,
		&response.FailedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return GetOrderQueryResponse{}, errs.NewObjectNotFoundError("order", query.OrderID().String())
	}
	if err != nil {
		return GetOrderQueryResponse{}, err
	}

	orderID, err := kernel.UUIDFromBytes(id[:])
	if err != nil {
		return GetOrderQueryResponse{}, err
	}
	response.ID = orderID

	client, err := kernel.UUIDFromBytes(clientID[:])
	if err != nil {
		return GetOrderQueryResponse{}, err
	}
	response.ClientID = client

	if driverID.Valid {
		assigned, idErr := kernel.UUIDFromBytes(driverID.UUID[:])
		if idErr != nil {
			return GetOrderQueryResponse{}, idErr
		}
		response.DriverID = &assigned
	}

	response.CreatedAt = response.CreatedAt.UTC()
	normalizeTimes(
		&response.AssignedAt,
		&response.AcceptedAt,
		&response.PickedUpAt,
		&response.InTransitAt,
		&response.DeliveredAt,
		&response.CancelledAt,
		&response.FailedAt,
	)

	return response, nil
}

func normalizeTimes(fields ...**time.Time) {
	for _, field := range fields {
		if *field != nil {
			utc := (**field).UTC()
			*field = &utc
		}
	}
}
