package queries

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"dispatch/internal/core/domain/model/kernel"
)

// GetNearbyDriversQueryHandler retrieves dispatchable drivers around a point.
// The freshness window mirrors the one used for candidate selection, so the
// preview a dispatcher sees matches what the matching loop would pick from.
type GetNearbyDriversQueryHandler struct {
	db        *gorm.DB
	freshness time.Duration
}

// NewGetNearbyDriversQueryHandler creates a handler for nearby driver queries.
func NewGetNearbyDriversQueryHandler(db *gorm.DB, freshness time.Duration) GetNearbyDriversQueryHandler {
	return GetNearbyDriversQueryHandler{db: db, freshness: freshness}
}

// Handle executes the query. Distance ordering is computed on the stored
// coordinates; ties are broken by driver ID so pagination is stable.
func (h GetNearbyDriversQueryHandler) Handle(
	ctx context.Context,
	query GetNearbyDriversQuery,
) ([]GetNearbyDriversQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	cutoff := time.Now().UTC().Add(-h.freshness)

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			driver_id,
			lat,
			lon
		FROM driver_presence
		WHERE status = 'available' AND updated_at >= ?
	`, cutoff).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	drivers := make([]GetNearbyDriversQueryResponse, 0)

	for rows.Next() {
		var (
			driverID uuid.UUID
			lat, lon float64
		)

		if err = rows.Scan(&driverID, &lat, &lon); err != nil {
			return nil, err
		}

		id, idErr := kernel.UUIDFromBytes(driverID[:])
		if idErr != nil {
			return nil, idErr
		}

		location, locErr := kernel.NewGeoPoint(lat, lon)
		if locErr != nil {
			return nil, locErr
		}

		distance, distErr := query.Reference().DistanceTo(location)
		if distErr != nil {
			return nil, distErr
		}
		if distance > query.RadiusMeters() {
			continue
		}

		drivers = append(drivers, GetNearbyDriversQueryResponse{
			DriverID:       id,
			Location:       location,
			DistanceMeters: distance,
		})
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(drivers, func(i, j int) bool {
		if drivers[i].DistanceMeters != drivers[j].DistanceMeters {
			return drivers[i].DistanceMeters < drivers[j].DistanceMeters
		}
		return drivers[i].DriverID.String() < drivers[j].DriverID.String()
	})

	if len(drivers) > query.Limit() {
		drivers = drivers[:query.Limit()]
	}

	return drivers, nil
}
