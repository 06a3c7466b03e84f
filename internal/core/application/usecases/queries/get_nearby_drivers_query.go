package queries

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var ErrGetNearbyDriversQueryIsNotConstructed = errors.New(
	"GetNearbyDriversQuery must be created via NewGetNearbyDriversQuery constructor",
)

// DefaultNearbyLimit caps the result set when the caller does not ask for a
// specific count.
const DefaultNearbyLimit = 20

// GetNearbyDriversQuery retrieves available, fresh drivers around a point,
// closest first. Backs the operational map and the dispatch preview.
type GetNearbyDriversQuery struct {
	reference    kernel.GeoPoint
	radiusMeters float64
	limit        int

	guard guard.ConstructorGuard
}

// NewGetNearbyDriversQuery creates a nearby drivers query.
// The radius must be positive; limit <= 0 falls back to the default.
func NewGetNearbyDriversQuery(reference kernel.GeoPoint, radiusMeters float64, limit int) (GetNearbyDriversQuery, error) {
	if err := reference.Validate(); err != nil {
		return GetNearbyDriversQuery{}, err
	}
	if radiusMeters <= 0 {
		return GetNearbyDriversQuery{}, errs.NewValueIsInvalidError("radiusMeters")
	}

	if limit <= 0 {
		limit = DefaultNearbyLimit
	}

	return GetNearbyDriversQuery{
		reference:    reference,
		radiusMeters: radiusMeters,
		limit:        limit,
		guard:        guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the query was created through the constructor.
func (q GetNearbyDriversQuery) Validate() error {
	return q.guard.Validate(ErrGetNearbyDriversQueryIsNotConstructed)
}

// Reference returns the search center.
func (q GetNearbyDriversQuery) Reference() kernel.GeoPoint {
	return q.reference
}

// RadiusMeters returns the search radius.
func (q GetNearbyDriversQuery) RadiusMeters() float64 {
	return q.radiusMeters
}

// Limit returns the maximum number of results.
func (q GetNearbyDriversQuery) Limit() int {
	return q.limit
}

// GetNearbyDriversQueryResponse is one driver in the read model.
type GetNearbyDriversQueryResponse struct {
	DriverID       kernel.UUID
	Location       kernel.GeoPoint
	DistanceMeters float64
}
