package ports

import (
	"context"

	"dispatch/internal/core/domain/model/kernel"
)

// GeoIndex is a low-latency spatial index of driver positions, kept alongside
// the durable presence store so that candidate lookups do not scan the
// relational table. Implementations return errs.ErrUnavailable on transport
// failures so callers can fall back to the presence repository.
type GeoIndex interface {
	// Update records the driver's latest position.
	Update(ctx context.Context, driverID kernel.UUID, location kernel.GeoPoint) error

	// Remove evicts the driver from the index, e.g. on going offline.
	Remove(ctx context.Context, driverID kernel.UUID) error

	// Nearby returns up to limit driver IDs within radiusMeters of the
	// reference point, closest first.
	Nearby(ctx context.Context, reference kernel.GeoPoint, radiusMeters float64, limit int) ([]kernel.UUID, error)
}
