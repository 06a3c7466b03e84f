package ports

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/kernel"
)

// PresenceRepository is the persistence contract for driver presence records.
// One record per driver, upserted on every status or location change.
// A driver absent from the store is treated as offline by callers.
type PresenceRepository interface {
	// Upsert writes the record, inserting or replacing by driver ID.
	Upsert(ctx context.Context, presence *driver.Presence) error

	// Get retrieves a driver's presence, or errs.ErrObjectNotFound for
	// drivers that never reported (callers map that to offline).
	Get(ctx context.Context, driverID kernel.UUID) (*driver.Presence, error)

	// GetAllAvailableSince retrieves available drivers whose record was
	// updated at or after the given time. The freshness cut keeps
	// unreachable drivers out of candidate selection.
	GetAllAvailableSince(ctx context.Context, since time.Time) ([]*driver.Presence, error)

	// GetAllStale retrieves records not updated since the given time,
	// regardless of status. Used by the freshness sweep to evict stale
	// entries from the geo index.
	GetAllStale(ctx context.Context, olderThan time.Time) ([]*driver.Presence, error)
}
