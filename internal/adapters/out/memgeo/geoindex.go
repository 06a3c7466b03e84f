// Package memgeo implements the GeoIndex port in process memory. It serves
// single-node deployments that run without Redis, and tests.
package memgeo

import (
	"context"
	"sort"
	"sync"

	"dispatch/internal/core/domain/model/kernel"
)

// GeoIndex is a map-backed spatial index. Nearby scans all entries; the
// index holds at most one position per driver, so the scan is bounded by the
// active driver count.
type GeoIndex struct {
	mu        sync.RWMutex
	positions map[kernel.UUID]kernel.GeoPoint
}

// NewGeoIndex creates an empty in-memory geo index.
func NewGeoIndex() *GeoIndex {
	return &GeoIndex{positions: make(map[kernel.UUID]kernel.GeoPoint)}
}

// Update records the driver's latest position.
func (g *GeoIndex) Update(_ context.Context, driverID kernel.UUID, location kernel.GeoPoint) error {
	if err := driverID.Validate(); err != nil {
		return err
	}
	if err := location.Validate(); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.positions[driverID] = location
	return nil
}

// Remove evicts the driver from the index.
func (g *GeoIndex) Remove(_ context.Context, driverID kernel.UUID) error {
	if err := driverID.Validate(); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.positions, driverID)
	return nil
}

// Nearby returns up to limit driver IDs within radiusMeters of the reference
// point, closest first with a stable ID tie-break.
func (g *GeoIndex) Nearby(_ context.Context, reference kernel.GeoPoint, radiusMeters float64, limit int) ([]kernel.UUID, error) {
	if err := reference.Validate(); err != nil {
		return nil, err
	}

	type hit struct {
		id       kernel.UUID
		distance float64
	}

	g.mu.RLock()
	hits := make([]hit, 0, len(g.positions))
	for id, position := range g.positions {
		distance, err := reference.DistanceTo(position)
		if err != nil {
			continue
		}
		if distance <= radiusMeters {
			hits = append(hits, hit{id: id, distance: distance})
		}
	}
	g.mu.RUnlock()

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].distance != hits[j].distance {
			return hits[i].distance < hits[j].distance
		}
		return hits[i].id.String() < hits[j].id.String()
	})

	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}

	ids := make([]kernel.UUID, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.id)
	}
	return ids, nil
}
