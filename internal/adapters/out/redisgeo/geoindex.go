// Package redisgeo implements the GeoIndex port on top of Redis GEO
// commands. The index is advisory: the durable presence store stays the
// source of truth, and every transport failure is reported as
// errs.ErrUnavailable so callers can fall back to it.
package redisgeo

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
)

const driverGeoKey = "dispatch:drivers:geo"

// GeoIndex is a Redis-backed spatial index of available driver positions.
type GeoIndex struct {
	client *redis.Client
}

// NewGeoIndex creates a geo index on the given Redis client.
func NewGeoIndex(client *redis.Client) *GeoIndex {
	return &GeoIndex{client: client}
}

// Update records the driver's latest position.
func (g *GeoIndex) Update(ctx context.Context, driverID kernel.UUID, location kernel.GeoPoint) error {
	if err := driverID.Validate(); err != nil {
		return err
	}
	if err := location.Validate(); err != nil {
		return err
	}

	err := g.client.GeoAdd(ctx, driverGeoKey, &redis.GeoLocation{
		Name:      driverID.String(),
		Longitude: location.Longitude(),
		Latitude:  location.Latitude(),
	}).Err()
	if err != nil {
		return errs.NewUnavailableError("geo index", err)
	}
	return nil
}

// Remove evicts the driver from the index.
func (g *GeoIndex) Remove(ctx context.Context, driverID kernel.UUID) error {
	if err := driverID.Validate(); err != nil {
		return err
	}

	if err := g.client.ZRem(ctx, driverGeoKey, driverID.String()).Err(); err != nil {
		return errs.NewUnavailableError("geo index", err)
	}
	return nil
}

// Nearby returns up to limit driver IDs within radiusMeters of the reference
// point, closest first. Members with identifiers that no longer parse are
// skipped rather than failing the whole lookup.
func (g *GeoIndex) Nearby(ctx context.Context, reference kernel.GeoPoint, radiusMeters float64, limit int) ([]kernel.UUID, error) {
	if err := reference.Validate(); err != nil {
		return nil, err
	}

	results, err := g.client.GeoSearch(ctx, driverGeoKey, &redis.GeoSearchQuery{
		Longitude:  reference.Longitude(),
		Latitude:   reference.Latitude(),
		Radius:     radiusMeters,
		RadiusUnit: "m",
		Sort:       "ASC",
		Count:      limit,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, errs.NewUnavailableError("geo index", err)
	}

	ids := make([]kernel.UUID, 0, len(results))
	for _, member := range results {
		id, parseErr := kernel.UUIDFromString(member)
		if parseErr != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
