package memgeo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dispatch/internal/adapters/out/memgeo"
	"dispatch/internal/core/domain/model/kernel"
)

func point(t *testing.T, lat, lon float64) kernel.GeoPoint {
	t.Helper()
	p, err := kernel.NewGeoPoint(lat, lon)
	require.NoError(t, err)
	return p
}

func TestGeoIndex_NearbyOrdersByDistance(t *testing.T) {
	ctx := context.Background()
	index := memgeo.NewGeoIndex()
	reference := point(t, 43.238949, 76.889709)

	near := kernel.NewUUID()
	far := kernel.NewUUID()
	outside := kernel.NewUUID()

	// Roughly 0.5km, 5km and 50km from the reference.
	require.NoError(t, index.Update(ctx, near, point(t, 43.2435, 76.8897)))
	require.NoError(t, index.Update(ctx, far, point(t, 43.2839, 76.8897)))
	require.NoError(t, index.Update(ctx, outside, point(t, 43.6889, 76.8897)))

	ids, err := index.Nearby(ctx, reference, 10_000, 10)
	require.NoError(t, err)

	assert.Equal(t, []kernel.UUID{near, far}, ids)
}

func TestGeoIndex_NearbyHonorsLimit(t *testing.T) {
	ctx := context.Background()
	index := memgeo.NewGeoIndex()
	reference := point(t, 43.238949, 76.889709)

	for i := 0; i < 5; i++ {
		require.NoError(t, index.Update(ctx, kernel.NewUUID(), point(t, 43.24+float64(i)*0.001, 76.89)))
	}

	ids, err := index.Nearby(ctx, reference, 10_000, 2)
	require.NoError(t, err)
	assert.Len(t, ids, 2)
}

func TestGeoIndex_RemoveEvictsDriver(t *testing.T) {
	ctx := context.Background()
	index := memgeo.NewGeoIndex()
	reference := point(t, 43.238949, 76.889709)

	driverID := kernel.NewUUID()
	require.NoError(t, index.Update(ctx, driverID, point(t, 43.24, 76.89)))
	require.NoError(t, index.Remove(ctx, driverID))

	ids, err := index.Nearby(ctx, reference, 10_000, 10)
	require.NoError(t, err)
	assert.Empty(t, ids)

	// Removing an absent driver is a no-op.
	require.NoError(t, index.Remove(ctx, driverID))
}

func TestGeoIndex_UpdateReplacesPosition(t *testing.T) {
	ctx := context.Background()
	index := memgeo.NewGeoIndex()
	reference := point(t, 43.238949, 76.889709)

	driverID := kernel.NewUUID()
	require.NoError(t, index.Update(ctx, driverID, point(t, 43.6889, 76.8897)))
	require.NoError(t, index.Update(ctx, driverID, point(t, 43.2435, 76.8897)))

	ids, err := index.Nearby(ctx, reference, 10_000, 10)
	require.NoError(t, err)
	assert.Equal(t, []kernel.UUID{driverID}, ids)
}
