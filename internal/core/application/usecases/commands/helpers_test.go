package commands_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
)

func testPoint(t *testing.T) kernel.GeoPoint {
	t.Helper()
	point, err := kernel.NewGeoPoint(43.238949, 76.889709)
	require.NoError(t, err)
	return point
}

func pendingOrder(t *testing.T, clientID kernel.UUID) *order.Order {
	t.Helper()
	o, err := order.NewOrder(
		kernel.NewUUID(), clientID, testPoint(t), "12 Abay Ave", "card", 4500, "two pizzas")
	require.NoError(t, err)
	return o
}

func assignedOrder(t *testing.T, clientID, driverID kernel.UUID) *order.Order {
	t.Helper()
	o := pendingOrder(t, clientID)
	require.NoError(t, o.AssignCandidate(driverID))
	return o
}

func acceptedOrder(t *testing.T, clientID, driverID kernel.UUID) *order.Order {
	t.Helper()
	o := assignedOrder(t, clientID, driverID)
	require.NoError(t, o.Accept(driverID))
	return o
}

func availablePresence(t *testing.T, driverID kernel.UUID) *driver.Presence {
	t.Helper()
	presence, err := driver.NewPresence(driverID, driver.Available, testPoint(t))
	require.NoError(t, err)
	return presence
}
