package order_test

import (
	"testing"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDropoff(t *testing.T) kernel.GeoPoint {
	t.Helper()
	p, err := kernel.NewGeoPoint(51.1605, 71.4704)
	require.NoError(t, err)
	return p
}

func newPendingOrder(t *testing.T) *order.Order {
	t.Helper()
	o, err := order.NewOrder(
		kernel.NewUUID(), kernel.NewUUID(), validDropoff(t),
		"addr-42", "card", 2500, "two pizzas")
	require.NoError(t, err)
	return o
}

func newAcceptedOrder(t *testing.T) (*order.Order, kernel.UUID) {
	t.Helper()
	o := newPendingOrder(t)
	driverID := kernel.NewUUID()
	require.NoError(t, o.AssignCandidate(driverID))
	require.NoError(t, o.Accept(driverID))
	return o, driverID
}

func TestNewOrder(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		o := newPendingOrder(t)

		require.NoError(t, o.Validate())
		assert.Equal(t, order.Pending, o.Status())
		assert.Nil(t, o.Driver())
		assert.EqualValues(t, 1, o.Version())
		assert.False(t, o.Timestamps().CreatedAt.IsZero())
		assert.Nil(t, o.Timestamps().AssignedAt)
	})

	t.Run("missing_description", func(t *testing.T) {
		_, err := order.NewOrder(kernel.NewUUID(), kernel.NewUUID(), validDropoff(t),
			"addr", "cash", 100, "")
		require.ErrorIs(t, err, errs.ErrValueIsRequired)
	})

	t.Run("missing_payment_method", func(t *testing.T) {
		_, err := order.NewOrder(kernel.NewUUID(), kernel.NewUUID(), validDropoff(t),
			"addr", "", 100, "books")
		require.ErrorIs(t, err, errs.ErrValueIsRequired)
	})

	t.Run("missing_dropoff", func(t *testing.T) {
		var zero kernel.GeoPoint
		_, err := order.NewOrder(kernel.NewUUID(), kernel.NewUUID(), zero,
			"addr", "cash", 100, "books")
		require.ErrorIs(t, err, errs.ErrValueIsRequired)
	})

	t.Run("missing_address", func(t *testing.T) {
		_, err := order.NewOrder(kernel.NewUUID(), kernel.NewUUID(), validDropoff(t),
			"", "cash", 100, "books")
		require.ErrorIs(t, err, errs.ErrValueIsRequired)
	})

	t.Run("non_positive_amount", func(t *testing.T) {
		_, err := order.NewOrder(kernel.NewUUID(), kernel.NewUUID(), validDropoff(t),
			"addr", "cash", 0, "books")
		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})
}

func TestOrder_Validate_NotConstructed(t *testing.T) {
	var o order.Order
	require.ErrorIs(t, o.Validate(), order.ErrOrderIsNotConstructed)
}

func TestOrder_AssignCandidate(t *testing.T) {
	t.Run("pending_to_assigned", func(t *testing.T) {
		o := newPendingOrder(t)
		driverID := kernel.NewUUID()

		require.NoError(t, o.AssignCandidate(driverID))

		assert.Equal(t, order.Assigned, o.Status())
		require.NotNil(t, o.Driver())
		assert.True(t, o.Driver().IsEqual(driverID))
		assert.NotNil(t, o.Timestamps().AssignedAt)
	})

	t.Run("already_assigned", func(t *testing.T) {
		o := newPendingOrder(t)
		require.NoError(t, o.AssignCandidate(kernel.NewUUID()))

		err := o.AssignCandidate(kernel.NewUUID())
		require.ErrorIs(t, err, order.ErrAlreadyAssigned)
	})
}

func TestOrder_Accept(t *testing.T) {
	t.Run("offered_driver_wins", func(t *testing.T) {
		o := newPendingOrder(t)
		driverID := kernel.NewUUID()
		require.NoError(t, o.AssignCandidate(driverID))

		require.NoError(t, o.Accept(driverID))

		assert.Equal(t, order.Accepted, o.Status())
		assert.NotNil(t, o.Timestamps().AcceptedAt)
	})

	t.Run("other_driver_gets_stale_offer", func(t *testing.T) {
		o := newPendingOrder(t)
		require.NoError(t, o.AssignCandidate(kernel.NewUUID()))

		err := o.Accept(kernel.NewUUID())
		require.ErrorIs(t, err, order.ErrStaleOffer)
		assert.Equal(t, order.Assigned, o.Status())
	})

	t.Run("second_accept_loses", func(t *testing.T) {
		o, driverID := newAcceptedOrder(t)

		err := o.Accept(driverID)
		require.ErrorIs(t, err, order.ErrStaleOffer)
	})

	t.Run("accept_of_pending_order", func(t *testing.T) {
		o := newPendingOrder(t)
		err := o.Accept(kernel.NewUUID())
		require.ErrorIs(t, err, order.ErrStaleOffer)
	})
}

func TestOrder_Reject(t *testing.T) {
	t.Run("returns_to_pending_and_clears_driver", func(t *testing.T) {
		o := newPendingOrder(t)
		driverID := kernel.NewUUID()
		require.NoError(t, o.AssignCandidate(driverID))

		require.NoError(t, o.Reject(driverID))

		assert.Equal(t, order.Pending, o.Status())
		assert.Nil(t, o.Driver())
	})

	t.Run("non_offered_driver_cannot_reject", func(t *testing.T) {
		o := newPendingOrder(t)
		require.NoError(t, o.AssignCandidate(kernel.NewUUID()))

		err := o.Reject(kernel.NewUUID())
		require.ErrorIs(t, err, order.ErrStaleOffer)
	})

	t.Run("reassignment_after_reject", func(t *testing.T) {
		o := newPendingOrder(t)
		first := kernel.NewUUID()
		require.NoError(t, o.AssignCandidate(first))
		require.NoError(t, o.Reject(first))

		second := kernel.NewUUID()
		require.NoError(t, o.AssignCandidate(second))
		assert.True(t, o.Driver().IsEqual(second))
	})
}

func TestOrder_AdvanceTo(t *testing.T) {
	t.Run("full_delivery_sequence", func(t *testing.T) {
		o, driverID := newAcceptedOrder(t)

		require.NoError(t, o.AdvanceTo(driverID, order.PickedUp))
		require.NoError(t, o.AdvanceTo(driverID, order.InTransit))
		require.NoError(t, o.AdvanceTo(driverID, order.Delivered))

		assert.Equal(t, order.Delivered, o.Status())
		ts := o.Timestamps()
		assert.NotNil(t, ts.PickedUpAt)
		assert.NotNil(t, ts.InTransitAt)
		assert.NotNil(t, ts.DeliveredAt)
	})

	t.Run("repeated_transition_fails_and_keeps_timestamp", func(t *testing.T) {
		o, driverID := newAcceptedOrder(t)

		require.NoError(t, o.AdvanceTo(driverID, order.PickedUp))
		first := o.Timestamps().PickedUpAt

		err := o.AdvanceTo(driverID, order.PickedUp)
		require.ErrorIs(t, err, order.ErrIllegalTransition)
		assert.Equal(t, first, o.Timestamps().PickedUpAt)
	})

	t.Run("unassigned_driver_cannot_advance", func(t *testing.T) {
		o, _ := newAcceptedOrder(t)

		err := o.AdvanceTo(kernel.NewUUID(), order.PickedUp)
		require.ErrorIs(t, err, order.ErrIllegalTransition)
	})

	t.Run("skipping_fails", func(t *testing.T) {
		o, driverID := newAcceptedOrder(t)

		err := o.AdvanceTo(driverID, order.Delivered)
		require.ErrorIs(t, err, order.ErrIllegalTransition)
	})
}

func TestOrder_Cancel(t *testing.T) {
	t.Run("pending_cancels", func(t *testing.T) {
		o := newPendingOrder(t)
		require.NoError(t, o.Cancel())
		assert.Equal(t, order.Cancelled, o.Status())
		assert.NotNil(t, o.Timestamps().CancelledAt)
	})

	t.Run("accepted_cancels", func(t *testing.T) {
		o, _ := newAcceptedOrder(t)
		require.NoError(t, o.Cancel())
		assert.Equal(t, order.Cancelled, o.Status())
	})

	t.Run("picked_up_is_too_late", func(t *testing.T) {
		o, driverID := newAcceptedOrder(t)
		require.NoError(t, o.AdvanceTo(driverID, order.PickedUp))

		err := o.Cancel()
		require.ErrorIs(t, err, order.ErrTooLateToCancel)
		assert.Equal(t, order.PickedUp, o.Status())
	})
}

func TestOrder_Fail(t *testing.T) {
	o := newPendingOrder(t)
	require.NoError(t, o.Fail())
	assert.Equal(t, order.Failed, o.Status())
	assert.NotNil(t, o.Timestamps().FailedAt)
}

func TestRestoreOrder(t *testing.T) {
	t.Run("restores_status_version_and_driver", func(t *testing.T) {
		driverID := kernel.NewUUID()
		src, _ := newAcceptedOrder(t)

		restored, err := order.RestoreOrder(
			src.ID(), src.ClientID(), &driverID, src.Dropoff(), src.DropoffAddress(),
			src.PaymentMethod(), src.Amount(), src.Description(),
			order.Accepted, 7, src.Timestamps())

		require.NoError(t, err)
		assert.Equal(t, order.Accepted, restored.Status())
		assert.EqualValues(t, 7, restored.Version())
		assert.True(t, restored.Driver().IsEqual(driverID))
	})

	t.Run("invalid_status_rejected", func(t *testing.T) {
		src := newPendingOrder(t)
		_, err := order.RestoreOrder(
			src.ID(), src.ClientID(), nil, src.Dropoff(), src.DropoffAddress(),
			src.PaymentMethod(), src.Amount(), src.Description(),
			order.Unknown, 1, src.Timestamps())
		require.Error(t, err)
	})
}

// Monotonic lifecycle: statuses observed over any run form a subsequence of
// the linear chain, never repeating or reversing.
func TestOrder_MonotonicLifecycle(t *testing.T) {
	o := newPendingOrder(t)
	driverID := kernel.NewUUID()
	observed := []order.Status{o.Status()}

	require.NoError(t, o.AssignCandidate(driverID))
	observed = append(observed, o.Status())
	require.NoError(t, o.Accept(driverID))
	observed = append(observed, o.Status())
	require.NoError(t, o.AdvanceTo(driverID, order.PickedUp))
	observed = append(observed, o.Status())
	require.NoError(t, o.AdvanceTo(driverID, order.InTransit))
	observed = append(observed, o.Status())
	require.NoError(t, o.AdvanceTo(driverID, order.Delivered))
	observed = append(observed, o.Status())

	assert.Equal(t, []order.Status{
		order.Pending, order.Assigned, order.Accepted,
		order.PickedUp, order.InTransit, order.Delivered,
	}, observed)

	// Terminal: nothing moves anymore.
	require.Error(t, o.AssignCandidate(driverID))
	require.Error(t, o.Accept(driverID))
	require.Error(t, o.Cancel())
}
