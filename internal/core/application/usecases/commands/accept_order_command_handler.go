package commands

import (
	"context"
	"errors"
	"time"

	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

// ErrDriverHasActiveOrder is returned when a driver tries to accept an order
// while already carrying another one.
var ErrDriverHasActiveOrder = errors.New("driver already has an active order")

// AcceptOrderCommandHandler resolves the acceptance race. The order row's
// version check is the arbiter: the first transaction to commit the
// assigned-to-accepted transition wins, every later writer observes a version
// mismatch and gets order.ErrStaleOffer.
//
// Example:
//
//	handler := NewAcceptOrderCommandHandler(uowFactory, publisher)
//	cmd, _ := NewAcceptOrderCommand(orderID, driverID)
//	err := handler.Handle(ctx, cmd)
//	switch {
//	case errors.Is(err, order.ErrStaleOffer):
//	    // somebody else won, or the offer moved on
//	case errors.Is(err, ErrDriverHasActiveOrder):
//	    // finish the current delivery first
//	}
type AcceptOrderCommandHandler struct {
	uowFactory AssignmentUoWFactory
	publisher  ports.EventPublisher
}

// NewAcceptOrderCommandHandler creates a handler for offer acceptance.
func NewAcceptOrderCommandHandler(
	uowFactory AssignmentUoWFactory,
	publisher ports.EventPublisher,
) AcceptOrderCommandHandler {
	return AcceptOrderCommandHandler{
		uowFactory: uowFactory,
		publisher:  publisher,
	}
}

// Handle processes the acceptance attempt. On success the in-flight offer is
// retired, the driver is marked busy, and the room learns about the new
// status after commit.
func (h AcceptOrderCommandHandler) Handle(ctx context.Context, cmd AcceptOrderCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()

	claimed, err := orderRepo.Get(ctx, cmd.OrderID())
	if err != nil {
		return err
	}

	active, err := orderRepo.GetActiveByDriver(ctx, cmd.DriverID())
	if err != nil && !errors.Is(err, errs.ErrObjectNotFound) {
		return err
	}
	if active != nil && !active.ID().IsEqual(claimed.ID()) {
		return ErrDriverHasActiveOrder
	}

	if err = claimed.Accept(cmd.DriverID()); err != nil {
		return err
	}

	if err = orderRepo.Update(ctx, claimed); err != nil {
		if errors.Is(err, errs.ErrVersionIsInvalid) {
			return order.ErrStaleOffer
		}
		return err
	}

	if err = uow.OfferRepository().Delete(ctx, cmd.OrderID()); err != nil {
		return err
	}

	if err = h.markDriverBusy(ctx, uow.PresenceRepository(), cmd); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	driverID := cmd.DriverID()
	h.publisher.Publish(ports.Event{
		Kind:    ports.EventKindStatusChanged,
		OrderID: cmd.OrderID(),
		At:      time.Now().UTC(),
		Payload: ports.StatusChangedPayload{
			Status:   order.Accepted.String(),
			DriverID: &driverID,
		},
	})

	return nil
}

func (h AcceptOrderCommandHandler) markDriverBusy(
	ctx context.Context,
	presenceRepo ports.PresenceRepository,
	cmd AcceptOrderCommand,
) error {
	presence, err := presenceRepo.Get(ctx, cmd.DriverID())
	if errors.Is(err, errs.ErrObjectNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if err = presence.ChangeStatus(driver.Busy); err != nil {
		return err
	}

	return presenceRepo.Upsert(ctx, presence)
}
