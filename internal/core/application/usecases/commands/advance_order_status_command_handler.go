package commands

import (
	"context"
	"errors"
	"time"

	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

// AdvanceOrderStatusCommandHandler handles delivery progression reports from
// the assigned driver. Each step is a compare-and-set on the order row, so a
// progression racing a cancellation resolves deterministically: exactly one
// of them commits.
type AdvanceOrderStatusCommandHandler struct {
	uowFactory AssignmentUoWFactory
	publisher  ports.EventPublisher
}

// NewAdvanceOrderStatusCommandHandler creates a handler for progression steps.
func NewAdvanceOrderStatusCommandHandler(
	uowFactory AssignmentUoWFactory,
	publisher ports.EventPublisher,
) AdvanceOrderStatusCommandHandler {
	return AdvanceOrderStatusCommandHandler{
		uowFactory: uowFactory,
		publisher:  publisher,
	}
}

// Handle processes one progression step. Reaching "delivered" releases the
// driver back to the available pool in the same transaction.
func (h AdvanceOrderStatusCommandHandler) Handle(ctx context.Context, cmd AdvanceOrderStatusCommand) error {
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

	advanced, err := orderRepo.Get(ctx, cmd.OrderID())
	if err != nil {
		return err
	}

	if err = advanced.AdvanceTo(cmd.DriverID(), cmd.Target()); err != nil {
		return err
	}

	if err = orderRepo.Update(ctx, advanced); err != nil {
		if errors.Is(err, errs.ErrVersionIsInvalid) {
			return order.ErrIllegalTransition
		}
		return err
	}

	if cmd.Target() == order.Delivered {
		if err = h.releaseDriver(ctx, uow.PresenceRepository(), cmd.DriverID()); err != nil {
			return err
		}
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
			Status:   cmd.Target().String(),
			DriverID: &driverID,
		},
	})

	return nil
}

func (h AdvanceOrderStatusCommandHandler) releaseDriver(
	ctx context.Context,
	presenceRepo ports.PresenceRepository,
	driverID kernel.UUID,
) error {
	presence, err := presenceRepo.Get(ctx, driverID)
	if errors.Is(err, errs.ErrObjectNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if err = presence.ChangeStatus(driver.Available); err != nil {
		return err
	}

	return presenceRepo.Upsert(ctx, presence)
}
