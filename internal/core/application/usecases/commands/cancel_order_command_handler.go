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

// ErrNotOrderOwner is returned when a client tries to cancel an order they
// did not place.
var ErrNotOrderOwner = errors.New("order belongs to another client")

// CancelOrderCommandHandler handles client and operator cancellations. A
// cancellation racing an acceptance is settled by the order row's version:
// if the driver's acceptance commits first the cancellation still succeeds
// on re-read (accepted orders are cancellable), but a pickup committing
// first makes the cancellation fail with order.ErrTooLateToCancel.
type CancelOrderCommandHandler struct {
	uowFactory AssignmentUoWFactory
	publisher  ports.EventPublisher
}

// NewCancelOrderCommandHandler creates a handler for cancellations.
func NewCancelOrderCommandHandler(
	uowFactory AssignmentUoWFactory,
	publisher ports.EventPublisher,
) CancelOrderCommandHandler {
	return CancelOrderCommandHandler{
		uowFactory: uowFactory,
		publisher:  publisher,
	}
}

// Handle processes the cancellation. Any in-flight offer is retired and an
// assigned driver, if present, returns to the available pool.
func (h CancelOrderCommandHandler) Handle(ctx context.Context, cmd CancelOrderCommand) error {
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

	cancelled, err := orderRepo.Get(ctx, cmd.OrderID())
	if err != nil {
		return err
	}

	if !cmd.IssuedByOperator() && !cancelled.ClientID().IsEqual(cmd.ActorID()) {
		return ErrNotOrderOwner
	}

	assignedDriver := cancelled.Driver()

	if err = cancelled.Cancel(); err != nil {
		return err
	}

	if err = orderRepo.Update(ctx, cancelled); err != nil {
		if errors.Is(err, errs.ErrVersionIsInvalid) {
			return order.ErrTooLateToCancel
		}
		return err
	}

	if err = uow.OfferRepository().Delete(ctx, cmd.OrderID()); err != nil {
		return err
	}

	if assignedDriver != nil {
		if err = h.releaseDriver(ctx, uow.PresenceRepository(), *assignedDriver); err != nil {
			return err
		}
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	h.publisher.Publish(ports.Event{
		Kind:    ports.EventKindStatusChanged,
		OrderID: cmd.OrderID(),
		At:      time.Now().UTC(),
		Payload: ports.StatusChangedPayload{
			Status:   order.Cancelled.String(),
			DriverID: assignedDriver,
		},
	})

	return nil
}

func (h CancelOrderCommandHandler) releaseDriver(
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

	if presence.Status() != driver.Busy {
		return nil
	}

	if err = presence.ChangeStatus(driver.Available); err != nil {
		return err
	}

	return presenceRepo.Upsert(ctx, presence)
}
