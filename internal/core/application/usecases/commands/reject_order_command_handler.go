package commands

import (
	"context"
	"errors"

	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/errs"
)

// RejectOrderCommandHandler handles a driver declining an offer.
// The order returns to "pending" and the dispatch loop is told to try the
// next candidate. The decline is idempotent from the driver's point of view:
// declining an offer that already moved on reports order.ErrStaleOffer.
type RejectOrderCommandHandler struct {
	uowFactory OrderUoWFactory
	notifier   DispatchNotifier
}

// NewRejectOrderCommandHandler creates a handler for offer declines.
func NewRejectOrderCommandHandler(uowFactory OrderUoWFactory, notifier DispatchNotifier) RejectOrderCommandHandler {
	return RejectOrderCommandHandler{
		uowFactory: uowFactory,
		notifier:   notifier,
	}
}

// Handle processes the decline. The offer advance itself happens in the
// dispatch loop after the notification, so a crash between commit and
// notification is recovered by the expiry sweep.
func (h RejectOrderCommandHandler) Handle(ctx context.Context, cmd RejectOrderCommand) error {
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

	declined, err := orderRepo.Get(ctx, cmd.OrderID())
	if err != nil {
		return err
	}

	if err = declined.Reject(cmd.DriverID()); err != nil {
		return err
	}

	if err = orderRepo.Update(ctx, declined); err != nil {
		if errors.Is(err, errs.ErrVersionIsInvalid) {
			return order.ErrStaleOffer
		}
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	h.notifier.OfferDeclined(cmd.OrderID())

	return nil
}
