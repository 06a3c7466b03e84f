package commands

import (
	"context"

	"dispatch/internal/core/domain/model/order"
)

// CreateOrderCommandHandler handles the business logic for order placement.
// Persists the order in "pending" status and wakes the dispatch loop so
// candidate matching starts immediately instead of waiting for the sweep.
type CreateOrderCommandHandler struct {
	uowFactory OrderUoWFactory
	notifier   DispatchNotifier
}

// NewCreateOrderCommandHandler creates a handler for order placement.
func NewCreateOrderCommandHandler(uowFactory OrderUoWFactory, notifier DispatchNotifier) CreateOrderCommandHandler {
	return CreateOrderCommandHandler{
		uowFactory: uowFactory,
		notifier:   notifier,
	}
}

// Handle processes the order placement command.
// The dispatch notification fires only after a successful commit, so the
// matching loop never observes an order it cannot load.
func (h CreateOrderCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	newOrder, err := order.NewOrder(
		cmd.OrderID(),
		cmd.ClientID(),
		cmd.Dropoff(),
		cmd.DropoffAddress(),
		cmd.PaymentMethod(),
		cmd.Amount(),
		cmd.Description(),
	)
	if err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err = uow.OrderRepository().Add(ctx, newOrder); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	h.notifier.OrderQueued(cmd.OrderID())

	return nil
}
