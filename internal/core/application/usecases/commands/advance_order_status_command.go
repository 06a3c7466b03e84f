package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/guard"
)

var ErrAdvanceOrderStatusCommandIsNotConstructed = errors.New(
	"AdvanceOrderStatusCommand must be created via NewAdvanceOrderStatusCommand constructor",
)

// AdvanceOrderStatusCommand represents the assigned driver moving an order
// one step forward along its delivery progression: accepted to picked_up,
// picked_up to in_transit, in_transit to delivered. Skipping steps or moving
// backwards is rejected by the aggregate.
type AdvanceOrderStatusCommand struct { //nolint:recvcheck //using for validation
	orderID  kernel.UUID
	driverID kernel.UUID
	target   order.Status

	guard guard.ConstructorGuard
}

// NewAdvanceOrderStatusCommand creates a command for a delivery progression step.
func NewAdvanceOrderStatusCommand(
	orderID kernel.UUID,
	driverID kernel.UUID,
	target order.Status,
) (AdvanceOrderStatusCommand, error) {
	advanceCommand := AdvanceOrderStatusCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		advanceCommand.setOrderID(orderID),
		advanceCommand.setDriverID(driverID),
		advanceCommand.setTarget(target),
	); err != nil {
		return AdvanceOrderStatusCommand{}, err
	}

	return advanceCommand, nil
}

// Validate ensures the command was created through the constructor.
func (c AdvanceOrderStatusCommand) Validate() error {
	return c.guard.Validate(ErrAdvanceOrderStatusCommandIsNotConstructed)
}

// OrderID returns the order being advanced.
func (c AdvanceOrderStatusCommand) OrderID() kernel.UUID {
	return c.orderID
}

// DriverID returns the driver reporting the progression.
func (c AdvanceOrderStatusCommand) DriverID() kernel.UUID {
	return c.driverID
}

// Target returns the requested destination status.
func (c AdvanceOrderStatusCommand) Target() order.Status {
	return c.target
}

func (c *AdvanceOrderStatusCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}

	c.orderID = orderID
	return nil
}

func (c *AdvanceOrderStatusCommand) setDriverID(driverID kernel.UUID) error {
	if err := driverID.Validate(); err != nil {
		return err
	}

	c.driverID = driverID
	return nil
}

func (c *AdvanceOrderStatusCommand) setTarget(target order.Status) error {
	if err := target.Validate(); err != nil {
		return err
	}

	c.target = target
	return nil
}
