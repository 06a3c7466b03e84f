package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrCancelOrderCommandIsNotConstructed = errors.New(
	"CancelOrderCommand must be created via NewCancelOrderCommand constructor",
)

// CancelOrderCommand represents an order cancellation. Clients may cancel
// their own orders; operators may cancel any order. Cancellation is allowed
// up to and including "accepted"; once the driver reports pickup the order
// can no longer be cancelled.
type CancelOrderCommand struct { //nolint:recvcheck //using for validation
	orderID  kernel.UUID
	actorID  kernel.UUID
	operator bool

	guard guard.ConstructorGuard
}

// NewCancelOrderCommand creates a command for a client-initiated cancellation.
func NewCancelOrderCommand(orderID kernel.UUID, clientID kernel.UUID) (CancelOrderCommand, error) {
	return newCancelOrderCommand(orderID, clientID, false)
}

// NewOperatorCancelOrderCommand creates a cancellation issued by a support
// operator, which is not subject to the ownership check.
func NewOperatorCancelOrderCommand(orderID kernel.UUID, operatorID kernel.UUID) (CancelOrderCommand, error) {
	return newCancelOrderCommand(orderID, operatorID, true)
}

func newCancelOrderCommand(orderID kernel.UUID, actorID kernel.UUID, operator bool) (CancelOrderCommand, error) {
	cancelCommand := CancelOrderCommand{
		operator: operator,
		guard:    guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cancelCommand.setOrderID(orderID),
		cancelCommand.setActorID(actorID),
	); err != nil {
		return CancelOrderCommand{}, err
	}

	return cancelCommand, nil
}

// Validate ensures the command was created through the constructor.
func (c CancelOrderCommand) Validate() error {
	return c.guard.Validate(ErrCancelOrderCommandIsNotConstructed)
}

// OrderID returns the order being cancelled.
func (c CancelOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

// ActorID returns the client or operator requesting the cancellation.
func (c CancelOrderCommand) ActorID() kernel.UUID {
	return c.actorID
}

// IssuedByOperator reports whether the cancellation came from a support
// operator rather than the order's client.
func (c CancelOrderCommand) IssuedByOperator() bool {
	return c.operator
}

func (c *CancelOrderCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}

	c.orderID = orderID
	return nil
}

func (c *CancelOrderCommand) setActorID(actorID kernel.UUID) error {
	if err := actorID.Validate(); err != nil {
		return err
	}

	c.actorID = actorID
	return nil
}
