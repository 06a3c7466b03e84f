package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var ErrCreateOrderCommandIsNotConstructed = errors.New(
	"CreateOrderCommand must be created via NewCreateOrderCommand constructor",
)

// CreateOrderCommand represents a client's request to place a new delivery
// order. Carries the dropoff target, payment details and the free-form
// content description shown to candidate drivers.
//
// Example:
//
//	orderID := kernel.NewUUID()
//	cmd, err := NewCreateOrderCommand(orderID, clientID, dropoff,
//	    "12 Abay Ave, apt 4", "card", 4500, "two pizzas, keep flat")
//	if err != nil {
//	    return fmt.Errorf("invalid order data: %w", err)
//	}
//
//	handler := NewCreateOrderCommandHandler(uowFactory, notifier)
//	if err := handler.Handle(ctx, cmd); err != nil {
//	    return fmt.Errorf("failed to create order: %w", err)
//	}
type CreateOrderCommand struct { //nolint:recvcheck //using for validation
	orderID        kernel.UUID
	clientID       kernel.UUID
	dropoff        kernel.GeoPoint
	dropoffAddress string
	paymentMethod  string
	amount         int64
	description    string

	guard guard.ConstructorGuard
}

// NewCreateOrderCommand creates a command to place a new order.
// Validates IDs, the dropoff point and address, the payment method,
// a positive amount, and a non-empty description.
func NewCreateOrderCommand(
	orderID kernel.UUID,
	clientID kernel.UUID,
	dropoff kernel.GeoPoint,
	dropoffAddress string,
	paymentMethod string,
	amount int64,
	description string,
) (CreateOrderCommand, error) {
	orderCommand := CreateOrderCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		orderCommand.setOrderID(orderID),
		orderCommand.setClientID(clientID),
		orderCommand.setDropoff(dropoff, dropoffAddress),
		orderCommand.setPaymentMethod(paymentMethod),
		orderCommand.setAmount(amount),
		orderCommand.setDescription(description),
	); err != nil {
		return CreateOrderCommand{}, err
	}

	return orderCommand, nil
}

// Validate ensures the command was created through the constructor.
func (c CreateOrderCommand) Validate() error {
	return c.guard.Validate(ErrCreateOrderCommandIsNotConstructed)
}

// OrderID returns the unique identifier for the new order.
func (c CreateOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

// ClientID returns the identifier of the ordering client.
func (c CreateOrderCommand) ClientID() kernel.UUID {
	return c.clientID
}

// Dropoff returns the delivery destination coordinates.
func (c CreateOrderCommand) Dropoff() kernel.GeoPoint {
	return c.dropoff
}

// DropoffAddress returns the human-readable destination address.
func (c CreateOrderCommand) DropoffAddress() string {
	return c.dropoffAddress
}

// PaymentMethod returns the client's chosen payment method.
func (c CreateOrderCommand) PaymentMethod() string {
	return c.paymentMethod
}

// Amount returns the order total in minor currency units.
func (c CreateOrderCommand) Amount() int64 {
	return c.amount
}

// Description returns the order content description.
func (c CreateOrderCommand) Description() string {
	return c.description
}

func (c *CreateOrderCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}

	c.orderID = orderID
	return nil
}

func (c *CreateOrderCommand) setClientID(clientID kernel.UUID) error {
	if err := clientID.Validate(); err != nil {
		return err
	}

	c.clientID = clientID
	return nil
}

func (c *CreateOrderCommand) setDropoff(dropoff kernel.GeoPoint, address string) error {
	if err := dropoff.Validate(); err != nil {
		return err
	}
	if address == "" {
		return errs.NewValueIsRequiredError("dropoffAddress")
	}

	c.dropoff = dropoff
	c.dropoffAddress = address
	return nil
}

func (c *CreateOrderCommand) setPaymentMethod(paymentMethod string) error {
	if paymentMethod == "" {
		return errs.NewValueIsRequiredError("paymentMethod")
	}

	c.paymentMethod = paymentMethod
	return nil
}

func (c *CreateOrderCommand) setAmount(amount int64) error {
	if amount <= 0 {
		return errs.NewValueIsInvalidError("amount")
	}

	c.amount = amount
	return nil
}

func (c *CreateOrderCommand) setDescription(description string) error {
	if description == "" {
		return errs.NewValueIsRequiredError("description")
	}

	c.description = description
	return nil
}
