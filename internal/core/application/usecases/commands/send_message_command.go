package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/chat"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrSendMessageCommandIsNotConstructed = errors.New(
	"SendMessageCommand must be created via NewSendMessageCommand constructor",
)

// SendMessageCommand represents a participant posting into an order's
// conversation. The recipient is optional; when nil the message addresses
// the whole room.
type SendMessageCommand struct { //nolint:recvcheck //using for validation
	orderID     kernel.UUID
	senderID    kernel.UUID
	recipientID *kernel.UUID
	content     string
	kind        chat.Kind

	guard guard.ConstructorGuard
}

// NewSendMessageCommand creates a command for posting a conversation message.
// Content rules (non-empty, length cap) are enforced by the message
// constructor when the handler builds the aggregate.
func NewSendMessageCommand(
	orderID kernel.UUID,
	senderID kernel.UUID,
	recipientID *kernel.UUID,
	content string,
	kind chat.Kind,
) (SendMessageCommand, error) {
	messageCommand := SendMessageCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		messageCommand.setOrderID(orderID),
		messageCommand.setSenderID(senderID),
		messageCommand.setRecipientID(recipientID),
		messageCommand.setContent(content),
		messageCommand.setKind(kind),
	); err != nil {
		return SendMessageCommand{}, err
	}

	return messageCommand, nil
}

// Validate ensures the command was created through the constructor.
func (c SendMessageCommand) Validate() error {
	return c.guard.Validate(ErrSendMessageCommandIsNotConstructed)
}

// OrderID returns the conversation's order.
func (c SendMessageCommand) OrderID() kernel.UUID {
	return c.orderID
}

// SenderID returns the posting participant.
func (c SendMessageCommand) SenderID() kernel.UUID {
	return c.senderID
}

// RecipientID returns the addressed participant, or nil for the whole room.
func (c SendMessageCommand) RecipientID() *kernel.UUID {
	return c.recipientID
}

// Content returns the message body.
func (c SendMessageCommand) Content() string {
	return c.content
}

// Kind returns the message kind.
func (c SendMessageCommand) Kind() chat.Kind {
	return c.kind
}

func (c *SendMessageCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}

	c.orderID = orderID
	return nil
}

func (c *SendMessageCommand) setSenderID(senderID kernel.UUID) error {
	if err := senderID.Validate(); err != nil {
		return err
	}

	c.senderID = senderID
	return nil
}

func (c *SendMessageCommand) setRecipientID(recipientID *kernel.UUID) error {
	if recipientID == nil {
		return nil
	}
	if err := recipientID.Validate(); err != nil {
		return err
	}

	c.recipientID = recipientID
	return nil
}

func (c *SendMessageCommand) setContent(content string) error {
	c.content = content
	return nil
}

func (c *SendMessageCommand) setKind(kind chat.Kind) error {
	if err := kind.Validate(); err != nil {
		return err
	}

	c.kind = kind
	return nil
}
