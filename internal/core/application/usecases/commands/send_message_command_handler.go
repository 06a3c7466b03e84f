package commands

import (
	"context"
	"errors"

	"dispatch/internal/core/domain/model/chat"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
)

var (
	// ErrNotConversationParticipant is returned when the sender is neither
	// the order's client nor its assigned driver.
	ErrNotConversationParticipant = errors.New("sender is not a participant of this conversation")

	// ErrConversationClosed is returned when posting into an order that
	// reached a terminal status.
	ErrConversationClosed = errors.New("conversation is closed")
)

// SendMessageCommandHandler appends a message to an order's conversation log
// and fans it out to the room. Sequence numbers are assigned inside the
// append transaction, so readers never observe a gap.
type SendMessageCommandHandler struct {
	uowFactory ConversationUoWFactory
	publisher  ports.EventPublisher
}

// NewSendMessageCommandHandler creates a handler for conversation posts.
func NewSendMessageCommandHandler(
	uowFactory ConversationUoWFactory,
	publisher ports.EventPublisher,
) SendMessageCommandHandler {
	return SendMessageCommandHandler{
		uowFactory: uowFactory,
		publisher:  publisher,
	}
}

// Handle processes the post. Authorization is checked against the order row
// in the same transaction as the append, so a sender losing their
// participant role mid-flight cannot slip a message in.
func (h SendMessageCommandHandler) Handle(ctx context.Context, cmd SendMessageCommand) (*chat.Message, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	message, err := chat.NewMessage(cmd.OrderID(), cmd.SenderID(), cmd.RecipientID(), cmd.Content(), cmd.Kind())
	if err != nil {
		return nil, err
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	conversationOrder, err := uow.OrderRepository().Get(ctx, cmd.OrderID())
	if err != nil {
		return nil, err
	}

	if err = authorizeSender(conversationOrder, cmd.SenderID()); err != nil {
		return nil, err
	}

	stored, err := uow.ChatRepository().Append(ctx, message)
	if err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	h.publisher.Publish(ports.Event{
		Kind:    ports.EventKindMessage,
		OrderID: cmd.OrderID(),
		At:      stored.CreatedAt(),
		Payload: ports.MessagePayload{
			Seq:      stored.Seq(),
			SenderID: stored.SenderID(),
			Content:  stored.Content(),
			Kind:     stored.MessageKind().String(),
		},
	})

	return stored, nil
}

func authorizeSender(conversationOrder *order.Order, senderID kernel.UUID) error {
	if conversationOrder.Status().IsTerminal() {
		return ErrConversationClosed
	}

	if conversationOrder.ClientID().IsEqual(senderID) {
		return nil
	}

	if assigned := conversationOrder.Driver(); assigned != nil && assigned.IsEqual(senderID) {
		return nil
	}

	return ErrNotConversationParticipant
}
