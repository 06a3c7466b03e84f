// Package chatrepo persists the append-only per-order conversation log.
// Rows are keyed by (order_id, seq); the sequence is assigned inside the
// append transaction so readers never observe gaps.
package chatrepo

import (
	"time"

	"github.com/google/uuid"

	"dispatch/internal/core/domain/model/chat"
	"dispatch/internal/core/domain/model/kernel"
)

// MessageDTO represents the database structure for conversation messages.
type MessageDTO struct {
	OrderID     uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Seq         int64      `gorm:"primaryKey;autoIncrement:false"`
	SenderID    uuid.UUID  `gorm:"type:uuid"`
	RecipientID *uuid.UUID `gorm:"type:uuid"`
	Content     string
	Kind        string
	CreatedAt   time.Time
}

// TableName specifies the database table name for messages.
func (MessageDTO) TableName() string {
	return "messages"
}

func fromDomain(message *chat.Message, seq int64) MessageDTO {
	var recipientID *uuid.UUID
	if id := message.RecipientID(); id != nil {
		raw := id.Bytes()
		recipientID = &raw
	}

	return MessageDTO{
		OrderID:     message.OrderID().Bytes(),
		Seq:         seq,
		SenderID:    message.SenderID().Bytes(),
		RecipientID: recipientID,
		Content:     message.Content(),
		Kind:        message.MessageKind().String(),
		CreatedAt:   message.CreatedAt(),
	}
}

func toDomain(dto MessageDTO) (*chat.Message, error) {
	orderID, err := kernel.UUIDFromBytes(dto.OrderID[:])
	if err != nil {
		return nil, err
	}

	senderID, err := kernel.UUIDFromBytes(dto.SenderID[:])
	if err != nil {
		return nil, err
	}

	var recipientID *kernel.UUID
	if dto.RecipientID != nil {
		rID, recipientErr := kernel.UUIDFromBytes((*dto.RecipientID)[:])
		if recipientErr != nil {
			return nil, recipientErr
		}
		recipientID = &rID
	}

	kind, err := chat.KindFromString(dto.Kind)
	if err != nil {
		return nil, err
	}

	return chat.RestoreMessage(orderID, dto.Seq, senderID, recipientID, dto.Content, kind, dto.CreatedAt)
}
