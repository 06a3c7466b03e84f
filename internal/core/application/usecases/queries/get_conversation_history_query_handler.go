package queries

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"dispatch/internal/core/domain/model/kernel"
)

// GetConversationHistoryQueryHandler retrieves conversation pages from the
// database. Messages come back in ascending sequence order, which is also
// insertion order, so clients can replay them as a stream.
type GetConversationHistoryQueryHandler struct {
	db *gorm.DB
}

// NewGetConversationHistoryQueryHandler creates a handler for history queries.
func NewGetConversationHistoryQueryHandler(db *gorm.DB) GetConversationHistoryQueryHandler {
	return GetConversationHistoryQueryHandler{db: db}
}

// Handle executes the query. An order without messages yields an empty page,
// not an error.
func (h GetConversationHistoryQueryHandler) Handle(
	ctx context.Context,
	query GetConversationHistoryQuery,
) ([]GetConversationHistoryQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	messages := make([]GetConversationHistoryQueryResponse, 0)

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			seq,
			sender_id,
			recipient_id,
			content,
			kind,
			created_at
		FROM messages
		WHERE order_id = ? AND seq > ?
		ORDER BY seq
		LIMIT ?
	`, query.OrderID().Bytes(), query.SinceSeq(), query.Limit()).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			message     GetConversationHistoryQueryResponse
			senderID    uuid.UUID
			recipientID uuid.NullUUID
		)

		err = rows.Scan(
			&message.Seq,
			&senderID,
			&recipientID,
			&message.Content,
			&message.Kind,
			&message.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		sender, idErr := kernel.UUIDFromBytes(senderID[:])
		if idErr != nil {
			return nil, idErr
		}
		message.SenderID = sender

		if recipientID.Valid {
			recipient, idErr := kernel.UUIDFromBytes(recipientID.UUID[:])
			if idErr != nil {
				return nil, idErr
			}
			message.RecipientID = &recipient
		}

		message.CreatedAt = message.CreatedAt.UTC()
		messages = append(messages, message)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return messages, nil
}
