package chatrepo

import (
	"context"

	"gorm.io/gorm"

	"dispatch/internal/core/domain/model/chat"
	"dispatch/internal/core/domain/model/kernel"
)

// GormChatRepository implements ChatRepository using GORM.
type GormChatRepository struct {
	db *gorm.DB
}

// NewGormChatRepository creates a new GORM chat repository.
func NewGormChatRepository(db *gorm.DB) *GormChatRepository {
	return &GormChatRepository{db: db}
}

// Append stores the message under the next per-order sequence number. The
// sequence is computed and inserted in a single statement. Concurrent
// transactions appending to the same conversation would still compute the
// same next sequence, so a transaction-scoped advisory lock keyed on the
// order serializes them; the later one recomputes after the first commits
// instead of colliding on the primary key.
func (r *GormChatRepository) Append(ctx context.Context, message *chat.Message) (*chat.Message, error) {
	if err := message.Validate(); err != nil {
		return nil, err
	}

	dto := fromDomain(message, 0)

	if err := r.db.WithContext(ctx).Exec(
		`SELECT pg_advisory_xact_lock(hashtext(?))`, dto.OrderID.String(),
	).Error; err != nil {
		return nil, err
	}

	var seq int64
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO messages (order_id, seq, sender_id, recipient_id, content, kind, created_at)
		SELECT ?, COALESCE(MAX(seq), 0) + 1, ?, ?, ?, ?, ?
		FROM messages WHERE order_id = ?
		RETURNING seq`,
		dto.OrderID, dto.SenderID, dto.RecipientID, dto.Content, dto.Kind, dto.CreatedAt,
		dto.OrderID,
	).Scan(&seq).Error
	if err != nil {
		return nil, err
	}

	return message.WithSequence(seq)
}

// History returns up to limit messages with sequence strictly greater than
// sinceSeq, ascending. limit <= 0 means no limit.
func (r *GormChatRepository) History(ctx context.Context, orderID kernel.UUID, sinceSeq int64, limit int) ([]*chat.Message, error) {
	if err := orderID.Validate(); err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx).
		Order("seq").
		Where("order_id = ? AND seq > ?", orderID.Bytes(), sinceSeq)
	if limit > 0 {
		query = query.Limit(limit)
	}

	var dtos []MessageDTO
	if err := query.Find(&dtos).Error; err != nil {
		return nil, err
	}

	messages := make([]*chat.Message, 0, len(dtos))
	for _, dto := range dtos {
		restored, restoreErr := toDomain(dto)
		if restoreErr != nil {
			return nil, restoreErr
		}
		messages = append(messages, restored)
	}

	return messages, nil
}
