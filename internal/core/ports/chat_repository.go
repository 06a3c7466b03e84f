package ports

import (
	"context"

	"dispatch/internal/core/domain/model/chat"
	"dispatch/internal/core/domain/model/kernel"
)

// ChatRepository is the persistence contract for the append-only conversation
// log. Messages are keyed by (order id, sequence) with a uniqueness
// constraint on the pair.
type ChatRepository interface {
	// Append stores the message under the next sequence number for its
	// order, assigned atomically (single writer per order), and returns the
	// stored message carrying that sequence. Sequences start at 1 and are
	// gapless.
	Append(ctx context.Context, message *chat.Message) (*chat.Message, error)

	// History returns up to limit messages of the order with sequence
	// strictly greater than sinceSeq, in ascending sequence order. Passing
	// the last received sequence makes the read restartable after a
	// reconnect; limit <= 0 means no limit.
	History(ctx context.Context, orderID kernel.UUID, sinceSeq int64, limit int) ([]*chat.Message, error)
}
