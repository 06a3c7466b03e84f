package queries

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var ErrGetConversationHistoryQueryIsNotConstructed = errors.New(
	"GetConversationHistoryQuery must be created via NewGetConversationHistoryQuery constructor",
)

// DefaultHistoryPageSize caps one history page when the caller does not ask
// for a specific limit.
const DefaultHistoryPageSize = 100

// GetConversationHistoryQuery retrieves a page of an order's conversation
// log, restartable by sequence number. Passing the last received sequence as
// sinceSeq resumes a conversation after a reconnect without duplicates.
type GetConversationHistoryQuery struct {
	orderID  kernel.UUID
	sinceSeq int64
	limit    int

	guard guard.ConstructorGuard
}

// NewGetConversationHistoryQuery creates a history query.
// sinceSeq 0 reads from the beginning; limit <= 0 falls back to the default
// page size.
func NewGetConversationHistoryQuery(orderID kernel.UUID, sinceSeq int64, limit int) (GetConversationHistoryQuery, error) {
	if err := orderID.Validate(); err != nil {
		return GetConversationHistoryQuery{}, err
	}
	if sinceSeq < 0 {
		return GetConversationHistoryQuery{}, errs.NewValueIsInvalidError("sinceSeq")
	}

	if limit <= 0 {
		limit = DefaultHistoryPageSize
	}

	return GetConversationHistoryQuery{
		orderID:  orderID,
		sinceSeq: sinceSeq,
		limit:    limit,
		guard:    guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the query was created through the constructor.
func (q GetConversationHistoryQuery) Validate() error {
	return q.guard.Validate(ErrGetConversationHistoryQueryIsNotConstructed)
}

// OrderID returns the conversation's order.
func (q GetConversationHistoryQuery) OrderID() kernel.UUID {
	return q.orderID
}

// SinceSeq returns the exclusive lower sequence bound.
func (q GetConversationHistoryQuery) SinceSeq() int64 {
	return q.sinceSeq
}

// Limit returns the page size.
func (q GetConversationHistoryQuery) Limit() int {
	return q.limit
}

// GetConversationHistoryQueryResponse is one message in the read model.
type GetConversationHistoryQueryResponse struct {
	Seq         int64
	SenderID    kernel.UUID
	RecipientID *kernel.UUID
	Content     string
	Kind        string
	CreatedAt   time.Time
}
