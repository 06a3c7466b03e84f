// Package chat implements the append-only conversation log entries exchanged
// within an order's room. Messages are never mutated or deleted; their
// per-order sequence numbers are strictly increasing and gapless, which lets
// reconnecting subscribers catch up with a simple since-sequence query.
package chat

import (
	"errors"
	"fmt"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
)

// MaxContentLength bounds message content.
const MaxContentLength = 4000

// ErrMessageIsNotConstructed is returned when a Message was not created
// through NewMessage or RestoreMessage.
var ErrMessageIsNotConstructed = errors.New("Message must be created via NewMessage or RestoreMessage")

// Kind classifies a conversation entry.
type Kind int

const (
	// KindUnknown is an invalid, uninitialized kind.
	KindUnknown Kind = iota

	// KindText is a plain text message.
	KindText

	// KindImage carries an opaque reference to an uploaded image.
	KindImage

	// KindAudio carries an opaque reference to an uploaded audio clip.
	KindAudio

	// KindSystem is an engine-generated notice (for example an assignment
	// announcement) appended into the conversation.
	KindSystem
)

func getKindStrings() map[Kind]string {
	return map[Kind]string{
		KindUnknown: "unknown",
		KindText:    "text",
		KindImage:   "image",
		KindAudio:   "audio",
		KindSystem:  "system",
	}
}

// Validate checks the kind is one of the defined message kinds.
func (k Kind) Validate() error {
	if k <= KindUnknown || k > KindSystem {
		return errs.NewValueIsInvalidErrorWithCause("kind", fmt.Errorf("%d is not a valid message kind", k))
	}
	return nil
}

// String returns the wire name of the kind. Implements fmt.Stringer.
func (k Kind) String() string {
	if s, ok := getKindStrings()[k]; ok {
		return s
	}
	return "unknown"
}

// KindFromString parses a wire name back into a Kind.
func KindFromString(s string) (Kind, error) {
	for kind, name := range getKindStrings() {
		if name == s && kind != KindUnknown {
			return kind, nil
		}
	}
	return KindUnknown, errs.NewValueIsInvalidErrorWithCause("kind", fmt.Errorf("%q is not a valid message kind", s))
}

// Message is one entry of an order's conversation. A freshly created message
// carries sequence 0; the conversation repository assigns the real per-order
// sequence atomically at append time.
type Message struct {
	orderID     kernel.UUID
	seq         int64
	senderID    kernel.UUID
	recipientID *kernel.UUID
	content     string
	kind        Kind
	createdAt   time.Time

	isConstructed bool
}

// NewMessage creates an unsequenced message ready to be appended.
// recipientID is optional; nil addresses the whole room.
func NewMessage(
	orderID kernel.UUID,
	senderID kernel.UUID,
	recipientID *kernel.UUID,
	content string,
	kind Kind,
) (*Message, error) {
	m := &Message{
		createdAt:     time.Now().UTC(),
		isConstructed: true,
	}

	if err := errors.Join(
		m.setOrderID(orderID),
		m.setSenderID(senderID),
		m.setRecipientID(recipientID),
		m.setContent(content),
		m.setKind(kind),
	); err != nil {
		return nil, err
	}

	return m, nil
}

// RestoreMessage reconstructs a stored message with its assigned sequence.
func RestoreMessage(
	orderID kernel.UUID,
	seq int64,
	senderID kernel.UUID,
	recipientID *kernel.UUID,
	content string,
	kind Kind,
	createdAt time.Time,
) (*Message, error) {
	if seq <= 0 {
		return nil, errs.NewValueIsInvalidErrorWithCause("seq", fmt.Errorf("%d is not a positive sequence", seq))
	}

	m, err := NewMessage(orderID, senderID, recipientID, content, kind)
	if err != nil {
		return nil, err
	}

	m.seq = seq
	m.createdAt = createdAt
	return m, nil
}

// WithSequence returns a copy of the message carrying its assigned sequence.
// Used by the conversation repository once the append succeeds.
func (m *Message) WithSequence(seq int64) (*Message, error) {
	return RestoreMessage(m.orderID, seq, m.senderID, m.recipientID, m.content, m.kind, m.createdAt)
}

// Validate ensures the Message was constructed through a constructor.
func (m *Message) Validate() error {
	if m == nil || !m.isConstructed {
		return ErrMessageIsNotConstructed
	}
	return nil
}

// OrderID returns the order whose conversation this message belongs to.
func (m *Message) OrderID() kernel.UUID {
	return m.orderID
}

// Seq returns the per-order sequence number, 0 when not yet appended.
func (m *Message) Seq() int64 {
	return m.seq
}

// SenderID returns the authenticated author of the message.
func (m *Message) SenderID() kernel.UUID {
	return m.senderID
}

// RecipientID returns the explicit recipient, or nil for the whole room.
func (m *Message) RecipientID() *kernel.UUID {
	return m.recipientID
}

// Content returns the message body or opaque attachment reference.
func (m *Message) Content() string {
	return m.content
}

// MessageKind returns the kind of the message.
func (m *Message) MessageKind() Kind {
	return m.kind
}

// CreatedAt returns the creation time.
func (m *Message) CreatedAt() time.Time {
	return m.createdAt
}

func (m *Message) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}
	m.orderID = orderID
	return nil
}

func (m *Message) setSenderID(senderID kernel.UUID) error {
	if err := senderID.Validate(); err != nil {
		return err
	}
	m.senderID = senderID
	return nil
}

func (m *Message) setRecipientID(recipientID *kernel.UUID) error {
	if recipientID == nil {
		return nil
	}
	if err := recipientID.Validate(); err != nil {
		return err
	}
	m.recipientID = recipientID
	return nil
}

func (m *Message) setContent(content string) error {
	if content == "" {
		return errs.NewValueIsRequiredError("content")
	}
	if len(content) > MaxContentLength {
		return errs.NewValueIsOutOfRangeError("content", len(content), 1, MaxContentLength)
	}
	m.content = content
	return nil
}

func (m *Message) setKind(kind Kind) error {
	if err := kind.Validate(); err != nil {
		return err
	}
	m.kind = kind
	return nil
}
