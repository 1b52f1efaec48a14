package modmail

import (
	"fmt"
	"time"

	vo "warden/internal/domain/modmail/valueobjects"
)

// MessageMapping pairs a relayed message with its mirrored counterpart.
// One row per relay; rows are never updated except by idempotent upsert on
// the mirrored reference, and never deleted.
type MessageMapping struct {
	id                 uint
	ticketID           uint
	direction          vo.Direction
	sourceMessageRef   string
	mirroredMessageRef string
	sourceReplyRef     *string
	mirroredReplyRef   *string
	content            string
	createdAt          time.Time
}

func NewMessageMapping(
	ticketID uint,
	direction vo.Direction,
	sourceMessageRef, mirroredMessageRef string,
	sourceReplyRef, mirroredReplyRef *string,
	content string,
) (*MessageMapping, error) {
	if ticketID == 0 {
		return nil, fmt.Errorf("ticket ID is required")
	}
	if !direction.IsValid() {
		return nil, fmt.Errorf("invalid direction")
	}
	if sourceMessageRef == "" {
		return nil, fmt.Errorf("source message reference is required")
	}
	if mirroredMessageRef == "" {
		return nil, fmt.Errorf("mirrored message reference is required")
	}

	return &MessageMapping{
		ticketID:           ticketID,
		direction:          direction,
		sourceMessageRef:   sourceMessageRef,
		mirroredMessageRef: mirroredMessageRef,
		sourceReplyRef:     sourceReplyRef,
		mirroredReplyRef:   mirroredReplyRef,
		content:            content,
		createdAt:          time.Now(),
	}, nil
}

func ReconstructMessageMapping(
	id uint,
	ticketID uint,
	direction vo.Direction,
	sourceMessageRef, mirroredMessageRef string,
	sourceReplyRef, mirroredReplyRef *string,
	content string,
	createdAt time.Time,
) (*MessageMapping, error) {
	if id == 0 {
		return nil, fmt.Errorf("mapping ID cannot be zero")
	}

	m, err := NewMessageMapping(
		ticketID, direction,
		sourceMessageRef, mirroredMessageRef,
		sourceReplyRef, mirroredReplyRef,
		content,
	)
	if err != nil {
		return nil, err
	}
	m.id = id
	m.createdAt = createdAt
	return m, nil
}

func (m *MessageMapping) ID() uint {
	return m.id
}

func (m *MessageMapping) TicketID() uint {
	return m.ticketID
}

func (m *MessageMapping) Direction() vo.Direction {
	return m.direction
}

func (m *MessageMapping) SourceMessageRef() string {
	return m.sourceMessageRef
}

func (m *MessageMapping) MirroredMessageRef() string {
	return m.mirroredMessageRef
}

func (m *MessageMapping) SourceReplyRef() *string {
	return m.sourceReplyRef
}

func (m *MessageMapping) MirroredReplyRef() *string {
	return m.mirroredReplyRef
}

func (m *MessageMapping) Content() string {
	return m.content
}

func (m *MessageMapping) CreatedAt() time.Time {
	return m.createdAt
}

func (m *MessageMapping) SetID(id uint) error {
	if m.id != 0 {
		return fmt.Errorf("mapping ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("mapping ID cannot be zero")
	}
	m.id = id
	return nil
}
