package modmail

import (
	"fmt"
	"time"
)

// Transcript is the durable record of a closed conversation, generated
// when a ticket is closed.
type Transcript struct {
	id          uint
	ticketID    uint
	content     string
	contentHTML string
	createdAt   time.Time
}

func NewTranscript(ticketID uint, content, contentHTML string) (*Transcript, error) {
	if ticketID == 0 {
		return nil, fmt.Errorf("ticket ID is required")
	}
	if content == "" {
		return nil, fmt.Errorf("transcript content is required")
	}

	return &Transcript{
		ticketID:    ticketID,
		content:     content,
		contentHTML: contentHTML,
		createdAt:   time.Now(),
	}, nil
}

func ReconstructTranscript(id, ticketID uint, content, contentHTML string, createdAt time.Time) (*Transcript, error) {
	t, err := NewTranscript(ticketID, content, contentHTML)
	if err != nil {
		return nil, err
	}
	if id == 0 {
		return nil, fmt.Errorf("transcript ID cannot be zero")
	}
	t.id = id
	t.createdAt = createdAt
	return t, nil
}

func (t *Transcript) ID() uint {
	return t.id
}

func (t *Transcript) TicketID() uint {
	return t.ticketID
}

func (t *Transcript) Content() string {
	return t.content
}

func (t *Transcript) ContentHTML() string {
	return t.contentHTML
}

func (t *Transcript) CreatedAt() time.Time {
	return t.createdAt
}

func (t *Transcript) SetID(id uint) error {
	if t.id != 0 {
		return fmt.Errorf("transcript ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("transcript ID cannot be zero")
	}
	t.id = id
	return nil
}
