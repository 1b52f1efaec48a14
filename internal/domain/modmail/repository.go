package modmail

import (
	"context"
	"errors"
	"time"

	vo "warden/internal/domain/modmail/valueobjects"
)

// ErrNotFound is returned by repositories when no matching row exists.
var ErrNotFound = errors.New("not found")

// ErrDuplicateOpenTicket is returned when an insert loses the unique-
// constraint race on (guild, user). Callers treat it the same as finding a
// creation already in progress.
var ErrDuplicateOpenTicket = errors.New("an open ticket already exists for this user")

type TicketRepository interface {
	Save(ctx context.Context, t *Ticket) error
	Update(ctx context.Context, t *Ticket) error
	GetByID(ctx context.Context, id uint) (*Ticket, error)
	GetByThreadRef(ctx context.Context, threadRef string) (*Ticket, error)
	GetOpenByUser(ctx context.Context, guildID, userID string) (*Ticket, error)
	// GetLatestClosedByUser returns the most recently closed ticket for the
	// pair, used to decide between in-place reopen and a fresh open.
	GetLatestClosedByUser(ctx context.Context, guildID, userID string) (*Ticket, error)
	// ListOpenThreadRefs returns the active thread refs of all open
	// tickets; the thread state index hydrates from it at startup.
	ListOpenThreadRefs(ctx context.Context) ([]string, error)
	// ListStalePending returns open tickets whose thread ref has been
	// pending since before the cutoff.
	ListStalePending(ctx context.Context, cutoff time.Time) ([]*Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]*Ticket, int64, error)
}

type TicketFilter struct {
	GuildID  string
	UserID   string
	Status   *vo.TicketStatus
	Page     int
	PageSize int
}

type MessageMappingRepository interface {
	// Upsert persists the mapping, keyed uniquely by the mirrored message
	// reference. Retrying the same relay produces no duplicate row.
	Upsert(ctx context.Context, m *MessageMapping) error
	GetByMirroredRef(ctx context.Context, ref string) (*MessageMapping, error)
	GetBySourceRef(ctx context.Context, ref string) (*MessageMapping, error)
	ListByTicketID(ctx context.Context, ticketID uint) ([]*MessageMapping, error)
}

type OpenGuardRepository interface {
	// Insert fails with ErrDuplicateOpenTicket when a guard row for the
	// (guild, user) pair already exists.
	Insert(ctx context.Context, g *OpenGuard) error
	Get(ctx context.Context, guildID, userID string) (*OpenGuard, error)
	UpdateThreadRef(ctx context.Context, guildID, userID string, threadRef vo.ThreadRef) error
	Delete(ctx context.Context, guildID, userID string) error
}

type TranscriptRepository interface {
	Save(ctx context.Context, t *Transcript) error
	GetByTicketID(ctx context.Context, ticketID uint) (*Transcript, error)
}
