package modmail

import (
	"fmt"
	"time"

	vo "warden/internal/domain/modmail/valueobjects"
)

// Ticket is the persistent record of one applicant's modmail conversation.
// At most one open ticket may exist per (guild, user) pair; that invariant
// is enforced by the open-guard table, not by this entity.
type Ticket struct {
	id               uint
	guildID          string
	userID           string
	appCode          *string
	reviewMessageRef *string
	threadRef        vo.ThreadRef
	status           vo.TicketStatus
	createdAt        time.Time
	updatedAt        time.Time
	closedAt         *time.Time
}

// NewTicket creates an open ticket with a pending thread reference. The
// real reference is promoted in once thread creation succeeds.
func NewTicket(guildID, userID string, appCode, reviewMessageRef *string) (*Ticket, error) {
	if guildID == "" {
		return nil, fmt.Errorf("guild ID is required")
	}
	if userID == "" {
		return nil, fmt.Errorf("user ID is required")
	}

	now := time.Now()
	return &Ticket{
		guildID:          guildID,
		userID:           userID,
		appCode:          appCode,
		reviewMessageRef: reviewMessageRef,
		threadRef:        vo.PendingThreadRef(),
		status:           vo.StatusOpen,
		createdAt:        now,
		updatedAt:        now,
	}, nil
}

func ReconstructTicket(
	id uint,
	guildID, userID string,
	appCode, reviewMessageRef *string,
	threadRef vo.ThreadRef,
	status vo.TicketStatus,
	createdAt, updatedAt time.Time,
	closedAt *time.Time,
) (*Ticket, error) {
	if id == 0 {
		return nil, fmt.Errorf("ticket ID cannot be zero")
	}
	if guildID == "" {
		return nil, fmt.Errorf("guild ID is required")
	}
	if userID == "" {
		return nil, fmt.Errorf("user ID is required")
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid status")
	}

	return &Ticket{
		id:               id,
		guildID:          guildID,
		userID:           userID,
		appCode:          appCode,
		reviewMessageRef: reviewMessageRef,
		threadRef:        threadRef,
		status:           status,
		createdAt:        createdAt,
		updatedAt:        updatedAt,
		closedAt:         closedAt,
	}, nil
}

func (t *Ticket) ID() uint {
	return t.id
}

func (t *Ticket) GuildID() string {
	return t.guildID
}

func (t *Ticket) UserID() string {
	return t.userID
}

func (t *Ticket) AppCode() *string {
	return t.appCode
}

func (t *Ticket) ReviewMessageRef() *string {
	return t.reviewMessageRef
}

func (t *Ticket) ThreadRef() vo.ThreadRef {
	return t.threadRef
}

func (t *Ticket) Status() vo.TicketStatus {
	return t.status
}

func (t *Ticket) CreatedAt() time.Time {
	return t.createdAt
}

func (t *Ticket) UpdatedAt() time.Time {
	return t.updatedAt
}

func (t *Ticket) ClosedAt() *time.Time {
	return t.closedAt
}

func (t *Ticket) SetID(id uint) error {
	if t.id != 0 {
		return fmt.Errorf("ticket ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("ticket ID cannot be zero")
	}
	t.id = id
	return nil
}

// PromoteThread swaps the pending sentinel for the real thread reference.
func (t *Ticket) PromoteThread(threadID string) error {
	if !t.threadRef.IsPending() {
		return fmt.Errorf("cannot promote thread in state %s", t.threadRef.State())
	}

	ref, err := vo.ActiveThreadRef(threadID)
	if err != nil {
		return err
	}

	t.threadRef = ref
	t.updatedAt = time.Now()
	return nil
}

// MarkThreadFailed rolls a pending ticket into the terminal failed state so
// the guard entry stops blocking future open attempts.
func (t *Ticket) MarkThreadFailed() error {
	if !t.threadRef.IsPending() {
		return fmt.Errorf("cannot fail thread in state %s", t.threadRef.State())
	}
	if !t.status.CanTransitionTo(vo.StatusFailed) {
		return fmt.Errorf("cannot fail ticket with status %s", t.status)
	}

	t.threadRef = vo.FailedThreadRef()
	t.status = vo.StatusFailed
	t.updatedAt = time.Now()
	return nil
}

// Close transitions the ticket to closed. Closing an already-closed ticket
// is a no-op.
func (t *Ticket) Close() error {
	if t.status.IsClosed() {
		return nil
	}
	if !t.status.CanTransitionTo(vo.StatusClosed) {
		return fmt.Errorf("cannot close ticket with status %s", t.status)
	}

	now := time.Now()
	t.status = vo.StatusClosed
	t.closedAt = &now
	t.updatedAt = now
	return nil
}

// Reopen flips a closed ticket back to open in place, clearing closedAt.
func (t *Ticket) Reopen() error {
	if !t.status.IsClosed() {
		return fmt.Errorf("only closed tickets can be reopened")
	}

	t.status = vo.StatusOpen
	t.closedAt = nil
	t.updatedAt = time.Now()
	return nil
}

// WithinGraceWindow reports whether the ticket closed recently enough to be
// reopened in place rather than replaced by a fresh ticket.
func (t *Ticket) WithinGraceWindow(window time.Duration, now time.Time) bool {
	if t.closedAt == nil {
		return false
	}
	return now.Sub(*t.closedAt) <= window
}
