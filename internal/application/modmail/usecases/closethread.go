package usecases

import (
	"context"
	"errors"
	"fmt"

	"warden/internal/domain/modmail"
	apperrors "warden/internal/shared/errors"
	"warden/internal/shared/logger"
)

type CloseThreadCommand struct {
	TicketID uint
	// ThreadRef locates the ticket when TicketID is zero, for closes
	// issued from inside the staff thread.
	ThreadRef string
	CloserID  string
	Reason    string
	// NotifyUser sends the applicant a closing notice over DM.
	NotifyUser bool
}

type CloseThreadResult struct {
	TicketID      uint
	AlreadyClosed bool
}

// CloseThreadUseCase closes a ticket, flushes its transcript, archives the
// staff thread and releases the open guard. Closing twice is a no-op.
type CloseThreadUseCase struct {
	tickets    modmail.TicketRepository
	guards     modmail.OpenGuardRepository
	transport  Transport
	index      ThreadIndex
	transcript TranscriptRecorder
	audit      AuditSink
	txManager  TxManager
	settings   Settings
	logger     logger.Interface
}

func NewCloseThreadUseCase(
	tickets modmail.TicketRepository,
	guards modmail.OpenGuardRepository,
	transport Transport,
	index ThreadIndex,
	transcript TranscriptRecorder,
	audit AuditSink,
	txManager TxManager,
	settings Settings,
	logger logger.Interface,
) *CloseThreadUseCase {
	return &CloseThreadUseCase{
		tickets:    tickets,
		guards:     guards,
		transport:  transport,
		index:      index,
		transcript: transcript,
		audit:      audit,
		txManager:  txManager,
		settings:   settings,
		logger:     logger,
	}
}

func (uc *CloseThreadUseCase) Execute(ctx context.Context, cmd CloseThreadCommand) (*CloseThreadResult, error) {
	if err := uc.validateCommand(cmd); err != nil {
		return nil, err
	}

	ticket, err := uc.locateTicket(ctx, cmd)
	if err != nil {
		return nil, err
	}

	if ticket.Status().IsClosed() {
		return &CloseThreadResult{TicketID: ticket.ID(), AlreadyClosed: true}, nil
	}

	// Close and release the guard atomically so a fresh open cannot race
	// against a half-closed ticket.
	err = uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		if err := ticket.Close(); err != nil {
			return err
		}
		if err := uc.tickets.Update(txCtx, ticket); err != nil {
			return err
		}
		return uc.guards.Delete(txCtx, ticket.GuildID(), ticket.UserID())
	})
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Sprintf("failed to close ticket: %v", err))
	}

	threadRef, hasThread := ticket.ThreadRef().ID()
	if hasThread {
		uc.index.Remove(threadRef)
	}

	// Everything after the state change is best effort.
	if err := uc.transcript.Flush(ctx, ticket); err != nil {
		uc.logger.Warnw("failed to flush transcript on close",
			"ticket_id", ticket.ID(), "error", err)
	}

	if hasThread {
		if err := uc.transport.SetThreadArchived(ctx, threadRef, true); err != nil {
			uc.logger.Warnw("failed to archive thread",
				"thread_ref", threadRef, "error", err)
		}
	}

	if cmd.NotifyUser {
		uc.notifyApplicant(ctx, ticket, cmd.Reason)
	}

	uc.audit.Record(ctx, "modmail.thread_closed",
		"ticket_id", ticket.ID(),
		"guild_id", ticket.GuildID(),
		"user_id", ticket.UserID(),
		"closer_id", cmd.CloserID,
	)

	return &CloseThreadResult{TicketID: ticket.ID()}, nil
}

func (uc *CloseThreadUseCase) validateCommand(cmd CloseThreadCommand) error {
	if cmd.TicketID == 0 && cmd.ThreadRef == "" {
		return apperrors.NewValidationError("either ticket id or thread ref is required")
	}
	if cmd.CloserID == "" {
		return apperrors.NewValidationError("closer id is required")
	}
	return nil
}

func (uc *CloseThreadUseCase) locateTicket(ctx context.Context, cmd CloseThreadCommand) (*modmail.Ticket, error) {
	var (
		ticket *modmail.Ticket
		err    error
	)
	if cmd.TicketID != 0 {
		ticket, err = uc.tickets.GetByID(ctx, cmd.TicketID)
	} else {
		ticket, err = uc.tickets.GetByThreadRef(ctx, cmd.ThreadRef)
	}
	if err != nil {
		if errors.Is(err, modmail.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("ticket not found")
		}
		return nil, apperrors.NewInternalError(fmt.Sprintf("failed to load ticket: %v", err))
	}
	return ticket, nil
}

func (uc *CloseThreadUseCase) notifyApplicant(ctx context.Context, ticket *modmail.Ticket, reason string) {
	content := fmt.Sprintf("Your conversation with the %s staff has been closed.", uc.settings.CommunityName)
	if reason != "" {
		content = fmt.Sprintf("%s Reason: %s", content, reason)
	}
	payload := OutboundPayload{
		Content:    content,
		AuthorName: uc.settings.CommunityName,
		AuthorIcon: uc.settings.CommunityIcon,
	}
	if _, err := uc.transport.SendDirect(ctx, ticket.UserID(), payload); err != nil {
		uc.logger.Warnw("failed to send closing notice to applicant",
			"ticket_id", ticket.ID(), "user_id", ticket.UserID(), "error", err)
	}
}
