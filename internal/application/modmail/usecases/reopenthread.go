package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"warden/internal/domain/modmail"
	apperrors "warden/internal/shared/errors"
	"warden/internal/shared/logger"
)

type ReopenThreadCommand struct {
	GuildID    string
	UserID     string
	ReopenerID string
}

type ReopenThreadResult struct {
	TicketID  uint
	ThreadRef string
	// Reopened is set when the previous ticket came back in place; the
	// alternative is a fresh ticket and thread.
	Reopened  bool
	NewTicket bool
}

// ReopenThreadUseCase restores a recently closed ticket in its original
// thread. When the ticket closed too long ago the thread may be gone, so
// the request falls through to a fresh open that carries the old
// application code forward.
type ReopenThreadUseCase struct {
	tickets   modmail.TicketRepository
	guards    modmail.OpenGuardRepository
	transport Transport
	authz     Authorization
	index     ThreadIndex
	audit     AuditSink
	txManager TxManager
	opener    OpenThreadExecutor
	settings  Settings
	logger    logger.Interface
	now       func() time.Time
}

func NewReopenThreadUseCase(
	tickets modmail.TicketRepository,
	guards modmail.OpenGuardRepository,
	transport Transport,
	authz Authorization,
	index ThreadIndex,
	audit AuditSink,
	txManager TxManager,
	opener OpenThreadExecutor,
	settings Settings,
	logger logger.Interface,
) *ReopenThreadUseCase {
	return &ReopenThreadUseCase{
		tickets:   tickets,
		guards:    guards,
		transport: transport,
		authz:     authz,
		index:     index,
		audit:     audit,
		txManager: txManager,
		opener:    opener,
		settings:  settings,
		logger:    logger,
		now:       time.Now,
	}
}

func (uc *ReopenThreadUseCase) Execute(ctx context.Context, cmd ReopenThreadCommand) (*ReopenThreadResult, error) {
	if err := uc.validateCommand(cmd); err != nil {
		return nil, err
	}

	if err := uc.checkPermission(ctx, cmd.ReopenerID); err != nil {
		return nil, err
	}

	ticket, err := uc.tickets.GetLatestClosedByUser(ctx, cmd.GuildID, cmd.UserID)
	if err != nil {
		if errors.Is(err, modmail.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("no closed ticket to reopen for this user")
		}
		return nil, apperrors.NewInternalError(fmt.Sprintf("failed to load closed ticket: %v", err))
	}

	if !ticket.WithinGraceWindow(uc.settings.GraceWindow, uc.now()) {
		return uc.openFresh(ctx, cmd, ticket)
	}

	return uc.reopenInPlace(ctx, cmd, ticket)
}

func (uc *ReopenThreadUseCase) validateCommand(cmd ReopenThreadCommand) error {
	if cmd.GuildID == "" {
		return apperrors.NewValidationError("guild id is required")
	}
	if cmd.UserID == "" {
		return apperrors.NewValidationError("user id is required")
	}
	if cmd.ReopenerID == "" {
		return apperrors.NewValidationError("reopener id is required")
	}
	return nil
}

func (uc *ReopenThreadUseCase) checkPermission(ctx context.Context, actorID string) error {
	canManage, err := uc.authz.CanManage(ctx, actorID)
	if err != nil {
		return apperrors.NewInternalError(fmt.Sprintf("failed to resolve permissions: %v", err))
	}
	if canManage {
		return nil
	}
	isReviewer, err := uc.authz.IsReviewer(ctx, actorID)
	if err != nil {
		return apperrors.NewInternalError(fmt.Sprintf("failed to resolve permissions: %v", err))
	}
	if !isReviewer {
		return apperrors.NewPermissionDeniedError("reopening a modmail thread requires a staff role")
	}
	return nil
}

func (uc *ReopenThreadUseCase) reopenInPlace(ctx context.Context, cmd ReopenThreadCommand, ticket *modmail.Ticket) (*ReopenThreadResult, error) {
	threadRef, hasThread := ticket.ThreadRef().ID()
	if !hasThread {
		// The closed ticket never got a live thread. Nothing to restore.
		return uc.openFresh(ctx, cmd, ticket)
	}

	raceLost := false
	err := uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		if err := ticket.Reopen(); err != nil {
			return err
		}
		if err := uc.tickets.Update(txCtx, ticket); err != nil {
			return err
		}
		guard, err := modmail.NewOpenGuard(cmd.GuildID, cmd.UserID, ticket.ThreadRef())
		if err != nil {
			return err
		}
		if err := uc.guards.Insert(txCtx, guard); err != nil {
			if errors.Is(err, modmail.ErrDuplicateOpenTicket) {
				raceLost = true
			}
			return err
		}
		return nil
	})
	if err != nil {
		if raceLost {
			return nil, apperrors.NewAlreadyExistsError("an open ticket already exists for this user")
		}
		return nil, apperrors.NewInternalError(fmt.Sprintf("failed to reopen ticket: %v", err))
	}

	uc.index.Add(threadRef)

	if err := uc.transport.SetThreadArchived(ctx, threadRef, false); err != nil {
		uc.logger.Warnw("failed to unarchive thread on reopen",
			"thread_ref", threadRef, "error", err)
	}
	if err := uc.transport.SetThreadLocked(ctx, threadRef, false); err != nil {
		uc.logger.Warnw("failed to unlock thread on reopen",
			"thread_ref", threadRef, "error", err)
	}

	uc.notifyApplicant(ctx, ticket)

	uc.audit.Record(ctx, "modmail.thread_reopened",
		"ticket_id", ticket.ID(),
		"guild_id", cmd.GuildID,
		"user_id", cmd.UserID,
		"reopener_id", cmd.ReopenerID,
		"thread_ref", threadRef,
	)

	return &ReopenThreadResult{TicketID: ticket.ID(), ThreadRef: threadRef, Reopened: true}, nil
}

func (uc *ReopenThreadUseCase) notifyApplicant(ctx context.Context, ticket *modmail.Ticket) {
	payload := OutboundPayload{
		Content:    fmt.Sprintf("Your conversation with the %s staff has been reopened.", uc.settings.CommunityName),
		AuthorName: uc.settings.CommunityName,
		AuthorIcon: uc.settings.CommunityIcon,
	}
	if _, err := uc.transport.SendDirect(ctx, ticket.UserID(), payload); err != nil {
		uc.logger.Warnw("failed to send reopening notice to applicant",
			"ticket_id", ticket.ID(), "user_id", ticket.UserID(), "error", err)
	}
}

// openFresh delegates to the open use case, carrying the old ticket's
// application context into the replacement.
func (uc *ReopenThreadUseCase) openFresh(ctx context.Context, cmd ReopenThreadCommand, previous *modmail.Ticket) (*ReopenThreadResult, error) {
	result, err := uc.opener.Execute(ctx, OpenThreadCommand{
		GuildID:          cmd.GuildID,
		UserID:           cmd.UserID,
		OpenerID:         cmd.ReopenerID,
		AppCode:          previous.AppCode(),
		ReviewMessageRef: previous.ReviewMessageRef(),
	})
	if err != nil {
		return nil, err
	}
	if result.AlreadyExists || result.InProgress {
		return nil, apperrors.NewAlreadyExistsError("an open ticket already exists for this user")
	}
	return &ReopenThreadResult{TicketID: result.TicketID, ThreadRef: result.ThreadRef, NewTicket: true}, nil
}
