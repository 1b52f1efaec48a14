package usecases

import (
	"context"
	"errors"
	"fmt"

	"warden/internal/domain/modmail"
	apperrors "warden/internal/shared/errors"
	"warden/internal/shared/logger"
)

type OpenThreadCommand struct {
	GuildID string
	UserID  string
	// OpenerID is the staff member or system actor requesting the thread.
	OpenerID         string
	AppCode          *string
	ReviewMessageRef *string
}

type OpenThreadResult struct {
	TicketID      uint
	ThreadRef     string
	AlreadyExists bool
	InProgress    bool
}

// OpenThreadUseCase creates a modmail ticket and its staff thread. The
// open-guard row makes concurrent opens for the same applicant resolve to
// exactly one thread.
type OpenThreadUseCase struct {
	tickets   modmail.TicketRepository
	guards    modmail.OpenGuardRepository
	transport Transport
	authz     Authorization
	index     ThreadIndex
	audit     AuditSink
	txManager TxManager
	settings  Settings
	logger    logger.Interface
}

func NewOpenThreadUseCase(
	tickets modmail.TicketRepository,
	guards modmail.OpenGuardRepository,
	transport Transport,
	authz Authorization,
	index ThreadIndex,
	audit AuditSink,
	txManager TxManager,
	settings Settings,
	logger logger.Interface,
) *OpenThreadUseCase {
	return &OpenThreadUseCase{
		tickets:   tickets,
		guards:    guards,
		transport: transport,
		authz:     authz,
		index:     index,
		audit:     audit,
		txManager: txManager,
		settings:  settings,
		logger:    logger,
	}
}

func (uc *OpenThreadUseCase) Execute(ctx context.Context, cmd OpenThreadCommand) (*OpenThreadResult, error) {
	if err := uc.validateCommand(cmd); err != nil {
		return nil, err
	}

	if err := uc.checkPermission(ctx, cmd.OpenerID); err != nil {
		return nil, err
	}

	// Fast path: an existing guard means a thread is already live or in
	// flight for this applicant.
	if result, handled, err := uc.checkExistingGuard(ctx, cmd); err != nil {
		return nil, err
	} else if handled {
		return result, nil
	}

	if err := uc.validateParentChannel(ctx); err != nil {
		return nil, err
	}

	ticket, raceLost, err := uc.reserveTicket(ctx, cmd)
	if err != nil {
		return nil, err
	}
	if raceLost {
		uc.logger.Infow("lost open race for applicant, another open is in flight",
			"guild_id", cmd.GuildID, "user_id", cmd.UserID)
		return &OpenThreadResult{InProgress: true}, nil
	}

	threadRef, err := uc.createThread(ctx, cmd)
	if err != nil {
		uc.rollbackReservation(ctx, ticket, cmd)
		return nil, err
	}

	if err := uc.promoteTicket(ctx, ticket, threadRef, cmd); err != nil {
		return nil, err
	}

	// Staff visibility is best effort, the thread is usable without it.
	if uc.settings.StaffRoleID != "" {
		if err := uc.transport.EnsureThreadAccess(ctx, threadRef, uc.settings.StaffRoleID); err != nil {
			uc.logger.Warnw("failed to grant staff role access to thread",
				"thread_ref", threadRef, "error", err)
		}
	}

	uc.audit.Record(ctx, "modmail.thread_opened",
		"ticket_id", ticket.ID(),
		"guild_id", cmd.GuildID,
		"user_id", cmd.UserID,
		"opener_id", cmd.OpenerID,
		"thread_ref", threadRef,
	)

	return &OpenThreadResult{TicketID: ticket.ID(), ThreadRef: threadRef}, nil
}

func (uc *OpenThreadUseCase) validateCommand(cmd OpenThreadCommand) error {
	if cmd.GuildID == "" {
		return apperrors.NewValidationError("guild id is required")
	}
	if cmd.UserID == "" {
		return apperrors.NewValidationError("user id is required")
	}
	if cmd.OpenerID == "" {
		return apperrors.NewValidationError("opener id is required")
	}
	return nil
}

func (uc *OpenThreadUseCase) checkPermission(ctx context.Context, actorID string) error {
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
		return apperrors.NewPermissionDeniedError("opening a modmail thread requires a staff role")
	}
	return nil
}

func (uc *OpenThreadUseCase) checkExistingGuard(ctx context.Context, cmd OpenThreadCommand) (*OpenThreadResult, bool, error) {
	guard, err := uc.guards.Get(ctx, cmd.GuildID, cmd.UserID)
	if err != nil {
		if errors.Is(err, modmail.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, apperrors.NewInternalError(fmt.Sprintf("failed to look up open guard: %v", err))
	}

	ref := guard.ThreadRef()
	switch {
	case ref.IsActive():
		threadRef, _ := ref.ID()
		return &OpenThreadResult{ThreadRef: threadRef, AlreadyExists: true}, true, nil
	case ref.IsPending():
		return &OpenThreadResult{InProgress: true}, true, nil
	default:
		// A failed guard is leftover from a crashed open. Clear it and
		// let this open proceed.
		if err := uc.guards.Delete(ctx, cmd.GuildID, cmd.UserID); err != nil {
			return nil, false, apperrors.NewInternalError(fmt.Sprintf("failed to clear stale open guard: %v", err))
		}
		return nil, false, nil
	}
}

func (uc *OpenThreadUseCase) validateParentChannel(ctx context.Context) error {
	channel, err := uc.transport.FetchChannel(ctx, uc.settings.ParentChannelRef)
	if err != nil {
		return apperrors.NewTransportFailureError(fmt.Sprintf("failed to fetch modmail channel: %v", err))
	}
	if channel.IsDM || !channel.SupportsThreads {
		return apperrors.NewUnsupportedChannelError("modmail channel does not support threads")
	}

	missing, err := uc.transport.MissingCapabilitiesFor(ctx, uc.settings.ParentChannelRef)
	if err != nil {
		return apperrors.NewTransportFailureError(fmt.Sprintf("failed to check channel capabilities: %v", err))
	}
	if len(missing) > 0 {
		return apperrors.NewMissingCapabilityError(missing)
	}
	return nil
}

// reserveTicket inserts the ticket and its open guard atomically, both in
// the pending state. A duplicate-guard violation means another open won
// the race.
func (uc *OpenThreadUseCase) reserveTicket(ctx context.Context, cmd OpenThreadCommand) (*modmail.Ticket, bool, error) {
	ticket, err := modmail.NewTicket(cmd.GuildID, cmd.UserID, cmd.AppCode, cmd.ReviewMessageRef)
	if err != nil {
		return nil, false, apperrors.NewValidationError(err.Error())
	}

	raceLost := false
	err = uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		if err := uc.tickets.Save(txCtx, ticket); err != nil {
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
			return nil, true, nil
		}
		return nil, false, apperrors.NewInternalError(fmt.Sprintf("failed to reserve ticket: %v", err))
	}
	return ticket, false, nil
}

func (uc *OpenThreadUseCase) createThread(ctx context.Context, cmd OpenThreadCommand) (string, error) {
	name := uc.threadName(ctx, cmd)
	threadRef, err := uc.transport.CreateThread(ctx, uc.settings.ParentChannelRef, ThreadParams{Name: name})
	if err != nil {
		return "", apperrors.NewTransportFailureError(fmt.Sprintf("failed to create thread: %v", err))
	}
	return threadRef, nil
}

func (uc *OpenThreadUseCase) threadName(ctx context.Context, cmd OpenThreadCommand) string {
	profile, err := uc.transport.FetchUser(ctx, cmd.UserID)
	if err != nil || profile.DisplayName == "" {
		return fmt.Sprintf("modmail-%s", cmd.UserID)
	}
	return fmt.Sprintf("modmail-%s", profile.DisplayName)
}

// rollbackReservation marks the ticket failed and clears the guard so a
// later open can retry. Mirrors are best effort, the stale-pending
// janitor catches anything missed here.
func (uc *OpenThreadUseCase) rollbackReservation(ctx context.Context, ticket *modmail.Ticket, cmd OpenThreadCommand) {
	err := uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		if err := ticket.MarkThreadFailed(); err != nil {
			return err
		}
		if err := uc.tickets.Update(txCtx, ticket); err != nil {
			return err
		}
		return uc.guards.Delete(txCtx, cmd.GuildID, cmd.UserID)
	})
	if err != nil {
		uc.logger.Errorw("failed to roll back ticket reservation",
			"ticket_id", ticket.ID(), "error", err)
	}
}

func (uc *OpenThreadUseCase) promoteTicket(ctx context.Context, ticket *modmail.Ticket, threadRef string, cmd OpenThreadCommand) error {
	err := uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		if err := ticket.PromoteThread(threadRef); err != nil {
			return err
		}
		if err := uc.tickets.Update(txCtx, ticket); err != nil {
			return err
		}
		return uc.guards.UpdateThreadRef(txCtx, cmd.GuildID, cmd.UserID, ticket.ThreadRef())
	})
	if err != nil {
		return apperrors.NewInternalError(fmt.Sprintf("failed to promote ticket: %v", err))
	}
	// Durable state first, then the in-memory mirror.
	uc.index.Add(threadRef)
	return nil
}
