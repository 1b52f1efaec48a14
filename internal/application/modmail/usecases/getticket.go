package usecases

import (
	"context"
	"errors"

	"warden/internal/domain/modmail"
	apperrors "warden/internal/shared/errors"
	"warden/internal/shared/logger"
)

type GetTicketQuery struct {
	TicketID uint
}

type GetTicketResult struct {
	Ticket TicketListItem
}

type GetTicketExecutor interface {
	Execute(ctx context.Context, query GetTicketQuery) (*GetTicketResult, error)
}

type GetTicketUseCase struct {
	tickets modmail.TicketRepository
	logger  logger.Interface
}

func NewGetTicketUseCase(
	tickets modmail.TicketRepository,
	logger logger.Interface,
) *GetTicketUseCase {
	return &GetTicketUseCase{
		tickets: tickets,
		logger:  logger,
	}
}

func (uc *GetTicketUseCase) Execute(
	ctx context.Context,
	query GetTicketQuery,
) (*GetTicketResult, error) {
	if query.TicketID == 0 {
		return nil, apperrors.NewValidationError("ticket ID is required")
	}

	ticket, err := uc.tickets.GetByID(ctx, query.TicketID)
	if err != nil {
		if errors.Is(err, modmail.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("ticket not found")
		}
		uc.logger.Errorw("failed to get ticket", "ticket_id", query.TicketID, "error", err)
		return nil, apperrors.NewInternalError("failed to get ticket")
	}

	return &GetTicketResult{Ticket: toTicketListItem(ticket)}, nil
}
