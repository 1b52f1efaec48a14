package usecases

import (
	"context"
	"time"

	"warden/internal/domain/modmail"
	vo "warden/internal/domain/modmail/valueobjects"
	apperrors "warden/internal/shared/errors"
	"warden/internal/shared/logger"
	"warden/internal/shared/utils"
)

type ListTicketsQuery struct {
	GuildID  string
	UserID   string
	Status   *string
	Page     int
	PageSize int
}

type TicketListItem struct {
	ID          uint    `json:"id"`
	GuildID     string  `json:"guild_id"`
	UserID      string  `json:"user_id"`
	AppCode     *string `json:"app_code,omitempty"`
	ThreadState string  `json:"thread_state"`
	ThreadRef   string  `json:"thread_ref,omitempty"`
	Status      string  `json:"status"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
	ClosedAt    *string `json:"closed_at,omitempty"`
}

type ListTicketsResult struct {
	Tickets    []TicketListItem
	TotalCount int64
	Page       int
	PageSize   int
}

type ListTicketsExecutor interface {
	Execute(ctx context.Context, query ListTicketsQuery) (*ListTicketsResult, error)
}

type ListTicketsUseCase struct {
	tickets modmail.TicketRepository
	logger  logger.Interface
}

func NewListTicketsUseCase(
	tickets modmail.TicketRepository,
	logger logger.Interface,
) *ListTicketsUseCase {
	return &ListTicketsUseCase{
		tickets: tickets,
		logger:  logger,
	}
}

func (uc *ListTicketsUseCase) Execute(
	ctx context.Context,
	query ListTicketsQuery,
) (*ListTicketsResult, error) {
	pagination := utils.ValidatePagination(query.Page, query.PageSize)
	query.Page = pagination.Page
	query.PageSize = pagination.PageSize

	filter := modmail.TicketFilter{
		GuildID:  query.GuildID,
		UserID:   query.UserID,
		Page:     query.Page,
		PageSize: query.PageSize,
	}

	if query.Status != nil {
		status, err := vo.NewTicketStatus(*query.Status)
		if err != nil {
			return nil, apperrors.NewValidationError("invalid status")
		}
		filter.Status = &status
	}

	tickets, total, err := uc.tickets.List(ctx, filter)
	if err != nil {
		uc.logger.Errorw("failed to list tickets", "error", err)
		return nil, apperrors.NewInternalError("failed to list tickets")
	}

	items := make([]TicketListItem, 0, len(tickets))
	for _, t := range tickets {
		items = append(items, toTicketListItem(t))
	}

	return &ListTicketsResult{
		Tickets:    items,
		TotalCount: total,
		Page:       query.Page,
		PageSize:   query.PageSize,
	}, nil
}

func toTicketListItem(t *modmail.Ticket) TicketListItem {
	item := TicketListItem{
		ID:          t.ID(),
		GuildID:     t.GuildID(),
		UserID:      t.UserID(),
		AppCode:     t.AppCode(),
		ThreadState: t.ThreadRef().State().String(),
		Status:      t.Status().String(),
		CreatedAt:   t.CreatedAt().UTC().Format(time.RFC3339),
		UpdatedAt:   t.UpdatedAt().UTC().Format(time.RFC3339),
	}
	if id, ok := t.ThreadRef().ID(); ok {
		item.ThreadRef = id
	}
	if closedAt := t.ClosedAt(); closedAt != nil {
		s := closedAt.UTC().Format(time.RFC3339)
		item.ClosedAt = &s
	}
	return item
}
