package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"warden/internal/domain/modmail"
	vo "warden/internal/domain/modmail/valueobjects"
	"warden/internal/infrastructure/persistence/mappers"
	"warden/internal/infrastructure/persistence/models"
	"warden/internal/shared/db"
)

type ModmailTicketRepository struct {
	db     *gorm.DB
	mapper mappers.ModmailMapper
}

func NewModmailTicketRepository(database *gorm.DB) *ModmailTicketRepository {
	return &ModmailTicketRepository{
		db:     database,
		mapper: mappers.NewModmailMapper(),
	}
}

func (r *ModmailTicketRepository) Save(ctx context.Context, t *modmail.Ticket) error {
	model := r.mapper.TicketToModel(t)
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.Create(model).Error; err != nil {
		return fmt.Errorf("failed to save ticket: %w", err)
	}

	return t.SetID(model.ID)
}

func (r *ModmailTicketRepository) Update(ctx context.Context, t *modmail.Ticket) error {
	model := r.mapper.TicketToModel(t)
	tx := db.GetTxFromContext(ctx, r.db)

	// Select forces nullable columns (thread_id, closed_at) to be written
	// even when nil, so reopen actually clears closed_at.
	result := tx.
		Model(&models.ModmailTicketModel{}).
		Where("id = ?", model.ID).
		Select("ThreadState", "ThreadID", "Status", "ClosedAt", "UpdatedAt", "AppCode", "ReviewMessageRef").
		Updates(model)

	if result.Error != nil {
		return fmt.Errorf("failed to update ticket: %w", result.Error)
	}

	return nil
}

func (r *ModmailTicketRepository) GetByID(ctx context.Context, id uint) (*modmail.Ticket, error) {
	var model models.ModmailTicketModel
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, modmail.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find ticket: %w", err)
	}

	return r.mapper.TicketToDomain(&model)
}

func (r *ModmailTicketRepository) GetByThreadRef(ctx context.Context, threadRef string) (*modmail.Ticket, error) {
	var model models.ModmailTicketModel
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.
		Where("thread_id = ?", threadRef).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, modmail.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find ticket by thread: %w", err)
	}

	return r.mapper.TicketToDomain(&model)
}

func (r *ModmailTicketRepository) GetOpenByUser(ctx context.Context, guildID, userID string) (*modmail.Ticket, error) {
	var model models.ModmailTicketModel
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.
		Where("guild_id = ? AND user_id = ? AND status = ?", guildID, userID, vo.StatusOpen.String()).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, modmail.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find open ticket: %w", err)
	}

	return r.mapper.TicketToDomain(&model)
}

func (r *ModmailTicketRepository) GetLatestClosedByUser(ctx context.Context, guildID, userID string) (*modmail.Ticket, error) {
	var model models.ModmailTicketModel
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.
		Where("guild_id = ? AND user_id = ? AND status = ?", guildID, userID, vo.StatusClosed.String()).
		Order("closed_at DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, modmail.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find closed ticket: %w", err)
	}

	return r.mapper.TicketToDomain(&model)
}

func (r *ModmailTicketRepository) ListOpenThreadRefs(ctx context.Context) ([]string, error) {
	var refs []string
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.
		Model(&models.ModmailTicketModel{}).
		Where("status = ? AND thread_state = ? AND thread_id IS NOT NULL",
			vo.StatusOpen.String(), string(vo.ThreadActive)).
		Pluck("thread_id", &refs).Error; err != nil {
		return nil, fmt.Errorf("failed to list open thread refs: %w", err)
	}

	return refs, nil
}

func (r *ModmailTicketRepository) ListStalePending(ctx context.Context, cutoff time.Time) ([]*modmail.Ticket, error) {
	var ticketModels []models.ModmailTicketModel
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.
		Where("status = ? AND thread_state = ? AND created_at < ?",
			vo.StatusOpen.String(), string(vo.ThreadPending), cutoff.UnixMilli()).
		Find(&ticketModels).Error; err != nil {
		return nil, fmt.Errorf("failed to list stale pending tickets: %w", err)
	}

	tickets := make([]*modmail.Ticket, len(ticketModels))
	for i, model := range ticketModels {
		t, err := r.mapper.TicketToDomain(&model)
		if err != nil {
			return nil, err
		}
		tickets[i] = t
	}

	return tickets, nil
}

func (r *ModmailTicketRepository) List(ctx context.Context, filter modmail.TicketFilter) ([]*modmail.Ticket, int64, error) {
	tx := db.GetTxFromContext(ctx, r.db)
	query := tx.Model(&models.ModmailTicketModel{})

	if filter.GuildID != "" {
		query = query.Where("guild_id = ?", filter.GuildID)
	}
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", filter.Status.String())
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count tickets: %w", err)
	}

	query = query.Order("created_at DESC")
	if filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		if offset < 0 {
			offset = 0
		}
		query = query.Limit(filter.PageSize).Offset(offset)
	}

	var ticketModels []models.ModmailTicketModel
	if err := query.Find(&ticketModels).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list tickets: %w", err)
	}

	tickets := make([]*modmail.Ticket, len(ticketModels))
	for i, model := range ticketModels {
		t, err := r.mapper.TicketToDomain(&model)
		if err != nil {
			return nil, 0, err
		}
		tickets[i] = t
	}

	return tickets, total, nil
}
