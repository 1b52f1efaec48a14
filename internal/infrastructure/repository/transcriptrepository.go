package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"warden/internal/domain/modmail"
	"warden/internal/infrastructure/persistence/mappers"
	"warden/internal/infrastructure/persistence/models"
	"warden/internal/shared/db"
)

type TranscriptRepository struct {
	db     *gorm.DB
	mapper mappers.ModmailMapper
}

func NewTranscriptRepository(database *gorm.DB) *TranscriptRepository {
	return &TranscriptRepository{
		db:     database,
		mapper: mappers.NewModmailMapper(),
	}
}

// Save persists the transcript. One row per ticket; a second flush for
// the same ticket (close after reopen) replaces the stored content.
func (r *TranscriptRepository) Save(ctx context.Context, t *modmail.Transcript) error {
	model := r.mapper.TranscriptToModel(t)
	tx := db.GetTxFromContext(ctx, r.db)

	result := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "ticket_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"content", "content_html"}),
	}).Create(model)

	if result.Error != nil {
		return fmt.Errorf("failed to save transcript: %w", result.Error)
	}

	if t.ID() == 0 && model.ID != 0 {
		return t.SetID(model.ID)
	}

	return nil
}

func (r *TranscriptRepository) GetByTicketID(ctx context.Context, ticketID uint) (*modmail.Transcript, error) {
	var model models.TranscriptModel
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.
		Where("ticket_id = ?", ticketID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, modmail.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find transcript: %w", err)
	}

	return r.mapper.TranscriptToDomain(&model)
}
