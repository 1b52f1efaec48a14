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

type MessageMappingRepository struct {
	db     *gorm.DB
	mapper mappers.ModmailMapper
}

func NewMessageMappingRepository(database *gorm.DB) *MessageMappingRepository {
	return &MessageMappingRepository{
		db:     database,
		mapper: mappers.NewModmailMapper(),
	}
}

// Upsert inserts the mapping, keyed uniquely by the mirrored message
// reference. A retried relay hits the conflict clause and is a no-op,
// which makes relay idempotent under redelivery.
func (r *MessageMappingRepository) Upsert(ctx context.Context, m *modmail.MessageMapping) error {
	model := r.mapper.MappingToModel(m)
	tx := db.GetTxFromContext(ctx, r.db)

	result := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "mirrored_message_ref"}},
		DoNothing: true,
	}).Create(model)

	if result.Error != nil {
		return fmt.Errorf("failed to upsert message mapping: %w", result.Error)
	}

	if m.ID() == 0 && model.ID != 0 {
		return m.SetID(model.ID)
	}

	return nil
}

func (r *MessageMappingRepository) GetByMirroredRef(ctx context.Context, ref string) (*modmail.MessageMapping, error) {
	return r.getByColumn(ctx, "mirrored_message_ref", ref)
}

func (r *MessageMappingRepository) GetBySourceRef(ctx context.Context, ref string) (*modmail.MessageMapping, error) {
	return r.getByColumn(ctx, "source_message_ref", ref)
}

func (r *MessageMappingRepository) getByColumn(ctx context.Context, column, ref string) (*modmail.MessageMapping, error) {
	var model models.MessageMappingModel
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.
		Where(column+" = ?", ref).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, modmail.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find message mapping: %w", err)
	}

	return r.mapper.MappingToDomain(&model)
}

func (r *MessageMappingRepository) ListByTicketID(ctx context.Context, ticketID uint) ([]*modmail.MessageMapping, error) {
	var mappingModels []models.MessageMappingModel
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.
		Where("ticket_id = ?", ticketID).
		Order("created_at ASC").
		Find(&mappingModels).Error; err != nil {
		return nil, fmt.Errorf("failed to list message mappings: %w", err)
	}

	mappings := make([]*modmail.MessageMapping, len(mappingModels))
	for i, model := range mappingModels {
		m, err := r.mapper.MappingToDomain(&model)
		if err != nil {
			return nil, err
		}
		mappings[i] = m
	}

	return mappings, nil
}
