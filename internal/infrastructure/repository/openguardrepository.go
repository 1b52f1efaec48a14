package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"warden/internal/domain/modmail"
	vo "warden/internal/domain/modmail/valueobjects"
	"warden/internal/infrastructure/persistence/mappers"
	"warden/internal/infrastructure/persistence/models"
	"warden/internal/shared/db"
)

type OpenGuardRepository struct {
	db     *gorm.DB
	mapper mappers.ModmailMapper
}

func NewOpenGuardRepository(database *gorm.DB) *OpenGuardRepository {
	return &OpenGuardRepository{
		db:     database,
		mapper: mappers.NewModmailMapper(),
	}
}

// Insert creates the guard row. Two concurrent opens for the same user
// race here at the database layer; the loser gets the unique-constraint
// violation mapped to ErrDuplicateOpenTicket.
func (r *OpenGuardRepository) Insert(ctx context.Context, g *modmail.OpenGuard) error {
	model := r.mapper.GuardToModel(g)
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.Create(model).Error; err != nil {
		if isDuplicateKeyError(err) {
			return modmail.ErrDuplicateOpenTicket
		}
		return fmt.Errorf("failed to insert open guard: %w", err)
	}

	return nil
}

func (r *OpenGuardRepository) Get(ctx context.Context, guildID, userID string) (*modmail.OpenGuard, error) {
	var model models.OpenGuardModel
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.
		Where("guild_id = ? AND user_id = ?", guildID, userID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, modmail.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find open guard: %w", err)
	}

	return r.mapper.GuardToDomain(&model)
}

func (r *OpenGuardRepository) UpdateThreadRef(ctx context.Context, guildID, userID string, threadRef vo.ThreadRef) error {
	tx := db.GetTxFromContext(ctx, r.db)

	updates := map[string]any{
		"thread_state": string(threadRef.State()),
		"thread_id":    nil,
	}
	if id, ok := threadRef.ID(); ok {
		updates["thread_id"] = id
	}

	result := tx.
		Model(&models.OpenGuardModel{}).
		Where("guild_id = ? AND user_id = ?", guildID, userID).
		Updates(updates)

	if result.Error != nil {
		return fmt.Errorf("failed to update open guard: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return modmail.ErrNotFound
	}

	return nil
}

func (r *OpenGuardRepository) Delete(ctx context.Context, guildID, userID string) error {
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.
		Where("guild_id = ? AND user_id = ?", guildID, userID).
		Delete(&models.OpenGuardModel{}).Error; err != nil {
		return fmt.Errorf("failed to delete open guard: %w", err)
	}

	return nil
}

// isDuplicateKeyError matches unique-constraint violations across drivers.
// TranslateError covers mysql and sqlite through gorm; the string checks
// are a fallback for drivers that bypass translation.
func isDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "violates unique constraint")
}
