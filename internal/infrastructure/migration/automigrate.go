package migration

import (
	"fmt"

	"gorm.io/gorm"

	"warden/internal/infrastructure/persistence/models"
	"warden/internal/shared/logger"
)

// AutoMigrateModels returns the persistence models managed by AutoMigrate.
func AutoMigrateModels() []interface{} {
	return []interface{}{
		&models.ModmailTicketModel{},
		&models.MessageMappingModel{},
		&models.OpenGuardModel{},
		&models.TranscriptModel{},
	}
}

// GormAutoMigrateStrategy implements migration using GORM AutoMigrate
type GormAutoMigrateStrategy struct {
	logger logger.Interface
}

// NewGormAutoMigrateStrategy creates a new GORM AutoMigrate strategy
func NewGormAutoMigrateStrategy() Strategy {
	return &GormAutoMigrateStrategy{
		logger: logger.NewLogger().With("component", "migration.auto-migrate"),
	}
}

// Migrate runs GORM AutoMigrate for the given models. When no models are
// passed, the full modmail model set is migrated.
func (s *GormAutoMigrateStrategy) Migrate(db *gorm.DB, models ...interface{}) error {
	if len(models) == 0 {
		models = AutoMigrateModels()
	}

	s.logger.Infow("starting auto migration", "models_count", len(models))

	if err := db.AutoMigrate(models...); err != nil {
		s.logger.Errorw("auto migration failed", "error", err)
		return fmt.Errorf("failed to auto migrate: %w", err)
	}

	s.logger.Infow("auto migration completed successfully")
	return nil
}

// GetName returns the strategy name
func (s *GormAutoMigrateStrategy) GetName() string {
	return "gorm_auto_migrate"
}
