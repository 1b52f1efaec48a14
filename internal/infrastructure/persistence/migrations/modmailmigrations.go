package migrations

import (
	"gorm.io/gorm"

	"warden/internal/infrastructure/persistence/models"
)

func MigrateModmailTables(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.ModmailTicketModel{},
		&models.MessageMappingModel{},
		&models.OpenGuardModel{},
		&models.TranscriptModel{},
	)
}
