package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"warden/internal/shared/logger"
)

// Generator handles creation of new migration files
type Generator struct {
	scriptsPath string
	logger      logger.Interface
}

// NewGenerator creates a new migration generator
func NewGenerator(scriptsPath string) *Generator {
	return &Generator{
		scriptsPath: scriptsPath,
		logger:      logger.NewLogger().With("component", "migration.generator"),
	}
}

// CreateMigration creates a new migration file pair (up and down)
func (g *Generator) CreateMigration(name string) error {
	g.logger.Infow("creating new migration", "name", name)

	timestamp := time.Now().Format("20060102150405")

	upFileName := fmt.Sprintf("%s_%s.up.sql", timestamp, name)
	downFileName := fmt.Sprintf("%s_%s.down.sql", timestamp, name)

	upFilePath := filepath.Join(g.scriptsPath, upFileName)
	downFilePath := filepath.Join(g.scriptsPath, downFileName)

	if err := os.MkdirAll(g.scriptsPath, 0755); err != nil {
		return fmt.Errorf("failed to create scripts directory: %w", err)
	}

	upContent := g.generateUpMigrationTemplate(name)
	if err := g.writeFile(upFilePath, upContent); err != nil {
		return fmt.Errorf("failed to create up migration file: %w", err)
	}

	downContent := g.generateDownMigrationTemplate(name)
	if err := g.writeFile(downFilePath, downContent); err != nil {
		return fmt.Errorf("failed to create down migration file: %w", err)
	}

	g.logger.Infow("migration files created successfully",
		"up_file", upFilePath,
		"down_file", downFilePath)

	return nil
}

func (g *Generator) writeFile(filePath, content string) error {
	file, err := os.Create(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = file.WriteString(content)
	return err
}

// generateUpMigrationTemplate generates a template for up migration
func (g *Generator) generateUpMigrationTemplate(name string) string {
	return fmt.Sprintf(`-- Migration: %s
-- Created: %s
-- Description: Add description here

-- Add your SQL statements here

`, name, time.Now().Format("2006-01-02 15:04:05"))
}

// generateDownMigrationTemplate generates a template for down migration
func (g *Generator) generateDownMigrationTemplate(name string) string {
	return fmt.Sprintf(`-- Rollback Migration: %s
-- Created: %s
-- Description: Add rollback description here

-- Add your rollback SQL statements here

`, name, time.Now().Format("2006-01-02 15:04:05"))
}

// CreateModmailTablesMigration creates the initial modmail schema migration
func (g *Generator) CreateModmailTablesMigration() error {
	g.logger.Infow("creating initial modmail tables migration")

	timestamp := "000001"
	name := "create_modmail_tables"

	upFileName := fmt.Sprintf("%s_%s.up.sql", timestamp, name)
	downFileName := fmt.Sprintf("%s_%s.down.sql", timestamp, name)

	upFilePath := filepath.Join(g.scriptsPath, upFileName)
	downFilePath := filepath.Join(g.scriptsPath, downFileName)

	if err := os.MkdirAll(g.scriptsPath, 0755); err != nil {
		return fmt.Errorf("failed to create scripts directory: %w", err)
	}

	if err := g.writeFile(upFilePath, g.generateModmailTablesUpMigration()); err != nil {
		return fmt.Errorf("failed to create modmail tables up migration: %w", err)
	}

	if err := g.writeFile(downFilePath, g.generateModmailTablesDownMigration()); err != nil {
		return fmt.Errorf("failed to create modmail tables down migration: %w", err)
	}

	g.logger.Infow("modmail tables migration created successfully",
		"up_file", upFilePath,
		"down_file", downFilePath)

	return nil
}

func (g *Generator) generateModmailTablesUpMigration() string {
	return `-- Migration: Create modmail tables
-- Created: Initial migration
-- Description: Tickets, message mappings, open guards and transcripts

CREATE TABLE IF NOT EXISTS modmail_tickets (
    id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
    guild_id VARCHAR(32) NOT NULL,
    user_id VARCHAR(32) NOT NULL,
    app_code VARCHAR(64) NULL,
    review_message_ref VARCHAR(32) NULL,
    thread_state VARCHAR(16) NOT NULL,
    thread_id VARCHAR(32) NULL,
    status VARCHAR(16) NOT NULL,
    created_at BIGINT NOT NULL,
    updated_at BIGINT NOT NULL,
    closed_at BIGINT NULL,
    INDEX idx_modmail_guild_user (guild_id, user_id),
    INDEX idx_modmail_tickets_thread_id (thread_id),
    INDEX idx_modmail_tickets_status (status)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;

CREATE TABLE IF NOT EXISTS modmail_message_mappings (
    id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
    ticket_id BIGINT UNSIGNED NOT NULL,
    direction VARCHAR(16) NOT NULL,
    source_message_ref VARCHAR(32) NOT NULL,
    mirrored_message_ref VARCHAR(32) NOT NULL,
    source_reply_ref VARCHAR(32) NULL,
    mirrored_reply_ref VARCHAR(32) NULL,
    content TEXT,
    created_at BIGINT NOT NULL,
    INDEX idx_mappings_ticket_id (ticket_id),
    INDEX idx_mappings_source_ref (source_message_ref),
    UNIQUE INDEX idx_mappings_mirrored_ref (mirrored_message_ref)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;

CREATE TABLE IF NOT EXISTS modmail_open_guards (
    id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
    guild_id VARCHAR(32) NOT NULL,
    user_id VARCHAR(32) NOT NULL,
    thread_state VARCHAR(16) NOT NULL,
    thread_id VARCHAR(32) NULL,
    created_at BIGINT NOT NULL,
    UNIQUE INDEX idx_open_guard_guild_user (guild_id, user_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;

CREATE TABLE IF NOT EXISTS modmail_transcripts (
    id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
    ticket_id BIGINT UNSIGNED NOT NULL,
    content TEXT NOT NULL,
    content_html TEXT,
    created_at BIGINT NOT NULL,
    UNIQUE INDEX idx_transcripts_ticket_id (ticket_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;
`
}

func (g *Generator) generateModmailTablesDownMigration() string {
	return `-- Rollback Migration: Create modmail tables
-- Created: Initial migration rollback
-- Description: Drop all modmail tables

DROP TABLE IF EXISTS modmail_transcripts;
DROP TABLE IF EXISTS modmail_open_guards;
DROP TABLE IF EXISTS modmail_message_mappings;
DROP TABLE IF EXISTS modmail_tickets;
`
}
