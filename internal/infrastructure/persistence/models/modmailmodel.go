package models

type ModmailTicketModel struct {
	ID               uint    `gorm:"primaryKey"`
	GuildID          string  `gorm:"size:32;not null;index:idx_modmail_guild_user"`
	UserID           string  `gorm:"size:32;not null;index:idx_modmail_guild_user"`
	AppCode          *string `gorm:"size:64"`
	ReviewMessageRef *string `gorm:"size:32"`
	ThreadState      string  `gorm:"size:16;not null"`
	ThreadID         *string `gorm:"size:32;index"`
	Status           string  `gorm:"size:16;not null;index"`
	CreatedAt        int64   `gorm:"autoCreateTime:milli;not null"`
	UpdatedAt        int64   `gorm:"autoUpdateTime:milli;not null"`
	ClosedAt         *int64

	// Note: no foreign key constraints or associations. Relationships are
	// managed by application business logic.
}

func (ModmailTicketModel) TableName() string {
	return "modmail_tickets"
}

type MessageMappingModel struct {
	ID                 uint    `gorm:"primaryKey"`
	TicketID           uint    `gorm:"not null;index"`
	Direction          string  `gorm:"size:16;not null"`
	SourceMessageRef   string  `gorm:"size:32;not null;index"`
	MirroredMessageRef string  `gorm:"size:32;not null;uniqueIndex"`
	SourceReplyRef     *string `gorm:"size:32"`
	MirroredReplyRef   *string `gorm:"size:32"`
	Content            string  `gorm:"type:text"`
	CreatedAt          int64   `gorm:"autoCreateTime:milli;not null"`
}

func (MessageMappingModel) TableName() string {
	return "modmail_message_mappings"
}

// OpenGuardModel enforces "one open ticket per user" at the database
// layer: concurrent opens race on the unique (guild_id, user_id) index.
type OpenGuardModel struct {
	ID          uint    `gorm:"primaryKey"`
	GuildID     string  `gorm:"size:32;not null;uniqueIndex:idx_open_guard_guild_user"`
	UserID      string  `gorm:"size:32;not null;uniqueIndex:idx_open_guard_guild_user"`
	ThreadState string  `gorm:"size:16;not null"`
	ThreadID    *string `gorm:"size:32"`
	CreatedAt   int64   `gorm:"autoCreateTime:milli;not null"`
}

func (OpenGuardModel) TableName() string {
	return "modmail_open_guards"
}

type TranscriptModel struct {
	ID          uint   `gorm:"primaryKey"`
	TicketID    uint   `gorm:"not null;uniqueIndex"`
	Content     string `gorm:"type:text;not null"`
	ContentHTML string `gorm:"type:text"`
	CreatedAt   int64  `gorm:"autoCreateTime:milli;not null"`
}

func (TranscriptModel) TableName() string {
	return "modmail_transcripts"
}
