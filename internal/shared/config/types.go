package config

import (
	"fmt"
	"time"
)

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
	// AdminToken guards the operational HTTP API. Requests are rejected
	// while it is unset.
	AdminToken string `mapstructure:"admin_token"`
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Enabled  bool   `mapstructure:"enabled"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type DiscordConfig struct {
	BotToken      string `mapstructure:"bot_token"`
	ApplicationID string `mapstructure:"application_id"`
	GuildID       string `mapstructure:"guild_id"`
	// ModmailChannelID is the parent text channel staff threads are created under.
	ModmailChannelID string `mapstructure:"modmail_channel_id"`
	// StaffRoleID is granted view access on newly created modmail threads.
	StaffRoleID string `mapstructure:"staff_role_id"`
	// CommunityName and CommunityIconURL are shown in place of individual
	// staff identity on messages relayed to applicants.
	CommunityName    string `mapstructure:"community_name"`
	CommunityIconURL string `mapstructure:"community_icon_url"`
}

type ModmailConfig struct {
	// ReopenGraceWindow is how long after closure a ticket can be reopened
	// in place instead of being replaced by a fresh one.
	ReopenGraceWindowHours int `mapstructure:"reopen_grace_window_hours"`

	DedupTTLSeconds        int `mapstructure:"dedup_ttl_seconds"`
	DedupEvictionThreshold int `mapstructure:"dedup_eviction_threshold"`
	DedupMaxSize           int `mapstructure:"dedup_max_size"`
	DedupSweepSeconds      int `mapstructure:"dedup_sweep_seconds"`

	// PendingTimeoutMinutes is how long a ticket may sit with a pending
	// thread ref before the janitor marks it failed.
	PendingTimeoutMinutes int `mapstructure:"pending_timeout_minutes"`

	// DM flood limits for the user->staff direction. Zero disables a window.
	FloodMessagesPerMinute int `mapstructure:"flood_messages_per_minute"`
	FloodMessagesPerHour   int `mapstructure:"flood_messages_per_hour"`
}

func (m *ModmailConfig) ReopenGraceWindow() time.Duration {
	return time.Duration(m.ReopenGraceWindowHours) * time.Hour
}

func (m *ModmailConfig) PendingTimeout() time.Duration {
	return time.Duration(m.PendingTimeoutMinutes) * time.Minute
}

type EmailConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	SMTPHost     string `mapstructure:"smtp_host"`
	SMTPPort     int    `mapstructure:"smtp_port"`
	SMTPUser     string `mapstructure:"smtp_user"`
	SMTPPassword string `mapstructure:"smtp_password"`
	FromAddress  string `mapstructure:"from_address"`
	FromName     string `mapstructure:"from_name"`
	// TranscriptRecipient receives closed-ticket transcripts when enabled.
	TranscriptRecipient string `mapstructure:"transcript_recipient"`
}
