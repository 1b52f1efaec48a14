package usecases

import (
	"context"
	"time"

	"warden/internal/domain/modmail"
)

// Transport is the chat-platform client consumed by the modmail use
// cases. All calls have bounded timeouts enforced by the implementation.
type Transport interface {
	// BotUserID identifies the bot's own account so the relay can drop
	// its own echoes.
	BotUserID() string

	SendDirect(ctx context.Context, userID string, payload OutboundPayload) (messageRef string, err error)
	SendToThread(ctx context.Context, threadRef string, payload OutboundPayload) (messageRef string, err error)
	CreateThread(ctx context.Context, channelRef string, params ThreadParams) (threadRef string, err error)
	SetThreadArchived(ctx context.Context, threadRef string, archived bool) error
	SetThreadLocked(ctx context.Context, threadRef string, locked bool) error
	FetchUser(ctx context.Context, userID string) (*UserProfile, error)
	FetchChannel(ctx context.Context, channelRef string) (*ChannelInfo, error)
	// MissingCapabilitiesFor lists the channel capabilities the bot lacks
	// on the target channel; empty means the bot can operate there.
	MissingCapabilitiesFor(ctx context.Context, channelRef string) ([]string, error)
	// EnsureThreadAccess grants the staff role visibility on the thread.
	EnsureThreadAccess(ctx context.Context, threadRef, roleID string) error
}

type OutboundPayload struct {
	Content    string
	AuthorName string
	AuthorIcon string
	ImageURL   string
	// ReplyToRef makes the outbound message a reply to an existing message
	// in the destination channel, preserving conversational threading.
	ReplyToRef string
}

type ThreadParams struct {
	Name      string
	Invitable bool
}

type UserProfile struct {
	ID          string
	DisplayName string
	AvatarURL   string
	IsBot       bool
}

type ChannelInfo struct {
	Ref             string
	Kind            string
	IsDM            bool
	SupportsThreads bool
}

// Authorization resolves staff capabilities for lifecycle actions.
type Authorization interface {
	CanManage(ctx context.Context, actorID string) (bool, error)
	IsReviewer(ctx context.Context, actorID string) (bool, error)
}

// AuditSink receives fire-and-forget structured lifecycle/relay events.
type AuditSink interface {
	Record(ctx context.Context, event string, keysAndValues ...any)
}

// DedupCache suppresses routing echo loops and redelivered events.
type DedupCache interface {
	Contains(key string) bool
	Insert(key string)
}

// ThreadIndex mirrors which threads are live modmail threads.
type ThreadIndex interface {
	IsOpenThread(threadRef string) bool
	Add(threadRef string)
	Remove(threadRef string)
}

// FloodLimiter rate-limits applicant DMs. A nil limiter disables limiting.
type FloodLimiter interface {
	Allow(key string) (bool, error)
}

// TxManager runs a function inside one atomic store transaction.
type TxManager interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// TranscriptRecorder buffers relayed messages per ticket and flushes them
// into a durable transcript when the ticket closes.
type TranscriptRecorder interface {
	Append(ticketID uint, entry TranscriptEntry)
	Flush(ctx context.Context, ticket *modmail.Ticket) error
	Discard(ticketID uint)
}

type TranscriptEntry struct {
	AuthorName string
	Content    string
	Direction  string
	Timestamp  time.Time
}

// Settings carries the modmail tunables shared across use cases.
type Settings struct {
	GraceWindow      time.Duration
	ParentChannelRef string
	StaffRoleID      string
	CommunityName    string
	CommunityIcon    string
}

type OpenThreadExecutor interface {
	Execute(ctx context.Context, cmd OpenThreadCommand) (*OpenThreadResult, error)
}

type CloseThreadExecutor interface {
	Execute(ctx context.Context, cmd CloseThreadCommand) (*CloseThreadResult, error)
}

type ReopenThreadExecutor interface {
	Execute(ctx context.Context, cmd ReopenThreadCommand) (*ReopenThreadResult, error)
}

type RelayMessageExecutor interface {
	Execute(ctx context.Context, cmd RelayMessageCommand) *RelayMessageResult
}
