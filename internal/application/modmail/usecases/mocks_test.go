package usecases

import (
	"context"
	"sync"
	"time"

	"warden/internal/domain/modmail"
	vo "warden/internal/domain/modmail/valueobjects"
	"warden/internal/shared/logger"
)

type mockTicketRepository struct {
	SaveFunc                  func(ctx context.Context, t *modmail.Ticket) error
	UpdateFunc                func(ctx context.Context, t *modmail.Ticket) error
	GetByIDFunc               func(ctx context.Context, id uint) (*modmail.Ticket, error)
	GetByThreadRefFunc        func(ctx context.Context, threadRef string) (*modmail.Ticket, error)
	GetOpenByUserFunc         func(ctx context.Context, guildID, userID string) (*modmail.Ticket, error)
	GetLatestClosedByUserFunc func(ctx context.Context, guildID, userID string) (*modmail.Ticket, error)
	ListOpenThreadRefsFunc    func(ctx context.Context) ([]string, error)
	ListStalePendingFunc      func(ctx context.Context, cutoff time.Time) ([]*modmail.Ticket, error)
	ListFunc                  func(ctx context.Context, filter modmail.TicketFilter) ([]*modmail.Ticket, int64, error)
}

func (m *mockTicketRepository) Save(ctx context.Context, t *modmail.Ticket) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, t)
	}
	return nil
}

func (m *mockTicketRepository) Update(ctx context.Context, t *modmail.Ticket) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, t)
	}
	return nil
}

func (m *mockTicketRepository) GetByID(ctx context.Context, id uint) (*modmail.Ticket, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, modmail.ErrNotFound
}

func (m *mockTicketRepository) GetByThreadRef(ctx context.Context, threadRef string) (*modmail.Ticket, error) {
	if m.GetByThreadRefFunc != nil {
		return m.GetByThreadRefFunc(ctx, threadRef)
	}
	return nil, modmail.ErrNotFound
}

func (m *mockTicketRepository) GetOpenByUser(ctx context.Context, guildID, userID string) (*modmail.Ticket, error) {
	if m.GetOpenByUserFunc != nil {
		return m.GetOpenByUserFunc(ctx, guildID, userID)
	}
	return nil, modmail.ErrNotFound
}

func (m *mockTicketRepository) GetLatestClosedByUser(ctx context.Context, guildID, userID string) (*modmail.Ticket, error) {
	if m.GetLatestClosedByUserFunc != nil {
		return m.GetLatestClosedByUserFunc(ctx, guildID, userID)
	}
	return nil, modmail.ErrNotFound
}

func (m *mockTicketRepository) ListOpenThreadRefs(ctx context.Context) ([]string, error) {
	if m.ListOpenThreadRefsFunc != nil {
		return m.ListOpenThreadRefsFunc(ctx)
	}
	return nil, nil
}

func (m *mockTicketRepository) ListStalePending(ctx context.Context, cutoff time.Time) ([]*modmail.Ticket, error) {
	if m.ListStalePendingFunc != nil {
		return m.ListStalePendingFunc(ctx, cutoff)
	}
	return nil, nil
}

func (m *mockTicketRepository) List(ctx context.Context, filter modmail.TicketFilter) ([]*modmail.Ticket, int64, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	return nil, 0, nil
}

type mockOpenGuardRepository struct {
	InsertFunc          func(ctx context.Context, g *modmail.OpenGuard) error
	GetFunc             func(ctx context.Context, guildID, userID string) (*modmail.OpenGuard, error)
	UpdateThreadRefFunc func(ctx context.Context, guildID, userID string, threadRef vo.ThreadRef) error
	DeleteFunc          func(ctx context.Context, guildID, userID string) error
}

func (m *mockOpenGuardRepository) Insert(ctx context.Context, g *modmail.OpenGuard) error {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, g)
	}
	return nil
}

func (m *mockOpenGuardRepository) Get(ctx context.Context, guildID, userID string) (*modmail.OpenGuard, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, guildID, userID)
	}
	return nil, modmail.ErrNotFound
}

func (m *mockOpenGuardRepository) UpdateThreadRef(ctx context.Context, guildID, userID string, threadRef vo.ThreadRef) error {
	if m.UpdateThreadRefFunc != nil {
		return m.UpdateThreadRefFunc(ctx, guildID, userID, threadRef)
	}
	return nil
}

func (m *mockOpenGuardRepository) Delete(ctx context.Context, guildID, userID string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, guildID, userID)
	}
	return nil
}

type mockMessageMappingRepository struct {
	UpsertFunc           func(ctx context.Context, m *modmail.MessageMapping) error
	GetByMirroredRefFunc func(ctx context.Context, ref string) (*modmail.MessageMapping, error)
	GetBySourceRefFunc   func(ctx context.Context, ref string) (*modmail.MessageMapping, error)
	ListByTicketIDFunc   func(ctx context.Context, ticketID uint) ([]*modmail.MessageMapping, error)
}

func (m *mockMessageMappingRepository) Upsert(ctx context.Context, mapping *modmail.MessageMapping) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, mapping)
	}
	return nil
}

func (m *mockMessageMappingRepository) GetByMirroredRef(ctx context.Context, ref string) (*modmail.MessageMapping, error) {
	if m.GetByMirroredRefFunc != nil {
		return m.GetByMirroredRefFunc(ctx, ref)
	}
	return nil, modmail.ErrNotFound
}

func (m *mockMessageMappingRepository) GetBySourceRef(ctx context.Context, ref string) (*modmail.MessageMapping, error) {
	if m.GetBySourceRefFunc != nil {
		return m.GetBySourceRefFunc(ctx, ref)
	}
	return nil, modmail.ErrNotFound
}

func (m *mockMessageMappingRepository) ListByTicketID(ctx context.Context, ticketID uint) ([]*modmail.MessageMapping, error) {
	if m.ListByTicketIDFunc != nil {
		return m.ListByTicketIDFunc(ctx, ticketID)
	}
	return nil, nil
}

type mockTransport struct {
	BotUserIDFunc              func() string
	SendDirectFunc             func(ctx context.Context, userID string, payload OutboundPayload) (string, error)
	SendToThreadFunc           func(ctx context.Context, threadRef string, payload OutboundPayload) (string, error)
	CreateThreadFunc           func(ctx context.Context, channelRef string, params ThreadParams) (string, error)
	SetThreadArchivedFunc      func(ctx context.Context, threadRef string, archived bool) error
	SetThreadLockedFunc        func(ctx context.Context, threadRef string, locked bool) error
	FetchUserFunc              func(ctx context.Context, userID string) (*UserProfile, error)
	FetchChannelFunc           func(ctx context.Context, channelRef string) (*ChannelInfo, error)
	MissingCapabilitiesForFunc func(ctx context.Context, channelRef string) ([]string, error)
	EnsureThreadAccessFunc     func(ctx context.Context, threadRef, roleID string) error
}

func (m *mockTransport) BotUserID() string {
	if m.BotUserIDFunc != nil {
		return m.BotUserIDFunc()
	}
	return "bot-self"
}

func (m *mockTransport) SendDirect(ctx context.Context, userID string, payload OutboundPayload) (string, error) {
	if m.SendDirectFunc != nil {
		return m.SendDirectFunc(ctx, userID, payload)
	}
	return "dm-msg-1", nil
}

func (m *mockTransport) SendToThread(ctx context.Context, threadRef string, payload OutboundPayload) (string, error) {
	if m.SendToThreadFunc != nil {
		return m.SendToThreadFunc(ctx, threadRef, payload)
	}
	return "thread-msg-1", nil
}

func (m *mockTransport) CreateThread(ctx context.Context, channelRef string, params ThreadParams) (string, error) {
	if m.CreateThreadFunc != nil {
		return m.CreateThreadFunc(ctx, channelRef, params)
	}
	return "thread-1", nil
}

func (m *mockTransport) SetThreadArchived(ctx context.Context, threadRef string, archived bool) error {
	if m.SetThreadArchivedFunc != nil {
		return m.SetThreadArchivedFunc(ctx, threadRef, archived)
	}
	return nil
}

func (m *mockTransport) SetThreadLocked(ctx context.Context, threadRef string, locked bool) error {
	if m.SetThreadLockedFunc != nil {
		return m.SetThreadLockedFunc(ctx, threadRef, locked)
	}
	return nil
}

func (m *mockTransport) FetchUser(ctx context.Context, userID string) (*UserProfile, error) {
	if m.FetchUserFunc != nil {
		return m.FetchUserFunc(ctx, userID)
	}
	return &UserProfile{ID: userID, DisplayName: "applicant"}, nil
}

func (m *mockTransport) FetchChannel(ctx context.Context, channelRef string) (*ChannelInfo, error) {
	if m.FetchChannelFunc != nil {
		return m.FetchChannelFunc(ctx, channelRef)
	}
	return &ChannelInfo{Ref: channelRef, Kind: "guild_text", SupportsThreads: true}, nil
}

func (m *mockTransport) MissingCapabilitiesFor(ctx context.Context, channelRef string) ([]string, error) {
	if m.MissingCapabilitiesForFunc != nil {
		return m.MissingCapabilitiesForFunc(ctx, channelRef)
	}
	return nil, nil
}

func (m *mockTransport) EnsureThreadAccess(ctx context.Context, threadRef, roleID string) error {
	if m.EnsureThreadAccessFunc != nil {
		return m.EnsureThreadAccessFunc(ctx, threadRef, roleID)
	}
	return nil
}

type mockAuthorization struct {
	CanManageFunc  func(ctx context.Context, actorID string) (bool, error)
	IsReviewerFunc func(ctx context.Context, actorID string) (bool, error)
}

func (m *mockAuthorization) CanManage(ctx context.Context, actorID string) (bool, error) {
	if m.CanManageFunc != nil {
		return m.CanManageFunc(ctx, actorID)
	}
	return true, nil
}

func (m *mockAuthorization) IsReviewer(ctx context.Context, actorID string) (bool, error) {
	if m.IsReviewerFunc != nil {
		return m.IsReviewerFunc(ctx, actorID)
	}
	return false, nil
}

type mockAuditSink struct {
	mu     sync.Mutex
	events []string
}

func (m *mockAuditSink) Record(ctx context.Context, event string, keysAndValues ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
}

func (m *mockAuditSink) Events() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.events...)
}

type mockDedupCache struct {
	mu   sync.Mutex
	keys map[string]bool
}

func newMockDedupCache() *mockDedupCache {
	return &mockDedupCache{keys: make(map[string]bool)}
}

func (m *mockDedupCache) Contains(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.keys[key]
}

func (m *mockDedupCache) Insert(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[key] = true
}

type mockThreadIndex struct {
	mu   sync.Mutex
	refs map[string]bool
}

func newMockThreadIndex() *mockThreadIndex {
	return &mockThreadIndex{refs: make(map[string]bool)}
}

func (m *mockThreadIndex) IsOpenThread(threadRef string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refs[threadRef]
}

func (m *mockThreadIndex) Add(threadRef string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refs[threadRef] = true
}

func (m *mockThreadIndex) Remove(threadRef string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.refs, threadRef)
}

type mockFloodLimiter struct {
	AllowFunc func(key string) (bool, error)
}

func (m *mockFloodLimiter) Allow(key string) (bool, error) {
	if m.AllowFunc != nil {
		return m.AllowFunc(key)
	}
	return true, nil
}

type mockTranscriptRecorder struct {
	mu         sync.Mutex
	entries    map[uint][]TranscriptEntry
	flushed    []uint
	FlushFunc  func(ctx context.Context, ticket *modmail.Ticket) error
	discardLog []uint
}

func newMockTranscriptRecorder() *mockTranscriptRecorder {
	return &mockTranscriptRecorder{entries: make(map[uint][]TranscriptEntry)}
}

func (m *mockTranscriptRecorder) Append(ticketID uint, entry TranscriptEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[ticketID] = append(m.entries[ticketID], entry)
}

func (m *mockTranscriptRecorder) Flush(ctx context.Context, ticket *modmail.Ticket) error {
	m.mu.Lock()
	m.flushed = append(m.flushed, ticket.ID())
	m.mu.Unlock()
	if m.FlushFunc != nil {
		return m.FlushFunc(ctx, ticket)
	}
	return nil
}

func (m *mockTranscriptRecorder) Discard(ticketID uint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.discardLog = append(m.discardLog, ticketID)
}

func (m *mockTranscriptRecorder) FlushCount(ticketID uint) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, id := range m.flushed {
		if id == ticketID {
			count++
		}
	}
	return count
}

// passthroughTxManager runs the function directly without a database.
type passthroughTxManager struct{}

func (passthroughTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newTestLogger() logger.Interface {
	return &noopLogger{}
}

type noopLogger struct{}

func (noopLogger) Debugw(msg string, keysAndValues ...any) {}
func (noopLogger) Infow(msg string, keysAndValues ...any)  {}
func (noopLogger) Warnw(msg string, keysAndValues ...any)  {}
func (noopLogger) Errorw(msg string, keysAndValues ...any) {}
func (n *noopLogger) With(args ...any) logger.Interface    { return n }
func (n *noopLogger) Named(name string) logger.Interface   { return n }
