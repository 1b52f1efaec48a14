package bot

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warden/internal/application/modmail/usecases"
	"warden/internal/domain/modmail"
	vo "warden/internal/domain/modmail/valueobjects"
	"warden/internal/shared/logger"
)

type mockTicketRepository struct {
	GetOpenByUserFunc  func(ctx context.Context, guildID, userID string) (*modmail.Ticket, error)
	GetByThreadRefFunc func(ctx context.Context, threadRef string) (*modmail.Ticket, error)

	openByUserCalls  int
	byThreadRefCalls int
}

func (m *mockTicketRepository) Save(ctx context.Context, t *modmail.Ticket) error   { return nil }
func (m *mockTicketRepository) Update(ctx context.Context, t *modmail.Ticket) error { return nil }
func (m *mockTicketRepository) GetByID(ctx context.Context, id uint) (*modmail.Ticket, error) {
	return nil, modmail.ErrNotFound
}

func (m *mockTicketRepository) GetByThreadRef(ctx context.Context, threadRef string) (*modmail.Ticket, error) {
	m.byThreadRefCalls++
	if m.GetByThreadRefFunc != nil {
		return m.GetByThreadRefFunc(ctx, threadRef)
	}
	return nil, modmail.ErrNotFound
}

func (m *mockTicketRepository) GetOpenByUser(ctx context.Context, guildID, userID string) (*modmail.Ticket, error) {
	m.openByUserCalls++
	if m.GetOpenByUserFunc != nil {
		return m.GetOpenByUserFunc(ctx, guildID, userID)
	}
	return nil, modmail.ErrNotFound
}

func (m *mockTicketRepository) GetLatestClosedByUser(ctx context.Context, guildID, userID string) (*modmail.Ticket, error) {
	return nil, modmail.ErrNotFound
}

func (m *mockTicketRepository) ListOpenThreadRefs(ctx context.Context) ([]string, error) {
	return nil, nil
}

func (m *mockTicketRepository) ListStalePending(ctx context.Context, cutoff time.Time) ([]*modmail.Ticket, error) {
	return nil, nil
}

func (m *mockTicketRepository) List(ctx context.Context, filter modmail.TicketFilter) ([]*modmail.Ticket, int64, error) {
	return nil, 0, nil
}

type mockThreadIndex struct {
	open    map[string]bool
	removed []string
}

func newMockThreadIndex(refs ...string) *mockThreadIndex {
	open := make(map[string]bool, len(refs))
	for _, ref := range refs {
		open[ref] = true
	}
	return &mockThreadIndex{open: open}
}

func (m *mockThreadIndex) IsOpenThread(threadRef string) bool { return m.open[threadRef] }
func (m *mockThreadIndex) Add(threadRef string)               { m.open[threadRef] = true }
func (m *mockThreadIndex) Remove(threadRef string) {
	delete(m.open, threadRef)
	m.removed = append(m.removed, threadRef)
}

type stubRelay struct {
	commands []usecases.RelayMessageCommand
	result   *usecases.RelayMessageResult
}

func (s *stubRelay) Execute(ctx context.Context, cmd usecases.RelayMessageCommand) *usecases.RelayMessageResult {
	s.commands = append(s.commands, cmd)
	if s.result != nil {
		return s.result
	}
	return &usecases.RelayMessageResult{Forwarded: true, MirroredRef: "mirrored-1"}
}

func openTicket(t *testing.T, id uint, userID, threadRef string) *modmail.Ticket {
	t.Helper()
	ref, err := vo.ActiveThreadRef(threadRef)
	require.NoError(t, err)
	ticket, err := modmail.ReconstructTicket(
		id, "guild-1", userID, nil, nil,
		ref, vo.StatusOpen,
		time.Now().Add(-time.Hour), time.Now(), nil,
	)
	require.NoError(t, err)
	return ticket
}

func newDispatcher(repo *mockTicketRepository, index *mockThreadIndex, relay *stubRelay) *Dispatcher {
	return NewDispatcher(repo, index, relay, "guild-1", logger.NewLogger())
}

func TestDispatcher_DirectMessageRelaysToStaff(t *testing.T) {
	ticket := openTicket(t, 7, "user-1", "thread-7")
	repo := &mockTicketRepository{
		GetOpenByUserFunc: func(ctx context.Context, guildID, userID string) (*modmail.Ticket, error) {
			assert.Equal(t, "guild-1", guildID)
			assert.Equal(t, "user-1", userID)
			return ticket, nil
		},
	}
	relay := &stubRelay{}

	d := newDispatcher(repo, newMockThreadIndex(), relay)
	d.HandleDirectMessage(context.Background(), usecases.InboundMessage{
		Ref:        "dm-1",
		AuthorID:   "user-1",
		AuthorName: "applicant",
		ChannelRef: "dm-channel-1",
		Content:    "hello",
	})

	require.Len(t, relay.commands, 1)
	assert.Equal(t, vo.DirectionToStaff, relay.commands[0].Direction)
	assert.Same(t, ticket, relay.commands[0].Ticket)
	assert.Equal(t, "dm-1", relay.commands[0].Message.Ref)
}

func TestDispatcher_DirectMessageWithoutTicketIgnored(t *testing.T) {
	repo := &mockTicketRepository{}
	relay := &stubRelay{}

	d := newDispatcher(repo, newMockThreadIndex(), relay)
	d.HandleDirectMessage(context.Background(), usecases.InboundMessage{
		Ref:      "dm-1",
		AuthorID: "user-unknown",
		Content:  "hello?",
	})

	assert.Empty(t, relay.commands)
}

func TestDispatcher_DirectMessageFromBotIgnored(t *testing.T) {
	repo := &mockTicketRepository{}
	relay := &stubRelay{}

	d := newDispatcher(repo, newMockThreadIndex(), relay)
	d.HandleDirectMessage(context.Background(), usecases.InboundMessage{
		Ref:         "dm-1",
		AuthorID:    "bot-user",
		AuthorIsBot: true,
		Content:     "automated notice",
	})

	assert.Zero(t, repo.openByUserCalls)
	assert.Empty(t, relay.commands)
}

func TestDispatcher_DirectMessageLookupErrorDropped(t *testing.T) {
	repo := &mockTicketRepository{
		GetOpenByUserFunc: func(ctx context.Context, guildID, userID string) (*modmail.Ticket, error) {
			return nil, fmt.Errorf("connection refused")
		},
	}
	relay := &stubRelay{}

	d := newDispatcher(repo, newMockThreadIndex(), relay)
	d.HandleDirectMessage(context.Background(), usecases.InboundMessage{
		Ref:      "dm-1",
		AuthorID: "user-1",
		Content:  "hello",
	})

	assert.Empty(t, relay.commands)
}

func TestDispatcher_ThreadMessageRelaysToUser(t *testing.T) {
	ticket := openTicket(t, 7, "user-1", "thread-7")
	repo := &mockTicketRepository{
		GetByThreadRefFunc: func(ctx context.Context, threadRef string) (*modmail.Ticket, error) {
			assert.Equal(t, "thread-7", threadRef)
			return ticket, nil
		},
	}
	relay := &stubRelay{}

	d := newDispatcher(repo, newMockThreadIndex("thread-7"), relay)
	d.HandleThreadMessage(context.Background(), usecases.InboundMessage{
		Ref:        "thread-msg-1",
		AuthorID:   "staff-1",
		AuthorName: "moderator",
		ChannelRef: "thread-7",
		Content:    "hi there",
	})

	require.Len(t, relay.commands, 1)
	assert.Equal(t, vo.DirectionToUser, relay.commands[0].Direction)
	assert.Same(t, ticket, relay.commands[0].Ticket)
}

func TestDispatcher_ThreadMessageInUnknownChannelIgnored(t *testing.T) {
	repo := &mockTicketRepository{}
	relay := &stubRelay{}

	d := newDispatcher(repo, newMockThreadIndex("thread-7"), relay)
	d.HandleThreadMessage(context.Background(), usecases.InboundMessage{
		Ref:        "thread-msg-1",
		AuthorID:   "staff-1",
		ChannelRef: "general-chat",
		Content:    "unrelated",
	})

	assert.Zero(t, repo.byThreadRefCalls)
	assert.Empty(t, relay.commands)
}

func TestDispatcher_StaleIndexEntryRemoved(t *testing.T) {
	repo := &mockTicketRepository{}
	relay := &stubRelay{}
	index := newMockThreadIndex("thread-9")

	d := newDispatcher(repo, index, relay)
	d.HandleThreadMessage(context.Background(), usecases.InboundMessage{
		Ref:        "thread-msg-1",
		AuthorID:   "staff-1",
		ChannelRef: "thread-9",
		Content:    "hello?",
	})

	assert.Empty(t, relay.commands)
	assert.Equal(t, []string{"thread-9"}, index.removed)
	assert.False(t, index.IsOpenThread("thread-9"))
}
