package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warden/internal/domain/modmail"
	apperrors "warden/internal/shared/errors"
)

type stubOpener struct {
	ExecuteFunc func(ctx context.Context, cmd OpenThreadCommand) (*OpenThreadResult, error)
	calls       []OpenThreadCommand
}

func (s *stubOpener) Execute(ctx context.Context, cmd OpenThreadCommand) (*OpenThreadResult, error) {
	s.calls = append(s.calls, cmd)
	if s.ExecuteFunc != nil {
		return s.ExecuteFunc(ctx, cmd)
	}
	return &OpenThreadResult{TicketID: 100, ThreadRef: "thread-fresh"}, nil
}

func newReopenUseCase(
	tickets *mockTicketRepository,
	guards *mockOpenGuardRepository,
	transport *mockTransport,
	index *mockThreadIndex,
	opener *stubOpener,
	graceWindow time.Duration,
	now time.Time,
) *ReopenThreadUseCase {
	settings := testSettings()
	settings.GraceWindow = graceWindow
	uc := NewReopenThreadUseCase(tickets, guards, transport, &mockAuthorization{},
		index, &mockAuditSink{}, passthroughTxManager{}, opener, settings, newTestLogger())
	uc.now = func() time.Time { return now }
	return uc
}

func TestReopenThreadUseCase_Execute_WithinGraceWindow(t *testing.T) {
	now := time.Now()
	grace := 7 * 24 * time.Hour

	tests := []struct {
		name     string
		closedAt time.Time
		inPlace  bool
	}{
		{"closed one minute ago", now.Add(-time.Minute), true},
		{"closed just inside the window", now.Add(-(6*24 + 23) * time.Hour), true},
		{"closed exactly at the window edge", now.Add(-grace), true},
		{"closed just past the window", now.Add(-(7*24 + 1) * time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ticket := closedTicket(t, 5, "thread-5", tt.closedAt)
			var updated *modmail.Ticket
			tickets := &mockTicketRepository{
				GetLatestClosedByUserFunc: func(ctx context.Context, guildID, userID string) (*modmail.Ticket, error) {
					return ticket, nil
				},
				UpdateFunc: func(ctx context.Context, tk *modmail.Ticket) error {
					updated = tk
					return nil
				},
			}
			guardInserted := false
			guards := &mockOpenGuardRepository{
				InsertFunc: func(ctx context.Context, g *modmail.OpenGuard) error {
					guardInserted = true
					assert.True(t, g.ThreadRef().IsActive())
					return nil
				},
			}
			unarchived := false
			transport := &mockTransport{
				SetThreadArchivedFunc: func(ctx context.Context, threadRef string, archived bool) error {
					unarchived = !archived
					return nil
				},
			}
			index := newMockThreadIndex()
			opener := &stubOpener{}

			uc := newReopenUseCase(tickets, guards, transport, index, opener, grace, now)

			result, err := uc.Execute(context.Background(), ReopenThreadCommand{
				GuildID: "guild-1", UserID: "user-1", ReopenerID: "staff-1",
			})

			require.NoError(t, err)
			if tt.inPlace {
				assert.True(t, result.Reopened)
				assert.False(t, result.NewTicket)
				assert.Equal(t, uint(5), result.TicketID)
				assert.Equal(t, "thread-5", result.ThreadRef)
				require.NotNil(t, updated)
				assert.True(t, updated.Status().IsOpen())
				assert.Nil(t, updated.ClosedAt())
				assert.True(t, guardInserted)
				assert.True(t, index.IsOpenThread("thread-5"))
				assert.True(t, unarchived)
				assert.Empty(t, opener.calls)
			} else {
				assert.True(t, result.NewTicket)
				assert.False(t, result.Reopened)
				assert.Equal(t, uint(100), result.TicketID)
				assert.Equal(t, "thread-fresh", result.ThreadRef)
				assert.Len(t, opener.calls, 1)
			}
		})
	}
}

func TestReopenThreadUseCase_Execute_NotifiesApplicant(t *testing.T) {
	now := time.Now()
	ticket := closedTicket(t, 5, "thread-5", now.Add(-24*time.Hour))
	tickets := &mockTicketRepository{
		GetLatestClosedByUserFunc: func(ctx context.Context, guildID, userID string) (*modmail.Ticket, error) {
			return ticket, nil
		},
	}
	var notices []OutboundPayload
	var noticeRecipient string
	transport := &mockTransport{
		SendDirectFunc: func(ctx context.Context, userID string, payload OutboundPayload) (string, error) {
			noticeRecipient = userID
			notices = append(notices, payload)
			return "dm-msg-1", nil
		},
	}

	uc := newReopenUseCase(tickets, &mockOpenGuardRepository{}, transport,
		newMockThreadIndex(), &stubOpener{}, 7*24*time.Hour, now)

	result, err := uc.Execute(context.Background(), ReopenThreadCommand{
		GuildID: "guild-1", UserID: "user-1", ReopenerID: "staff-1",
	})

	require.NoError(t, err)
	assert.True(t, result.Reopened)
	require.Len(t, notices, 1)
	assert.Equal(t, "user-1", noticeRecipient)
	assert.Contains(t, notices[0].Content, "reopened")
}

func TestReopenThreadUseCase_Execute_NoticeFailureDoesNotFailReopen(t *testing.T) {
	now := time.Now()
	ticket := closedTicket(t, 5, "thread-5", now.Add(-time.Hour))
	tickets := &mockTicketRepository{
		GetLatestClosedByUserFunc: func(ctx context.Context, guildID, userID string) (*modmail.Ticket, error) {
			return ticket, nil
		},
	}
	transport := &mockTransport{
		SendDirectFunc: func(ctx context.Context, userID string, payload OutboundPayload) (string, error) {
			return "", assert.AnError
		},
	}

	uc := newReopenUseCase(tickets, &mockOpenGuardRepository{}, transport,
		newMockThreadIndex(), &stubOpener{}, 7*24*time.Hour, now)

	result, err := uc.Execute(context.Background(), ReopenThreadCommand{
		GuildID: "guild-1", UserID: "user-1", ReopenerID: "staff-1",
	})

	require.NoError(t, err)
	assert.True(t, result.Reopened)
}

func TestReopenThreadUseCase_Execute_FreshOpenCarriesAppCode(t *testing.T) {
	now := time.Now()
	appCode := "APP-123"
	closedAt := now.Add(-30 * 24 * time.Hour)
	base := closedTicket(t, 5, "thread-5", closedAt)
	old, err := modmail.ReconstructTicket(5, "guild-1", "user-1", &appCode, nil,
		base.ThreadRef(), base.Status(), base.CreatedAt(), base.UpdatedAt(), base.ClosedAt())
	require.NoError(t, err)

	tickets := &mockTicketRepository{
		GetLatestClosedByUserFunc: func(ctx context.Context, guildID, userID string) (*modmail.Ticket, error) {
			return old, nil
		},
	}
	opener := &stubOpener{}

	uc := newReopenUseCase(tickets, &mockOpenGuardRepository{}, &mockTransport{},
		newMockThreadIndex(), opener, 7*24*time.Hour, now)

	result, err := uc.Execute(context.Background(), ReopenThreadCommand{
		GuildID: "guild-1", UserID: "user-1", ReopenerID: "staff-1",
	})

	require.NoError(t, err)
	assert.True(t, result.NewTicket)
	require.Len(t, opener.calls, 1)
	require.NotNil(t, opener.calls[0].AppCode)
	assert.Equal(t, appCode, *opener.calls[0].AppCode)
}

func TestReopenThreadUseCase_Execute_RaceOnGuard(t *testing.T) {
	now := time.Now()
	ticket := closedTicket(t, 5, "thread-5", now.Add(-time.Hour))
	tickets := &mockTicketRepository{
		GetLatestClosedByUserFunc: func(ctx context.Context, guildID, userID string) (*modmail.Ticket, error) {
			return ticket, nil
		},
	}
	guards := &mockOpenGuardRepository{
		InsertFunc: func(ctx context.Context, g *modmail.OpenGuard) error {
			return modmail.ErrDuplicateOpenTicket
		},
	}

	uc := newReopenUseCase(tickets, guards, &mockTransport{}, newMockThreadIndex(),
		&stubOpener{}, 7*24*time.Hour, now)

	_, err := uc.Execute(context.Background(), ReopenThreadCommand{
		GuildID: "guild-1", UserID: "user-1", ReopenerID: "staff-1",
	})

	require.Error(t, err)
	assert.True(t, apperrors.IsAlreadyExistsError(err))
}

func TestReopenThreadUseCase_Execute_NoClosedTicket(t *testing.T) {
	uc := newReopenUseCase(&mockTicketRepository{}, &mockOpenGuardRepository{}, &mockTransport{},
		newMockThreadIndex(), &stubOpener{}, 7*24*time.Hour, time.Now())

	_, err := uc.Execute(context.Background(), ReopenThreadCommand{
		GuildID: "guild-1", UserID: "user-1", ReopenerID: "staff-1",
	})

	require.Error(t, err)
	assert.True(t, apperrors.IsNotFoundError(err))
}

func TestReopenThreadUseCase_Execute_PermissionDenied(t *testing.T) {
	settings := testSettings()
	settings.GraceWindow = 7 * 24 * time.Hour
	authz := &mockAuthorization{
		CanManageFunc:  func(ctx context.Context, actorID string) (bool, error) { return false, nil },
		IsReviewerFunc: func(ctx context.Context, actorID string) (bool, error) { return false, nil },
	}
	uc := NewReopenThreadUseCase(&mockTicketRepository{}, &mockOpenGuardRepository{}, &mockTransport{},
		authz, newMockThreadIndex(), &mockAuditSink{}, passthroughTxManager{}, &stubOpener{},
		settings, newTestLogger())

	_, err := uc.Execute(context.Background(), ReopenThreadCommand{
		GuildID: "guild-1", UserID: "user-1", ReopenerID: "rando",
	})

	require.Error(t, err)
	assert.True(t, apperrors.IsPermissionDeniedError(err))
}
