package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warden/internal/domain/modmail"
)

func pendingTicket(t *testing.T, id uint, userID string) *modmail.Ticket {
	t.Helper()
	ticket, err := modmail.NewTicket("guild-1", userID, nil, nil)
	require.NoError(t, err)
	require.NoError(t, ticket.SetID(id))
	return ticket
}

func TestStalePendingJanitor_Execute(t *testing.T) {
	stale := []*modmail.Ticket{
		pendingTicket(t, 1, "user-1"),
		pendingTicket(t, 2, "user-2"),
	}

	var cutoffSeen time.Time
	var updated []uint
	tickets := &mockTicketRepository{
		ListStalePendingFunc: func(ctx context.Context, cutoff time.Time) ([]*modmail.Ticket, error) {
			cutoffSeen = cutoff
			return stale, nil
		},
		UpdateFunc: func(ctx context.Context, tk *modmail.Ticket) error {
			updated = append(updated, tk.ID())
			return nil
		},
	}
	var deletedUsers []string
	guards := &mockOpenGuardRepository{
		DeleteFunc: func(ctx context.Context, guildID, userID string) error {
			deletedUsers = append(deletedUsers, userID)
			return nil
		},
	}
	audit := &mockAuditSink{}

	now := time.Now()
	janitor := NewStalePendingJanitor(tickets, guards, passthroughTxManager{}, audit,
		10*time.Minute, newTestLogger())
	janitor.now = func() time.Time { return now }

	cleaned, err := janitor.Execute(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, cleaned)
	assert.Equal(t, now.Add(-10*time.Minute), cutoffSeen)
	assert.Equal(t, []uint{1, 2}, updated)
	assert.Equal(t, []string{"user-1", "user-2"}, deletedUsers)
	for _, tk := range stale {
		assert.True(t, tk.Status().IsFailed())
		assert.True(t, tk.ThreadRef().IsFailed())
	}
	assert.Len(t, audit.Events(), 2)
}

func TestStalePendingJanitor_Execute_ContinuesPastFailures(t *testing.T) {
	stale := []*modmail.Ticket{
		pendingTicket(t, 1, "user-1"),
		pendingTicket(t, 2, "user-2"),
	}

	tickets := &mockTicketRepository{
		ListStalePendingFunc: func(ctx context.Context, cutoff time.Time) ([]*modmail.Ticket, error) {
			return stale, nil
		},
		UpdateFunc: func(ctx context.Context, tk *modmail.Ticket) error {
			if tk.ID() == 1 {
				return assert.AnError
			}
			return nil
		},
	}

	janitor := NewStalePendingJanitor(tickets, &mockOpenGuardRepository{}, passthroughTxManager{},
		&mockAuditSink{}, 10*time.Minute, newTestLogger())

	cleaned, err := janitor.Execute(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, cleaned)
}

func TestStalePendingJanitor_Execute_NothingStale(t *testing.T) {
	janitor := NewStalePendingJanitor(&mockTicketRepository{}, &mockOpenGuardRepository{},
		passthroughTxManager{}, &mockAuditSink{}, 10*time.Minute, newTestLogger())

	cleaned, err := janitor.Execute(context.Background())

	require.NoError(t, err)
	assert.Zero(t, cleaned)
}
