package modmail

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warden/internal/application/modmail/usecases"
	"warden/internal/interfaces/http/handlers/testutil"
	"warden/internal/shared/errors"
)

// =====================================================================
// Mock use cases
// =====================================================================

type mockListTicketsUC struct {
	result *usecases.ListTicketsResult
	err    error
}

func (m *mockListTicketsUC) Execute(_ context.Context, _ usecases.ListTicketsQuery) (*usecases.ListTicketsResult, error) {
	return m.result, m.err
}

type mockGetTicketUC struct {
	result *usecases.GetTicketResult
	err    error
}

func (m *mockGetTicketUC) Execute(_ context.Context, _ usecases.GetTicketQuery) (*usecases.GetTicketResult, error) {
	return m.result, m.err
}

type mockGetTranscriptUC struct {
	result *usecases.GetTranscriptResult
	err    error
}

func (m *mockGetTranscriptUC) Execute(_ context.Context, _ usecases.GetTranscriptQuery) (*usecases.GetTranscriptResult, error) {
	return m.result, m.err
}

type mockOpenThreadUC struct {
	result  *usecases.OpenThreadResult
	err     error
	lastCmd usecases.OpenThreadCommand
}

func (m *mockOpenThreadUC) Execute(_ context.Context, cmd usecases.OpenThreadCommand) (*usecases.OpenThreadResult, error) {
	m.lastCmd = cmd
	return m.result, m.err
}

type mockCloseThreadUC struct {
	result  *usecases.CloseThreadResult
	err     error
	lastCmd usecases.CloseThreadCommand
}

func (m *mockCloseThreadUC) Execute(_ context.Context, cmd usecases.CloseThreadCommand) (*usecases.CloseThreadResult, error) {
	m.lastCmd = cmd
	return m.result, m.err
}

type mockReopenThreadUC struct {
	result *usecases.ReopenThreadResult
	err    error
}

func (m *mockReopenThreadUC) Execute(_ context.Context, _ usecases.ReopenThreadCommand) (*usecases.ReopenThreadResult, error) {
	return m.result, m.err
}

// =====================================================================
// Test helper
// =====================================================================

type testDeps struct {
	listTicketsUC   usecases.ListTicketsExecutor
	getTicketUC     usecases.GetTicketExecutor
	getTranscriptUC usecases.GetTranscriptExecutor
	openThreadUC    usecases.OpenThreadExecutor
	closeThreadUC   usecases.CloseThreadExecutor
	reopenThreadUC  usecases.ReopenThreadExecutor
}

func newTestTicketHandler(deps testDeps) *TicketHandler {
	return NewTicketHandler(
		deps.listTicketsUC,
		deps.getTicketUC,
		deps.getTranscriptUC,
		deps.openThreadUC,
		deps.closeThreadUC,
		deps.reopenThreadUC,
		testutil.NewMockLogger(),
	)
}

// =====================================================================
// TestTicketHandler_OpenTicket
// =====================================================================

func TestTicketHandler_OpenTicket_Success(t *testing.T) {
	mockUC := &mockOpenThreadUC{
		result: &usecases.OpenThreadResult{
			TicketID:  1,
			ThreadRef: "555000111",
		},
	}
	handler := newTestTicketHandler(testDeps{openThreadUC: mockUC})

	reqBody := OpenTicketRequest{
		GuildID:  "100200300",
		UserID:   "400500600",
		OpenedBy: "staff-1",
	}
	c, w := testutil.NewTestContext(http.MethodPost, "/modmail/tickets/open", reqBody)

	handler.OpenTicket(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "400500600", mockUC.lastCmd.UserID)

	var resp testutil.APIResponse
	err := testutil.ParseResponse(w, &resp)
	require.NoError(t, err)
	assert.True(t, resp.Success)
}

func TestTicketHandler_OpenTicket_AlreadyExists(t *testing.T) {
	mockUC := &mockOpenThreadUC{
		result: &usecases.OpenThreadResult{
			TicketID:      7,
			ThreadRef:     "555000111",
			AlreadyExists: true,
		},
	}
	handler := newTestTicketHandler(testDeps{openThreadUC: mockUC})

	reqBody := OpenTicketRequest{
		GuildID:  "100200300",
		UserID:   "400500600",
		OpenedBy: "staff-1",
	}
	c, w := testutil.NewTestContext(http.MethodPost, "/modmail/tickets/open", reqBody)

	handler.OpenTicket(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp testutil.APIResponse
	err := testutil.ParseResponse(w, &resp)
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "Ticket already open", resp.Message)
}

func TestTicketHandler_OpenTicket_InProgress(t *testing.T) {
	mockUC := &mockOpenThreadUC{
		result: &usecases.OpenThreadResult{
			TicketID:   7,
			InProgress: true,
		},
	}
	handler := newTestTicketHandler(testDeps{openThreadUC: mockUC})

	reqBody := OpenTicketRequest{
		GuildID:  "100200300",
		UserID:   "400500600",
		OpenedBy: "staff-1",
	}
	c, w := testutil.NewTestContext(http.MethodPost, "/modmail/tickets/open", reqBody)

	handler.OpenTicket(c)

	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestTicketHandler_OpenTicket_BindError(t *testing.T) {
	handler := newTestTicketHandler(testDeps{})

	// user_id is not a snowflake
	reqBody := map[string]string{
		"guild_id":  "100200300",
		"user_id":   "not-a-snowflake",
		"opened_by": "staff-1",
	}
	c, w := testutil.NewTestContext(http.MethodPost, "/modmail/tickets/open", reqBody)

	handler.OpenTicket(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp testutil.APIResponse
	err := testutil.ParseResponse(w, &resp)
	require.NoError(t, err)
	assert.False(t, resp.Success)
}

func TestTicketHandler_OpenTicket_UseCaseError(t *testing.T) {
	mockUC := &mockOpenThreadUC{
		err: errors.NewPermissionDeniedError("opener lacks staff role"),
	}
	handler := newTestTicketHandler(testDeps{openThreadUC: mockUC})

	reqBody := OpenTicketRequest{
		GuildID:  "100200300",
		UserID:   "400500600",
		OpenedBy: "staff-1",
	}
	c, w := testutil.NewTestContext(http.MethodPost, "/modmail/tickets/open", reqBody)

	handler.OpenTicket(c)

	assert.Equal(t, http.StatusForbidden, w.Code)

	var resp testutil.APIResponse
	err := testutil.ParseResponse(w, &resp)
	require.NoError(t, err)
	assert.False(t, resp.Success)
}

// =====================================================================
// TestTicketHandler_ReopenTicket
// =====================================================================

func TestTicketHandler_ReopenTicket_Reopened(t *testing.T) {
	mockUC := &mockReopenThreadUC{
		result: &usecases.ReopenThreadResult{
			TicketID:  3,
			ThreadRef: "555000111",
			Reopened:  true,
		},
	}
	handler := newTestTicketHandler(testDeps{reopenThreadUC: mockUC})

	reqBody := ReopenTicketRequest{
		GuildID:    "100200300",
		UserID:     "400500600",
		ReopenedBy: "staff-1",
	}
	c, w := testutil.NewTestContext(http.MethodPost, "/modmail/tickets/reopen", reqBody)

	handler.ReopenTicket(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTicketHandler_ReopenTicket_GraceElapsed(t *testing.T) {
	mockUC := &mockReopenThreadUC{
		result: &usecases.ReopenThreadResult{
			TicketID:  4,
			ThreadRef: "777000222",
			NewTicket: true,
		},
	}
	handler := newTestTicketHandler(testDeps{reopenThreadUC: mockUC})

	reqBody := ReopenTicketRequest{
		GuildID:    "100200300",
		UserID:     "400500600",
		ReopenedBy: "staff-1",
	}
	c, w := testutil.NewTestContext(http.MethodPost, "/modmail/tickets/reopen", reqBody)

	handler.ReopenTicket(c)

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp testutil.APIResponse
	err := testutil.ParseResponse(w, &resp)
	require.NoError(t, err)
	assert.Equal(t, "Grace window elapsed, new ticket opened", resp.Message)
}

func TestTicketHandler_ReopenTicket_NotFound(t *testing.T) {
	mockUC := &mockReopenThreadUC{
		err: errors.NewNotFoundError("no closed ticket to reopen"),
	}
	handler := newTestTicketHandler(testDeps{reopenThreadUC: mockUC})

	reqBody := ReopenTicketRequest{
		GuildID:    "100200300",
		UserID:     "400500600",
		ReopenedBy: "staff-1",
	}
	c, w := testutil.NewTestContext(http.MethodPost, "/modmail/tickets/reopen", reqBody)

	handler.ReopenTicket(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// =====================================================================
// TestTicketHandler_CloseTicket
// =====================================================================

func TestTicketHandler_CloseTicket_Success(t *testing.T) {
	mockUC := &mockCloseThreadUC{
		result: &usecases.CloseThreadResult{TicketID: 5},
	}
	handler := newTestTicketHandler(testDeps{closeThreadUC: mockUC})

	reqBody := CloseTicketRequest{
		ClosedBy:   "staff-1",
		Reason:     "resolved",
		NotifyUser: true,
	}
	c, w := testutil.NewTestContext(http.MethodPost, "/modmail/tickets/5/close", reqBody)
	testutil.SetURLParam(c, "id", "5")

	handler.CloseTicket(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uint(5), mockUC.lastCmd.TicketID)
	assert.True(t, mockUC.lastCmd.NotifyUser)
}

func TestTicketHandler_CloseTicket_AlreadyClosed(t *testing.T) {
	mockUC := &mockCloseThreadUC{
		result: &usecases.CloseThreadResult{TicketID: 5, AlreadyClosed: true},
	}
	handler := newTestTicketHandler(testDeps{closeThreadUC: mockUC})

	reqBody := CloseTicketRequest{ClosedBy: "staff-1"}
	c, w := testutil.NewTestContext(http.MethodPost, "/modmail/tickets/5/close", reqBody)
	testutil.SetURLParam(c, "id", "5")

	handler.CloseTicket(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp testutil.APIResponse
	err := testutil.ParseResponse(w, &resp)
	require.NoError(t, err)
	assert.Equal(t, "Ticket was already closed", resp.Message)
}

func TestTicketHandler_CloseTicket_InvalidID(t *testing.T) {
	handler := newTestTicketHandler(testDeps{})

	reqBody := CloseTicketRequest{ClosedBy: "staff-1"}
	c, w := testutil.NewTestContext(http.MethodPost, "/modmail/tickets/abc/close", reqBody)
	testutil.SetURLParam(c, "id", "abc")

	handler.CloseTicket(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// =====================================================================
// TestTicketHandler_ListTickets
// =====================================================================

func TestTicketHandler_ListTickets_Success(t *testing.T) {
	now := time.Now().UTC().Format(time.RFC3339)
	mockUC := &mockListTicketsUC{
		result: &usecases.ListTicketsResult{
			Tickets: []usecases.TicketListItem{
				{
					ID:          1,
					GuildID:     "100200300",
					UserID:      "400500600",
					ThreadState: "active",
					ThreadRef:   "555000111",
					Status:      "open",
					CreatedAt:   now,
					UpdatedAt:   now,
				},
			},
			TotalCount: 1,
			Page:       1,
			PageSize:   20,
		},
	}
	handler := newTestTicketHandler(testDeps{listTicketsUC: mockUC})

	c, w := testutil.NewTestContext(http.MethodGet, "/modmail/tickets", nil)
	testutil.SetQueryParams(c, map[string]string{"guild_id": "100200300", "status": "open"})

	handler.ListTickets(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp testutil.APIResponse
	err := testutil.ParseResponse(w, &resp)
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Contains(t, string(resp.Data), `"total":1`)
}

func TestTicketHandler_ListTickets_UseCaseError(t *testing.T) {
	mockUC := &mockListTicketsUC{
		err: errors.NewValidationError("invalid status"),
	}
	handler := newTestTicketHandler(testDeps{listTicketsUC: mockUC})

	c, w := testutil.NewTestContext(http.MethodGet, "/modmail/tickets", nil)
	testutil.SetQueryParams(c, map[string]string{"status": "archived"})

	handler.ListTickets(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// =====================================================================
// TestTicketHandler_GetTicket
// =====================================================================

func TestTicketHandler_GetTicket_Success(t *testing.T) {
	now := time.Now().UTC().Format(time.RFC3339)
	mockUC := &mockGetTicketUC{
		result: &usecases.GetTicketResult{
			Ticket: usecases.TicketListItem{
				ID:          9,
				GuildID:     "100200300",
				UserID:      "400500600",
				ThreadState: "active",
				ThreadRef:   "555000111",
				Status:      "open",
				CreatedAt:   now,
				UpdatedAt:   now,
			},
		},
	}
	handler := newTestTicketHandler(testDeps{getTicketUC: mockUC})

	c, w := testutil.NewTestContext(http.MethodGet, "/modmail/tickets/9", nil)
	testutil.SetURLParam(c, "id", "9")

	handler.GetTicket(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp testutil.APIResponse
	err := testutil.ParseResponse(w, &resp)
	require.NoError(t, err)
	assert.Contains(t, string(resp.Data), `"id":9`)
}

func TestTicketHandler_GetTicket_NotFound(t *testing.T) {
	mockUC := &mockGetTicketUC{
		err: errors.NewNotFoundError("ticket not found"),
	}
	handler := newTestTicketHandler(testDeps{getTicketUC: mockUC})

	c, w := testutil.NewTestContext(http.MethodGet, "/modmail/tickets/404", nil)
	testutil.SetURLParam(c, "id", "404")

	handler.GetTicket(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTicketHandler_GetTicket_InvalidID(t *testing.T) {
	handler := newTestTicketHandler(testDeps{})

	c, w := testutil.NewTestContext(http.MethodGet, "/modmail/tickets/0", nil)
	testutil.SetURLParam(c, "id", "0")

	handler.GetTicket(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// =====================================================================
// TestTicketHandler_GetTranscript
// =====================================================================

func TestTicketHandler_GetTranscript_Success(t *testing.T) {
	mockUC := &mockGetTranscriptUC{
		result: &usecases.GetTranscriptResult{
			TicketID:    9,
			Content:     "# Modmail transcript",
			ContentHTML: "<h1>Modmail transcript</h1>",
			CreatedAt:   time.Now().UTC().Format(time.RFC3339),
		},
	}
	handler := newTestTicketHandler(testDeps{getTranscriptUC: mockUC})

	c, w := testutil.NewTestContext(http.MethodGet, "/modmail/tickets/9/transcript", nil)
	testutil.SetURLParam(c, "id", "9")

	handler.GetTranscript(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp testutil.APIResponse
	err := testutil.ParseResponse(w, &resp)
	require.NoError(t, err)
	assert.Contains(t, string(resp.Data), "Modmail transcript")
}

func TestTicketHandler_GetTranscript_NotFound(t *testing.T) {
	mockUC := &mockGetTranscriptUC{
		err: errors.NewNotFoundError("transcript not found"),
	}
	handler := newTestTicketHandler(testDeps{getTranscriptUC: mockUC})

	c, w := testutil.NewTestContext(http.MethodGet, "/modmail/tickets/404/transcript", nil)
	testutil.SetURLParam(c, "id", "404")

	handler.GetTranscript(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
