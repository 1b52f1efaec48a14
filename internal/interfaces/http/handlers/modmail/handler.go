package modmail

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"warden/internal/application/modmail/usecases"
	"warden/internal/shared/errors"
	"warden/internal/shared/logger"
	"warden/internal/shared/utils"
)

type TicketHandler struct {
	listTicketsUC   usecases.ListTicketsExecutor
	getTicketUC     usecases.GetTicketExecutor
	getTranscriptUC usecases.GetTranscriptExecutor
	openThreadUC    usecases.OpenThreadExecutor
	closeThreadUC   usecases.CloseThreadExecutor
	reopenThreadUC  usecases.ReopenThreadExecutor
	logger          logger.Interface
}

func NewTicketHandler(
	listTicketsUC usecases.ListTicketsExecutor,
	getTicketUC usecases.GetTicketExecutor,
	getTranscriptUC usecases.GetTranscriptExecutor,
	openThreadUC usecases.OpenThreadExecutor,
	closeThreadUC usecases.CloseThreadExecutor,
	reopenThreadUC usecases.ReopenThreadExecutor,
	log logger.Interface,
) *TicketHandler {
	return &TicketHandler{
		listTicketsUC:   listTicketsUC,
		getTicketUC:     getTicketUC,
		getTranscriptUC: getTranscriptUC,
		openThreadUC:    openThreadUC,
		closeThreadUC:   closeThreadUC,
		reopenThreadUC:  reopenThreadUC,
		logger:          log,
	}
}

// OpenTicket handles POST /modmail/tickets/open
func (h *TicketHandler) OpenTicket(c *gin.Context) {
	var req OpenTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for open ticket", "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.openThreadUC.Execute(c.Request.Context(), req.ToCommand())
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	switch {
	case result.AlreadyExists:
		utils.SuccessResponse(c, http.StatusOK, "Ticket already open", result)
	case result.InProgress:
		utils.SuccessResponse(c, http.StatusAccepted, "Ticket creation already in progress", result)
	default:
		utils.CreatedResponse(c, result, "Ticket opened successfully")
	}
}

// ReopenTicket handles POST /modmail/tickets/reopen
func (h *TicketHandler) ReopenTicket(c *gin.Context) {
	var req ReopenTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for reopen ticket", "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.reopenThreadUC.Execute(c.Request.Context(), usecases.ReopenThreadCommand{
		GuildID:    req.GuildID,
		UserID:     req.UserID,
		ReopenerID: req.ReopenedBy,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	if result.NewTicket {
		utils.CreatedResponse(c, result, "Grace window elapsed, new ticket opened")
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Ticket reopened successfully", result)
}

// ListTickets handles GET /modmail/tickets
func (h *TicketHandler) ListTickets(c *gin.Context) {
	req := parseListTicketsRequest(c)

	result, err := h.listTicketsUC.Execute(c.Request.Context(), req.ToQuery())
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.ListSuccessResponse(c, result.Tickets, result.TotalCount, req.Page, req.PageSize)
}

// GetTicket handles GET /modmail/tickets/:id
func (h *TicketHandler) GetTicket(c *gin.Context) {
	ticketID, err := parseTicketID(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.getTicketUC.Execute(c.Request.Context(), usecases.GetTicketQuery{
		TicketID: ticketID,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result.Ticket)
}

// GetTranscript handles GET /modmail/tickets/:id/transcript
func (h *TicketHandler) GetTranscript(c *gin.Context) {
	ticketID, err := parseTicketID(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.getTranscriptUC.Execute(c.Request.Context(), usecases.GetTranscriptQuery{
		TicketID: ticketID,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}

// CloseTicket handles POST /modmail/tickets/:id/close
func (h *TicketHandler) CloseTicket(c *gin.Context) {
	ticketID, err := parseTicketID(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	var req CloseTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for close ticket", "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.closeThreadUC.Execute(c.Request.Context(), usecases.CloseThreadCommand{
		TicketID:   ticketID,
		CloserID:   req.ClosedBy,
		Reason:     req.Reason,
		NotifyUser: req.NotifyUser,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	if result.AlreadyClosed {
		utils.SuccessResponse(c, http.StatusOK, "Ticket was already closed", result)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Ticket closed successfully", result)
}

func parseTicketID(c *gin.Context) (uint, error) {
	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || id == 0 {
		return 0, errors.NewValidationError("Invalid ticket ID")
	}
	return uint(id), nil
}
