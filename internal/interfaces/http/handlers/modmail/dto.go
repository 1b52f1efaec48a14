package modmail

import (
	"github.com/gin-gonic/gin"

	"warden/internal/application/modmail/usecases"
	"warden/internal/shared/utils"
)

type OpenTicketRequest struct {
	GuildID          string  `json:"guild_id" binding:"required,snowflake"`
	UserID           string  `json:"user_id" binding:"required,snowflake"`
	OpenedBy         string  `json:"opened_by" binding:"required,max=64"`
	AppCode          *string `json:"app_code" binding:"omitempty,max=64"`
	ReviewMessageRef *string `json:"review_message_ref" binding:"omitempty,snowflake"`
}

func (r *OpenTicketRequest) ToCommand() usecases.OpenThreadCommand {
	return usecases.OpenThreadCommand{
		GuildID:          r.GuildID,
		UserID:           r.UserID,
		OpenerID:         r.OpenedBy,
		AppCode:          r.AppCode,
		ReviewMessageRef: r.ReviewMessageRef,
	}
}

type ReopenTicketRequest struct {
	GuildID    string `json:"guild_id" binding:"required,snowflake"`
	UserID     string `json:"user_id" binding:"required,snowflake"`
	ReopenedBy string `json:"reopened_by" binding:"required,max=64"`
}

type CloseTicketRequest struct {
	ClosedBy   string `json:"closed_by" binding:"required,max=64"`
	Reason     string `json:"reason" binding:"max=500"`
	NotifyUser bool   `json:"notify_user"`
}

type ListTicketsRequest struct {
	Page     int
	PageSize int
	GuildID  string
	UserID   string
	Status   *string
}

func (r *ListTicketsRequest) ToQuery() usecases.ListTicketsQuery {
	return usecases.ListTicketsQuery{
		GuildID:  r.GuildID,
		UserID:   r.UserID,
		Status:   r.Status,
		Page:     r.Page,
		PageSize: r.PageSize,
	}
}

func parseListTicketsRequest(c *gin.Context) *ListTicketsRequest {
	pagination := utils.ParsePagination(c)

	req := &ListTicketsRequest{
		Page:     pagination.Page,
		PageSize: pagination.PageSize,
		GuildID:  c.Query("guild_id"),
		UserID:   c.Query("user_id"),
	}

	if status := c.Query("status"); status != "" {
		req.Status = &status
	}

	return req
}
