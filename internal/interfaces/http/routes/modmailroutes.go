package routes

import (
	"github.com/gin-gonic/gin"

	modmailhandlers "warden/internal/interfaces/http/handlers/modmail"
	"warden/internal/interfaces/http/middleware"
)

type ModmailRouteConfig struct {
	TicketHandler  *modmailhandlers.TicketHandler
	AuthMiddleware *middleware.AdminTokenMiddleware
}

func SetupModmailRoutes(engine *gin.Engine, config *ModmailRouteConfig) {
	tickets := engine.Group("/modmail/tickets")
	tickets.Use(config.AuthMiddleware.RequireAdminToken())
	{
		tickets.GET("", config.TicketHandler.ListTickets)
		tickets.POST("/open", config.TicketHandler.OpenTicket)
		tickets.POST("/reopen", config.TicketHandler.ReopenTicket)

		// Specific action endpoints come before the parameterized get to
		// avoid route conflicts.
		tickets.POST("/:id/close", config.TicketHandler.CloseTicket)
		tickets.GET("/:id/transcript", config.TicketHandler.GetTranscript)

		tickets.GET("/:id", config.TicketHandler.GetTicket)
	}
}
