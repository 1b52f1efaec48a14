package routes

import (
	"github.com/gin-gonic/gin"

	eventhandlers "warden/internal/interfaces/http/handlers/events"
	"warden/internal/interfaces/http/middleware"
)

type EventRouteConfig struct {
	EventHandler   *eventhandlers.Handler
	AuthMiddleware *middleware.AdminTokenMiddleware
}

func SetupEventRoutes(engine *gin.Engine, config *EventRouteConfig) {
	events := engine.Group("/events")
	events.Use(config.AuthMiddleware.RequireAdminToken())
	{
		events.POST("/direct-message", config.EventHandler.DirectMessage)
		events.POST("/thread-message", config.EventHandler.ThreadMessage)
	}
}
