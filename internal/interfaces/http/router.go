package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"warden/internal/application/modmail/usecases"
	"warden/internal/infrastructure/config"
	eventhandlers "warden/internal/interfaces/http/handlers/events"
	modmailhandlers "warden/internal/interfaces/http/handlers/modmail"
	"warden/internal/interfaces/http/middleware"
	"warden/internal/interfaces/http/routes"
	"warden/internal/interfaces/http/validation"
	"warden/internal/shared/logger"
)

// Router wires the operational HTTP API: ticket queries, transcript
// retrieval, administrative closes and the event ingest seam the gateway
// sidecar posts messages to.
type Router struct {
	engine        *gin.Engine
	ticketHandler *modmailhandlers.TicketHandler
	eventHandler  *eventhandlers.Handler
	adminToken    *middleware.AdminTokenMiddleware
	logger        logger.Interface
}

func NewRouter(
	listTicketsUC usecases.ListTicketsExecutor,
	getTicketUC usecases.GetTicketExecutor,
	getTranscriptUC usecases.GetTranscriptExecutor,
	openThreadUC usecases.OpenThreadExecutor,
	closeThreadUC usecases.CloseThreadExecutor,
	reopenThreadUC usecases.ReopenThreadExecutor,
	dispatcher eventhandlers.Dispatcher,
	cfg *config.Config,
	log logger.Interface,
) *Router {
	engine := gin.New()

	return &Router{
		engine: engine,
		ticketHandler: modmailhandlers.NewTicketHandler(
			listTicketsUC,
			getTicketUC,
			getTranscriptUC,
			openThreadUC,
			closeThreadUC,
			reopenThreadUC,
			log,
		),
		eventHandler: eventhandlers.NewHandler(dispatcher, log),
		adminToken:   middleware.NewAdminTokenMiddleware(cfg.Server.AdminToken, log),
		logger:       log,
	}
}

// SetupRoutes configures all HTTP routes
func (r *Router) SetupRoutes() {
	validation.Register()

	r.engine.Use(middleware.RequestID())
	r.engine.Use(middleware.Logger(r.logger))
	r.engine.Use(middleware.Recovery())
	r.engine.Use(middleware.ErrorHandler())

	r.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	routes.SetupModmailRoutes(r.engine, &routes.ModmailRouteConfig{
		TicketHandler:  r.ticketHandler,
		AuthMiddleware: r.adminToken,
	})

	routes.SetupEventRoutes(r.engine, &routes.EventRouteConfig{
		EventHandler:   r.eventHandler,
		AuthMiddleware: r.adminToken,
	})
}

// GetEngine returns the underlying gin engine
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
